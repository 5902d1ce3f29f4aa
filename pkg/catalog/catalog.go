// Package catalog holds the ordered set of onboarding stages and answers
// which of them apply to a given session.
package catalog

import (
	"fmt"
	"slices"

	"github.com/aretw0/onboard/pkg/domain"
)

// Catalog is an immutable, ordered collection of stage definitions.
type Catalog struct {
	stages []domain.Stage
}

// New validates the given stages and builds a catalog from them.
// Stage IDs must be unique and Order strictly increasing.
func New(stages ...domain.Stage) (*Catalog, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("catalog: no stages defined")
	}
	seen := make(map[domain.StageID]bool, len(stages))
	for i, s := range stages {
		if s.ID == "" {
			return nil, fmt.Errorf("catalog: stage at index %d has no id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("catalog: duplicate stage %q", s.ID)
		}
		seen[s.ID] = true
		if i > 0 && s.Order <= stages[i-1].Order {
			return nil, fmt.Errorf("catalog: stage %q order %d is not greater than %q order %d",
				s.ID, s.Order, stages[i-1].ID, stages[i-1].Order)
		}
	}
	return &Catalog{stages: slices.Clone(stages)}, nil
}

// All returns every stage definition in catalog order.
func (c *Catalog) All() []domain.Stage {
	return slices.Clone(c.stages)
}

// Has reports whether id is part of the catalog.
func (c *Catalog) Has(id domain.StageID) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Lookup returns the definition of a stage.
func (c *Catalog) Lookup(id domain.StageID) (domain.Stage, bool) {
	for _, s := range c.stages {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Stage{}, false
}

// Applicable returns the stages whose predicate holds for sc, sorted by Order.
func (c *Catalog) Applicable(sc domain.SessionContext) []domain.Stage {
	out := make([]domain.Stage, 0, len(c.stages))
	for _, s := range c.stages {
		if s.IsApplicable(sc) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Stage) int { return a.Order - b.Order })
	return out
}

// IsApplicable reports whether id is part of the flow for sc.
func (c *Catalog) IsApplicable(sc domain.SessionContext, id domain.StageID) bool {
	return c.IndexOf(sc, id) >= 0
}

// IndexOf returns the position of id among the applicable stages, or -1.
func (c *Catalog) IndexOf(sc domain.SessionContext, id domain.StageID) int {
	return slices.IndexFunc(c.Applicable(sc), func(s domain.Stage) bool { return s.ID == id })
}

// First returns the entry stage for sc.
func (c *Catalog) First(sc domain.SessionContext) (domain.Stage, bool) {
	stages := c.Applicable(sc)
	if len(stages) == 0 {
		return domain.Stage{}, false
	}
	return stages[0], true
}

// Next returns the applicable stage following id. The last stage has no successor.
func (c *Catalog) Next(sc domain.SessionContext, id domain.StageID) (domain.Stage, bool) {
	stages := c.Applicable(sc)
	i := slices.IndexFunc(stages, func(s domain.Stage) bool { return s.ID == id })
	if i < 0 || i+1 >= len(stages) {
		return domain.Stage{}, false
	}
	return stages[i+1], true
}

// Progress returns the completion fraction of id within the applicable flow,
// from 0 at the first stage to 1 at the last.
func (c *Catalog) Progress(sc domain.SessionContext, id domain.StageID) float64 {
	stages := c.Applicable(sc)
	i := slices.IndexFunc(stages, func(s domain.Stage) bool { return s.ID == id })
	switch {
	case i < 0:
		return 0
	case len(stages) == 1:
		return 1
	}
	return float64(i) / float64(len(stages)-1)
}
