package http

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	specOnce sync.Once
	spec     *openapi3.T
	specErr  error
)

// GetSwagger returns the parsed and validated API description.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			specErr = fmt.Errorf("error loading OpenAPI spec: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = fmt.Errorf("invalid OpenAPI spec: %w", err)
			return
		}
		spec = doc
	})
	return spec, specErr
}
