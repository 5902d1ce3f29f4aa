package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Role is the actor role of the person running the onboarding.
type Role string

const (
	// RolePlatformAdmin runs the full flow, including the organization profile.
	RolePlatformAdmin Role = "platform_admin"
	// RoleOrgAdmin already belongs to an organization and skips its profile.
	RoleOrgAdmin Role = "org_admin"
)

// Valid reports whether r is a supported role.
func (r Role) Valid() bool {
	return r == RolePlatformAdmin || r == RoleOrgAdmin
}

// SessionContext describes who is onboarding. It is built once by the host
// when a session starts and never changes afterwards.
type SessionContext struct {
	ActorRole       Role   `json:"actor_role" mapstructure:"role"`
	OrganizationID  string `json:"organization_id,omitempty" mapstructure:"organization_id"`
	UserID          string `json:"user_id,omitempty" mapstructure:"user_id"`
	IsAuthenticated bool   `json:"is_authenticated" mapstructure:"is_authenticated"`

	// AuthToken is the API identity used for side effects.
	AuthToken string `json:"auth_token,omitempty" mapstructure:"token"`
}

// SameActor reports whether other names the same role, organization and
// user. The credential is not compared: tokens rotate.
func (sc SessionContext) SameActor(other SessionContext) bool {
	return sc.ActorRole == other.ActorRole &&
		sc.OrganizationID == other.OrganizationID &&
		sc.UserID == other.UserID
}

// HasCredential reports whether side effects can be authorized.
func (sc SessionContext) HasCredential() bool {
	return sc.IsAuthenticated && sc.AuthToken != ""
}

// SessionFromClaims decodes a host session claims map (as produced by an
// identity provider or a request body) into a SessionContext.
func SessionFromClaims(claims map[string]any) (SessionContext, error) {
	var sc SessionContext
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &sc,
	})
	if err != nil {
		return SessionContext{}, fmt.Errorf("failed to build claims decoder: %w", err)
	}
	if err := decoder.Decode(claims); err != nil {
		return SessionContext{}, fmt.Errorf("invalid session claims: %w", err)
	}
	if !sc.ActorRole.Valid() {
		return SessionContext{}, fmt.Errorf("invalid session claims: unsupported role %q", sc.ActorRole)
	}
	return sc, nil
}
