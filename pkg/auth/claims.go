package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims accepted by the claim risk service. The
// principal is carried in the registered subject.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole checks if the claims include at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// Role constants
const (
	RoleAdmin     = "admin"
	RoleAdjuster  = "claims_adjuster"
	RoleAuditor   = "auditor"
	RoleAPIClient = "api_client"
)

// ScoringRoles may submit claims for scoring.
var ScoringRoles = []string{RoleAdmin, RoleAdjuster, RoleAPIClient}

// ReadingRoles may read recorded assessments.
var ReadingRoles = []string{RoleAdmin, RoleAdjuster, RoleAPIClient, RoleAuditor}
