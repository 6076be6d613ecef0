package access

import (
	"net/http"
	"user-service/internal/domain/user"
)

const (
	PathRegister   = "/api/users/register"
	PathMe         = "/api/users/me"
	PathUpdateByID = "/api/users/updateUser/{id}"
	PathUsers      = "/api/users"
	PathUserByID   = "/api/users/{id}"
)

// DefaultRules is the user-service rule table in evaluation order. The more
// specific "/api/users/me" rule must stay ahead of any "/api/users/{id}" rule.
func DefaultRules() []Rule {
	return []Rule{
		{Method: AnyMethod, Pattern: PathRegister, Requirement: Public()},
		{Method: http.MethodPut, Pattern: PathMe, Requirement: Authenticated()},
		{Method: http.MethodPut, Pattern: PathUpdateByID, Requirement: RequiresRole(user.RoleAdmin)},
		{Method: http.MethodGet, Pattern: PathUsers, Requirement: RequiresRole(user.RoleAdmin)},
		{Method: http.MethodDelete, Pattern: PathUserByID, Requirement: RequiresRole(user.RoleAdmin)},
	}
}

// Default returns the compiled user-service policy.
func Default() *Policy {
	return MustPolicy(DefaultRules()...)
}
