package access

import (
	"net/http"
	"user-service/internal/domain/user"
)

// Verdict is the outcome of evaluating a request against a Policy.
type Verdict int

const (
	Allow Verdict = iota
	DenyUnauthenticated
	DenyForbidden
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status a caller should answer with.
func (v Verdict) Status() int {
	switch v {
	case Allow:
		return http.StatusOK
	case DenyUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

// Identity is the authenticated principal. A nil *Identity means anonymous.
type Identity struct {
	Username string
	Role     user.Role
}

// RequirementKind enumerates what a matched rule demands of the caller.
type RequirementKind int

const (
	KindPublic RequirementKind = iota
	KindAuthenticated
	KindRole
)

// Requirement is a tagged value; Role is only meaningful for KindRole.
type Requirement struct {
	Kind RequirementKind
	Role user.Role
}

func Public() Requirement {
	return Requirement{Kind: KindPublic}
}

func Authenticated() Requirement {
	return Requirement{Kind: KindAuthenticated}
}

func RequiresRole(role user.Role) Requirement {
	return Requirement{Kind: KindRole, Role: role}
}

func (r Requirement) String() string {
	switch r.Kind {
	case KindPublic:
		return "public"
	case KindAuthenticated:
		return "authenticated"
	case KindRole:
		return "role:" + string(r.Role)
	default:
		return "unknown"
	}
}

// AnyMethod matches every HTTP method.
const AnyMethod = ""

// Rule binds a method and path pattern to a Requirement. Pattern segments are
// either literals or "{name}" placeholders matching exactly one non-empty
// segment.
type Rule struct {
	Method      string
	Pattern     string
	Requirement Requirement

	segments []segment
}

type segment struct {
	literal  string
	variable bool
}
