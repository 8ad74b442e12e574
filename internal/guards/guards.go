// Package guards provides navigation admission checks.
//
// A guard is a pure function of the current session and the requested path.
// It never mutates the session and never fails: missing state always maps to
// a redirect or deny decision.
package guards

import "github.com/stockadmin/console/internal/models"

// DecisionKind is the outcome of a guard
type DecisionKind int

// DecisionKind constants
const (
	Allow DecisionKind = iota
	Redirect
	Deny
)

// String returns the name of the decision kind
func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	}
	return "unknown"
}

// Decision is the result of evaluating a guard.
// Target is set for Redirect and Deny. ReturnURL carries the originally
// requested path when the user is sent to the login page.
type Decision struct {
	Kind      DecisionKind
	Target    string
	ReturnURL string
}

// Allowed reports whether navigation may proceed
func (d Decision) Allowed() bool {
	return d.Kind == Allow
}

// Guard decides whether navigation to path is permitted for the session
type Guard func(s models.Session, path string) Decision

// Paths holds the navigation targets used by guards
type Paths struct {
	Login        string
	Dashboard    string
	Unauthorized string
}

// DefaultPaths are the console's well-known routes
var DefaultPaths = Paths{
	Login:        "/login",
	Dashboard:    "/dashboard",
	Unauthorized: "/unauthorized",
}

// Set builds guards bound to a set of paths
type Set struct {
	paths Paths
}

// NewSet creates a guard set. Empty paths fall back to DefaultPaths.
func NewSet(paths Paths) *Set {
	if paths.Login == "" {
		paths.Login = DefaultPaths.Login
	}
	if paths.Dashboard == "" {
		paths.Dashboard = DefaultPaths.Dashboard
	}
	if paths.Unauthorized == "" {
		paths.Unauthorized = DefaultPaths.Unauthorized
	}
	return &Set{paths: paths}
}

// Paths returns the targets used by the set
func (gs *Set) Paths() Paths {
	return gs.paths
}

// Auth admits authenticated users and sends everybody else to login
func (gs *Set) Auth() Guard {
	return func(s models.Session, path string) Decision {
		if s.Authenticated() {
			return Decision{Kind: Allow}
		}
		return gs.toLogin(path)
	}
}

// NoAuth admits only anonymous users, e.g. for the login page
func (gs *Set) NoAuth() Guard {
	return func(s models.Session, path string) Decision {
		if !s.Authenticated() {
			return Decision{Kind: Allow}
		}
		return Decision{Kind: Redirect, Target: gs.paths.Dashboard}
	}
}

// Role admits authenticated users whose role is one of allowed
func (gs *Set) Role(allowed ...models.Role) Guard {
	roles := append([]models.Role(nil), allowed...)
	return func(s models.Session, path string) Decision {
		if !s.Authenticated() {
			return gs.toLogin(path)
		}
		if s.Role.In(roles) {
			return Decision{Kind: Allow}
		}
		return Decision{Kind: Deny, Target: gs.paths.Unauthorized}
	}
}

// Admin admits administrators only
func (gs *Set) Admin() Guard {
	return gs.Role(models.RoleAdmin)
}

// Manager admits managers and administrators
func (gs *Set) Manager() Guard {
	return gs.Role(models.RoleAdmin, models.RoleManager)
}

func (gs *Set) toLogin(path string) Decision {
	d := Decision{Kind: Redirect, Target: gs.paths.Login}
	if path != gs.paths.Login {
		d.ReturnURL = path
	}
	return d
}
