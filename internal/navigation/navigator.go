package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stockadmin/console/internal/guards"
	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
)

const defaultMaxHops = 8

var (
	// ErrNotFound is returned for paths matching no route when the table has no fallback
	ErrNotFound = errors.New("no route matches path")
	// ErrTooManyRedirects is returned when following redirects does not settle within the hop limit
	ErrTooManyRedirects = errors.New("too many redirects")
)

// SessionSource provides the session guards are evaluated against
type SessionSource interface {
	Snapshot() models.Session
}

// Step records one evaluated hop of a navigation
type Step struct {
	Path     string
	Decision guards.Decision
}

// Result is the outcome of a navigation
type Result struct {
	// Path is the path finally admitted
	Path   string
	View   string
	Params map[string]string
	Steps  []Step
	// ReturnURL is the originally requested path when the navigation was sent to login
	ReturnURL string
}

// Redirected reports whether the admitted path differs from the requested one
func (r Result) Redirected() bool {
	return len(r.Steps) > 1
}

// Navigator resolves paths against the route table and evaluates their guards
type Navigator struct {
	mux       *chi.Mux
	routes    map[string]Route
	redirects map[string]string
	fallback  string
	login     string
	dashboard string
	sessions  SessionSource
	maxHops   int
	logger    *zap.Logger
}

// NewNavigator builds a navigator over table. paths names the login and dashboard targets used after login.
func NewNavigator(table Table, paths guards.Paths, sessions SessionSource, logger *zap.Logger) (n *Navigator, err error) {
	n = &Navigator{
		mux:       chi.NewRouter(),
		routes:    make(map[string]Route, len(table.Routes)),
		redirects: make(map[string]string, len(table.Redirects)),
		fallback:  table.Fallback,
		login:     paths.Login,
		dashboard: paths.Dashboard,
		sessions:  sessions,
		maxHops:   defaultMaxHops,
		logger:    logger,
	}

	// chi panics on malformed patterns
	defer func() {
		if r := recover(); r != nil {
			n, err = nil, fmt.Errorf("invalid route table: %v", r)
		}
	}()

	noop := func(http.ResponseWriter, *http.Request) {}
	for _, route := range table.Routes {
		if !strings.HasPrefix(route.Pattern, "/") {
			return nil, fmt.Errorf("invalid route pattern %q: must start with /", route.Pattern)
		}
		if _, exists := n.routes[route.Pattern]; exists {
			return nil, fmt.Errorf("duplicate route pattern %q", route.Pattern)
		}
		if route.View == "" {
			return nil, fmt.Errorf("route %q has no view", route.Pattern)
		}
		n.routes[route.Pattern] = route
		n.mux.Get(route.Pattern, noop)
	}
	for from, to := range table.Redirects {
		n.redirects[cleanPath(from)] = to
	}

	return n, nil
}

// Navigate resolves path, following redirect and deny targets until a route admits the navigation
func (n *Navigator) Navigate(path string) (Result, error) {
	result := Result{}
	current := path

	for hop := 0; hop <= n.maxHops; hop++ {
		p := cleanPath(current)

		if target, ok := n.redirects[p]; ok {
			result.Steps = append(result.Steps, Step{Path: current, Decision: guards.Decision{Kind: guards.Redirect, Target: target}})
			current = target
			continue
		}

		route, params, ok := n.match(p)
		if !ok {
			if n.fallback == "" {
				return result, fmt.Errorf("%w: %s", ErrNotFound, p)
			}
			result.Steps = append(result.Steps, Step{Path: current, Decision: guards.Decision{Kind: guards.Redirect, Target: n.fallback}})
			current = n.fallback
			continue
		}

		decision := n.evaluate(route, current)
		result.Steps = append(result.Steps, Step{Path: current, Decision: decision})
		if decision.Allowed() {
			result.Path = p
			result.View = route.View
			result.Params = params
			return result, nil
		}

		if result.ReturnURL == "" {
			result.ReturnURL = decision.ReturnURL
		}
		n.logger.Debug("navigation not admitted",
			zap.String("path", current),
			zap.String("decision", decision.Kind.String()),
			zap.String("target", decision.Target),
		)
		current = decision.Target
	}

	return result, fmt.Errorf("%w: %s", ErrTooManyRedirects, path)
}

// AfterLogin navigates to returnURL once the user has logged in.
// Targets that are empty, external or the login page itself fall back to the dashboard.
func (n *Navigator) AfterLogin(returnURL string) (Result, error) {
	target := n.dashboard
	if safeReturnURL(returnURL) && cleanPath(returnURL) != cleanPath(n.login) {
		target = returnURL
	}
	return n.Navigate(target)
}

func (n *Navigator) evaluate(route Route, path string) guards.Decision {
	session := n.sessions.Snapshot()
	for _, guard := range route.Guards {
		if d := guard(session, path); !d.Allowed() {
			return d
		}
	}
	return guards.Decision{Kind: guards.Allow}
}

func (n *Navigator) match(path string) (Route, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !n.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, nil, false
	}

	route, ok := n.routes[rctx.RoutePattern()]
	if !ok {
		return Route{}, nil, false
	}

	var params map[string]string
	if len(rctx.URLParams.Keys) > 0 {
		params = make(map[string]string, len(rctx.URLParams.Keys))
		for i, key := range rctx.URLParams.Keys {
			params[key] = rctx.URLParams.Values[i]
		}
	}
	return route, params, true
}

// cleanPath drops query and fragment and the trailing slash
func cleanPath(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// safeReturnURL accepts only local absolute paths
func safeReturnURL(raw string) bool {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "" && u.Host == ""
}
