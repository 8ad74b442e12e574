// Package navigation maps console paths to views and admits navigation through route guards
package navigation

import "github.com/stockadmin/console/internal/guards"

// Route binds a path pattern to a view. Guards run in order; the first one that does not allow wins.
type Route struct {
	Pattern string
	View    string
	Guards  []guards.Guard
}

// Table is the route lookup table of the console
type Table struct {
	Routes []Route
	// Redirects maps exact paths to their targets
	Redirects map[string]string
	// Fallback is the target of paths matching no route. Empty means unknown paths are an error.
	Fallback string
}

// DefaultTable returns the inventory console routes guarded by gs
func DefaultTable(gs *guards.Set) Table {
	paths := gs.Paths()
	auth := []guards.Guard{gs.Auth()}
	manager := []guards.Guard{gs.Manager()}
	admin := []guards.Guard{gs.Admin()}

	return Table{
		Routes: []Route{
			{Pattern: paths.Login, View: "login", Guards: []guards.Guard{gs.NoAuth()}},
			{Pattern: paths.Dashboard, View: "dashboard", Guards: auth},
			{Pattern: paths.Unauthorized, View: "unauthorized", Guards: auth},
			{Pattern: "/profile", View: "profile", Guards: auth},

			{Pattern: "/products", View: "product-list", Guards: auth},
			{Pattern: "/products/new", View: "product-form", Guards: manager},
			{Pattern: "/products/{id}", View: "product-detail", Guards: auth},
			{Pattern: "/products/{id}/edit", View: "product-form", Guards: manager},

			{Pattern: "/categories", View: "category-list", Guards: auth},
			{Pattern: "/categories/new", View: "category-form", Guards: manager},

			{Pattern: "/movements", View: "movement-list", Guards: auth},
			{Pattern: "/movements/new", View: "movement-form", Guards: manager},

			{Pattern: "/users", View: "user-list", Guards: admin},
			{Pattern: "/users/{id}", View: "user-detail", Guards: admin},
			{Pattern: "/roles", View: "role-list", Guards: admin},
		},
		Redirects: map[string]string{
			"/": paths.Dashboard,
		},
		Fallback: paths.Dashboard,
	}
}
