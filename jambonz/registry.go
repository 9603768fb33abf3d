package jambonz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateRoute is returned when a path is registered twice.
	ErrDuplicateRoute = errors.New("duplicate route path")

	// ErrRegistryFrozen is returned when registering after the server started.
	ErrRegistryFrozen = errors.New("route registry is frozen")

	// ErrInvalidRoute is returned for routes with a bad path, flavor or handler.
	ErrInvalidRoute = errors.New("invalid route")
)

// Route binds a path to a flavor and the handler serving it.
type Route[S any] struct {
	Path    string
	Flavor  RouteFlavor
	Handler Handler[S]
}

// Registry is the ordered set of routes a server serves, keyed by path.
// Routes are registered before serving starts; after Freeze the registry is
// only read and may be shared by all connections without locking.
type Registry[S any] struct {
	routes []*Route[S]
	byPath map[string]*Route[S]
	frozen bool
}

func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{byPath: make(map[string]*Route[S])}
}

// Register adds a route. Paths must start with "/" and be unique.
func (r *Registry[S]) Register(path string, flavor RouteFlavor, handler Handler[S]) (*Route[S], error) {
	if r.frozen {
		return nil, ErrRegistryFrozen
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, path)
	}
	if !flavor.Valid() {
		return nil, fmt.Errorf("%w: %v on %s", ErrInvalidRoute, flavor, path)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: no handler for %s", ErrInvalidRoute, path)
	}
	if existing, ok := r.byPath[path]; ok {
		return nil, fmt.Errorf("%w: %s already registered as %v", ErrDuplicateRoute, path, existing.Flavor)
	}
	route := &Route[S]{Path: path, Flavor: flavor, Handler: handler}
	r.routes = append(r.routes, route)
	r.byPath[path] = route
	return route, nil
}

// Freeze makes the registry read-only.
func (r *Registry[S]) Freeze() {
	r.frozen = true
}

// Lookup returns the route registered for path.
func (r *Registry[S]) Lookup(path string) (*Route[S], bool) {
	route, ok := r.byPath[path]
	return route, ok
}

// Routes returns the routes in registration order.
func (r *Registry[S]) Routes() []*Route[S] {
	return append([]*Route[S](nil), r.routes...)
}
