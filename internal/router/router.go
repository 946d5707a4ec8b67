package router

import (
	"strings"

	"github.com/dispatchengine/engine/internal/domain"
)

// Router holds every registered Route in insertion order; that order
// defines resolution order for both Find and MethodsOf.
type Router struct {
	routes []*Route
}

func New() *Router { return &Router{} }

// Add appends route and returns the Router to allow chaining.
func (rt *Router) Add(route *Route) *Router {
	rt.routes = append(rt.routes, route)
	return rt
}

// Find returns the first route, in insertion order, whose template
// matches path and whose verb set contains verb.
func (rt *Router) Find(verb, path string) (map[string]string, *Route, error) {
	verb = strings.ToUpper(verb)
	for _, route := range rt.routes {
		matched, bindings := route.Match(path)
		if matched && route.hasVerb(verb) {
			return bindings, route, nil
		}
	}
	return nil, nil, domain.ErrNotFound
}

// MethodsOf returns the verb list of the first route whose template
// matches path, ignoring verb entirely. It is used to populate
// Access-Control-Allow-Methods for a CORS preflight; an empty slice
// means no route matched the path at all.
func (rt *Router) MethodsOf(path string) []string {
	for _, route := range rt.routes {
		if matched, _ := route.Match(path); matched {
			return route.Verbs()
		}
	}
	return nil
}
