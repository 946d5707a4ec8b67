// Package router implements path-template compilation and the
// first-match-wins route table the Kernel consults on every request.
package router

import (
	"regexp"
	"strings"

	"github.com/dispatchengine/engine/internal/domain"
)

// Controller is anything a Route can dispatch to. It is defined here,
// rather than imported from internal/controller, to keep router free
// of a dependency on the concrete controller implementations.
type Controller interface {
	Authenticated() bool
	Validated() bool
	Rules() map[string]string
}

// Route compiles a path template such as "/api/queues/{queue_name}"
// into an anchored regular expression the first time it is
// constructed; matching never recompiles.
type Route struct {
	signature  string
	expression *regexp.Regexp
	controller Controller
	verbs      []string
	parameters []string
}

// New compiles signature. A duplicated parameter name is returned to
// the caller as a *domain.ParseError; New never panics.
func New(verbs []string, signature string, controller Controller) (*Route, error) {
	r := &Route{signature: signature, controller: controller, verbs: verbs}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

var paramToken = regexp.MustCompile(`\{([^{}]*)\}`)

func (r *Route) compile() error {
	seen := make(map[string]bool)
	var out strings.Builder
	out.WriteByte('^')

	last := 0
	for _, loc := range paramToken.FindAllStringSubmatchIndex(r.signature, -1) {
		start, end := loc[0], loc[1]
		name := r.signature[loc[2]:loc[3]]

		if seen[name] {
			return domain.NewParseError("Route parameters is duplicated.")
		}
		seen[name] = true

		out.WriteString(regexp.QuoteMeta(r.signature[last:start]))
		out.WriteString(`([a-zA-Z0-9\-_]+)`)
		r.parameters = append(r.parameters, name)

		last = end
	}
	out.WriteString(regexp.QuoteMeta(r.signature[last:]))
	out.WriteByte('$')

	expr, err := regexp.Compile(out.String())
	if err != nil {
		return domain.NewParseError("invalid route signature: " + err.Error())
	}
	r.expression = expr
	return nil
}

func (r *Route) Controller() Controller { return r.controller }

func (r *Route) Verbs() []string { return r.verbs }

func (r *Route) Parameters() []string { return r.parameters }

// Match reports whether input satisfies the compiled expression and,
// if so, the named-parameter bindings in declared order.
func (r *Route) Match(input string) (bool, map[string]string) {
	groups := r.expression.FindStringSubmatch(input)
	if groups == nil {
		return false, map[string]string{}
	}
	bindings := make(map[string]string, len(r.parameters))
	for i, name := range r.parameters {
		bindings[name] = groups[i+1]
	}
	return true, bindings
}

func (r *Route) hasVerb(verb string) bool {
	for _, v := range r.verbs {
		if v == verb {
			return true
		}
	}
	return false
}
