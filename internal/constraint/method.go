package constraint

import (
	"net/http"
	"sort"
	"strings"
)

// HTTPMethodStage is the default stage of HTTPMethod constraints.
const HTTPMethodStage = 100

const (
	headerOrigin                     = "Origin"
	headerAccessControlRequestMethod = "Access-Control-Request-Method"
)

// HTTPMethod accepts requests whose method is in an allowed set.
type HTTPMethod struct {
	methods   map[string]bool
	stage     int
	preflight bool
}

// MethodOption configures an HTTPMethod constraint.
type MethodOption func(*HTTPMethod)

// WithMethodStage overrides the default stage.
func WithMethodStage(stage int) MethodOption {
	return func(m *HTTPMethod) {
		m.stage = stage
	}
}

// WithPreflight makes CORS preflight requests match on the requested method.
func WithPreflight() MethodOption {
	return func(m *HTTPMethod) {
		m.preflight = true
	}
}

// NewHTTPMethod creates a method constraint. "*" allows every method.
func NewHTTPMethod(methods []string, opts ...MethodOption) *HTTPMethod {
	m := &HTTPMethod{
		methods: make(map[string]bool, len(methods)),
		stage:   HTTPMethodStage,
	}
	for _, method := range methods {
		m.methods[strings.ToUpper(method)] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Accept implements Constraint.
func (m *HTTPMethod) Accept(ctx *Context) bool {
	if ctx == nil || ctx.Request == nil {
		return false
	}
	return m.Match(requestMethod(ctx.Request, m.preflight))
}

// Match checks a method name against the allowed set.
func (m *HTTPMethod) Match(method string) bool {
	method = strings.ToUpper(method)

	if m.methods["*"] {
		return true
	}

	// HEAD is served by GET handlers.
	if method == http.MethodHead && m.methods[http.MethodGet] {
		return true
	}

	return m.methods[method]
}

// Stage implements Staged.
func (m *HTTPMethod) Stage() int {
	return m.stage
}

// Methods returns the allowed methods, sorted.
func (m *HTTPMethod) Methods() []string {
	out := make([]string, 0, len(m.methods))
	for method := range m.methods {
		out = append(out, method)
	}
	sort.Strings(out)
	return out
}

func requestMethod(r *http.Request, preflight bool) string {
	if preflight && r.Method == http.MethodOptions && r.Header.Get(headerOrigin) != "" {
		if requested := r.Header.Get(headerAccessControlRequestMethod); requested != "" {
			return requested
		}
	}
	return r.Method
}
