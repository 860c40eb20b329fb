package server

import (
	"net/http"
)

var _ Router = (*CallbackRouter)(nil)

type route struct {
	method  string
	handler http.Handler
}

// CallbackRouter dispatches the handshake listener's requests by exact path.
//
// Browsers also request paths such as /favicon.ico while the consent redirect lands. Those get a plain 404
// and never reach the callback handler, even when the redirect URI's path is "/".
type CallbackRouter struct {
	routes      map[string]route
	middlewares []Middleware
}

func NewCallbackRouter() *CallbackRouter {
	return &CallbackRouter{routes: make(map[string]route)}
}

// Use adds [Middleware] applied to every request, including unmatched ones, in the order it's added.
func (r *CallbackRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method on exactly path. A later registration for the same path replaces it.
func (r *CallbackRouter) Handle(method, path string, handler http.Handler) {
	r.routes[path] = route{method: method, handler: handler}
}

// Handler registers h for GET requests on each of its routes.
func (r *CallbackRouter) Handler(h Handler) {
	for _, path := range h.Routes() {
		r.Handle(http.MethodGet, path, h)
	}
}

func (r *CallbackRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Apply(http.HandlerFunc(r.dispatch)).ServeHTTP(w, req)
}

func (r *CallbackRouter) dispatch(w http.ResponseWriter, req *http.Request) {
	rt, ok := r.routes[req.URL.Path]
	switch {
	case !ok:
		http.NotFound(w, req)
	case req.Method != rt.method:
		w.Header().Set("Allow", rt.method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		rt.handler.ServeHTTP(w, req)
	}
}

// Apply wraps a handler with all registered middleware, the first added being outermost.
func (r *CallbackRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
