package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter is the [Router] implementation backed by a [chi.Mux].
type ChiRouter struct {
	mux *chi.Mux
}

// NewChiRouter creates a new [ChiRouter] instance.
func NewChiRouter() *ChiRouter {
	return &ChiRouter{mux: chi.NewRouter()}
}

// Use adds [Middleware] to the router's stack, applied in the order it's added.
//
// chi requires every middleware to be registered before the first route.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// Handler lets a [Handler] register all of its routes.
func (r *ChiRouter) Handler(handler Handler) {
	handler.Routes(r.mux)
}

// Mount attaches a sub-router below pattern, e.g. the authenticated API below "/api".
func (r *ChiRouter) Mount(pattern string, handler http.Handler) {
	r.mux.Mount(pattern, handler)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
