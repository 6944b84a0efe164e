// package server contains the routing, middleware and handlers of the gateway
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes request ids, logging, panic recovery and tracing.
type Middleware func(http.Handler) http.Handler

// Route binds a method and chi path pattern to a handler.
//
// A nil Handler means the owning [Handler] itself serves the route.
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}

// Handler defines the interface for HTTP request handlers in the gateway.
// Implementations handle a group of endpoints (oauth, proxy, health, metrics).
type Handler interface {
	http.Handler     // ServeHTTP handles the HTTP request and writes the response
	Routes() []Route // Routes returns the routes this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
