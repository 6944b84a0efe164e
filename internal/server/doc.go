// Package server implements the gateway: the OAuth authorization-code exchange and the Clover API proxy.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] implements it on chi so
// proxied routes can carry path parameters.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// # OAuth Exchange
//
// [OAuthHandler] serves two routes: a start route that redirects to the vendor authorization page and one
// canonical callback route. The callback reports vendor errors and missing codes without contacting the token
// endpoint; otherwise [Exchanger] performs a single, time-bounded code exchange. The merchant id is taken from the
// callback query, then the token response, and is otherwise left for the client to resolve.
//
// [LoopbackHandler] is the CLI variant: a one-shot callback on a temporary local server that sends its result
// through a channel.
//
// # Proxy Gateway
//
// [ProxyHandler] forwards requests under the mount prefix to the vendor API. Each request moves through
// received, auth-checked and forwarded states and ends in exactly one [Outcome], reported in the
// X-Butter-Outcome header:
//
//   - unauthorized: no bearer token, no upstream call (401)
//   - succeeded: upstream 2xx, optionally wrapped in an [Envelope]
//   - upstream_error: other upstream non-2xx, status and body relayed
//   - token_expired: upstream 401 (401)
//   - timeout: the upstream exceeded the proxy timeout (504)
//   - transport_error: the upstream could not be reached (502)
//
// Nothing is retried. Tokens are request-scoped and only ever logged masked.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
