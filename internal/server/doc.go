// Package server provides the short-lived local listener that completes an OAuth authorization code handshake.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// [CallbackRouter] matches paths exactly, so stray browser requests such as /favicon.ico get a 404
// even when the redirect path is "/". Middleware also sees those unmatched requests.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the redirect URI's path. It validates the state parameter (CSRF protection),
// exchanges the authorization code for a token, and sends the result through a channel.
//
// Only the first valid callback is processed. Requests with a foreign state are rejected without being consumed.
//
// # Flow
//
// [Flow] binds the redirect URI's host and port, opens the provider's consent page, and waits for the handler's
// result, a timeout, or context cancellation. The listener is shut down before Authorize returns.
// Tokens are handed back to the caller and never persisted.
package server
