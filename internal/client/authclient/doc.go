// Package authclient is the client side of the dual-token session.
//
// # Overview
//
// Client wraps an *http.Client whose cookie jar carries the access and
// refresh cookies issued by the server. When a request fails with an
// expired access token the client refreshes the session once and replays
// the request.
//
// # Refresh protocol
//
// At most one refresh call is in flight per Client. The first caller to see
// an expired token becomes the leader and performs the refresh; callers that
// hit the same condition while it runs wait in a FIFO queue and are resolved
// in enqueue order once the leader finishes. A queued caller gives up when its
// request context ends or after the queue timeout (ErrQueueTimeout).
//
// When the refresh is rejected every waiter fails with ErrSessionExpired,
// subscribers receive a single EventSessionExpired and the sign-in redirect
// callback, if configured, runs after the redirect delay.
//
// See Also
//
//   - Constructor: New
//   - Observers:   Client.Subscribe
//   - Errors:      ErrSessionExpired, ErrQueueTimeout
package authclient
