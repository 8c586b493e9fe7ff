// Package exchange converts one-time OAuth authorization codes into
// long-lived user access tokens via Slack's oauth.v2.access method, and
// persists each token before reporting success. It also serves the HTTP
// endpoints that Slack redirects users to at the end of the consent flow.
//
// Authorization codes are single-use: a failed exchange is never retried with
// the same code, because the endpoint is guaranteed to reject the replay. The
// user's only path forward is to re-initiate authorization from scratch.
package exchange
