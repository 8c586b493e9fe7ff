// Package store persists the mapping from Slack user ID to that user's
// long-lived access token, backed by PostgreSQL. A user with a stored,
// non-empty token is considered authorized; a user with no record simply
// hasn't completed the OAuth flow yet, which is a normal state and not an
// error.
package store
