// Package command implements the HTTP server functionality that handles
// incoming slash-command callbacks from Slack. Every request is signature-
// verified before anything else looks at it; verified commands are then
// gated on whether the invoking user has a stored access token. An
// unauthorized user gets a prompt with an authorization link; an authorized
// user gets the requested display-name change. Either way, the user sees
// exactly one outcome per command.
package command
