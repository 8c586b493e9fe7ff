// Package signature verifies that incoming HTTP requests genuinely originate
// from Slack and have not been replayed, as described in
// https://api.slack.com/authentication/verifying-requests-from-slack
package signature
