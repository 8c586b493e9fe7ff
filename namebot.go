package namebot

import (
	"net/url"
	"strings"
)

// UserScopes declares the OAuth user scopes that our app must be granted in
// order to update a user's profile on their behalf
var UserScopes = []string{
	"users.profile:write",
}

// BuildAuthorizeURL formats the Slack-hosted OAuth challenge URL that a user
// must visit in order to grant our app access to their profile: completing the
// flow sends a one-time authorization code to the given redirect URI, along
// with the supplied state value
func BuildAuthorizeURL(clientId, redirectUri, state string) string {
	u, err := url.Parse("https://slack.com/oauth/v2/authorize")
	if err != nil {
		panic(err)
	}
	q := u.Query()
	q.Add("client_id", clientId)
	q.Add("user_scope", strings.Join(UserScopes, ","))
	q.Add("redirect_uri", redirectUri)
	q.Add("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}
