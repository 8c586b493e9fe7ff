package namebot

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BuildAuthorizeURL(t *testing.T) {
	s := BuildAuthorizeURL("my-client-id", "https://namebot.example.com/slack-install", "state-0123")
	u, err := url.Parse(s)
	assert.NoError(t, err)
	assert.Equal(t, "slack.com", u.Host)
	assert.Equal(t, "/oauth/v2/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "my-client-id", q.Get("client_id"))
	assert.Equal(t, "users.profile:write", q.Get("user_scope"))
	assert.Equal(t, "https://namebot.example.com/slack-install", q.Get("redirect_uri"))
	assert.Equal(t, "state-0123", q.Get("state"))
}
