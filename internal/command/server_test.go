package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinworks/namebot/internal/events"
	"github.com/tinworks/namebot/internal/profile"
	"github.com/tinworks/namebot/internal/signature"
	"github.com/tinworks/namebot/internal/store"
)

func commandBody(userId, text string) string {
	form := url.Values{}
	form.Set("user_id", userId)
	form.Set("text", text)
	form.Set("trigger_id", "13345224609.738474920.8088930838d88f008e0")
	form.Set("response_url", "https://hooks.slack.com/commands/T0001/1234/abcd")
	return form.Encode()
}

func Test_Server_handlePostCommand(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		signatureIsOK   bool
		storedUser      *store.User
		lookupErr       error
		setNameErr      error
		notifyErr       error
		wantStatus      int
		wantLookups     int
		wantSetNames    int
		wantNotifyTexts []string
		wantPublishes   int
	}{
		{
			"if signature verification fails, returns 404 and nothing else happens",
			commandBody("U1234", "Ada"),
			false,
			nil,
			nil,
			nil,
			nil,
			404,
			0,
			0,
			nil,
			0,
		},
		{
			"if the store is unavailable, returns 500 rather than treating the user as unauthorized",
			commandBody("U1234", "Ada"),
			true,
			nil,
			fmt.Errorf("failed to get user U1234: pool closed"),
			nil,
			nil,
			500,
			1,
			0,
			nil,
			0,
		},
		{
			"a user with no record gets exactly one authorization prompt and no action call",
			commandBody("U1234", "Ada"),
			true,
			nil,
			nil,
			nil,
			nil,
			200,
			1,
			0,
			[]string{"No access"},
			0,
		},
		{
			"a user with an empty stored token is treated as unauthorized",
			commandBody("U1234", "Ada"),
			true,
			&store.User{Id: "U1234"},
			nil,
			nil,
			nil,
			200,
			1,
			0,
			[]string{"No access"},
			0,
		},
		{
			"an authorized user gets exactly one action call and no prompt",
			commandBody("U1234", "Ada"),
			true,
			&store.User{Id: "U1234", AccessToken: "xoxp-token-1"},
			nil,
			nil,
			nil,
			200,
			1,
			1,
			nil,
			1,
		},
		{
			"a rejected action yields exactly one error notification and a 200",
			commandBody("U1234", "Ada"),
			true,
			&store.User{Id: "U1234", AccessToken: "xoxp-token-1"},
			nil,
			&profile.APIError{Reason: "token_revoked"},
			nil,
			200,
			1,
			1,
			[]string{"Error: token_revoked"},
			0,
		},
		{
			"a transport failure on the action call yields a 500 and no notification",
			commandBody("U1234", "Ada"),
			true,
			&store.User{Id: "U1234", AccessToken: "xoxp-token-1"},
			nil,
			fmt.Errorf("request failed: connection refused"),
			nil,
			500,
			1,
			1,
			nil,
			0,
		},
		{
			"a failure to deliver the authorization prompt yields a 500",
			commandBody("U1234", "Ada"),
			true,
			nil,
			nil,
			nil,
			fmt.Errorf("got response 410 from webhook post"),
			500,
			1,
			0,
			[]string{"No access"},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			numLookups := 0
			numSetNames := 0
			numPublishes := 0
			notifyTexts := make([]string, 0)
			s := &Server{
				clientId:    "my-client-id",
				redirectUri: "https://namebot.example.com/slack-install",
				verifyRequest: func(timestamp, signatureHeader string, body []byte) bool {
					return tt.signatureIsOK
				},
				lookupUser: func(ctx context.Context, userId string) (*store.User, error) {
					numLookups++
					assert.Equal(t, "U1234", userId)
					return tt.storedUser, tt.lookupErr
				},
				setDisplayName: func(ctx context.Context, accessToken, displayName string) error {
					numSetNames++
					assert.Equal(t, "xoxp-token-1", accessToken)
					assert.Equal(t, "Ada", displayName)
					return tt.setNameErr
				},
				notify: func(ctx context.Context, responseUrl string, msg *slack.WebhookMessage) error {
					assert.Equal(t, "https://hooks.slack.com/commands/T0001/1234/abcd", responseUrl)
					notifyTexts = append(notifyTexts, msg.Text)
					return tt.notifyErr
				},
				issueState: func() string { return "issued-state" },
				publishEvent: func(ctx context.Context, event events.Event) error {
					numPublishes++
					assert.Equal(t, events.TypeNameUpdated, event.Type)
					assert.Equal(t, "U1234", event.UserId)
					return nil
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			res := httptest.NewRecorder()
			s.handlePostCommand(res, req)

			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantLookups, numLookups)
			assert.Equal(t, tt.wantSetNames, numSetNames)
			assert.Equal(t, tt.wantPublishes, numPublishes)

			if tt.wantNotifyTexts == nil {
				assert.Empty(t, notifyTexts)
			} else {
				assert.Equal(t, tt.wantNotifyTexts, notifyTexts)
			}

			if tt.wantStatus == 200 {
				b, err := io.ReadAll(res.Body)
				assert.NoError(t, err)
				assert.Empty(t, b)
			}
		})
	}
}

// Covers the end-to-end unauthorized path with a real signature: a correctly
// signed command from an unknown user produces exactly one notification whose
// prompt links to an authorization URL carrying our client_id, and no action
// call
func Test_Server_handlePostCommand_unknownUserEndToEnd(t *testing.T) {
	now := time.Now()
	verifier := signature.NewVerifier("it's a secret to everybody")

	body := commandBody("U1", "Ada")
	timestamp := strconv.FormatInt(now.Unix(), 10)

	var prompts []*slack.WebhookMessage
	s := &Server{
		clientId:      "my-client-id",
		redirectUri:   "https://namebot.example.com/slack-install",
		verifyRequest: verifier.Verify,
		lookupUser: func(ctx context.Context, userId string) (*store.User, error) {
			return nil, nil
		},
		setDisplayName: func(ctx context.Context, accessToken, displayName string) error {
			t.Fatal("no action call should occur for an unauthorized user")
			return nil
		},
		notify: func(ctx context.Context, responseUrl string, msg *slack.WebhookMessage) error {
			prompts = append(prompts, msg)
			return nil
		},
		issueState:   func() string { return "issued-state" },
		publishEvent: func(ctx context.Context, event events.Event) error { return nil },
	}

	req := httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(signature.TimestampHeader, timestamp)
	req.Header.Set(signature.SignatureHeader, verifier.Compute(timestamp, []byte(body)))
	res := httptest.NewRecorder()
	s.handlePostCommand(res, req)

	assert.Equal(t, 200, res.Code)
	require.Len(t, prompts, 1)

	require.NotNil(t, prompts[0].Blocks)
	require.Len(t, prompts[0].Blocks.BlockSet, 1)
	section, ok := prompts[0].Blocks.BlockSet[0].(*slack.SectionBlock)
	require.True(t, ok)
	require.NotNil(t, section.Accessory)
	require.NotNil(t, section.Accessory.ButtonElement)

	u, err := url.Parse(section.Accessory.ButtonElement.URL)
	require.NoError(t, err)
	assert.Equal(t, "my-client-id", u.Query().Get("client_id"))
	assert.Equal(t, "issued-state", u.Query().Get("state"))
}

func Test_authorizationPrompt(t *testing.T) {
	msg := authorizationPrompt("https://slack.com/oauth/v2/authorize?client_id=abc")
	assert.Equal(t, "No access", msg.Text)
	require.NotNil(t, msg.Blocks)
	require.Len(t, msg.Blocks.BlockSet, 1)

	section, ok := msg.Blocks.BlockSet[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "allow access")
	require.NotNil(t, section.Accessory.ButtonElement)
	assert.Equal(t, "https://slack.com/oauth/v2/authorize?client_id=abc", section.Accessory.ButtonElement.URL)
	assert.Equal(t, "Open permissions", section.Accessory.ButtonElement.Text.Text)
}
