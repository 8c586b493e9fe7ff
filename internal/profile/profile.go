// Package profile performs the one authenticated action this service exists
// for: updating a user's display name via Slack's users.profile.set method,
// authorized with the user's stored access token as a bearer credential.
//
// The call is made with a hand-built form request rather than through
// slack-go's profile helpers, because the SDK exposes setters for real names
// and custom statuses but not for the display_name field.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultEndpoint = "https://slack.com/api/users.profile.set"

// APIError indicates that Slack accepted our request but refused to apply the
// profile change, e.g. because the stored token has been revoked or lacks the
// required scope
type APIError struct {
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("users.profile.set failed: %s", e.Reason)
}

// Client updates user profiles via the Slack Web API
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   defaultEndpoint,
	}
}

// SetDisplayName sets the display name on the profile of the user that the
// given access token is scoped to. An *APIError is returned when Slack
// reports the request as not-ok; any other error is a transport-level
// failure.
func (c *Client) SetDisplayName(ctx context.Context, accessToken, displayName string) error {
	form := url.Values{}
	form.Set("name", "display_name")
	form.Set("value", displayName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to prepare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("got response %d from users.profile.set request", res.StatusCode)
	}

	var payload struct {
		Ok    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !payload.Ok {
		reason := payload.Error
		if reason == "" {
			reason = "unknown error"
		}
		return &APIError{Reason: reason}
	}
	return nil
}
