package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/tinworks/namebot/internal/store"
)

type GetAccessTokenFunc func(ctx context.Context, code string) (*slack.OAuthV2Response, error)
type UpsertTokenFunc func(ctx context.Context, userId, accessToken string) error

// Result carries the outcome of a successful exchange: by the time a caller
// sees one, the token has already been durably stored
type Result struct {
	UserId      string
	AccessToken string
}

// Exchanger trades authorization codes for access tokens and persists them
type Exchanger struct {
	getAccessToken GetAccessTokenFunc
	upsertToken    UpsertTokenFunc
}

func NewExchanger(httpClient *http.Client, clientId, clientSecret string, tokenStore *store.Store) *Exchanger {
	return &Exchanger{
		getAccessToken: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			return slack.GetOAuthV2ResponseContext(ctx, httpClient, clientId, clientSecret, code, "")
		},
		upsertToken: func(ctx context.Context, userId, accessToken string) error {
			_, err := tokenStore.Upsert(ctx, userId, accessToken)
			return err
		},
	}
}

// Exchange sends the one-time code to the token endpoint and, on success,
// writes the resulting user/token pair to the store before returning. An
// *Error indicates the exchange itself failed (and nothing was stored); any
// other error means the exchange succeeded but persistence did not.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*Result, error) {
	res, err := e.getAccessToken(ctx, code)
	if err != nil {
		var apiErr slack.SlackErrorResponse
		if errors.As(err, &apiErr) {
			return nil, &Error{Kind: KindRejected, Reason: apiErr.Error()}
		}
		return nil, &Error{Kind: KindTransport, Reason: err.Error()}
	}
	if res.AuthedUser.ID == "" || res.AuthedUser.AccessToken == "" {
		return nil, &Error{Kind: KindTransport, Reason: "response carried no authed user token"}
	}

	if err := e.upsertToken(ctx, res.AuthedUser.ID, res.AuthedUser.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to store access token for user %s: %w", res.AuthedUser.ID, err)
	}
	return &Result{
		UserId:      res.AuthedUser.ID,
		AccessToken: res.AuthedUser.AccessToken,
	}, nil
}
