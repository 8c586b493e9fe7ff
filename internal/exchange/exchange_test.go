package exchange

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func Test_Exchanger_Exchange(t *testing.T) {
	okResponse := &slack.OAuthV2Response{}
	okResponse.AuthedUser.ID = "U1234"
	okResponse.AuthedUser.AccessToken = "xoxp-token-1"

	tests := []struct {
		name        string
		response    *slack.OAuthV2Response
		responseErr error
		upsertErr   error
		wantResult  *Result
		wantKind    Kind
		wantUpserts int
	}{
		{
			"successful exchange persists the token before returning",
			okResponse,
			nil,
			nil,
			&Result{UserId: "U1234", AccessToken: "xoxp-token-1"},
			0,
			1,
		},
		{
			"an already-used code is rejected without any upsert",
			nil,
			slack.SlackErrorResponse{Err: "invalid_code"},
			nil,
			nil,
			KindRejected,
			0,
		},
		{
			"an unreachable endpoint is a transport failure without any upsert",
			nil,
			errors.New("dial tcp: connection refused"),
			nil,
			nil,
			KindTransport,
			0,
		},
		{
			"a response with no authed user token is a transport failure",
			&slack.OAuthV2Response{},
			nil,
			nil,
			nil,
			KindTransport,
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			numUpserts := 0
			e := &Exchanger{
				getAccessToken: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
					return tt.response, tt.responseErr
				},
				upsertToken: func(ctx context.Context, userId, accessToken string) error {
					numUpserts++
					return tt.upsertErr
				},
			}
			result, err := e.Exchange(context.Background(), "abc")
			assert.Equal(t, tt.wantUpserts, numUpserts)

			if tt.wantResult != nil {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantResult, result)
				return
			}
			assert.Nil(t, result)
			var exchangeErr *Error
			assert.True(t, errors.As(err, &exchangeErr))
			assert.Equal(t, tt.wantKind, exchangeErr.Kind)
		})
	}
}

func Test_Exchanger_Exchange_storeFailureIsNotAnExchangeError(t *testing.T) {
	okResponse := &slack.OAuthV2Response{}
	okResponse.AuthedUser.ID = "U1234"
	okResponse.AuthedUser.AccessToken = "xoxp-token-1"

	e := &Exchanger{
		getAccessToken: func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
			return okResponse, nil
		},
		upsertToken: func(ctx context.Context, userId, accessToken string) error {
			return fmt.Errorf("connection pool closed")
		},
	}
	result, err := e.Exchange(context.Background(), "abc")
	assert.Nil(t, result)
	assert.Error(t, err)

	// A persistence failure must stay distinguishable from a failed exchange,
	// since the caller maps the two to different responses
	var exchangeErr *Error
	assert.False(t, errors.As(err, &exchangeErr))
}
