package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/slack-go/slack"

	"github.com/tinworks/namebot"
	"github.com/tinworks/namebot/internal/app"
	"github.com/tinworks/namebot/internal/authstate"
	"github.com/tinworks/namebot/internal/events"
	"github.com/tinworks/namebot/internal/profile"
	"github.com/tinworks/namebot/internal/signature"
	"github.com/tinworks/namebot/internal/store"
)

type VerifyRequestFunc func(timestamp, signatureHeader string, body []byte) bool
type LookupUserFunc func(ctx context.Context, userId string) (*store.User, error)
type SetDisplayNameFunc func(ctx context.Context, accessToken, displayName string) error
type NotifyFunc func(ctx context.Context, responseUrl string, msg *slack.WebhookMessage) error
type IssueStateFunc func() string
type PublishEventFunc func(ctx context.Context, event events.Event) error

// Server handles POST /command callbacks from Slack
type Server struct {
	clientId    string
	redirectUri string

	verifyRequest  VerifyRequestFunc
	lookupUser     LookupUserFunc
	setDisplayName SetDisplayNameFunc
	notify         NotifyFunc
	issueState     IssueStateFunc
	publishEvent   PublishEventFunc
}

func NewServer(clientId, origin string, verifier *signature.Verifier, tokenStore *store.Store, states *authstate.Buffer, producer *events.Producer, httpClient *http.Client) *Server {
	profileClient := profile.NewClient(httpClient)
	return &Server{
		clientId:       clientId,
		redirectUri:    origin + "/slack-install",
		verifyRequest:  verifier.Verify,
		lookupUser:     tokenStore.Get,
		setDisplayName: profileClient.SetDisplayName,
		notify: func(ctx context.Context, responseUrl string, msg *slack.WebhookMessage) error {
			return slack.PostWebhookCustomHTTPContext(ctx, responseUrl, httpClient, msg)
		},
		issueState:   states.Issue,
		publishEvent: producer.Send,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/command").Methods("POST").HandlerFunc(s.handlePostCommand)
}

func (s *Server) handlePostCommand(res http.ResponseWriter, req *http.Request) {
	logger := app.Log(req)

	// Pre-emptively read the request body: the signature is computed over the
	// exact bytes on the wire, not over a reparsed form
	body, err := io.ReadAll(req.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		http.Error(res, "internal error", http.StatusInternalServerError)
		return
	}
	defer req.Body.Close()

	// Verify that this command comes from Slack: abort if phony. A failed
	// verification is resolved entirely here; nothing downstream ever sees
	// the request.
	timestamp := req.Header.Get(signature.TimestampHeader)
	if !s.verifyRequest(timestamp, req.Header.Get(signature.SignatureHeader), body) {
		logger.Error("Failed to verify request signature")
		http.Error(res, "Signature verification failed", http.StatusNotFound)
		return
	}

	// Restore the body we consumed so the form fields can be parsed
	req.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(req)
	if err != nil {
		logger.Error("Failed to parse slash command", "error", err)
		http.Error(res, "failed to parse command", http.StatusBadRequest)
		return
	}
	logger = logger.With("userId", cmd.UserID)

	user, err := s.lookupUser(req.Context(), cmd.UserID)
	if err != nil {
		// A store outage must never masquerade as "unauthorized": that would
		// prompt an already-authorized user to redo the OAuth flow
		logger.Error("Failed to look up user", "error", err)
		http.Error(res, "internal error", http.StatusInternalServerError)
		return
	}

	if !user.Authorized() {
		err = s.promptForAuthorization(req.Context(), logger, &cmd)
	} else {
		err = s.updateDisplayName(req.Context(), logger, &cmd, user.AccessToken)
	}
	if err != nil {
		logger.Error("Failed to handle command", "error", err)
		http.Error(res, "internal error", http.StatusInternalServerError)
		return
	}

	// Acknowledge with an empty 200: anything the user needs to see has
	// already gone out via their response URL
	res.WriteHeader(http.StatusOK)
}

// promptForAuthorization sends the unauthorized user a message with a link to
// the Slack-hosted consent page; the requested action is not performed
func (s *Server) promptForAuthorization(ctx context.Context, logger *slog.Logger, cmd *slack.SlashCommand) error {
	authorizeUrl := namebot.BuildAuthorizeURL(s.clientId, s.redirectUri, s.issueState())
	if err := s.notify(ctx, cmd.ResponseURL, authorizationPrompt(authorizeUrl)); err != nil {
		return err
	}
	logger.Info("Prompted user to authorize")
	return nil
}

// updateDisplayName performs the requested action with the user's stored
// token. A rejection from the API is reported to the user, and the stored
// token is deliberately left in place: invalidating it is a re-authorization
// concern this service doesn't own.
func (s *Server) updateDisplayName(ctx context.Context, logger *slog.Logger, cmd *slack.SlashCommand, accessToken string) error {
	err := s.setDisplayName(ctx, accessToken, cmd.Text)
	if err != nil {
		var apiErr *profile.APIError
		if errors.As(err, &apiErr) {
			logger.Error("Display name update was rejected", "reason", apiErr.Reason)
			return s.notify(ctx, cmd.ResponseURL, &slack.WebhookMessage{
				Text: "Error: " + apiErr.Reason,
			})
		}
		return err
	}

	logger.Info("Updated display name")
	if err := s.publishEvent(ctx, events.New(events.TypeNameUpdated, cmd.UserID)); err != nil {
		logger.Error("Failed to publish event", "error", err)
	}
	return nil
}
