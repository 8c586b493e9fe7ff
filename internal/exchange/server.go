package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tinworks/namebot/internal/app"
	"github.com/tinworks/namebot/internal/events"
)

type ExchangeFunc func(ctx context.Context, code string) (*Result, error)
type RedeemStateFunc func(value string) bool
type PublishEventFunc func(ctx context.Context, event events.Event) error

// Server handles the browser-facing endpoints of the OAuth flow: Slack
// redirects the user to /slack-install with a one-time code, and a completed
// flow lands on /slack-authorized
type Server struct {
	exchange     ExchangeFunc
	redeemState  RedeemStateFunc
	publishEvent PublishEventFunc
}

type StateRedeemer interface {
	Redeem(value string) bool
}

func NewServer(exchanger *Exchanger, states StateRedeemer, producer *events.Producer) *Server {
	return &Server{
		exchange:     exchanger.Exchange,
		redeemState:  states.Redeem,
		publishEvent: producer.Send,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/slack-install").Methods("GET").HandlerFunc(s.handleInstall)
	r.Path("/slack-authorized").Methods("GET").HandlerFunc(s.handleAuthorized)
}

func (s *Server) handleInstall(res http.ResponseWriter, req *http.Request) {
	logger := app.Log(req)

	// Verify the one-time state value before touching anything else: a
	// request without a redeemable state was not initiated by a prompt we
	// issued
	state := req.URL.Query().Get("state")
	if state == "" {
		http.Error(res, "'state' value not found in URL query params", http.StatusBadRequest)
		return
	}
	if !s.redeemState(state) {
		logger.Error("State verification failed")
		http.Error(res, "state verification failed", http.StatusBadRequest)
		return
	}

	code := req.URL.Query().Get("code")
	if code == "" {
		http.Error(res, "'code' value not found in URL query params", http.StatusBadRequest)
		return
	}

	result, err := s.exchange(req.Context(), code)
	if err != nil {
		var exchangeErr *Error
		if errors.As(err, &exchangeErr) {
			// The code is burned either way; tell the user what happened and
			// let them re-initiate authorization if they want to
			logger.Error("Token exchange failed",
				"kind", exchangeErr.Kind.String(),
				"reason", exchangeErr.Reason,
			)
			writePage(res, "Not ok", fmt.Sprintf("Authorization could not be completed: %s. You can close this and re-run the command to try again.", exchangeErr.Reason))
			return
		}
		// The endpoint accepted the code but we couldn't store the token:
		// this is our fault, not the user's
		logger.Error("Failed to persist exchanged token", "error", err)
		http.Error(res, "internal error", http.StatusInternalServerError)
		return
	}

	logger.Info("Authorized user", "userId", result.UserId)
	if err := s.publishEvent(req.Context(), events.New(events.TypeUserAuthorized, result.UserId)); err != nil {
		logger.Error("Failed to publish authorization event", "error", err)
	}

	res.Header().Set("location", "/slack-authorized")
	res.WriteHeader(http.StatusFound)
}

func (s *Server) handleAuthorized(res http.ResponseWriter, req *http.Request) {
	writePage(res, "All ok", "You can close this and re-run the command.")
}

func writePage(res http.ResponseWriter, heading, detail string) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(res, "<!DOCTYPE html><html><head><title>namebot</title></head><body><h2>%s</h2><p>%s</p></body></html>", heading, detail)
}
