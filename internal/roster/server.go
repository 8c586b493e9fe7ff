// Package roster serves a read-only listing of registered users for
// operational spot checks. Identifiers and tokens are truncated before they
// leave the process: the full access token is a bearer credential and must
// never appear in a response or a log line.
package roster

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tinworks/namebot/internal/app"
	"github.com/tinworks/namebot/internal/store"
)

type ListUsersFunc func(ctx context.Context) ([]store.User, error)

type Server struct {
	listUsers ListUsersFunc
}

func NewServer(tokenStore *store.Store) *Server {
	return &Server{
		listUsers: tokenStore.List,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/registered-users").Methods("GET").HandlerFunc(s.handleGetRegisteredUsers)
}

// RegisteredUser is the redacted view of a single stored record
type RegisteredUser struct {
	PartialId          string `json:"partialId"`
	PartialAccessToken string `json:"partialAccessToken"`
}

func (s *Server) handleGetRegisteredUsers(res http.ResponseWriter, req *http.Request) {
	logger := app.Log(req)

	users, err := s.listUsers(req.Context())
	if err != nil {
		logger.Error("Failed to list users", "error", err)
		http.Error(res, "internal error", http.StatusInternalServerError)
		return
	}

	redacted := make([]RegisteredUser, 0, len(users))
	for i := range users {
		redacted = append(redacted, RegisteredUser{
			PartialId:          truncate(users[i].Id, 7),
			PartialAccessToken: truncate(users[i].AccessToken, 10),
		})
	}

	res.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(res).Encode(redacted); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
