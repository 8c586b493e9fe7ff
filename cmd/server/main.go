package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tinworks/namebot/internal/app"
	"github.com/tinworks/namebot/internal/authstate"
	"github.com/tinworks/namebot/internal/command"
	"github.com/tinworks/namebot/internal/events"
	"github.com/tinworks/namebot/internal/exchange"
	"github.com/tinworks/namebot/internal/roster"
	"github.com/tinworks/namebot/internal/signature"
	"github.com/tinworks/namebot/internal/store"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"5000"`
	Origin     string `env:"ORIGIN" default:"http://localhost:5000"`

	SlackClientId      string `env:"SLACK_CLIENT_ID" required:"true"`
	SlackClientSecret  string `env:"SLACK_CLIENT_SECRET" required:"true"`
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET" required:"true"`

	DatabaseUrl string `env:"DATABASE_URL" required:"true"`

	RmqHost     string `env:"RMQ_HOST" required:"true"`
	RmqPort     int    `env:"RMQ_PORT" required:"true"`
	RmqVhost    string `env:"RMQ_VHOST" required:"true"`
	RmqUser     string `env:"RMQ_USER" required:"true"`
	RmqPassword string `env:"RMQ_PASSWORD" required:"true"`
}

func main() {
	logger := app.NewLogger()
	fail := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fail("Failed to load .env file", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		fail("Failed to load config", err)
	}

	// Connect to the database: a usable store is both connected and
	// schema-ready, so there's nothing further to wait on once New returns
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	tokenStore, err := store.New(initCtx, config.DatabaseUrl)
	cancel()
	if err != nil {
		fail("Failed to initialize token store", err)
	}
	defer tokenStore.Close()

	// Initialize an AMQP producer for the events we emit when a user
	// authorizes or changes their display name
	amqpConn, err := amqp.Dial(events.FormatConnectionString(config.RmqHost, config.RmqPort, config.RmqVhost, config.RmqUser, config.RmqPassword))
	if err != nil {
		fail("Failed to connect to AMQP server", err)
	}
	defer amqpConn.Close()
	producer, err := events.NewProducer(amqpConn, "namebot-events")
	if err != nil {
		fail("Failed to initialize AMQP producer", err)
	}

	// Shared collaborators: the verifier that authenticates every inbound
	// command, the buffer of pending OAuth state values, and one HTTP client
	// (with a timeout) for all outbound Slack calls
	verifier := signature.NewVerifier(config.SlackSigningSecret)
	states := authstate.NewBuffer()
	httpClient := &http.Client{Timeout: 10 * time.Second}

	// Start setting up our HTTP handlers, using gorilla/mux for routing
	r := mux.NewRouter()
	r.Use(app.WithLogging(logger))
	r.Path("/").Methods("GET").HandlerFunc(handleGetIndex)

	// Slack will call POST /command whenever a user invokes our slash command
	commandServer := command.NewServer(config.SlackClientId, config.Origin, verifier, tokenStore, states, producer, httpClient)
	commandServer.RegisterRoutes(r)

	// A user completing the OAuth consent flow gets redirected to
	// GET /slack-install with a one-time authorization code; a finished flow
	// lands on GET /slack-authorized
	exchanger := exchange.NewExchanger(httpClient, config.SlackClientId, config.SlackClientSecret, tokenStore)
	exchangeServer := exchange.NewServer(exchanger, states, producer)
	exchangeServer.RegisterRoutes(r)

	// GET /registered-users returns a redacted listing for spot checks
	rosterServer := roster.NewServer(tokenStore)
	rosterServer.RegisterRoutes(r)

	// Handle incoming HTTP connections until our top-level context is
	// canceled, at which point shut down cleanly
	app.RunServer(ctx, logger, r, config.BindAddr, config.ListenPort)
}

func handleGetIndex(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.Write([]byte("<!DOCTYPE html><html><head><title>namebot</title></head><body><h2>The slash command app is running</h2><p>Follow the instructions in the README to configure the Slack app and your environment variables.</p></body></html>"))
}
