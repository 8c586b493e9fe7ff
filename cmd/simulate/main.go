package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codingconcepts/env"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tinworks/namebot/internal/signature"
)

type Config struct {
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET" required:"true"`
}

// simulate builds a slash-command callback identical to what Slack would
// send, signs it with the configured signing secret, and fires it at a
// locally running server, so the whole command path can be exercised without
// a public URL registered with Slack
func main() {
	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	userId := flag.String("user", "U0123456789", "user_id to send the command as")
	text := flag.String("text", "Ada", "command text (the desired display name)")
	commandUrl := flag.String("url", "http://localhost:5000/command", "command endpoint to post to")
	responseUrl := flag.String("response-url", "http://localhost:9999/response", "response_url to embed in the payload")
	stale := flag.Bool("stale", false, "sign with a timestamp outside the freshness window, to exercise rejection")
	flag.Parse()

	// Build the form-encoded body that Slack sends for a slash command
	form := url.Values{}
	form.Set("user_id", *userId)
	form.Set("text", *text)
	form.Set("trigger_id", uuid.NewString())
	form.Set("response_url", *responseUrl)
	body := form.Encode()

	// Sign the exact body bytes the way Slack would
	signedAt := time.Now()
	if *stale {
		signedAt = signedAt.Add(-10 * time.Minute)
	}
	timestamp := strconv.FormatInt(signedAt.Unix(), 10)
	verifier := signature.NewVerifier(config.SlackSigningSecret)

	req, err := http.NewRequest(http.MethodPost, *commandUrl, strings.NewReader(body))
	if err != nil {
		log.Fatalf("error initializing HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(signature.TimestampHeader, timestamp)
	req.Header.Set(signature.SignatureHeader, verifier.Compute(timestamp, []byte(body)))

	// Print the details of the request to stdout
	fmt.Printf("%s %s\n", req.Method, req.URL)
	for k, values := range req.Header {
		for _, v := range values {
			fmt.Printf("> %s: %s\n", k, v)
		}
	}
	fmt.Printf("%s\n", body)

	// Send the request and print the response
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	fmt.Printf("< %s\n", res.Status)
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		log.Fatalf("error reading response body: %v", err)
	}
	if len(resBody) > 0 {
		fmt.Printf("%s\n", resBody)
	}
}
