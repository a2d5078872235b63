// Command authctl signs in against an authgate server and fetches the
// profile, refreshing the session transparently when the access token expires.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"authgate/internal/client/authclient"

	"github.com/pkg/errors"
)

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "authgate base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	watch := flag.Duration("watch", 0, "keep fetching the profile at this interval")
	queueTimeout := flag.Duration("queue-timeout", authclient.DefaultQueueTimeout, "max wait for a refresh started by another request")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("use -email and -password to sign in")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := authclient.New(*baseURL,
		authclient.WithLogger(logger),
		authclient.WithQueueTimeout(*queueTimeout),
		authclient.WithRedirectDelay(0),
		authclient.WithSignInRedirect(cancel),
	)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	client.Subscribe(func(event authclient.SessionEvent) {
		logger.Info("Session event", slog.String("kind", event.Kind.String()), slog.String("message", event.Message))
	})

	if err := run(ctx, client, *email, *password, *watch); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, client *authclient.Client, email, password string, watch time.Duration) error {
	resp, err := client.PostJSON(ctx, "/api/auth/signin", map[string]string{"email": email, "password": password})
	if err != nil {
		return errors.Wrap(err, "sign in")
	}
	if err := expectOK(resp, os.Stderr); err != nil {
		return errors.Wrap(err, "sign in")
	}

	for {
		resp, err := client.Get(ctx, "/api/user/profile")
		if err != nil {
			return errors.Wrap(err, "fetch profile")
		}
		if err := expectOK(resp, os.Stdout); err != nil {
			return errors.Wrap(err, "fetch profile")
		}

		if watch <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(watch):
		}
	}
}

// expectOK copies a successful body to w, or turns the error envelope into an error.
func expectOK(resp *http.Response, w io.Writer) error {
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		_, err := io.Copy(w, resp.Body)
		_, _ = io.WriteString(w, "\n")

		return err
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	return errors.Errorf("%s: %s (status %d)", envelope.Error.Code, envelope.Error.Message, resp.StatusCode)
}
