package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/config"
	"authgate/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEvent() *entity.AuthEvent {
	return &entity.AuthEvent{
		Type:       entity.AuthEventSignedIn,
		UserID:     uuid.New(),
		Email:      "ada@example.com",
		RequestID:  "req-123",
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestLocalHTTPPublisher_PostsPushEnvelope(t *testing.T) {
	event := newTestEvent()

	var received PubSubPushMessage
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, newDiscardLogger())
	require.NoError(t, publisher.PublishAuthEvent(context.Background(), event))

	assert.Equal(t, "req-123", requestID)
	assert.Equal(t, localSubscription, received.Subscription)
	assert.Equal(t, "session.signed_in", received.Message.Attributes["event_type"])
	assert.Equal(t, event.UserID.String(), received.Message.Attributes["user_id"])
	assert.NotEmpty(t, received.Message.MessageID)

	data, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)

	var decoded entity.AuthEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *event, decoded)
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, newDiscardLogger())
	err := publisher.PublishAuthEvent(context.Background(), newTestEvent())
	assert.ErrorContains(t, err, "500")
}

func TestNoopPublisher(t *testing.T) {
	publisher := &noopPublisher{logger: newDiscardLogger()}

	assert.NoError(t, publisher.PublishAuthEvent(context.Background(), newTestEvent()))
	assert.NoError(t, publisher.Close())
}

func TestNewEventPublisher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.PubSubConfig
		wantErr bool
		want    any
	}{
		{name: "unset", cfg: nil, want: &noopPublisher{}},
		{name: "noop", cfg: &config.PubSubConfig{Provider: ProviderNoop}, want: &noopPublisher{}},
		{name: "local", cfg: &config.PubSubConfig{Provider: ProviderLocal, LocalEndpoint: "http://localhost:8085"}, want: &localHTTPPublisher{}},
		{name: "local without endpoint", cfg: &config.PubSubConfig{Provider: ProviderLocal}, wantErr: true},
		{name: "google without project", cfg: &config.PubSubConfig{Provider: ProviderGoogle, TopicID: "t"}, wantErr: true},
		{name: "google without topic", cfg: &config.PubSubConfig{Provider: ProviderGoogle, ProjectID: "p"}, wantErr: true},
		{name: "unknown", cfg: &config.PubSubConfig{Provider: "kafka"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			publisher, err := NewEventPublisher(PublisherParams{
				Lc:     lc,
				Ctx:    context.Background(),
				Config: &config.Config{PubSub: tt.cfg},
				Logger: newDiscardLogger(),
			})

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, publisher)
			lc.RequireStart().RequireStop()
		})
	}
}
