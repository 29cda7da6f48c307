package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geopick/internal/core/domain"
)

// Subjects for session events.
const (
	subjectSelectionConfirmed = "geopick.selection.confirmed"
	subjectRouteFallback      = "geopick.route.fallback"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "GEOPICK_EVENTS",
		Subjects:  []string{"geopick.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

type selectionEvent struct {
	SessionID string               `json:"session_id"`
	Point     domain.SelectedPoint `json:"point"`
}

type fallbackEvent struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	At        string `json:"at"`
}

// PublishSelectionConfirmed emits the point a user confirmed in a session.
func (p *Publisher) PublishSelectionConfirmed(ctx context.Context, sessionID string, point domain.SelectedPoint) error {
	data, err := json.Marshal(selectionEvent{SessionID: sessionID, Point: point})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subjectSelectionConfirmed, data)
	return err
}

// PublishRouteFallback emits one event per road-to-straight downgrade. The
// route call itself still succeeds; this is the out-of-band signal for
// watching fallback frequency.
func (p *Publisher) PublishRouteFallback(ctx context.Context, sessionID string, reason string) error {
	data, err := json.Marshal(fallbackEvent{
		SessionID: sessionID,
		Reason:    reason,
		At:        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subjectRouteFallback, data)
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
