package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher defines the interface for publishing submission events.
type Publisher interface {
	// PublishSubmission publishes a single submission event.
	PublishSubmission(ctx context.Context, event *SubmissionEvent) error

	// Close releases any underlying connections.
	Close() error
}

// JetStreamPublisher publishes submission events to NATS JetStream so
// tooling outside the dashboard process can react to accepted
// transactions.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for submissions.
	StreamName = "SUBMISSIONS"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = "submissions.*"

	// StreamRetention is how long events are retained.
	StreamRetention = 30 * 24 * time.Hour
)

// NewJetStreamPublisher connects to NATS and ensures the stream exists.
func NewJetStreamPublisher(natsURL string, logger *slog.Logger) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("lamplight-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:     nc,
		js:     js,
		logger: logger,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("submission event publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		p.logger.Debug("JetStream stream already exists", "stream", StreamName)
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	streamConfig := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Accepted transaction submissions",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	if _, err := p.js.CreateStream(ctx, streamConfig); err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// PublishSubmission publishes a single submission event to the subject
// "submissions.{sender}".
func (p *JetStreamPublisher) PublishSubmission(ctx context.Context, event *SubmissionEvent) error {
	subject := subjectForSender(event.Sender)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal submission event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish submission event: %w", err)
	}

	p.logger.Debug("published submission event",
		"subject", subject,
		"hash", event.Hash,
	)

	return nil
}

// subjectForSender builds the per-sender subject. The sender label is
// user-supplied, and NATS subject tokens cannot contain spaces, dots, or
// wildcard characters, so anything outside [A-Za-z0-9_-] is mapped to
// '_'. An empty label publishes under "unknown".
func subjectForSender(sender string) string {
	if sender == "" {
		return "submissions.unknown"
	}

	token := []byte(sender)
	for i, ch := range token {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '_', ch == '-':
		default:
			token[i] = '_'
		}
	}
	return "submissions." + string(token)
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("submission event publisher closed")
	}
	return nil
}
