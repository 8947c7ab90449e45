package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/facegate/internal/models"
)

const (
	ReviewsStreamName  = "REVIEWS"
	ReviewsSubjectBase = "reviews"
)

// ReviewEvent is the JetStream message for review lifecycle transitions,
// consumed by reviewer bots and admin dashboards.
type ReviewEvent struct {
	Type       string        `json:"type"` // review_requested, request_resolved
	RequestID  string        `json:"request_id"`
	Status     models.Status `json:"status,omitempty"`
	ApproveURL string        `json:"approve_url,omitempty"`
	DenyURL    string        `json:"deny_url,omitempty"`
	PreviewURL string        `json:"preview_url,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// NATSNotifier publishes review events to JetStream. It doubles as a
// Notifier target for review-requested and a publisher for resolutions.
type NATSNotifier struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewNATSNotifier(natsURL string) (*NATSNotifier, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &NATSNotifier{nc: nc, js: js}, nil
}

// EnsureStream creates the REVIEWS stream if it doesn't exist.
func (p *NATSNotifier) EnsureStream(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.js.CreateOrUpdateStream(opCtx, jetstream.StreamConfig{
		Name:        ReviewsStreamName,
		Subjects:    []string{ReviewsSubjectBase + ".>"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Description: "Approval workflow review events",
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", ReviewsStreamName, err)
	}
	return nil
}

func (p *NATSNotifier) Name() string { return "nats" }

// Notify publishes a review-requested event.
func (p *NATSNotifier) Notify(ctx context.Context, n ReviewNotification) error {
	return p.publish(ctx, "requested", ReviewEvent{
		Type:       "review_requested",
		RequestID:  n.RequestID,
		ApproveURL: n.ApproveURL,
		DenyURL:    n.DenyURL,
		PreviewURL: n.PreviewURL,
		Timestamp:  time.Now(),
	})
}

// PublishResolved publishes a request-resolved event.
func (p *NATSNotifier) PublishResolved(ctx context.Context, requestID string, status models.Status) error {
	return p.publish(ctx, "resolved", ReviewEvent{
		Type:      "request_resolved",
		RequestID: requestID,
		Status:    status,
		Timestamp: time.Now(),
	})
}

func (p *NATSNotifier) publish(ctx context.Context, kind string, evt ReviewEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal review event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", ReviewsSubjectBase, kind, evt.RequestID)
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish review event: %w", err)
	}
	return nil
}

func (p *NATSNotifier) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *NATSNotifier) Close() {
	p.nc.Close()
}
