// Package notify carries reviewer notifications out-of-band: a new pending
// request produces a human-actionable message with approve/deny links.
// Delivery is fire-and-forget: a failed dispatch is logged and counted but
// never fails the workflow, which stays resolvable by direct reviewer action.
package notify

import (
	"context"
	"log/slog"

	"github.com/your-org/facegate/internal/observability"
)

// ReviewNotification is the payload dispatched when a submission goes to
// review.
type ReviewNotification struct {
	RequestID  string
	ApproveURL string
	DenyURL    string
	PreviewURL string
}

// Notifier dispatches a review notification to one target.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n ReviewNotification) error
}

// Multi fans a notification out to every target, logging per-target failures
// and always succeeding.
type Multi struct {
	targets []Notifier
}

func NewMulti(targets ...Notifier) *Multi {
	return &Multi{targets: targets}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, n ReviewNotification) error {
	for _, t := range m.targets {
		if err := t.Notify(ctx, n); err != nil {
			observability.NotificationFailures.WithLabelValues(t.Name()).Inc()
			slog.Error("reviewer notification failed",
				"target", t.Name(),
				"request_id", n.RequestID,
				"error", err,
			)
		}
	}
	return nil
}
