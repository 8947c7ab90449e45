// Package approval implements the match-and-approve workflow: a submission
// either auto-accepts against the gallery or becomes a pending request that
// a human reviewer resolves asynchronously.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facegate/internal/gallery"
	"github.com/your-org/facegate/internal/match"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/notify"
	"github.com/your-org/facegate/internal/observability"
)

// PendingPrefix is the blob store prefix holding images awaiting review.
const PendingPrefix = "pending/"

// BlobStore is the slice of the blob store the engine needs.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
}

// Extractor produces one embedding per face found in an image.
type Extractor interface {
	Extract(imageData []byte) ([][]float32, error)
}

// ResolutionPublisher receives terminal transitions, e.g. for an event feed.
type ResolutionPublisher interface {
	PublishResolved(ctx context.Context, requestID string, status models.Status) error
}

// Options configures an Engine.
type Options struct {
	// Threshold is the maximum match distance for auto-acceptance.
	Threshold float64
	// BaseURL prefixes the approve/deny/preview links sent to reviewers.
	BaseURL string
	// PollInterval is advertised to clients in pending responses.
	PollInterval time.Duration
	// PendingTTL auto-denies requests older than this; zero disables expiry.
	PendingTTL time.Duration
}

// SubmitResult is the synchronous outcome of a submission: either an
// auto-accept or a created pending request.
type SubmitResult struct {
	Matched    bool
	Label      string
	Distance   float64
	Confidence float64
	RequestID  string
	PollAfter  time.Duration
}

// Engine orchestrates submissions, reviewer resolutions, and requester polls
// over the gallery cache, the pending-request store, and the blob store.
type Engine struct {
	store     *Store
	cache     *gallery.Cache
	blobs     BlobStore
	extractor Extractor
	notifier  notify.Notifier
	resolved  ResolutionPublisher
	opts      Options

	// OnTransition, if set, observes every terminal transition (for the
	// websocket hub). Called outside engine locks.
	OnTransition func(requestID string, status models.Status)
}

// NewEngine wires the workflow. extractor may be nil (degraded mode: all
// extraction-dependent operations fail with ErrExtractorUnavailable);
// notifier and resolved may be nil.
func NewEngine(store *Store, cache *gallery.Cache, blobs BlobStore, extractor Extractor, notifier notify.Notifier, resolved ResolutionPublisher, opts Options) *Engine {
	return &Engine{
		store:     store,
		cache:     cache,
		blobs:     blobs,
		extractor: extractor,
		notifier:  notifier,
		resolved:  resolved,
		opts:      opts,
	}
}

// Submit runs the entry state of the workflow synchronously: extract, match,
// then either auto-accept or persist the image, create a pending request and
// notify a reviewer. The caller blocks until one of those decisions exists.
func (e *Engine) Submit(ctx context.Context, imageData []byte, contentType string) (*SubmitResult, error) {
	if e.extractor == nil {
		return nil, models.ErrExtractorUnavailable
	}

	embeddings, err := e.extractor.Extract(imageData)
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues("extraction_failed").Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
	}
	switch len(embeddings) {
	case 0:
		observability.SubmissionsTotal.WithLabelValues("no_face").Inc()
		return nil, models.ErrNoFaceDetected
	case 1:
	default:
		// An ambiguous embedding is never matched.
		observability.SubmissionsTotal.WithLabelValues("multiple_faces").Inc()
		return nil, models.ErrMultipleFacesDetected
	}

	snapshot := e.cache.Snapshot()
	result, err := match.Match(embeddings[0], snapshot, e.opts.Threshold)
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues("match_failed").Inc()
		return nil, err
	}

	if !result.GalleryEmpty {
		observability.MatchDistance.Observe(result.Distance)
	}

	if result.Matched {
		// Terminal: nothing stored, the image is not retained.
		observability.SubmissionsTotal.WithLabelValues("auto_accepted").Inc()
		slog.Info("submission auto-accepted",
			"label", result.Label, "distance", result.Distance)
		return &SubmitResult{
			Matched:    true,
			Label:      result.Label,
			Distance:   result.Distance,
			Confidence: result.Confidence(),
		}, nil
	}

	// Persisting the image must succeed before a request exists; a request
	// without a backing image is never created.
	imageKey := PendingPrefix + uuid.NewString() + ".jpg"
	if err := e.blobs.PutObject(ctx, imageKey, imageData, contentType); err != nil {
		observability.SubmissionsTotal.WithLabelValues("storage_failed").Inc()
		return nil, fmt.Errorf("persist pending image: %w", err)
	}

	req := e.store.Create(imageKey)

	// Notification failure is recoverable: the request exists and remains
	// resolvable by direct reviewer action, so nothing is rolled back.
	if e.notifier != nil {
		_ = e.notifier.Notify(ctx, notify.ReviewNotification{
			RequestID:  req.ID,
			ApproveURL: e.requestURL(req.ID, "/approve"),
			DenyURL:    e.requestURL(req.ID, "/deny"),
			PreviewURL: e.requestURL(req.ID, "/preview"),
		})
	}

	observability.SubmissionsTotal.WithLabelValues("pending").Inc()
	slog.Info("submission pending review",
		"request_id", req.ID, "distance", result.Distance, "gallery_empty", result.GalleryEmpty)

	return &SubmitResult{
		RequestID: req.ID,
		Distance:  result.Distance,
		PollAfter: e.opts.PollInterval,
	}, nil
}

// Resolve applies a reviewer decision. Exactly one caller wins the
// pending-to-outcome transition; everyone else gets the settled status back
// as a success. Already-resolved is not an error anywhere in the stack.
func (e *Engine) Resolve(ctx context.Context, id string, outcome models.Status) (models.Status, error) {
	if !outcome.Terminal() {
		return "", fmt.Errorf("invalid outcome %q", outcome)
	}

	prev, swapped, found := e.store.Resolve(id, outcome)
	if !found {
		return "", models.ErrNotFound
	}
	if !swapped {
		return prev, nil
	}

	observability.ResolutionsTotal.WithLabelValues(string(outcome)).Inc()
	slog.Info("request resolved", "request_id", id, "status", outcome)

	if req, ok := e.store.Get(id); ok {
		e.cleanup(ctx, req)
	}

	if e.OnTransition != nil {
		e.OnTransition(id, outcome)
	}
	if e.resolved != nil {
		if err := e.resolved.PublishResolved(ctx, id, outcome); err != nil {
			slog.Warn("publish resolution", "request_id", id, "error", err)
		}
	}

	return outcome, nil
}

// Status returns the current status of id. An observer of a terminal state
// also triggers the once-only image cleanup, so whichever side (reviewer
// action or requester poll) sees the transition first deletes the blob.
func (e *Engine) Status(ctx context.Context, id string) (models.Status, error) {
	req, ok := e.store.Get(id)
	if !ok {
		return "", models.ErrNotFound
	}

	status, _ := e.store.Status(id)
	if status.Terminal() {
		e.cleanup(ctx, req)
	}
	return status, nil
}

// PendingImage returns the submitted photo for reviewer preview. The image
// key is only valid while the request is pending.
func (e *Engine) PendingImage(ctx context.Context, id string) ([]byte, error) {
	status, ok := e.store.Status(id)
	if !ok {
		return nil, models.ErrNotFound
	}
	if status != models.StatusPending {
		return nil, models.ErrNotPending
	}

	req, _ := e.store.Get(id)
	return e.blobs.GetObject(ctx, req.ImageKey)
}

// RunSweeper auto-denies requests pending longer than the configured TTL,
// through the same resolve path as a human deny so cleanup and notification
// semantics are identical. No-op when expiry is disabled.
func (e *Engine) RunSweeper(ctx context.Context) {
	if e.opts.PendingTTL <= 0 {
		return
	}

	interval := e.opts.PendingTTL / 4
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range e.store.Expired(e.opts.PendingTTL) {
				if _, err := e.Resolve(ctx, id, models.StatusDenied); err != nil {
					slog.Warn("expire pending request", "request_id", id, "error", err)
				} else {
					slog.Info("pending request expired", "request_id", id)
				}
			}
		}
	}
}

// cleanup deletes the pending image at most once per request. Losing the
// claim means another observer already deleted (or is deleting) it; the
// store treats delete-on-missing-key as a no-op anyway.
func (e *Engine) cleanup(ctx context.Context, req *models.PendingRequest) {
	if !req.ClaimCleanup() {
		return
	}
	if err := e.blobs.DeleteObject(ctx, req.ImageKey); err != nil {
		slog.Warn("delete pending image", "key", req.ImageKey, "error", err)
	}
}

func (e *Engine) requestURL(id, action string) string {
	return e.opts.BaseURL + "/v1/requests/" + id + action
}
