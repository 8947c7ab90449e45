package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/your-org/facegate/internal/models"
)

// EntryInfo describes one gallery object for the admin listing. Enrolled is
// false for images that are persisted but failed extraction (kept for
// operator inspection, never matched against).
type EntryInfo struct {
	Label    string
	Key      string
	Enrolled bool
}

// Manager is the admin-facing enrollment surface, keeping the cache
// consistent with the blob store.
type Manager struct {
	store     BlobStore
	extractor Extractor
	cache     *Cache
}

func NewManager(store BlobStore, extractor Extractor, cache *Cache) *Manager {
	return &Manager{store: store, extractor: extractor, cache: cache}
}

// Enroll persists the image first, then extracts its embedding. If extraction
// fails the persisted image is retained for inspection but no cache entry is
// created; the gallery never holds an entry without an embedding.
func (m *Manager) Enroll(ctx context.Context, imageData []byte, label, contentType string) (models.GalleryEntry, error) {
	if err := validateLabel(label); err != nil {
		return models.GalleryEntry{}, err
	}
	if m.extractor == nil {
		return models.GalleryEntry{}, models.ErrExtractorUnavailable
	}

	key := FacesPrefix + label
	if err := m.store.PutObject(ctx, key, imageData, contentType); err != nil {
		return models.GalleryEntry{}, fmt.Errorf("persist gallery image: %w", err)
	}

	embeddings, err := m.extractor.Extract(imageData)
	if err != nil {
		return models.GalleryEntry{}, fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
	}
	switch len(embeddings) {
	case 0:
		return models.GalleryEntry{}, fmt.Errorf("%w: %w", models.ErrExtractionFailed, models.ErrNoFaceDetected)
	case 1:
	default:
		return models.GalleryEntry{}, fmt.Errorf("%w: %w", models.ErrExtractionFailed, models.ErrMultipleFacesDetected)
	}

	entry := models.GalleryEntry{
		Label:     label,
		SourceKey: key,
		Embedding: embeddings[0],
	}
	m.cache.Add(entry)

	slog.Info("enrolled gallery entry", "label", label)
	return entry, nil
}

// Unenroll removes label from the cache and deletes its image from the blob
// store. The cache removal is visible to the next match before the blob
// delete even starts.
func (m *Manager) Unenroll(ctx context.Context, label string) error {
	if err := validateLabel(label); err != nil {
		return err
	}

	removed := m.cache.Remove(label)

	// The blob may exist without a cache entry (failed extraction); clean
	// it up either way. Delete on a missing key is a no-op.
	if err := m.store.DeleteObject(ctx, FacesPrefix+label); err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}

	if !removed {
		return models.ErrNotFound
	}

	slog.Info("unenrolled gallery entry", "label", label)
	return nil
}

// List returns every gallery object in the store, flagging which ones are
// backed by a cached embedding.
func (m *Manager) List(ctx context.Context) ([]EntryInfo, error) {
	keys, err := m.store.ListObjects(ctx, FacesPrefix)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	infos := make([]EntryInfo, 0, len(keys))
	for _, key := range keys {
		label := LabelFromKey(key)
		infos = append(infos, EntryInfo{
			Label:    label,
			Key:      key,
			Enrolled: m.cache.Has(label),
		})
	}
	return infos, nil
}

func validateLabel(label string) error {
	if label == "" || strings.Contains(label, "/") {
		return fmt.Errorf("invalid label %q", label)
	}
	return nil
}
