package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facegate/internal/models"
)

func TestEnrollAddsEntryVisibleImmediately(t *testing.T) {
	store := newFakeStore()
	extractor := &perImageExtractor{byContent: map[string][][]float32{
		"photo": {{0.5, 0.5}},
	}}
	cache := NewCache()
	m := NewManager(store, extractor, cache)

	entry, err := m.Enroll(context.Background(), []byte("photo"), "carol.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "carol.jpg", entry.Label)
	assert.Equal(t, FacesPrefix+"carol.jpg", entry.SourceKey)

	// an immediately following match sees the new entry
	snap := cache.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "carol.jpg", snap[0].Label)

	// the image was persisted before extraction
	_, err = store.GetObject(context.Background(), FacesPrefix+"carol.jpg")
	require.NoError(t, err)
}

func TestEnrollExtractionFailureRetainsBlob(t *testing.T) {
	store := newFakeStore()
	extractor := &perImageExtractor{byContent: map[string][][]float32{}}
	cache := NewCache()
	m := NewManager(store, extractor, cache)

	_, err := m.Enroll(context.Background(), []byte("broken"), "bad.jpg", "image/jpeg")
	require.ErrorIs(t, err, models.ErrExtractionFailed)

	// no cache entry without an embedding
	assert.Equal(t, 0, cache.Len())

	// the blob stays for operator inspection
	_, err = store.GetObject(context.Background(), FacesPrefix+"bad.jpg")
	require.NoError(t, err)
}

func TestEnrollRejectsMultiFaceReference(t *testing.T) {
	store := newFakeStore()
	extractor := &perImageExtractor{byContent: map[string][][]float32{
		"group": {{1, 0}, {0, 1}},
	}}
	cache := NewCache()
	m := NewManager(store, extractor, cache)

	_, err := m.Enroll(context.Background(), []byte("group"), "group.jpg", "image/jpeg")
	require.ErrorIs(t, err, models.ErrExtractionFailed)
	require.ErrorIs(t, err, models.ErrMultipleFacesDetected)
	assert.Equal(t, 0, cache.Len())
}

func TestEnrollStorageFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("bucket unavailable")
	cache := NewCache()
	m := NewManager(store, &perImageExtractor{}, cache)

	_, err := m.Enroll(context.Background(), []byte("photo"), "x.jpg", "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestEnrollValidatesLabel(t *testing.T) {
	m := NewManager(newFakeStore(), &perImageExtractor{}, NewCache())

	_, err := m.Enroll(context.Background(), []byte("x"), "", "image/jpeg")
	require.Error(t, err)

	_, err = m.Enroll(context.Background(), []byte("x"), "a/b.jpg", "image/jpeg")
	require.Error(t, err)
}

func TestEnrollWithoutExtractor(t *testing.T) {
	m := NewManager(newFakeStore(), nil, NewCache())

	_, err := m.Enroll(context.Background(), []byte("x"), "x.jpg", "image/jpeg")
	require.ErrorIs(t, err, models.ErrExtractorUnavailable)
}

func TestUnenrollRemovesCacheAndBlob(t *testing.T) {
	store := newFakeStore()
	extractor := &perImageExtractor{byContent: map[string][][]float32{
		"photo": {{0.5, 0.5}},
	}}
	cache := NewCache()
	m := NewManager(store, extractor, cache)

	_, err := m.Enroll(context.Background(), []byte("photo"), "carol.jpg", "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, m.Unenroll(context.Background(), "carol.jpg"))

	// gone from the cache and the store
	assert.False(t, cache.Has("carol.jpg"))
	assert.Empty(t, cache.Snapshot())
	_, err = store.GetObject(context.Background(), FacesPrefix+"carol.jpg")
	require.Error(t, err)
}

func TestUnenrollUnknownLabel(t *testing.T) {
	m := NewManager(newFakeStore(), &perImageExtractor{}, NewCache())

	err := m.Unenroll(context.Background(), "ghost.jpg")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestListFlagsUnenrolledBlobs(t *testing.T) {
	store := newFakeStore()
	extractor := &perImageExtractor{byContent: map[string][][]float32{
		"good": {{1, 0}},
	}}
	cache := NewCache()
	m := NewManager(store, extractor, cache)

	_, err := m.Enroll(context.Background(), []byte("good"), "good.jpg", "image/jpeg")
	require.NoError(t, err)
	_, err = m.Enroll(context.Background(), []byte("bad"), "bad.jpg", "image/jpeg")
	require.Error(t, err)

	infos, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byLabel := make(map[string]EntryInfo)
	for _, info := range infos {
		byLabel[info.Label] = info
	}
	assert.True(t, byLabel["good.jpg"].Enrolled)
	assert.False(t, byLabel["bad.jpg"].Enrolled)
}
