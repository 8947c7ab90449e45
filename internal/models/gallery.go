package models

// GalleryEntry is one known face: an opaque label (derived from the enrolled
// image's storage key) and its embedding. Entries are immutable once created;
// re-enrollment replaces the entry, never mutates it in place.
type GalleryEntry struct {
	Label     string    `json:"label"`
	SourceKey string    `json:"source_key"`
	Embedding []float32 `json:"-"`
}

// MatchResult is the transient outcome of a nearest-neighbour lookup.
type MatchResult struct {
	Matched bool
	Label   string
	// Distance is the Euclidean distance to the best entry; lower is better.
	Distance float64
	// GalleryEmpty distinguishes "no reference data" from "no match below
	// threshold". An empty gallery is not an error; submissions still go
	// to review.
	GalleryEmpty bool
}

// Confidence derives the display value (1 - distance) * 100, clamped to
// [0, 100]. Presentation only; decisions always use Distance against the
// threshold.
func (m MatchResult) Confidence() float64 {
	c := (1 - m.Distance) * 100
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
