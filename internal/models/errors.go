package models

import "errors"

// Domain error taxonomy. Handlers match these with errors.Is and map them
// to structured, user-displayable reasons.
var (
	// ErrNoFaceDetected means the extractor found no face in the image.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMultipleFacesDetected means the extractor found more than one face.
	// Matching an ambiguous embedding is never attempted.
	ErrMultipleFacesDetected = errors.New("multiple faces detected")

	// ErrDimensionMismatch means a query and gallery embedding differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrExtractionFailed means embedding extraction failed during enrollment.
	ErrExtractionFailed = errors.New("embedding extraction failed")

	// ErrNotFound means an unknown request id or gallery label.
	ErrNotFound = errors.New("not found")

	// ErrNotPending means the operation only applies to pending requests.
	ErrNotPending = errors.New("request is not pending")

	// ErrExtractorUnavailable means the extractor failed to initialize;
	// extraction-dependent endpoints report this instead of crashing.
	ErrExtractorUnavailable = errors.New("extractor unavailable")
)
