package dto

// SubmissionResponse is the synchronous answer to a face submission: either
// an auto-accept with a display confidence, or a created pending request.
type SubmissionResponse struct {
	Matched     bool    `json:"matched"`
	Label       string  `json:"label,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Pending     bool    `json:"pending,omitempty"`
	RequestID   string  `json:"request_id,omitempty"`
	PollAfterMS int64   `json:"poll_after_ms,omitempty"`
}
