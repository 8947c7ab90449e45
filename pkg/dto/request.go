package dto

// RequestStatusResponse reports the current state of an approval request.
type RequestStatusResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// WSEvent is a WebSocket message pushed when a request reaches a terminal
// state, so a waiting client doesn't have to rely on polling alone.
type WSEvent struct {
	Type      string `json:"type"` // request_resolved
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}
