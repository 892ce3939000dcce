package request

import "time"

const (
	EventRequestSubmitted  = "RequestSubmitted"
	EventRequestProcessing = "RequestProcessing"
	EventRequestCompleted  = "RequestCompleted"
	EventRequestCancelled  = "RequestCancelled"
)

// RequestItem is one line of a submitted order request
type RequestItem struct {
	DeviceID  string `json:"device_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// RequestSubmitted is emitted when a buyer submits their cart as an order
// request
type RequestSubmitted struct {
	RequestID   string        `json:"request_id"`
	UserID      string        `json:"user_id"`
	Company     string        `json:"company"`
	Items       []RequestItem `json:"items"`
	Total       int           `json:"total"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// RequestProcessing is emitted when an admin starts working a request
type RequestProcessing struct {
	RequestID string    `json:"request_id"`
	StartedBy string    `json:"started_by"`
	StartedAt time.Time `json:"started_at"`
}

// RequestCompleted is emitted when the request has been fulfilled
type RequestCompleted struct {
	RequestID   string    `json:"request_id"`
	CompletedBy string    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}

// RequestCancelled is emitted when a request is withdrawn before completion
type RequestCancelled struct {
	RequestID   string    `json:"request_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}
