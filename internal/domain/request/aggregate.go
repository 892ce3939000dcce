package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/device-portal/internal/domain/aggregate"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Request"

type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrEmptyRequest     = errors.New("request must have at least one item")
	ErrInvalidStatus    = errors.New("invalid request status transition")
	ErrRequestCompleted = errors.New("request is already completed")
	ErrRequestCancelled = errors.New("request is already cancelled")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusSubmitted:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
}

// Request represents an order request aggregate
type Request struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Company   string        `json:"company"`
	Items     []RequestItem `json:"items"`
	Total     int           `json:"total"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Version   int           `json:"version"`
}

// Aggregate interface implementation
func (r *Request) GetID() string    { return r.ID }
func (r *Request) GetVersion() int  { return r.Version }
func (r *Request) SetVersion(v int) { r.Version = v }

// CanTransitionTo checks if the request can transition to the target status
func (r *Request) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[r.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (r *Request) transitionError(target Status) error {
	switch r.Status {
	case StatusCompleted:
		return ErrRequestCompleted
	case StatusCancelled:
		return ErrRequestCancelled
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, r.Status, target)
	}
}

// ApplyEvent applies a single event to the request state (implements aggregate.Aggregate)
func (r *Request) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventRequestSubmitted:
		var data RequestSubmitted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.ID = data.RequestID
		r.UserID = data.UserID
		r.Company = data.Company
		r.Items = data.Items
		r.Total = data.Total
		r.Status = StatusSubmitted
		r.CreatedAt = data.SubmittedAt
		r.UpdatedAt = data.SubmittedAt
	case EventRequestProcessing:
		var data RequestProcessing
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusProcessing
		r.UpdatedAt = data.StartedAt
	case EventRequestCompleted:
		var data RequestCompleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusCompleted
		r.UpdatedAt = data.CompletedAt
	case EventRequestCancelled:
		var data RequestCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusCancelled
		r.UpdatedAt = data.CancelledAt
	}
	r.Version = event.Version
	return nil
}

// Service handles request domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Load rebuilds a request from its event history
func (s *Service) Load(ctx context.Context, requestID string) (*Request, error) {
	r, found, err := aggregate.LoadAggregate(ctx, s.eventStore, requestID, func() *Request {
		return &Request{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRequestNotFound
	}
	return r, nil
}

// Submit creates a request from cart contents
func (s *Service) Submit(ctx context.Context, userID, company string, items []RequestItem) (*Request, error) {
	if len(items) == 0 {
		return nil, ErrEmptyRequest
	}

	requestID := uuid.New().String()
	now := time.Now()

	var total int
	for _, item := range items {
		total += item.UnitPrice * item.Quantity
	}

	event := RequestSubmitted{
		RequestID:   requestID,
		UserID:      userID,
		Company:     company,
		Items:       items,
		Total:       total,
		SubmittedAt: now,
	}

	storedEvent, err := s.eventStore.Append(ctx, requestID, AggregateType, EventRequestSubmitted, event)
	if err != nil {
		return nil, err
	}

	r := &Request{
		ID:        requestID,
		UserID:    userID,
		Company:   company,
		Items:     items,
		Total:     total,
		Status:    StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if storedEvent != nil {
		r.Version = storedEvent.Version
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, r, AggregateType); err != nil {
		log.Printf("[Request] Failed to create snapshot for request %s: %v", r.ID, err)
	}

	return r, nil
}

// StartProcessing marks the request as being worked by an admin
func (s *Service) StartProcessing(ctx context.Context, requestID, startedBy string) error {
	r, err := s.Load(ctx, requestID)
	if err != nil {
		return err
	}

	if !r.CanTransitionTo(StatusProcessing) {
		return r.transitionError(StatusProcessing)
	}

	event := RequestProcessing{
		RequestID: requestID,
		StartedBy: startedBy,
		StartedAt: time.Now(),
	}

	_, err = s.eventStore.Append(ctx, requestID, AggregateType, EventRequestProcessing, event)
	return err
}

// Complete marks the request as fulfilled
func (s *Service) Complete(ctx context.Context, requestID, completedBy string) error {
	r, err := s.Load(ctx, requestID)
	if err != nil {
		return err
	}

	if !r.CanTransitionTo(StatusCompleted) {
		return r.transitionError(StatusCompleted)
	}

	event := RequestCompleted{
		RequestID:   requestID,
		CompletedBy: completedBy,
		CompletedAt: time.Now(),
	}

	_, err = s.eventStore.Append(ctx, requestID, AggregateType, EventRequestCompleted, event)
	return err
}

// Cancel withdraws the request. Allowed from any non-terminal status.
func (s *Service) Cancel(ctx context.Context, requestID, reason string) error {
	r, err := s.Load(ctx, requestID)
	if err != nil {
		return err
	}

	if !r.CanTransitionTo(StatusCancelled) {
		return r.transitionError(StatusCancelled)
	}

	event := RequestCancelled{
		RequestID:   requestID,
		Reason:      reason,
		CancelledAt: time.Now(),
	}

	_, err = s.eventStore.Append(ctx, requestID, AggregateType, EventRequestCancelled, event)
	return err
}
