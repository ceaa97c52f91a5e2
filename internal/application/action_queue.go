package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrMissingActionType = errors.New("pending action type is required")
	ErrMissingEndpoint   = errors.New("pending action endpoint is required")
	ErrInvalidPayload    = errors.New("pending action payload is not valid JSON")
)

// ActionQueue is the durable FIFO of offline mutations. The stored queue is
// the source of truth: every change is applied to a fresh read of it, so
// actions written by other processes are kept, and becomes visible only once
// written. A failed write leaves the in-memory queue untouched.
type ActionQueue struct {
	repo   ports.PendingActionRepository
	clock  ports.Clock
	logger zerolog.Logger
	newID  func() string

	mu      sync.Mutex
	actions []domain.PendingAction
}

func NewActionQueue(repo ports.PendingActionRepository, clock ports.Clock, logger zerolog.Logger) *ActionQueue {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ActionQueue{
		repo:   repo,
		clock:  clock,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Load replaces the in-memory queue with the persisted one.
func (q *ActionQueue) Load(ctx context.Context) error {
	actions, err := q.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load pending actions: %w", err)
	}

	q.mu.Lock()
	q.actions = cloneActions(actions)
	q.mu.Unlock()

	q.logger.Debug().Int("pending", len(actions)).Msg("pending actions loaded")
	return nil
}

// Enqueue appends a new action. payload may be nil, raw JSON bytes, or any
// value encodable with encoding/json.
func (q *ActionQueue) Enqueue(ctx context.Context, actionType, endpoint string, method domain.Method, payload any) (domain.PendingAction, error) {
	actionType = strings.TrimSpace(actionType)
	if actionType == "" {
		return domain.PendingAction{}, ErrMissingActionType
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return domain.PendingAction{}, ErrMissingEndpoint
	}
	if !method.Valid() {
		return domain.PendingAction{}, fmt.Errorf("%w: %q", domain.ErrInvalidMethod, method)
	}

	encoded, err := encodePayload(payload)
	if err != nil {
		return domain.PendingAction{}, err
	}

	action := domain.PendingAction{
		ID:        q.newID(),
		Type:      actionType,
		Endpoint:  endpoint,
		Method:    method,
		Payload:   encoded,
		Timestamp: q.clock.Now().UnixMilli(),
	}

	_, err = q.update(ctx, func(current []domain.PendingAction) ([]domain.PendingAction, error) {
		return append(current, action), nil
	})
	if err != nil {
		return domain.PendingAction{}, err
	}

	q.logger.Info().Str("id", action.ID).Str("type", action.Type).Str("endpoint", action.Endpoint).Msg("action queued")
	return action.Clone(), nil
}

// Dequeue removes the action with id.
func (q *ActionQueue) Dequeue(ctx context.Context, id string) error {
	_, err := q.update(ctx, func(current []domain.PendingAction) ([]domain.PendingAction, error) {
		index := indexOf(current, id)
		if index < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrActionNotFound, id)
		}
		return append(current[:index:index], current[index+1:]...), nil
	})
	return err
}

// BumpRetry increments the retry count of the action with id and returns it.
func (q *ActionQueue) BumpRetry(ctx context.Context, id string) (domain.PendingAction, error) {
	var bumped domain.PendingAction
	_, err := q.update(ctx, func(current []domain.PendingAction) ([]domain.PendingAction, error) {
		index := indexOf(current, id)
		if index < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrActionNotFound, id)
		}
		current[index].RetryCount++
		bumped = current[index].Clone()
		return current, nil
	})
	if err != nil {
		return domain.PendingAction{}, err
	}
	return bumped, nil
}

// List returns a copy of the queue in insertion order.
func (q *ActionQueue) List() []domain.PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	return cloneActions(q.actions)
}

func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.actions)
}

// Clear drops every pending action.
func (q *ActionQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.persist(ctx, []domain.PendingAction{}); err != nil {
		return err
	}
	q.actions = nil
	return nil
}

// update applies change to the stored queue and adopts the result.
func (q *ActionQueue) update(ctx context.Context, change func([]domain.PendingAction) ([]domain.PendingAction, error)) ([]domain.PendingAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var changeErr error
	next, err := q.repo.Update(ctx, func(current []domain.PendingAction) ([]domain.PendingAction, error) {
		next, err := change(cloneActions(current))
		changeErr = err
		return next, err
	})
	if changeErr != nil {
		return nil, changeErr
	}
	if err != nil {
		return nil, fmt.Errorf("persist pending actions: %w", err)
	}

	q.actions = cloneActions(next)
	return cloneActions(next), nil
}

func (q *ActionQueue) persist(ctx context.Context, actions []domain.PendingAction) error {
	if err := q.repo.Save(ctx, actions); err != nil {
		return fmt.Errorf("persist pending actions: %w", err)
	}
	return nil
}

func indexOf(actions []domain.PendingAction, id string) int {
	for i, action := range actions {
		if action.ID == id {
			return i
		}
	}
	return -1
}

func cloneActions(actions []domain.PendingAction) []domain.PendingAction {
	cloned := make([]domain.PendingAction, 0, len(actions))
	for _, action := range actions {
		cloned = append(cloned, action.Clone())
	}
	return cloned
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch value := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return validRawPayload(value)
	case []byte:
		return validRawPayload(value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode pending action payload: %w", err)
		}
		return encoded, nil
	}
}

func validRawPayload(raw []byte) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, ErrInvalidPayload
	}
	return append(json.RawMessage(nil), raw...), nil
}
