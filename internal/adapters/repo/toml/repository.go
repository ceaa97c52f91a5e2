package toml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const tempFilePattern = ".pending-actions-*.toml.tmp"

var ErrMissingQueuePath = errors.New("pending actions path is empty")

// ActionRepository persists the pending-action queue as a single TOML file.
// Every write replaces the whole file through a temp file and rename while
// holding a lock file next to it, so several pm processes can share the queue.
type ActionRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.PendingActionRepository = (*ActionRepository)(nil)

func NewActionRepository(path string) (*ActionRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingQueuePath
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &ActionRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *ActionRepository) Path() string {
	return r.path
}

// Load returns the stored actions in queue order. A missing file is an empty queue.
func (r *ActionRepository) Load(ctx context.Context) ([]domain.PendingAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.load()
}

// Save replaces the stored queue with actions without reading it first, so it
// also recovers from a file that no longer decodes.
func (r *ActionRepository) Save(ctx context.Context, actions []domain.PendingAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := lockFile(ctx, r.path, "pending actions")
	if err != nil {
		return err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(toFileSchema(actions))
}

// Update reads the stored queue, applies change and writes the result under
// the in-process and cross-process locks. An error from change leaves the
// file untouched and is returned unwrapped.
func (r *ActionRepository) Update(ctx context.Context, change func([]domain.PendingAction) ([]domain.PendingAction, error)) ([]domain.PendingAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := lockFile(ctx, r.path, "pending actions")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := r.load()
	if err != nil {
		return nil, err
	}

	next, err := change(current)
	if err != nil {
		return nil, err
	}

	if err := r.writeSchema(toFileSchema(next)); err != nil {
		return nil, err
	}

	return next, nil
}

func (r *ActionRepository) load() ([]domain.PendingAction, error) {
	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	actions := make([]domain.PendingAction, 0, len(file.Actions))
	for _, entry := range file.Actions {
		action, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	return actions, nil
}

func (r *ActionRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read pending actions file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode pending actions file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *ActionRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode pending actions file: %w", err)
	}

	return writeAtomic(r.path, tempFilePattern, "pending actions", data)
}

func toFileSchema(actions []domain.PendingAction) fileSchema {
	file := fileSchema{Actions: make([]pendingActionSchema, 0, len(actions))}
	for _, action := range actions {
		file.Actions = append(file.Actions, toSchema(action))
	}
	return file
}

func toSchema(action domain.PendingAction) pendingActionSchema {
	return pendingActionSchema{
		ID:         action.ID,
		Type:       action.Type,
		Endpoint:   action.Endpoint,
		Method:     string(action.Method),
		Payload:    string(action.Payload),
		Timestamp:  action.Timestamp,
		RetryCount: action.RetryCount,
	}
}

func fromSchema(entry pendingActionSchema) (domain.PendingAction, error) {
	method, err := domain.ParseMethod(entry.Method)
	if err != nil {
		return domain.PendingAction{}, fmt.Errorf("decode pending action %q: %w", entry.ID, err)
	}

	var payload json.RawMessage
	if entry.Payload != "" {
		if !json.Valid([]byte(entry.Payload)) {
			return domain.PendingAction{}, fmt.Errorf("decode pending action %q: payload is not valid json", entry.ID)
		}
		payload = json.RawMessage(entry.Payload)
	}

	return domain.PendingAction{
		ID:         entry.ID,
		Type:       entry.Type,
		Endpoint:   entry.Endpoint,
		Method:     method,
		Payload:    payload,
		Timestamp:  entry.Timestamp,
		RetryCount: entry.RetryCount,
	}, nil
}
