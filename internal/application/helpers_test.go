package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func mockAnyContext() interface{} {
	return mock.Anything
}

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type memorySecretStore struct {
	mu      sync.Mutex
	values  map[string]string
	putErr  error
	getErrs map[string]error
	deletes int
}

func newMemorySecretStore(values map[string]string) *memorySecretStore {
	copied := make(map[string]string, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return &memorySecretStore{values: copied, getErrs: map[string]error{}}
}

func (s *memorySecretStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.getErrs[key]; err != nil {
		return "", err
	}
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrSecretNotFound, key)
	}
	return value, nil
}

func (s *memorySecretStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		return s.putErr
	}
	s.values[key] = value
	return nil
}

func (s *memorySecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSecretNotFound, key)
	}
	delete(s.values, key)
	return nil
}

func (s *memorySecretStore) deleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

func (s *memorySecretStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok
}

type memoryActionRepository struct {
	mu      sync.Mutex
	actions []domain.PendingAction
	saveErr error
	saves   int
}

func (r *memoryActionRepository) Load(context.Context) ([]domain.PendingAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cloneActions(r.actions), nil
}

func (r *memoryActionRepository) Save(_ context.Context, actions []domain.PendingAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	r.actions = cloneActions(actions)
	r.saves++
	return nil
}

func (r *memoryActionRepository) Update(_ context.Context, change func([]domain.PendingAction) ([]domain.PendingAction, error)) ([]domain.PendingAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := change(cloneActions(r.actions))
	if err != nil {
		return nil, err
	}
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.actions = cloneActions(next)
	r.saves++
	return cloneActions(next), nil
}

func (r *memoryActionRepository) stored() []domain.PendingAction {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cloneActions(r.actions)
}

type memoryCacheRepository struct {
	mu      sync.Mutex
	entries []domain.CacheEntry
	updates int
}

func (r *memoryCacheRepository) Load(context.Context) ([]domain.CacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cloneCacheEntries(r.entries), nil
}

func (r *memoryCacheRepository) Update(_ context.Context, change func([]domain.CacheEntry) ([]domain.CacheEntry, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := change(cloneCacheEntries(r.entries))
	if err != nil {
		return err
	}
	sort.Slice(next, func(i, j int) bool { return next[i].Key.String() < next[j].Key.String() })
	r.entries = cloneCacheEntries(next)
	r.updates++
	return nil
}

func (r *memoryCacheRepository) stored() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make(map[string]string, len(r.entries))
	for _, entry := range r.entries {
		values[entry.Key.String()] = string(entry.Value)
	}
	return values
}

func cloneCacheEntries(entries []domain.CacheEntry) []domain.CacheEntry {
	cloned := make([]domain.CacheEntry, 0, len(entries))
	for _, entry := range entries {
		cloned = append(cloned, entry.Clone())
	}
	return cloned
}

type transportFunc func(ctx context.Context, req domain.Request, accessToken string) (domain.Response, error)

func (f transportFunc) Do(ctx context.Context, req domain.Request, accessToken string) (domain.Response, error) {
	return f(ctx, req, accessToken)
}

type refresherFunc func(ctx context.Context, refreshToken string) (domain.Credentials, error)

func (f refresherFunc) Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	return f(ctx, refreshToken)
}

type senderFunc func(ctx context.Context, req domain.Request) (domain.Response, error)

func (f senderFunc) Send(ctx context.Context, req domain.Request) (domain.Response, error) {
	return f(ctx, req)
}

type recordingNotifier struct {
	mu         sync.Mutex
	expired    int
	rateLimits []time.Duration
	synced     []domain.SyncSummary
}

func (n *recordingNotifier) SessionExpired(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired++
}

func (n *recordingNotifier) RateLimited(_ context.Context, retryAfter time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rateLimits = append(n.rateLimits, retryAfter)
}

func (n *recordingNotifier) SyncCompleted(_ context.Context, summary domain.SyncSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.synced = append(n.synced, summary)
}

func (n *recordingNotifier) expiredCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.expired
}

func (n *recordingNotifier) summaries() []domain.SyncSummary {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.SyncSummary(nil), n.synced...)
}

func signedToken(exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "manager-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

func newTestQueue(repo *memoryActionRepository) *ActionQueue {
	queue := NewActionQueue(repo, fixedClock{now: testNow}, zerolog.Nop())
	queue.newID = sequentialIDs("act")
	return queue
}

func okResponse(body string) domain.Response {
	return domain.Response{Status: 200, Body: []byte(body)}
}
