package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
)

var ErrMissingLoginCredentials = errors.New("email and password are required")

// Service covers the session lifecycle: login, logout and status.
type Service struct {
	sender     Sender
	session    *Session
	queue      *ActionQueue
	monitor    *ConnectivityMonitor
	clock      ports.Clock
	maxRetries int
}

func NewService(sender Sender, session *Session, queue *ActionQueue, monitor *ConnectivityMonitor, clock ports.Clock, maxRetries int) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Service{
		sender:     sender,
		session:    session,
		queue:      queue,
		monitor:    monitor,
		clock:      clock,
		maxRetries: maxRetries,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a credential pair and stores it.
// If storing fails the previous session is put back.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingLoginCredentials
	}

	resp, err := s.sender.Send(ctx, domain.Request{
		Method:          http.MethodPost,
		Path:            "/auth/login",
		Body:            loginRequest{Email: email, Password: password},
		SkipAuthRefresh: true,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var creds domain.Credentials
	if err := json.Unmarshal(resp.Body, &creds); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(creds.AccessToken) == "" || strings.TrimSpace(creds.RefreshToken) == "" {
		return fmt.Errorf("decode login response: %w", ErrMissingAccessToken)
	}

	previous := s.session.Credentials()
	if err := s.session.Replace(ctx, creds); err != nil {
		var rollbackErr error
		if previous.Empty() {
			rollbackErr = s.session.Clear(ctx)
		} else {
			rollbackErr = s.session.Replace(ctx, previous)
		}
		if rollbackErr != nil {
			return fmt.Errorf("store credentials and rollback session: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("store credentials: %w", err)
	}

	return nil
}

// Logout ends the session and discards changes still waiting to sync.
func (s *Service) Logout(ctx context.Context) error {
	var errs error
	if err := s.session.Clear(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("clear session: %w", err))
	}
	if err := s.queue.Clear(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("clear pending actions: %w", err))
	}
	return errs
}

func (s *Service) Status() Status {
	expiresAt, _ := s.session.AccessTokenExpiry()

	return Status{
		Authenticated:    s.session.Authenticated(),
		Online:           s.monitor.Online(),
		TokenExpiresAt:   expiresAt,
		Pending:          s.queue.List(),
		MaxRetries:       s.maxRetries,
		CheckedAt:        s.clock.Now(),
		AccessTokenValid: s.session.AccessToken() != "",
	}
}
