package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrActionNotFound = errors.New("pending action not found")
	ErrInvalidMethod  = errors.New("invalid mutation method")

	// ErrAuthExpired tags a rejected access token in gateway logs. The gateway
	// recovers from it by refreshing and never returns it to callers.
	ErrAuthExpired        = errors.New("access token expired")
	ErrAuthFailed         = errors.New("session expired")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrQueueExhausted     = errors.New("pending action dropped after max retries")
	ErrSyncInProgress     = errors.New("sync already in progress")

	ErrRateLimited = errors.New("rate limited")
	ErrClientError = errors.New("client error")
	ErrServerError = errors.New("server error")
)

const DefaultRetryAfter = 60 * time.Second

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry in %d seconds", int(e.RetryAfter.Seconds()))
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

type ClientError struct {
	Status  int
	Message string
}

func (e *ClientError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected with status %d", e.Status)
	}
	return fmt.Sprintf("request rejected with status %d: %s", e.Status, e.Message)
}

func (e *ClientError) Unwrap() error {
	return ErrClientError
}

type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.Status)
}

func (e *ServerError) Unwrap() error {
	return ErrServerError
}

// UserMessage maps an error from the request layer to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	// A failed refresh may wrap the transport or server error that caused it.
	if errors.Is(err, ErrAuthFailed) {
		return "Your session has expired. Please log in again."
	}

	var rateLimited *RateLimitedError
	if errors.As(err, &rateLimited) {
		return fmt.Sprintf("Too many requests, try again in %d seconds.", int(rateLimited.RetryAfter.Seconds()))
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		if clientErr.Message != "" {
			return clientErr.Message
		}
		return fmt.Sprintf("The request was rejected (status %d).", clientErr.Status)
	}

	switch {
	case errors.Is(err, ErrServerError):
		return "Something went wrong on the server. Please try again later."
	case errors.Is(err, ErrNetworkUnreachable):
		return "Cannot reach the server. Check your connection."
	case errors.Is(err, ErrQueueExhausted):
		return "A change made while offline could not be saved and was discarded. Please redo it."
	default:
		return err.Error()
	}
}
