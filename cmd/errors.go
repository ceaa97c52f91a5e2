package cmd

import "github.com/bnema/propman-cli/internal/domain"

// userFacingError prints the domain message for err while staying matchable
// with errors.Is and errors.As.
type userFacingError struct {
	err error
}

func userFacing(err error) error {
	if err == nil {
		return nil
	}
	return userFacingError{err: err}
}

func (e userFacingError) Error() string {
	return domain.UserMessage(e.err)
}

func (e userFacingError) Unwrap() error {
	return e.err
}
