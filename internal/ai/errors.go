package ai

import (
	"errors"
	"fmt"
)

// FallbackReply is returned when the API answers 200 without any content.
const FallbackReply = "I'm sorry, I don't understand."

var (
	ErrRetriesExceeded = errors.New("ai: maximum completion retries exceeded")
	ErrBadRequest      = errors.New("ai: completion request rejected")
	ErrNoImage         = errors.New("ai: image response carried no data")
)

type RetriesExceededError struct {
	Attempts int
	Last     error
}

func (e *RetriesExceededError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("ai: gave up after %d attempt(s)", e.Attempts)
	}
	return fmt.Sprintf("ai: gave up after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *RetriesExceededError) Is(target error) bool { return target == ErrRetriesExceeded }
func (e *RetriesExceededError) Unwrap() error        { return e.Last }

// BadRequestError is a non-retryable 4xx answer. Body holds what the API said.
type BadRequestError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("ai: bad request (HTTP %d): %s", e.StatusCode, e.Body)
}

func (e *BadRequestError) Is(target error) bool { return target == ErrBadRequest }
func (e *BadRequestError) Unwrap() error        { return e.Err }
