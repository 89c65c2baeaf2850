package ai

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type attemptPhase int

const (
	phaseAttempting attemptPhase = iota
	phaseSucceeded
	phaseFailedFatal
	phaseFailedExhausted
)

func (p attemptPhase) String() string {
	switch p {
	case phaseAttempting:
		return "attempting"
	case phaseSucceeded:
		return "succeeded"
	case phaseFailedFatal:
		return "failed_fatal"
	case phaseFailedExhausted:
		return "failed_exhausted"
	}
	return "unknown"
}

// attemptState is one step of a completion call. attempt counts from 1;
// budget is the total number of attempts allowed.
type attemptState struct {
	phase   attemptPhase
	attempt int
	budget  int
	backoff bool // wait before the next attempt
	reply   string
	err     error
}

// attemptOutcome is what a single API call produced.
type attemptOutcome struct {
	content string
	err     error
}

func newAttemptState(budget int) attemptState {
	if budget < 1 {
		budget = 1
	}
	return attemptState{phase: phaseAttempting, attempt: 1, budget: budget}
}

func (s attemptState) done() bool {
	return s.phase != phaseAttempting
}

// transition is pure: the next state depends only on the current one and the outcome.
func transition(s attemptState, o attemptOutcome) attemptState {
	if s.done() {
		return s
	}

	if o.err == nil {
		s.phase = phaseSucceeded
		s.backoff = false
		s.reply = o.content
		if s.reply == "" {
			s.reply = FallbackReply
		}
		return s
	}

	status := httpStatus(o.err)
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		s.phase = phaseFailedFatal
		s.err = &BadRequestError{StatusCode: status, Body: errorBody(o.err), Err: o.err}
		return s
	}

	if s.attempt >= s.budget {
		s.phase = phaseFailedExhausted
		s.err = &RetriesExceededError{Attempts: s.attempt, Last: o.err}
		return s
	}

	s.attempt++
	s.backoff = retryableStatus(status)
	s.err = o.err
	return s
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// httpStatus returns the HTTP status carried by a go-openai error, or 0 for
// failures that never got an HTTP answer.
func httpStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func errorBody(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && len(reqErr.Body) > 0 {
		return string(reqErr.Body)
	}
	return err.Error()
}
