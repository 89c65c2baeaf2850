package featuretoken

import (
	"errors"
	"fmt"
	"time"
)

var ErrMaxUserTokens = errors.New("featuretoken: user has no tokens left")

type MaxUserTokensError struct {
	UserID          string
	NextAvailableAt time.Time
}

func (e *MaxUserTokensError) Error() string {
	return fmt.Sprintf("featuretoken: %s has no tokens left until %s",
		e.UserID, e.NextAvailableAt.UTC().Format(time.RFC3339))
}

func (e *MaxUserTokensError) Is(target error) bool {
	return target == ErrMaxUserTokens
}
