package advisor

import (
	"errors"
	"fmt"
)

var (
	// ErrRankerRequired is returned when a ranker is not provided.
	ErrRankerRequired = errors.New("ranker required")

	// ErrInvalidPoolSize is returned for a pool size below one.
	ErrInvalidPoolSize = errors.New("pool size must be at least 1")
)

// RequestError reports the failure of one request of a batch.
type RequestError struct {
	Index int
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %d: %v", e.Index, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
