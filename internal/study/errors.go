package study

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPool is returned when no words are available to start a session
	ErrEmptyPool = errors.New("no words available for a session")
	// ErrSessionInactive is returned for operations on a session that is not running
	ErrSessionInactive = errors.New("session is not active")
	// ErrInvalidSettings is returned when study settings are out of range
	ErrInvalidSettings = errors.New("invalid study settings")
	// ErrItemOutOfRange is returned when a checklist index does not exist
	ErrItemOutOfRange = errors.New("checklist item out of range")
)

// EmptyPoolError describes why a session could not be built
type EmptyPoolError struct {
	// PoolSize is the number of words before the studied filter was applied
	PoolSize int
	// Unique is set when unique-words mode filtered out every word
	Unique bool
}

func (e *EmptyPoolError) Error() string {
	if e.Unique && e.PoolSize > 0 {
		return fmt.Sprintf("%v: all %d words already studied", ErrEmptyPool, e.PoolSize)
	}
	return ErrEmptyPool.Error()
}

func (e *EmptyPoolError) Unwrap() error {
	return ErrEmptyPool
}
