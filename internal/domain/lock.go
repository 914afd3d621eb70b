package domain

import (
	"context"
	"errors"
)

// ErrTurnInProgress is returned when another turn holds the session lock
var ErrTurnInProgress = errors.New("turn in progress")

// TurnLocker serializes turns of the same session across requests.
type TurnLocker interface {
	// TryLock returns ErrTurnInProgress when the session is already locked.
	// The returned unlock func releases only the lock it acquired.
	TryLock(ctx context.Context, sessionID string) (unlock func(), err error)
}
