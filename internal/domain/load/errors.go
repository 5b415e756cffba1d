package load

import (
	"errors"
	"fmt"
	"time"
)

// ErrOutOfOrderUpdate marks a sequencing violation. Fatal to the batch:
// the time-series invariant forbids applying stress behind AsOfDate.
var ErrOutOfOrderUpdate = errors.New("out of order update")

// OutOfOrderError carries the offending session and the state it
// collided with. Unwraps to ErrOutOfOrderUpdate.
type OutOfOrderError struct {
	AthleteID   string
	SessionID   string
	SessionDate time.Time
	AsOfDate    time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("out of order update for athlete %s: session %s dated %s precedes state as of %s",
		e.AthleteID, e.SessionID, e.SessionDate.Format(time.DateOnly), e.AsOfDate.Format(time.DateOnly))
}

func (e *OutOfOrderError) Unwrap() error { return ErrOutOfOrderUpdate }
