package normalize

import (
	"errors"
	"fmt"
)

// ErrInvalidSession marks malformed per-session data. Recoverable:
// callers skip the session and surface a diagnostic.
var ErrInvalidSession = errors.New("invalid session")

// InvalidSessionError carries enough context to remediate a rejected
// session. Unwraps to ErrInvalidSession.
type InvalidSessionError struct {
	SessionID string
	Reason    string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session %s: %s", e.SessionID, e.Reason)
}

func (e *InvalidSessionError) Unwrap() error { return ErrInvalidSession }
