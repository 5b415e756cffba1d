package plan

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoTemplateCoverage marks a planning window entirely outside the
// template's defined weeks. Fatal to plan generation only; load-state
// updates are unaffected.
var ErrNoTemplateCoverage = errors.New("no template coverage")

// NoTemplateCoverageError carries the uncovered window. Unwraps to
// ErrNoTemplateCoverage.
type NoTemplateCoverageError struct {
	AthleteID   string
	WindowStart time.Time
	WindowDays  int
}

func (e *NoTemplateCoverageError) Error() string {
	return fmt.Sprintf("no template coverage for athlete %s: window of %d days from %s",
		e.AthleteID, e.WindowDays, e.WindowStart.Format(time.DateOnly))
}

func (e *NoTemplateCoverageError) Unwrap() error { return ErrNoTemplateCoverage }
