// Package model contains domain models passed between layers.
package model

import "time"

// Sample is a single sensor reading inside a session. Power and heart
// rate are optional; vendors that report neither still produce valid
// sessions. Cadence is carried through for completeness but does not
// participate in load computation.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	PowerWatts   *float64  `json:"power_watts,omitempty"`
	HeartRateBPM *float64  `json:"heart_rate_bpm,omitempty"`
	CadenceRPM   *float64  `json:"cadence_rpm,omitempty"`
}

// Session represents one recorded workout as delivered by the ingestion
// collaborator. Immutable once normalized. Sport, distance and
// elevation are pass-through metadata and are ignored by scoring.
type Session struct {
	ID                  string    `json:"id"`
	AthleteID           string    `json:"athlete_id"`
	StartTime           time.Time `json:"start_time"`
	DurationSeconds     int       `json:"duration_seconds"`
	Sport               string    `json:"sport,omitempty"`
	DistanceMeters      float64   `json:"distance_m,omitempty"`
	ElevationGainMeters float64   `json:"elevation_gain_m,omitempty"`
	Samples             []Sample  `json:"samples"`
}

// AthleteProfile holds the per-athlete reference values normalization
// divides against.
type AthleteProfile struct {
	AthleteID      string  `json:"athlete_id"`
	ThresholdPower float64 `json:"threshold_power"`
	ThresholdHR    float64 `json:"threshold_hr"`
	MaxHR          float64 `json:"max_hr,omitempty"`
}

// SummaryBasis identifies which sensor channel a summary was derived from.
type SummaryBasis string

// Summary basis values, from most to least trustworthy.
const (
	BasisPower     SummaryBasis = "power"
	BasisHeartRate SummaryBasis = "heart_rate"
	BasisDuration  SummaryBasis = "duration"
)

// SessionSummary is the canonical per-session result produced by the
// normalizer. Recomputable from its Session; replaced, never mutated.
type SessionSummary struct {
	SessionID       string       `json:"session_id"`
	AthleteID       string       `json:"athlete_id"`
	Date            time.Time    `json:"date"`
	DurationSeconds int          `json:"duration_seconds"`
	StressScore     float64      `json:"stress_score"`
	IntensityFactor float64      `json:"intensity_factor"`
	Basis           SummaryBasis `json:"basis"`
	Degraded        bool         `json:"degraded,omitempty"`
}

// LoadPoint is one day of the append-only load history.
type LoadPoint struct {
	Date        time.Time `json:"date"`
	ChronicLoad float64   `json:"chronic_load"`
	AcuteLoad   float64   `json:"acute_load"`
}

// LoadState is the rolling fitness/fatigue state for one athlete.
// Owned by the load accumulator; AsOfDate never decreases.
type LoadState struct {
	AthleteID   string      `json:"athlete_id"`
	AsOfDate    time.Time   `json:"as_of_date"`
	ChronicLoad float64     `json:"chronic_load"`
	AcuteLoad   float64     `json:"acute_load"`
	History     []LoadPoint `json:"history,omitempty"`
}

// Balance returns chronic minus acute load. Positive balance indicates
// accumulating fatigue risk, negative indicates freshness.
func (s LoadState) Balance() float64 {
	return s.ChronicLoad - s.AcuteLoad
}

// Initialized reports whether the state has absorbed at least one update.
func (s LoadState) Initialized() bool {
	return !s.AsOfDate.IsZero()
}

// RiskKind classifies the current load balance.
type RiskKind string

// Risk classifications.
const (
	RiskOvertraining  RiskKind = "overtraining"
	RiskUndertraining RiskKind = "undertraining"
	RiskNominal       RiskKind = "nominal"
)

// RiskFlag is the detector's verdict for one athlete on one date.
type RiskFlag struct {
	AthleteID string    `json:"athlete_id"`
	Date      time.Time `json:"date"`
	Kind      RiskKind  `json:"kind"`
	Severity  float64   `json:"severity"`
}

// PlanPhase names a periodization phase.
type PlanPhase string

// Periodization phases.
const (
	PhaseBase     PlanPhase = "base"
	PhaseBuild    PlanPhase = "build"
	PhasePeak     PlanPhase = "peak"
	PhaseTaper    PlanPhase = "taper"
	PhaseRecovery PlanPhase = "recovery"
)

// ValidPhase reports whether p is one of the known periodization phases.
func ValidPhase(p PlanPhase) bool {
	switch p {
	case PhaseBase, PhaseBuild, PhasePeak, PhaseTaper, PhaseRecovery:
		return true
	}
	return false
}

// PlanWeek is one week of a periodization template.
type PlanWeek struct {
	Index              int       `json:"week_index" koanf:"week_index"`
	Phase              PlanPhase `json:"phase" koanf:"phase"`
	TargetWeeklyStress float64   `json:"target_weekly_stress" koanf:"target_weekly_stress"`
	SessionCount       int       `json:"session_count" koanf:"session_count"`
}

// PlanTemplate is an externally supplied periodization skeleton.
// Week i covers the seven days starting at StartDate + 7i.
type PlanTemplate struct {
	Name      string     `json:"name" koanf:"name"`
	StartDate time.Time  `json:"start_date" koanf:"start_date"`
	Weeks     []PlanWeek `json:"weeks" koanf:"weeks"`
}

// Recommendation is one prescribed day of the planning window.
type Recommendation struct {
	Date         time.Time `json:"date"`
	StressTarget float64   `json:"stress_target"`
	Rationale    string    `json:"rationale"`
}

// RecommendationSet is the adapter's output for one planning window.
// Immutable once produced.
type RecommendationSet struct {
	ID          string           `json:"id"`
	AthleteID   string           `json:"athlete_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Window      []Recommendation `json:"window"`
}

// Diagnostic records a session that was skipped during a batch update.
type Diagnostic struct {
	SessionID string    `json:"session_id"`
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason"`
}

// DateOf truncates t to midnight UTC. All load-state dates are stored
// at day granularity.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
