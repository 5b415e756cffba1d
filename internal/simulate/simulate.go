// Package simulate generates plausible synthetic cycling sessions for
// development and testing. Output is deterministic for a given seed.
package simulate

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"paceline/internal/domain/model"
)

// Workout intensity mix. Roughly two endurance rides for every
// threshold ride, with an occasional rest day.
const (
	caseRestDay       = 0
	caseEnduranceRide = 1
	caseTempoRide     = 2
	caseThresholdRide = 3
	intensityCases    = 4

	enduranceMinWatts = 120
	enduranceMaxWatts = 180
	tempoMinWatts     = 180
	tempoMaxWatts     = 240
	thresholdMinWatts = 240
	thresholdMaxWatts = 310

	hrFloor     = 95
	hrPerWatt   = 0.35 // crude power-to-HR coupling for synthetic data
	sampleEvery = time.Second
)

// Generator produces synthetic sessions for one athlete.
type Generator struct {
	rng    *rand.Rand
	newID  func() string
	sample time.Duration
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed makes the generated sessions reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data only
	}
}

// WithSampleInterval sets the spacing of generated samples.
func WithSampleInterval(interval time.Duration) Option {
	return func(g *Generator) {
		if interval > 0 {
			g.sample = interval
		}
	}
}

// WithIDSource sets the generator for session IDs.
func WithIDSource(newID func() string) Option {
	return func(g *Generator) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// New creates a Generator with configuration options.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // synthetic data only
		newID:  func() string { return uuid.NewString() },
		sample: sampleEvery,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Sessions generates up to one session per day for days consecutive
// days starting at start. Rest days yield no session.
func (g *Generator) Sessions(athleteID string, start time.Time, days int) []model.Session {
	var sessions []model.Session
	day := model.DateOf(start)
	for i := 0; i < days; i++ {
		kind := g.rng.Intn(intensityCases)
		if kind == caseRestDay {
			day = day.AddDate(0, 0, 1)
			continue
		}
		sessions = append(sessions, g.session(athleteID, day, kind))
		day = day.AddDate(0, 0, 1)
	}
	return sessions
}

func (g *Generator) session(athleteID string, day time.Time, kind int) model.Session {
	var minWatts, maxWatts, minDur, maxDur float64
	switch kind {
	case caseThresholdRide:
		minWatts, maxWatts = thresholdMinWatts, thresholdMaxWatts
		minDur, maxDur = 0.75, 1.5
	case caseTempoRide:
		minWatts, maxWatts = tempoMinWatts, tempoMaxWatts
		minDur, maxDur = 1, 2
	default:
		minWatts, maxWatts = enduranceMinWatts, enduranceMaxWatts
		minDur, maxDur = 1.5, 3.5
	}

	hours := minDur + g.rng.Float64()*(maxDur-minDur)
	duration := int(hours * 3600)
	startTime := day.Add(7 * time.Hour) // morning ride

	session := model.Session{
		ID:              g.newID(),
		AthleteID:       athleteID,
		StartTime:       startTime,
		DurationSeconds: duration,
		Sport:           "cycling",
	}

	steps := duration / int(g.sample.Seconds())
	base := minWatts + g.rng.Float64()*(maxWatts-minWatts)
	for i := 0; i < steps; i++ {
		// Jitter around the ride's base power; HR trails power.
		watts := base + g.rng.NormFloat64()*15
		if watts < 0 {
			watts = 0
		}
		hr := hrFloor + watts*hrPerWatt + g.rng.NormFloat64()*3
		session.Samples = append(session.Samples, model.Sample{
			Timestamp:    startTime.Add(time.Duration(i) * g.sample),
			PowerWatts:   ptr(watts),
			HeartRateBPM: ptr(hr),
		})
	}
	return session
}

func ptr(v float64) *float64 { return &v }
