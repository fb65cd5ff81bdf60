package observation

import (
	"errors"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ErrObservationNotStopped is returned when a snapshot is taken of an
// observation that has not reached the stopped state.
var ErrObservationNotStopped = errors.New("observation has not been stopped")

// Snapshot is an immutable read-model of a stopped Observation, suitable for
// asynchronous reporting, debugging, or shipping to log pipelines.
type Snapshot struct {
	Name                     string            `json:"name"`
	ContextualName           string            `json:"contextual_name,omitempty"`
	ObservationID            string            `json:"observation_id,omitempty"`
	Error                    string            `json:"error,omitempty"`
	LowCardinalityKeyValues  map[string]string `json:"low_cardinality_key_values,omitempty"`
	HighCardinalityKeyValues map[string]string `json:"high_cardinality_key_values,omitempty"`
	Events                   []string          `json:"events,omitempty"`
	StartedAt                time.Time         `json:"started_at"`
	StoppedAt                time.Time         `json:"stopped_at"`
	DurationMS               float64           `json:"duration_ms"`
}

// BuildSnapshot creates a Snapshot from a stopped Observation.
//
// Returns ErrObservationNotStopped while the observation is still running or
// was never started; no-op observations never reach the stopped state.
func BuildSnapshot(o *Observation) (Snapshot, error) {
	if o == nil || o.state != StateStopped {
		return Snapshot{}, ErrObservationNotStopped
	}

	c := o.ctx

	snapshot := Snapshot{
		Name:                     c.Name(),
		ContextualName:           c.ContextualName(),
		ObservationID:            c.ObservationID(),
		LowCardinalityKeyValues:  c.LowCardinalityKeyValues().ToMap(),
		HighCardinalityKeyValues: c.HighCardinalityKeyValues().ToMap(),
		StartedAt:                c.StartedAt(),
		StoppedAt:                c.StoppedAt(),
		DurationMS:               toMilliseconds(c.Duration()),
	}

	if err := c.Error(); err != nil {
		snapshot.Error = err.Error()
	}

	for _, event := range c.Events() {
		snapshot.Events = append(snapshot.Events, event.Name())
	}

	return snapshot, nil
}

// Serialize renders the snapshot as JSON.
func (s Snapshot) Serialize() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(s)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
