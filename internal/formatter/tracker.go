package formatter

import (
	"errors"
	"time"
)

// ErrNotInitialized is returned by Holder.Current before Create was called.
var ErrNotInitialized = errors.New("run tracker not initialized")

// Tracker records what is currently executing in a run.
type Tracker struct {
	FeatureName       string
	ScenarioName      string
	ScenarioStartTime time.Time
	StepName          string
	StepIndex         int
	StepStartTime     time.Time
	StepStopTime      time.Time
}

// Holder owns the tracker of one report run.
type Holder struct {
	tracker *Tracker
}

// Create returns the tracker, constructing it on the first call only.
func (h *Holder) Create() *Tracker {
	if h.tracker == nil {
		h.tracker = &Tracker{StepIndex: -1}
	}
	return h.tracker
}

// Current returns the tracker created earlier.
func (h *Holder) Current() (*Tracker, error) {
	if h.tracker == nil {
		return nil, ErrNotInitialized
	}
	return h.tracker, nil
}
