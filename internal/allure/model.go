package allure

import (
	"time"

	"github.com/godogx/allure/report"

	"allurecuke/internal/status"
)

// Label names written on every result.
const (
	LabelSuite   = "suite"
	LabelFeature = "feature"
	LabelStory   = "story"
)

// TestSuite is one feature: a result container and its results in start order.
type TestSuite struct {
	Container *report.Container
	TestCases []*report.Result

	open  bool
	tests []*testState
}

// Name returns the container name.
func (s *TestSuite) Name() string {
	return s.Container.Name
}

// Duration is the span between the container start and stop.
func (s *TestSuite) Duration() time.Duration {
	if s.Container.Stop <= s.Container.Start {
		return 0
	}
	return time.Duration(s.Container.Stop-s.Container.Start) * time.Millisecond
}

// testState tracks which result and steps are still open; steps mirrors result.Steps.
type testState struct {
	result *report.Result
	open   bool
	steps  []stepState
}

type stepState struct {
	index int
	open  bool
}

// TestInfo is the metadata recorded when a test starts.
type TestInfo struct {
	Feature string
	Story   string
	Start   time.Time
}

// Outcome is recorded when a test stops.
type Outcome struct {
	Status  status.Status
	Failure *status.Failure
	Start   time.Time
	Stop    time.Time
}

// StepInfo identifies a step by index and title.
type StepInfo struct {
	Index int
	Title string
	Start time.Time
	Stop  time.Time
}

func timestamp(t time.Time) report.TimestampMs {
	if t.IsZero() {
		return 0
	}
	return report.TimestampMs(t.UnixMilli())
}

// LabelValue returns the first label value with the name, or "".
func LabelValue(result *report.Result, name string) string {
	for _, label := range result.Labels {
		if label.Name == name {
			return label.Value
		}
	}
	return ""
}
