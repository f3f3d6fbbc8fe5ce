package formatter

import (
	"time"

	"allurecuke/internal/allure"
	"allurecuke/internal/outline"
	"allurecuke/internal/status"
)

// TestCase describes a scenario about to start. Example is the 0-based row of the
// examples table opened by ExamplesStart, or nil for ordinary scenarios.
type TestCase struct {
	Name    string
	Example *int
}

// Listener receives runner lifecycle events in program order, one at a time.
// Errors are only returned for report builder failures.
type Listener interface {
	SuiteStart(feature string) error
	SuiteStop() error
	ExamplesStart(outlineName string, table outline.Table) error
	ExamplesStop() error
	BackgroundStep(name string, result status.Result) error
	TestStart(tc TestCase) error
	TestStop(result status.Result) error
	StepStart(name string) error
	StepStop(name string, result status.Result) error
	RunFinished() error
}

// ReportBuilder is the report library the translator drives.
type ReportBuilder interface {
	StartSuite(name string, start time.Time) error
	StopSuite(name string, stop time.Time) error
	StartTest(suite, test string, info allure.TestInfo) error
	StopTest(suite, test string, outcome allure.Outcome) error
	StartStep(suite, test string, step allure.StepInfo) error
	StopStep(suite, test string, step allure.StepInfo, st status.Status) error
	AttachFile(suite, test, stepTitle, path, title string) error
	Build() error
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// HookNames are runner pseudo-steps that never become report steps.
var HookNames = []string{"Before hook", "After hook", "AfterStep hook"}

// IsHook reports whether a step name is a hook pseudo-step.
func IsHook(name string) bool {
	for _, hook := range HookNames {
		if name == hook {
			return true
		}
	}
	return false
}
