package testutil

import (
	"fmt"
	"strings"
	"time"

	"allurecuke/internal/allure"
	"allurecuke/internal/status"
)

// Call is one recorded report builder invocation.
type Call struct {
	Op      string
	Suite   string
	Test    string
	Step    allure.StepInfo
	Info    allure.TestInfo
	Outcome allure.Outcome
	Status  status.Status
	Path    string
	Title   string
}

// String renders a call compactly for assertions.
func (c Call) String() string {
	switch c.Op {
	case "start_suite", "stop_suite":
		return fmt.Sprintf("%s(%s)", c.Op, c.Suite)
	case "start_test":
		return fmt.Sprintf("%s(%s, %s)", c.Op, c.Suite, c.Test)
	case "stop_test":
		return fmt.Sprintf("%s(%s, %s, %s)", c.Op, c.Suite, c.Test, c.Outcome.Status)
	case "start_step":
		return fmt.Sprintf("%s(%s, %s, %d:%s)", c.Op, c.Suite, c.Test, c.Step.Index, c.Step.Title)
	case "stop_step":
		return fmt.Sprintf("%s(%s, %s, %d:%s, %s)", c.Op, c.Suite, c.Test, c.Step.Index, c.Step.Title, c.Status)
	case "attach_file":
		return fmt.Sprintf("%s(%s, %s, %s, %s)", c.Op, c.Suite, c.Test, c.Step.Title, c.Title)
	default:
		return c.Op
	}
}

// RecordingBuilder records every call and can be told to fail one operation.
type RecordingBuilder struct {
	Calls  []Call
	FailOn string
	Err    error
}

// Ops returns the recorded calls rendered with Call.String.
func (b *RecordingBuilder) Ops() []string {
	out := make([]string, 0, len(b.Calls))
	for _, call := range b.Calls {
		out = append(out, call.String())
	}
	return out
}

// Dump joins Ops with newlines for failure messages.
func (b *RecordingBuilder) Dump() string {
	return strings.Join(b.Ops(), "\n")
}

// Count returns how many calls have the given op.
func (b *RecordingBuilder) Count(op string) int {
	n := 0
	for _, call := range b.Calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// Find returns the calls with the given op.
func (b *RecordingBuilder) Find(op string) []Call {
	out := make([]Call, 0)
	for _, call := range b.Calls {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func (b *RecordingBuilder) record(call Call) error {
	b.Calls = append(b.Calls, call)
	if b.FailOn == call.Op {
		if b.Err != nil {
			return b.Err
		}
		return fmt.Errorf("%s failed", call.Op)
	}
	return nil
}

func (b *RecordingBuilder) StartSuite(name string, start time.Time) error {
	return b.record(Call{Op: "start_suite", Suite: name, Info: allure.TestInfo{Start: start}})
}

func (b *RecordingBuilder) StopSuite(name string, stop time.Time) error {
	return b.record(Call{Op: "stop_suite", Suite: name, Outcome: allure.Outcome{Stop: stop}})
}

func (b *RecordingBuilder) StartTest(suite, test string, info allure.TestInfo) error {
	return b.record(Call{Op: "start_test", Suite: suite, Test: test, Info: info})
}

func (b *RecordingBuilder) StopTest(suite, test string, outcome allure.Outcome) error {
	return b.record(Call{Op: "stop_test", Suite: suite, Test: test, Outcome: outcome})
}

func (b *RecordingBuilder) StartStep(suite, test string, step allure.StepInfo) error {
	return b.record(Call{Op: "start_step", Suite: suite, Test: test, Step: step})
}

func (b *RecordingBuilder) StopStep(suite, test string, step allure.StepInfo, st status.Status) error {
	return b.record(Call{Op: "stop_step", Suite: suite, Test: test, Step: step, Status: st})
}

func (b *RecordingBuilder) AttachFile(suite, test, stepTitle, path, title string) error {
	return b.record(Call{Op: "attach_file", Suite: suite, Test: test, Step: allure.StepInfo{Title: stepTitle}, Path: path, Title: title})
}

func (b *RecordingBuilder) Build() error {
	return b.record(Call{Op: "build"})
}
