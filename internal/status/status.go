package status

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the runner-side result of a step or scenario.
// The zero value means none of the known kinds applies.
type Kind int

const (
	Passed Kind = iota + 1
	Failed
	Undefined
	Unknown
	Skipped
	Pending
)

// Kinds lists every known runner kind in reporting order.
var Kinds = []Kind{Passed, Failed, Undefined, Unknown, Skipped, Pending}

var kindNames = map[Kind]string{
	Passed:    "passed",
	Failed:    "failed",
	Undefined: "undefined",
	Unknown:   "unknown",
	Skipped:   "skipped",
	Pending:   "pending",
}

// String returns the runner name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unrecognized"
}

// Known reports whether k is one of the six runner kinds.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts a runner status string to a Kind.
// godog reports "ambiguous" for steps matching several definitions; it counts as a failure.
func ParseKind(value string) Kind {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "ambiguous" {
		return Failed
	}
	for kind, name := range kindNames {
		if name == normalized {
			return kind
		}
	}
	return 0
}

// Status is the report-side status vocabulary. The empty value is "unset".
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusBroken   Status = "broken"
	StatusCanceled Status = "canceled"
	StatusPending  Status = "pending"
	StatusUnknown  Status = "unknown"
)

var reportStatus = map[Kind]Status{
	Passed:    StatusPassed,
	Failed:    StatusFailed,
	Undefined: StatusBroken,
	Unknown:   StatusUnknown,
	Skipped:   StatusCanceled,
	Pending:   StatusPending,
}

// Map translates a runner kind to the report status. Unrecognized kinds map to "".
func Map(kind Kind) Status {
	return reportStatus[kind]
}

// Result is the outcome the runner attaches to a finished step or scenario.
type Result struct {
	Kind Kind
	// Err is the failure payload for failed results.
	Err error
	// Message and Backtrace describe a pending result.
	Message   string
	Backtrace []string
	Duration  time.Duration
}

// Status maps the result to the report vocabulary.
func (r Result) Status() Status {
	return Map(r.Kind)
}

// Failure is the detail reported alongside failed and pending outcomes.
type Failure struct {
	Message string
	Trace   string
}

// FailureOf extracts the failure detail for a result, or nil when none applies.
func FailureOf(result Result) *Failure {
	switch result.Kind {
	case Failed:
		if result.Err == nil {
			return nil
		}
		message := result.Err.Error()
		failure := &Failure{Message: message}
		if trace := fmt.Sprintf("%+v", result.Err); trace != message {
			failure.Trace = trace
		}
		return failure
	case Pending:
		message := result.Message
		if message == "" {
			message = "pending"
		}
		return &Failure{Message: message, Trace: strings.Join(result.Backtrace, "\n")}
	default:
		return nil
	}
}

// Worst reduces step kinds to a scenario kind.
func Worst(kinds ...Kind) Kind {
	var hasPassed, hasUndefined, hasPending, hasSkipped, hasUnknown bool
	for _, kind := range kinds {
		switch kind {
		case Failed:
			return Failed
		case Undefined:
			hasUndefined = true
		case Pending:
			hasPending = true
		case Skipped:
			hasSkipped = true
		case Unknown:
			hasUnknown = true
		case Passed:
			hasPassed = true
		}
	}
	switch {
	case hasUndefined:
		return Undefined
	case hasPending:
		return Pending
	case hasSkipped:
		return Skipped
	case hasUnknown:
		return Unknown
	case hasPassed:
		return Passed
	default:
		return 0
	}
}
