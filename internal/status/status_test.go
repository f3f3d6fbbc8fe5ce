package status

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapTable(t *testing.T) {
	cases := []struct {
		kind Kind
		want Status
	}{
		{Passed, StatusPassed},
		{Failed, StatusFailed},
		{Undefined, StatusBroken},
		{Unknown, StatusUnknown},
		{Skipped, StatusCanceled},
		{Pending, StatusPending},
		{0, ""},
		{Kind(42), ""},
	}
	for _, tc := range cases {
		if got := Map(tc.kind); got != tc.want {
			t.Fatalf("Map(%s): expected %q, got %q", tc.kind, tc.want, got)
		}
	}
}

func TestMapIsPureOverKinds(t *testing.T) {
	for _, kind := range Kinds {
		first := Map(kind)
		if first == "" {
			t.Fatalf("expected known kind %s to map to a status", kind)
		}
		if again := (Result{Kind: kind, Err: errors.New("ignored")}).Status(); again != first {
			t.Fatalf("expected %s to map to %q regardless of payload, got %q", kind, first, again)
		}
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"passed":    Passed,
		" FAILED ":  Failed,
		"undefined": Undefined,
		"unknown":   Unknown,
		"skipped":   Skipped,
		"Pending":   Pending,
		"ambiguous": Failed,
		"flaky":     0,
		"":          0,
	}
	for input, want := range cases {
		if got := ParseKind(input); got != want {
			t.Fatalf("ParseKind(%q): expected %s, got %s", input, want, got)
		}
	}
}

type tracedError struct {
	msg   string
	trace string
}

func (e tracedError) Error() string { return e.msg }

func (e tracedError) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%s\n%s", e.msg, e.trace)
		return
	}
	fmt.Fprint(f, e.msg)
}

func TestFailureOfFailed(t *testing.T) {
	failure := FailureOf(Result{Kind: Failed, Err: errors.New("boom")})
	if failure == nil {
		t.Fatalf("expected failure detail")
	}
	if failure.Message != "boom" || failure.Trace != "" {
		t.Fatalf("unexpected failure %+v", failure)
	}

	failure = FailureOf(Result{Kind: Failed, Err: tracedError{msg: "boom", trace: "at step.go:12"}})
	if failure.Trace != "boom\nat step.go:12" {
		t.Fatalf("expected trace from %%+v, got %q", failure.Trace)
	}

	if FailureOf(Result{Kind: Failed}) != nil {
		t.Fatalf("expected no failure detail without an error payload")
	}
}

func TestFailureOfPending(t *testing.T) {
	failure := FailureOf(Result{Kind: Pending, Message: "TODO", Backtrace: []string{"a.go:1", "b.go:2"}})
	if failure == nil {
		t.Fatalf("expected failure detail")
	}
	if failure.Message != "TODO" {
		t.Fatalf("expected pending message, got %q", failure.Message)
	}
	if failure.Trace != "a.go:1\nb.go:2" {
		t.Fatalf("expected outcome backtrace, got %q", failure.Trace)
	}

	failure = FailureOf(Result{Kind: Pending})
	if failure.Message != "pending" || failure.Trace != "" {
		t.Fatalf("unexpected default pending failure %+v", failure)
	}
}

func TestFailureOfOtherKinds(t *testing.T) {
	for _, kind := range []Kind{Passed, Undefined, Unknown, Skipped, 0} {
		if FailureOf(Result{Kind: kind, Err: errors.New("x")}) != nil {
			t.Fatalf("expected no failure detail for %s", kind)
		}
	}
}

func TestWorst(t *testing.T) {
	cases := []struct {
		kinds []Kind
		want  Kind
	}{
		{nil, 0},
		{[]Kind{Passed, Passed}, Passed},
		{[]Kind{Passed, Skipped}, Skipped},
		{[]Kind{Skipped, Pending}, Pending},
		{[]Kind{Pending, Undefined}, Undefined},
		{[]Kind{Undefined, Failed, Passed}, Failed},
		{[]Kind{Unknown, Passed}, Unknown},
		{[]Kind{0, Passed}, Passed},
	}
	for _, tc := range cases {
		if got := Worst(tc.kinds...); got != tc.want {
			t.Fatalf("Worst(%v): expected %s, got %s", tc.kinds, tc.want, got)
		}
	}
}
