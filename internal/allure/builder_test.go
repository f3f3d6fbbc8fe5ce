package allure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"allurecuke/internal/status"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func TestBuilderWritesSuite(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, WithIDGenerator(sequentialIDs()))
	start := time.Unix(1700000000, 0)

	mustNoErr(t, b.StartSuite("Calc", start))
	mustNoErr(t, b.StartTest("Calc", "Add two numbers", TestInfo{Feature: "Calc", Story: "Add two numbers", Start: start}))
	mustNoErr(t, b.StartStep("Calc", "Add two numbers", StepInfo{Index: 0, Title: "I have 1", Start: start}))
	mustNoErr(t, b.StopStep("Calc", "Add two numbers", StepInfo{Index: 0, Title: "I have 1", Stop: start.Add(time.Second)}, status.StatusPassed))
	mustNoErr(t, b.StartStep("Calc", "Add two numbers", StepInfo{Index: 1, Title: "I add 2", Start: start}))
	mustNoErr(t, b.StopStep("Calc", "Add two numbers", StepInfo{Index: 1, Title: "I add 2", Stop: start.Add(2 * time.Second)}, status.StatusFailed))
	mustNoErr(t, b.StopTest("Calc", "Add two numbers", Outcome{
		Status:  status.StatusFailed,
		Failure: &status.Failure{Message: "expected 3", Trace: "calc.go:10"},
		Start:   start,
		Stop:    start.Add(2 * time.Second),
	}))
	mustNoErr(t, b.StopSuite("Calc", start.Add(3*time.Second)))
	mustNoErr(t, b.Build())

	data, err := os.ReadFile(filepath.Join(dir, "id2-result.json"))
	if err != nil {
		t.Fatalf("read result file: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		`"name": "Add two numbers"`,
		`"status": "failed"`,
		`"message": "expected 3"`,
		`"trace": "calc.go:10"`,
		`"name": "I add 2"`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in output:\n%s", want, content)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "id1-container.json")); err != nil {
		t.Fatalf("expected container file: %v", err)
	}

	suites, err := LoadSuites(dir)
	if err != nil {
		t.Fatalf("load suites: %v", err)
	}
	if len(suites) != 1 || len(suites[0].TestCases) != 1 {
		t.Fatalf("expected one suite with one test, got %+v", suites)
	}
	if suites[0].Name() != "Calc" || suites[0].Duration() != 3*time.Second {
		t.Fatalf("unexpected suite %q lasting %v", suites[0].Name(), suites[0].Duration())
	}
	tc := suites[0].TestCases[0]
	if tc.Status != "failed" || len(tc.Steps) != 2 {
		t.Fatalf("unexpected test case %+v", tc)
	}
	if tc.Steps[0].Status != "passed" || tc.Steps[1].Status != "failed" {
		t.Fatalf("unexpected step statuses %q %q", tc.Steps[0].Status, tc.Steps[1].Status)
	}
	if tc.StatusDetails == nil || tc.StatusDetails.Message != "expected 3" {
		t.Fatalf("unexpected status details %+v", tc.StatusDetails)
	}
	for name, want := range map[string]string{LabelSuite: "Calc", LabelFeature: "Calc", LabelStory: "Add two numbers"} {
		if got := LabelValue(tc, name); got != want {
			t.Fatalf("label %s: expected %q, got %q", name, want, got)
		}
	}
}

func TestLoadSuitesKeepsContainerOrder(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir)
	now := time.Unix(1700000000, 0)
	mustNoErr(t, b.StartSuite("S", now))
	for _, name := range []string{"first", "second", "third"} {
		mustNoErr(t, b.StartTest("S", name, TestInfo{Start: now}))
		mustNoErr(t, b.StopTest("S", name, Outcome{Status: status.StatusPassed, Stop: now}))
	}
	mustNoErr(t, b.StopSuite("S", now))
	mustNoErr(t, b.Build())

	suites, err := LoadSuites(dir)
	if err != nil {
		t.Fatalf("load suites: %v", err)
	}
	if len(suites) != 1 || len(suites[0].TestCases) != 3 {
		t.Fatalf("expected one suite with three tests, got %+v", suites)
	}
	for i, want := range []string{"first", "second", "third"} {
		if got := suites[0].TestCases[i].Name; got != want {
			t.Fatalf("test %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestLoadSuitesGroupsResultsWithoutContainer(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, WithIDGenerator(sequentialIDs()))
	now := time.Unix(1700000000, 0)
	mustNoErr(t, b.StartSuite("S", now))
	mustNoErr(t, b.StartTest("S", "T", TestInfo{Start: now}))
	mustNoErr(t, b.StopTest("S", "T", Outcome{Status: status.StatusPassed, Stop: now.Add(time.Second)}))
	mustNoErr(t, b.StopSuite("S", now))
	mustNoErr(t, b.Build())
	if err := os.Remove(filepath.Join(dir, "id1-container.json")); err != nil {
		t.Fatalf("remove container: %v", err)
	}

	suites, err := LoadSuites(dir)
	if err != nil {
		t.Fatalf("load suites: %v", err)
	}
	if len(suites) != 1 || suites[0].Name() != "S" || len(suites[0].TestCases) != 1 {
		t.Fatalf("expected results grouped under S, got %+v", suites)
	}
	if suites[0].Duration() != time.Second {
		t.Fatalf("expected 1s duration, got %v", suites[0].Duration())
	}
}

func TestBuilderLeavesUnsetStatusEmpty(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, WithIDGenerator(sequentialIDs()))
	now := time.Unix(1700000000, 0)
	mustNoErr(t, b.StartSuite("S", now))
	mustNoErr(t, b.StartTest("S", "T", TestInfo{Start: now}))
	mustNoErr(t, b.StopTest("S", "T", Outcome{Stop: now}))
	mustNoErr(t, b.StopSuite("S", now))
	mustNoErr(t, b.Build())

	suites, err := LoadSuites(dir)
	if err != nil {
		t.Fatalf("load suites: %v", err)
	}
	if got := suites[0].TestCases[0].Status; got != "" {
		t.Fatalf("expected unset status, got %q", got)
	}
}

func TestBuilderUnknownTargets(t *testing.T) {
	b := NewBuilder(t.TempDir())
	now := time.Now()
	if err := b.StartTest("missing", "T", TestInfo{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := b.StopSuite("missing", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	mustNoErr(t, b.StartSuite("S", now))
	mustNoErr(t, b.StartTest("S", "T", TestInfo{}))
	if err := b.StopStep("S", "T", StepInfo{Index: 0, Title: "nope"}, status.StatusPassed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := b.StopTest("S", "other", Outcome{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuilderAttachFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "screen.png")
	if err := os.WriteFile(src, []byte("png"), 0o644); err != nil {
		t.Fatalf("write attachment: %v", err)
	}
	b := NewBuilder(dir, WithIDGenerator(sequentialIDs()))
	now := time.Now()
	mustNoErr(t, b.StartSuite("S", now))
	mustNoErr(t, b.StartTest("S", "T", TestInfo{}))
	mustNoErr(t, b.StartStep("S", "T", StepInfo{Index: 0, Title: "a step"}))
	mustNoErr(t, b.AttachFile("S", "T", "a step", src, "Screenshot"))
	mustNoErr(t, b.AttachFile("S", "T", "", src, ""))

	tc := b.Suites()[0].TestCases[0]
	if len(tc.Steps[0].Attachments) != 1 {
		t.Fatalf("expected step attachment, got %+v", tc.Steps[0].Attachments)
	}
	stepAttachment := tc.Steps[0].Attachments[0]
	if stepAttachment.Name != "Screenshot" || stepAttachment.Type != "image/png" || stepAttachment.Source != "id3-attachment.png" {
		t.Fatalf("unexpected attachment %+v", stepAttachment)
	}
	if len(tc.Attachments) != 1 || tc.Attachments[0].Name != "screen.png" {
		t.Fatalf("expected test attachment titled by file name, got %+v", tc.Attachments)
	}
	if _, err := os.Stat(filepath.Join(dir, "id3-attachment.png")); err != nil {
		t.Fatalf("expected copied attachment: %v", err)
	}
	if err := b.AttachFile("S", "T", "missing step", src, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrepare(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	mustNoErr(t, Prepare(dir, false))
	stale := filepath.Join(dir, "old-result.json")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	mustNoErr(t, Prepare(dir, false))
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("expected stale file to survive without clean: %v", err)
	}

	mustNoErr(t, Prepare(dir, true))
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed, got %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected dir recreated: %v", err)
	}

	if err := Prepare(" ", true); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
