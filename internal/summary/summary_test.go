package summary

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"allurecuke/internal/allure"
	"allurecuke/internal/status"
)

func writeResults(t *testing.T, dir string) {
	t.Helper()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := allure.NewBuilder(dir)
	steps := []struct {
		name string
		st   status.Status
	}{
		{"Add", status.StatusPassed},
		{"Divide by zero", status.StatusFailed},
		{"Undefined step", status.StatusBroken},
		{"Left open", ""},
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("builder: %v", err)
		}
	}
	must(b.StartSuite("Calculator", start))
	for i, s := range steps {
		at := start.Add(time.Duration(i) * time.Second)
		must(b.StartTest("Calculator", s.name, allure.TestInfo{Start: at}))
		must(b.StopTest("Calculator", s.name, allure.Outcome{Status: s.st, Stop: at.Add(time.Second)}))
	}
	must(b.StopSuite("Calculator", start.Add(4*time.Second)))
	must(b.StartSuite("Strings", start.Add(5*time.Second)))
	must(b.StartTest("Strings", "Concat", allure.TestInfo{Start: start}))
	must(b.StopTest("Strings", "Concat", allure.Outcome{Status: status.StatusPending, Stop: start}))
	must(b.StopSuite("Strings", start.Add(6*time.Second)))
	must(b.Build())
}

func TestLoadSummarizesSuites(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir)

	report, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(report.Suites) != 2 || report.Suites[0].Name != "Calculator" {
		t.Fatalf("unexpected suites %+v", report.Suites)
	}
	calc := report.Suites[0].Counts
	if calc.Total != 4 || calc.Passed != 1 || calc.Failed != 1 || calc.Broken != 1 || calc.Unset != 1 {
		t.Fatalf("unexpected counts %+v", calc)
	}
	if report.Suites[0].Duration != 4*time.Second {
		t.Fatalf("expected 4s duration, got %v", report.Suites[0].Duration)
	}
	if report.Totals.Total != 5 || report.Totals.Pending != 1 {
		t.Fatalf("unexpected totals %+v", report.Totals)
	}
	if !report.Failed() {
		t.Fatalf("expected report to be failed")
	}
}

func TestLoadEmptyDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for a dir without results")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for a missing dir")
	}
}

func TestRenderPlain(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir)
	report, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, report, true); err != nil {
		t.Fatalf("render: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Feature", "Calculator", "Strings", "Scenarios: 5 Passed: 1 Failed: 1 Broken: 1", "Unset: 1"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Fatalf("expected no escape codes with colour disabled, got %q", output)
	}
}
