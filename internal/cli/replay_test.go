package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"allurecuke/internal/allure"
	"allurecuke/internal/config"
)

const shopFeature = `Feature: Shop

  Background:
    Given an empty cart

  Scenario Outline: Buy
    When I add <count> <item>
    Then the cart holds <count> items

    Examples:
      | count | item   |
      | 1     | apple  |
      | 2     | banana |
`

const shopReport = `[
  {
    "uri": "features/shop.feature",
    "id": "shop",
    "keyword": "Feature",
    "name": "Shop",
    "line": 1,
    "elements": [
      {"id": "shop;buy;;2", "keyword": "Scenario Outline", "name": "Buy", "line": 12, "type": "scenario", "steps": [
        {"keyword": "Given ", "name": "an empty cart", "line": 4, "result": {"status": "passed", "duration": 1000000}},
        {"keyword": "When ", "name": "I add 1 apple", "line": 7, "result": {"status": "passed", "duration": 1000000}},
        {"keyword": "Then ", "name": "the cart holds 1 items", "line": 8, "result": {"status": "passed", "duration": 1000000}}
      ]},
      {"id": "shop;buy;;3", "keyword": "Scenario Outline", "name": "Buy", "line": 13, "type": "scenario", "steps": [
        {"keyword": "Given ", "name": "an empty cart", "line": 4, "result": {"status": "passed", "duration": 1000000}},
        {"keyword": "When ", "name": "I add 2 banana", "line": 7, "result": {"status": "undefined"}},
        {"keyword": "Then ", "name": "the cart holds 2 items", "line": 8, "result": {"status": "skipped"}}
      ]}
    ]
  }
]`

// shopWorkspace lays out a feature, its cucumber report and a config file.
func shopWorkspace(t *testing.T) (dir, configPath, reportPath string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, "features", "shop.feature"), shopFeature)
	reportPath = writeFile(t, filepath.Join(dir, "report.json"), shopReport)
	configPath = writeFile(t, filepath.Join(dir, config.ConfigFileName), "version: 1\noutput_dir: out\nlog_level: warn\n")
	return dir, configPath, reportPath
}

func TestReplayCommandWritesResults(t *testing.T) {
	dir, configPath, reportPath := shopWorkspace(t)
	isolate(t, "")

	var out, err bytes.Buffer
	code := Run([]string{"replay", "--config", configPath, "--input", reportPath, "--root", dir, "--prefix", "[ci] "}, &out, &err)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, err.String())
	}
	outDir := filepath.Join(dir, "out")
	if !strings.Contains(out.String(), "Wrote 1 suites to "+outDir) {
		t.Fatalf("unexpected output %q", out.String())
	}

	suites, loadErr := allure.LoadSuites(outDir)
	if loadErr != nil {
		t.Fatalf("load suites: %v", loadErr)
	}
	if len(suites) != 1 || suites[0].Name() != "[ci] Shop" {
		t.Fatalf("unexpected suites %+v", suites)
	}
	tests := suites[0].TestCases
	if len(tests) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(tests))
	}
	if tests[0].Name != "Buy: {count: 1, item: apple}" || tests[0].Status != "passed" {
		t.Fatalf("unexpected first row %q/%q", tests[0].Name, tests[0].Status)
	}
	if tests[1].Name != "Buy: {count: 2, item: banana}" || tests[1].Status != "broken" {
		t.Fatalf("unexpected second row %q/%q", tests[1].Name, tests[1].Status)
	}
	if got := tests[1].Steps[2].Status; got != "canceled" {
		t.Fatalf("expected skipped step to be canceled, got %q", got)
	}
}

func TestReplayCommandNoCleanKeepsResults(t *testing.T) {
	dir, configPath, reportPath := shopWorkspace(t)
	isolate(t, "")
	stale := writeFile(t, filepath.Join(dir, "out", "keep.txt"), "stale")

	var out, err bytes.Buffer
	args := []string{"replay", "--config", configPath, "--input", reportPath, "--root", dir, "--no-clean"}
	if code := Run(args, &out, &err); code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, err.String())
	}
	if _, statErr := os.Stat(stale); statErr != nil {
		t.Fatalf("expected stale file to survive: %v", statErr)
	}

	out.Reset()
	args = []string{"replay", "--config", configPath, "--input", reportPath, "--root", dir}
	if code := Run(args, &out, &err); code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, err.String())
	}
	if _, statErr := os.Stat(stale); !os.IsNotExist(statErr) {
		t.Fatalf("expected output dir to be cleaned, got %v", statErr)
	}
}

func TestReplayCommandRunsGodog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script binaries are not supported on windows")
	}
	dir, configPath, reportPath := shopWorkspace(t)
	isolate(t, "")
	binary := writeFile(t, filepath.Join(t.TempDir(), "godog"), "#!/bin/sh\ncat "+reportPath+"\nexit 1\n")
	if err := os.Chmod(binary, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	var out, err bytes.Buffer
	args := []string{"replay", "--config", configPath, "--root", dir, "--godog", binary, "--tags", "smoke", "features"}
	if code := Run(args, &out, &err); code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, err.String())
	}
	suites, loadErr := allure.LoadSuites(filepath.Join(dir, "out"))
	if loadErr != nil {
		t.Fatalf("load suites: %v", loadErr)
	}
	if len(suites) != 1 || len(suites[0].TestCases) != 2 {
		t.Fatalf("unexpected suites %+v", suites)
	}
}

func TestReplayCommandRequiresInput(t *testing.T) {
	isolate(t, "")
	var out, err bytes.Buffer
	if code := Run([]string{"replay"}, &out, &err); code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(err.String(), "--input or feature paths") {
		t.Fatalf("expected input error, got %q", err.String())
	}
}

func TestReplayCommandRejectsMixedModes(t *testing.T) {
	isolate(t, "")
	var out, err bytes.Buffer
	if code := Run([]string{"replay", "--input", "r.json", "features"}, &out, &err); code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
}

func TestReplayCommandInvalidLogLevel(t *testing.T) {
	dir, configPath, reportPath := shopWorkspace(t)
	isolate(t, "")
	var out, err bytes.Buffer
	args := []string{"replay", "--config", configPath, "--input", reportPath, "--root", dir, "--log-level", "loud"}
	if code := Run(args, &out, &err); code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(err.String(), "log_level") {
		t.Fatalf("expected log level issue, got %q", err.String())
	}
}

func TestReplayCommandMissingReport(t *testing.T) {
	dir, configPath, _ := shopWorkspace(t)
	isolate(t, "")
	var out, err bytes.Buffer
	args := []string{"replay", "--config", configPath, "--input", filepath.Join(dir, "missing.json")}
	if code := Run(args, &out, &err); code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.HasPrefix(err.String(), "Replay failed") {
		t.Fatalf("expected replay failure, got %q", err.String())
	}
}
