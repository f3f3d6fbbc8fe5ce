//go:build cucumber

package cucumber

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	cuke "allurecuke/internal/cucumber"
)

const configFile = ".allurecuke.yml"

// aWorkspaceWithValidConfig creates a temp workspace with a config and enters it.
func (s *featureState) aWorkspaceWithValidConfig() error {
	if s.workDir != "" {
		return nil
	}
	dir, err := os.MkdirTemp("", "allurecuke-feature-*")
	if err != nil {
		return fmt.Errorf("create temp workspace: %w", err)
	}
	s.workDir = dir
	if err := s.writeFile(configFile, validConfigYAML()); err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}
	s.previousWD = wd
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	return nil
}

// theConfigIsInvalid replaces the config with an unsupported version.
func (s *featureState) theConfigIsInvalid() error {
	if err := s.aWorkspaceWithValidConfig(); err != nil {
		return err
	}
	return s.writeFile(configFile, invalidConfigYAML())
}

func (s *featureState) theEnvironmentVariableIs(key, value string) error {
	return s.setEnv(key, value)
}

// theCalculatorFeatureAndReport writes an outline feature with its recorded run.
func (s *featureState) theCalculatorFeatureAndReport() error {
	if err := s.aWorkspaceWithValidConfig(); err != nil {
		return err
	}
	if err := s.writeFile(filepath.Join("features", "calc.feature"), calculatorFeature); err != nil {
		return err
	}
	return s.writeFile("report.json", calculatorReport)
}

// theCalculatorExamplesUseHeaders rewrites the header row of the calculator examples.
func (s *featureState) theCalculatorExamplesUseHeaders(headers string) error {
	path := filepath.Join(s.workDir, "features", "calc.feature")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read calculator feature: %w", err)
	}
	const current = "| x | y | product |"
	if !strings.Contains(string(data), current) {
		return fmt.Errorf("calculator feature has no %q header row", current)
	}
	return s.writeFile(filepath.Join("features", "calc.feature"), strings.Replace(string(data), current, headers, 1))
}

// aReportWithSteps writes report.json holding one scenario built from a
// keyword/name/status table.
func (s *featureState) aReportWithSteps(scenario string, table *godog.Table) error {
	if err := s.aWorkspaceWithValidConfig(); err != nil {
		return err
	}
	steps := make([]cuke.CukeStep, 0, len(table.Rows))
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 3 {
			return fmt.Errorf("expected keyword, name and status cells, got %d", len(row.Cells))
		}
		result := cuke.CukeResult{Status: strings.TrimSpace(row.Cells[2].Value)}
		switch result.Status {
		case "passed", "failed":
			d := int64(2_000_000)
			result.Duration = &d
		}
		if result.Status == "failed" {
			result.ErrorMessage = "step failed"
		}
		steps = append(steps, cuke.CukeStep{
			Keyword: row.Cells[0].Value + " ",
			Name:    row.Cells[1].Value,
			Line:    3 + i,
			Result:  result,
		})
	}
	s.report = []cuke.CukeFeatureJSON{{
		URI:     "features/generated.feature",
		ID:      "generated",
		Keyword: "Feature",
		Name:    "Generated",
		Line:    1,
		Elements: []cuke.CukeElement{{
			ID:      "generated;" + strings.ToLower(strings.ReplaceAll(scenario, " ", "-")),
			Keyword: "Scenario",
			Name:    scenario,
			Line:    3,
			Type:    "scenario",
			Steps:   steps,
		}},
	}}
	data, err := json.MarshalIndent(s.report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.writeFile("report.json", string(data))
}

// writeFile writes contents relative to the workspace.
func (s *featureState) writeFile(rel, contents string) error {
	if s.workDir == "" {
		return fmt.Errorf("workspace is not set")
	}
	path := filepath.Join(s.workDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(rel), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func validConfigYAML() string {
	return `version: 1
output_dir: "results"
clean_dir: true
log_level: "warn"
`
}

func invalidConfigYAML() string {
	return `version: 2
output_dir: "results"
`
}

const calculatorFeature = `Feature: Calculator

  Background:
    Given a calculator

  Scenario Outline: Multiply
    When I multiply <x> and <y>
    Then the result is <product>

    Examples:
      | x | y | product |
      | 2 | 3 | 6       |
      | 4 | 5 | 20      |
`

const calculatorReport = `[
  {
    "uri": "features/calc.feature",
    "id": "calculator",
    "keyword": "Feature",
    "name": "Calculator",
    "line": 1,
    "elements": [
      {"keyword": "Background", "name": "", "line": 3, "type": "background", "steps": [
        {"keyword": "Given ", "name": "a calculator", "line": 4, "result": {"status": "passed", "duration": 1000000}}
      ]},
      {"id": "calculator;multiply;;2", "keyword": "Scenario Outline", "name": "Multiply", "line": 12, "type": "scenario", "steps": [
        {"keyword": "When ", "name": "I multiply 2 and 3", "line": 7, "result": {"status": "passed", "duration": 1000000}},
        {"keyword": "Then ", "name": "the result is 6", "line": 8, "result": {"status": "passed", "duration": 1000000}}
      ]},
      {"keyword": "Background", "name": "", "line": 3, "type": "background", "steps": [
        {"keyword": "Given ", "name": "a calculator", "line": 4, "result": {"status": "passed", "duration": 1000000}}
      ]},
      {"id": "calculator;multiply;;3", "keyword": "Scenario Outline", "name": "Multiply", "line": 13, "type": "scenario", "steps": [
        {"keyword": "When ", "name": "I multiply 4 and 5", "line": 7, "result": {"status": "passed", "duration": 1000000}},
        {"keyword": "Then ", "name": "the result is 20", "line": 8, "result": {"status": "failed", "error_message": "expected 20, got 9", "duration": 1000000}}
      ]}
    ]
  }
]`
