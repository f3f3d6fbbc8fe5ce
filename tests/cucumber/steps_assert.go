//go:build cucumber

package cucumber

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/godogx/allure/report"

	"allurecuke/internal/allure"
)

// theOutputListsCommands asserts the output contains expected command names.
func (s *featureState) theOutputListsCommands(table *godog.Table) error {
	output := s.stdout.String()
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			command := strings.TrimSpace(cell.Value)
			if command == "" {
				continue
			}
			if !strings.Contains(output, command) {
				return fmt.Errorf("expected command %q in output", command)
			}
		}
	}
	return nil
}

func (s *featureState) theExitCodeIsZero() error {
	if s.exitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d (%s)", s.exitCode, s.stderr.String())
	}
	return nil
}

// theExitCodeIsNonZero asserts that the CLI returned an error code.
func (s *featureState) theExitCodeIsNonZero() error {
	if s.exitCode == 0 {
		return fmt.Errorf("expected non-zero exit code")
	}
	return nil
}

// theErrorMessagePointsToInvalidField checks the error output for hints.
func (s *featureState) theErrorMessagePointsToInvalidField() error {
	errOutput := s.stderr.String()
	if !strings.Contains(errOutput, "version") {
		return fmt.Errorf("expected error to mention version, got %q", errOutput)
	}
	return nil
}

func (s *featureState) theOutputContains(text string) error {
	if !strings.Contains(s.stdout.String(), text) {
		return fmt.Errorf("expected %q in output, got %q", text, s.stdout.String())
	}
	return nil
}

// theResultsHoldSuite compares the written suite's tests against a name/status table.
func (s *featureState) theResultsHoldSuite(name string, table *godog.Table) error {
	suite, err := s.suite(name)
	if err != nil {
		return err
	}
	want := tableRows(table)
	if len(suite.TestCases) != len(want) {
		return fmt.Errorf("expected %d tests in %q, got %d", len(want), name, len(suite.TestCases))
	}
	for i, tc := range suite.TestCases {
		if tc.Name != want[i][0] || reportStatus(tc.Status) != want[i][1] {
			return fmt.Errorf("test %d: expected %s/%s, got %s/%s", i, want[i][0], want[i][1], tc.Name, reportStatus(tc.Status))
		}
	}
	return nil
}

// testHasSteps compares a test's steps against a name/status table.
func (s *featureState) testHasSteps(name string, table *godog.Table) error {
	suites, err := allure.LoadSuites(s.resultsDir())
	if err != nil {
		return err
	}
	for _, suite := range suites {
		for _, tc := range suite.TestCases {
			if tc.Name != name {
				continue
			}
			want := tableRows(table)
			if len(tc.Steps) != len(want) {
				return fmt.Errorf("expected %d steps in %q, got %d", len(want), name, len(tc.Steps))
			}
			for i, step := range tc.Steps {
				if step.Name != want[i][0] || reportStatus(step.Status) != want[i][1] {
					return fmt.Errorf("step %d: expected %s/%s, got %s/%s", i, want[i][0], want[i][1], step.Name, reportStatus(step.Status))
				}
			}
			return nil
		}
	}
	return fmt.Errorf("test %q not found", name)
}

func (s *featureState) suite(name string) (*allure.TestSuite, error) {
	suites, err := allure.LoadSuites(s.resultsDir())
	if err != nil {
		return nil, err
	}
	for _, suite := range suites {
		if suite.Name() == name {
			return suite, nil
		}
	}
	return nil, fmt.Errorf("suite %q not found among %d suites", name, len(suites))
}

func (s *featureState) resultsDir() string {
	return filepath.Join(s.workDir, "results")
}

// tableRows drops the header and trims every cell.
func tableRows(table *godog.Table) [][]string {
	rows := make([][]string, 0, len(table.Rows))
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, strings.TrimSpace(cell.Value))
		}
		rows = append(rows, cells)
	}
	return rows
}

// reportStatus names the empty status "unset".
func reportStatus(value report.Status) string {
	if value == "" {
		return "unset"
	}
	return string(value)
}
