package cucumber

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"allurecuke/internal/status"
)

const calcFeature = `Feature: Calculator

  Background:
    Given a calculator

  Scenario: Add two numbers
    When I add 1 and 2
    Then the result is 3

  Scenario Outline: Multiply
    When I multiply <first> and <second>
    Then the result is <result>

    Examples: small
      | first | second | result |
      | 2     | 3      | 6      |
      | 4     | 5      | 20     |

  Rule: Division

    Scenario Outline: Divide
      When I divide <n> by <d>

      Examples:
        | n | d |
        | 6 | 3 |
`

func writeFeature(t *testing.T, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write feature: %v", err)
	}
	return path
}

// TestParseGodogJSONStripsWarnings verifies warning prefixes are removed.
func TestParseGodogJSONStripsWarnings(t *testing.T) {
	payload := "\x1b[33mUse of godog CLI is deprecated\x1b[0m\n" +
		"\x1b[33mSee https://example.test\x1b[0m\n" +
		`[{"uri":"sample.feature","name":"Sample","elements":[{"name":"S","line":3,"type":"scenario","steps":[{"name":"x","result":{"status":"passed","duration":1500}}]}]}]`
	features, err := ParseGodogJSON([]byte(payload))
	if err != nil {
		t.Fatalf("parse godog json: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(features))
	}
	if features[0].URI != "sample.feature" || features[0].Name != "Sample" {
		t.Fatalf("unexpected feature %+v", features[0])
	}
	step := features[0].Elements[0].Steps[0]
	if step.Result.Elapsed() != 1500 {
		t.Fatalf("expected 1500ns, got %v", step.Result.Elapsed())
	}
}

// TestReadGodogJSONMissingFile verifies read errors are wrapped.
func TestReadGodogJSONMissingFile(t *testing.T) {
	_, err := ReadGodogJSON(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

// TestStepResultConversion verifies cucumber statuses map to result kinds.
func TestStepResultConversion(t *testing.T) {
	failed := StepResult(CukeResult{Status: "failed", ErrorMessage: "expected 3, got 4"})
	if failed.Kind != status.Failed || failed.Err == nil || failed.Err.Error() != "expected 3, got 4" {
		t.Fatalf("unexpected failed result %+v", failed)
	}
	pending := StepResult(CukeResult{Status: "pending", ErrorMessage: "step implementation is pending"})
	if pending.Kind != status.Pending || pending.Message != "step implementation is pending" {
		t.Fatalf("unexpected pending result %+v", pending)
	}
	if got := StepResult(CukeResult{Status: "ambiguous"}).Kind; got != status.Failed {
		t.Fatalf("expected ambiguous to count as failed, got %s", got)
	}
	if got := StepResult(CukeResult{Status: "exploded"}).Kind; got.Known() {
		t.Fatalf("expected unrecognized kind, got %s", got)
	}
}

// TestScenarioResult verifies step results reduce to the worst kind.
func TestScenarioResult(t *testing.T) {
	d := int64(10)
	steps := []CukeStep{
		{Result: CukeResult{Status: "passed", Duration: &d}},
		{Result: CukeResult{Status: "failed", ErrorMessage: "boom", Duration: &d}},
		{Result: CukeResult{Status: "skipped"}},
	}
	result := ScenarioResult(steps)
	if result.Kind != status.Failed || result.Err == nil || result.Err.Error() != "boom" {
		t.Fatalf("unexpected scenario result %+v", result)
	}
	if result.Duration != 20 {
		t.Fatalf("expected summed duration, got %v", result.Duration)
	}
	if got := ScenarioResult(nil).Kind; got != status.Undefined {
		t.Fatalf("expected empty scenario to be undefined, got %s", got)
	}
}

// TestTagExpression verifies tags are joined into a godog expression.
func TestTagExpression(t *testing.T) {
	if got := tagExpression([]string{"smoke", " @fast ", "", "~@slow"}); got != "@smoke && @fast && ~@slow" {
		t.Fatalf("unexpected tag expression %q", got)
	}
	if got := tagExpression(nil); got != "" {
		t.Fatalf("expected empty expression, got %q", got)
	}
}

// TestIndexDocument verifies outline rows are indexed, rules included.
func TestIndexDocument(t *testing.T) {
	path := writeFeature(t, t.TempDir(), "calc.feature", calcFeature)
	doc, err := ParseFeatureFile(path)
	if err != nil {
		t.Fatalf("parse feature: %v", err)
	}
	index := IndexDocument(doc)
	if index.Name != "Calculator" {
		t.Fatalf("expected feature name, got %q", index.Name)
	}
	rows := index.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Outline != "Multiply" || first.Index != 0 || first.Line != 16 || first.Table.Name != "small" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if got, _ := first.Table.Value(1, "result"); got != "20" {
		t.Fatalf("expected table value 20, got %q", got)
	}
	if rows[2].Outline != "Divide" || rows[2].Index != 0 {
		t.Fatalf("expected rule outline row, got %+v", rows[2])
	}
	if rows[0].ExamplesID == rows[2].ExamplesID {
		t.Fatalf("expected distinct examples ids")
	}
	byID, ok := index.RowByID(doc.Feature.Children[2].Scenario.Examples[0].TableBody[1].Id)
	if !ok || byID.Index != 1 {
		t.Fatalf("expected lookup by row id, got %+v (%v)", byID, ok)
	}
	if !index.IsBackgroundStep(doc.Feature.Children[0].Background.Steps[0].Id) {
		t.Fatalf("expected background step to be indexed")
	}
	if index.IsBackgroundStep(doc.Feature.Children[1].Scenario.Steps[0].Id) {
		t.Fatalf("expected scenario step not to be a background step")
	}
}

// TestBuildFeatureIndexFindsRowsByLine verifies lookups by feature uri and line.
func TestBuildFeatureIndexFindsRowsByLine(t *testing.T) {
	root := t.TempDir()
	writeFeature(t, root, filepath.Join("features", "calc.feature"), calcFeature)

	index, err := BuildFeatureIndex(root, []string{"features"})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if index.Len() != 1 {
		t.Fatalf("expected 1 feature, got %d", index.Len())
	}
	row, ok := index.FindRow("features/calc.feature", 17)
	if !ok || row.Outline != "Multiply" || row.Index != 1 {
		t.Fatalf("unexpected row %+v (%v)", row, ok)
	}
	if _, ok := index.FindRow("features/calc.feature", 6); ok {
		t.Fatalf("expected plain scenario line not to match a row")
	}
	if _, ok := index.FindRow("features/other.feature", 16); ok {
		t.Fatalf("expected unknown feature not to match")
	}
}
