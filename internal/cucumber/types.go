package cucumber

import (
	"time"

	"allurecuke/internal/status"
)

// CukeFeatureJSON matches cucumber JSON output for a feature.
type CukeFeatureJSON struct {
	URI      string        `json:"uri"`
	ID       string        `json:"id"`
	Keyword  string        `json:"keyword"`
	Name     string        `json:"name"`
	Line     int           `json:"line"`
	Elements []CukeElement `json:"elements"`
}

// CukeElement describes a scenario or background element.
type CukeElement struct {
	ID      string     `json:"id"`
	Keyword string     `json:"keyword"`
	Name    string     `json:"name"`
	Line    int        `json:"line"`
	Type    string     `json:"type"`
	Steps   []CukeStep `json:"steps"`
}

// IsBackground reports whether the element holds background steps.
func (e CukeElement) IsBackground() bool {
	return e.Type == "background"
}

// CukeStep captures one executed step.
type CukeStep struct {
	Keyword    string          `json:"keyword"`
	Name       string          `json:"name"`
	Line       int             `json:"line"`
	Result     CukeResult      `json:"result"`
	Embeddings []CukeEmbedding `json:"embeddings,omitempty"`
}

// CukeResult contains a step execution status. Duration is in nanoseconds.
type CukeResult struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Duration     *int64 `json:"duration,omitempty"`
}

// CukeEmbedding is a base64 attachment recorded on a step.
type CukeEmbedding struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Elapsed returns the step duration, zero when none was recorded.
func (r CukeResult) Elapsed() time.Duration {
	if r.Duration == nil || *r.Duration < 0 {
		return 0
	}
	return time.Duration(*r.Duration)
}

// StepResult converts a cucumber step result to a status.Result.
func StepResult(result CukeResult) status.Result {
	out := status.Result{Kind: status.ParseKind(result.Status), Duration: result.Elapsed()}
	switch out.Kind {
	case status.Failed:
		if result.ErrorMessage != "" {
			out.Err = replayError(result.ErrorMessage)
		}
	case status.Pending:
		out.Message = result.ErrorMessage
	}
	return out
}

// ScenarioResult reduces the step results of an element to a scenario result.
// An element without steps counts as undefined, as godog does for empty scenarios.
func ScenarioResult(steps []CukeStep) status.Result {
	if len(steps) == 0 {
		return status.Result{Kind: status.Undefined}
	}
	kinds := make([]status.Kind, 0, len(steps))
	var total status.Result
	for _, step := range steps {
		result := StepResult(step.Result)
		kinds = append(kinds, result.Kind)
		total.Duration += result.Duration
		if total.Err == nil && result.Err != nil {
			total.Err = result.Err
		}
		if total.Message == "" && result.Message != "" {
			total.Message = result.Message
		}
	}
	total.Kind = status.Worst(kinds...)
	return total
}

type replayError string

func (e replayError) Error() string { return string(e) }
