package outline

import "allurecuke/internal/status"

// BufferedStep is a background step held back until a scenario opens.
type BufferedStep struct {
	Name   string
	Result status.Result
}

// Buffer collects background steps and hands them out once per scenario.
type Buffer struct {
	steps    []BufferedStep
	replayed bool
}

// Add records a background step. The first step added after a replay starts a new background.
func (b *Buffer) Add(name string, result status.Result) {
	if b.replayed {
		b.steps = nil
		b.replayed = false
	}
	b.steps = append(b.steps, BufferedStep{Name: name, Result: result})
}

// Len returns the number of buffered steps.
func (b *Buffer) Len() int {
	return len(b.steps)
}

// Replay returns the buffered steps with names rewritten by rename, when non-nil.
// The steps stay available for later scenarios until Reset or the next Add.
func (b *Buffer) Replay(rename func(string) string) []BufferedStep {
	b.replayed = true
	out := make([]BufferedStep, 0, len(b.steps))
	for _, step := range b.steps {
		if rename != nil {
			step.Name = rename(step.Name)
		}
		out = append(out, step)
	}
	return out
}

// Reset drops every buffered step.
func (b *Buffer) Reset() {
	b.steps = nil
	b.replayed = false
}
