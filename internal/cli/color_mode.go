package cli

import (
	"fmt"
	"io"
	"strings"

	"allurecuke/internal/logging"
)

// isTerminal reports whether a writer accepts colour; tests replace it.
var isTerminal = func(w io.Writer) bool {
	return logging.ShouldUseStyling(w, false)
}

// resolveNoColor maps a --color mode to the renderer's noColor switch.
func resolveNoColor(mode string, stdout io.Writer) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = "auto"
	}
	switch normalized {
	case "auto":
		return !isTerminal(stdout), nil
	case "always":
		return false, nil
	case "never":
		return true, nil
	default:
		return false, fmt.Errorf("invalid color mode %q (expected auto|always|never)", mode)
	}
}
