package cucumber

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

// ParseGodogJSON parses raw cucumber JSON output from godog.
func ParseGodogJSON(data []byte) ([]CukeFeatureJSON, error) {
	data = cleanGodogOutput(data)
	var features []CukeFeatureJSON
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, err
	}
	return features, nil
}

// ReadGodogJSON reads and parses a cucumber JSON report file.
func ReadGodogJSON(path string) ([]CukeFeatureJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cucumber json: %w", err)
	}
	features, err := ParseGodogJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse cucumber json %s: %w", path, err)
	}
	return features, nil
}

// ParseFeatureFile parses a feature file into a gherkin document.
func ParseFeatureFile(path string) (*messages.GherkinDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read feature: %w", err)
	}
	defer file.Close()

	doc, err := gherkin.ParseGherkinDocument(file, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("parse feature %s: %w", path, err)
	}
	if doc.Feature == nil {
		return nil, fmt.Errorf("missing feature in %s", path)
	}
	doc.Uri = path
	return doc, nil
}

// cleanGodogOutput strips non-JSON noise from godog output.
func cleanGodogOutput(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	stripped := stripANSICodes(data)
	stripped = bytes.TrimSpace(stripped)
	if len(stripped) == 0 {
		return stripped
	}
	if stripped[0] == '[' || stripped[0] == '{' {
		return stripped
	}
	for i, b := range stripped {
		if b == '[' || b == '{' {
			return bytes.TrimSpace(stripped[i:])
		}
	}
	return stripped
}

// stripANSICodes removes ANSI escape sequences from output.
func stripANSICodes(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] == 0x1b && i+1 < len(data) && data[i+1] == '[' {
			i += 2
			for i < len(data) {
				ch := data[i]
				i++
				if ch >= 0x40 && ch <= 0x7e {
					break
				}
			}
			continue
		}
		out = append(out, data[i])
		i++
	}
	return out
}
