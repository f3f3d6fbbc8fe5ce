package cucumber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// RunOptions configures RunGodog.
type RunOptions struct {
	// Binary is the godog executable, "godog" when empty.
	Binary string
	Dir    string
	Paths  []string
	Tags   []string
}

// RunGodog executes the godog CLI with the cucumber formatter and parses its report.
// Failing scenarios make godog exit non-zero; that is not an error while a report is produced.
func RunGodog(ctx context.Context, opts RunOptions) ([]CukeFeatureJSON, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("no feature paths provided")
	}
	binary := opts.Binary
	if binary == "" {
		binary = "godog"
	}
	args := []string{"--format", "cucumber"}
	if tagExpr := tagExpression(opts.Tags); tagExpr != "" {
		args = append(args, "--tags", tagExpr)
	}
	args = append(args, opts.Paths...)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = opts.Dir
	cmd.Env = withoutEnv(os.Environ(), "GOTOOLDIR")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := stdout.Bytes()
	if len(output) == 0 && err != nil {
		return nil, fmt.Errorf("godog failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	features, parseErr := ParseGodogJSON(output)
	if parseErr != nil {
		return nil, fmt.Errorf("parse godog output: %w (%s)", parseErr, strings.TrimSpace(stderr.String()))
	}
	return features, nil
}

// tagExpression joins tags into a godog tag expression.
func tagExpression(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "@") && !strings.HasPrefix(tag, "~") {
			tag = "@" + tag
		}
		parts = append(parts, tag)
	}
	return strings.Join(parts, " && ")
}

func withoutEnv(env []string, key string) []string {
	prefix := key + "="
	filtered := make([]string, 0, len(env))
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}
