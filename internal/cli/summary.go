package cli

import (
	"fmt"
	"io"
	"strings"

	"allurecuke/internal/config"
	"allurecuke/internal/summary"
)

// runSummary builds the handler for the summary command.
func runSummary(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := newFlagSet(cmd, stderr)
		configPath := flags.String("config", "", "Path to config file (default: search for "+config.ConfigFileName+")")
		dir := flags.String("dir", "", "Allure results directory (default: output_dir)")
		colorMode := flags.String("color", "auto", "Colour output: auto|always|never")
		strict := flags.Bool("strict", false, "Exit non-zero when a scenario failed or broke")
		if code, done := parseFlags(cmd, flags, args, false, stdout, stderr); done {
			return code
		}
		noColor, err := resolveNoColor(*colorMode, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		resultsDir := strings.TrimSpace(*dir)
		if resultsDir == "" {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				fmt.Fprintf(stderr, "Summary failed:\n%v\n", err)
				return ExitError
			}
			resultsDir = cfg.OutputDir
		}

		report, err := summary.Load(resultsDir)
		if err != nil {
			fmt.Fprintf(stderr, "Summary failed: %v\n", err)
			return ExitError
		}
		if err := summary.Render(stdout, report, noColor); err != nil {
			fmt.Fprintf(stderr, "Summary failed: %v\n", err)
			return ExitError
		}
		if *strict && report.Failed() {
			return ExitError
		}
		return ExitOK
	}
}
