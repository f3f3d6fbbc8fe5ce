package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"allurecuke/internal/allure"
	"allurecuke/internal/config"
	"allurecuke/internal/cucumber"
	"allurecuke/internal/formatter"
	"allurecuke/internal/logging"
)

// replayParams are the resolved inputs of one replay.
type replayParams struct {
	Config   config.Config
	Root     string
	Input    string
	Paths    []string
	Features []string
	Tags     []string
	Godog    string
}

// runReplay builds the handler for the replay command.
func runReplay(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := newFlagSet(cmd, stderr)
		configPath := flags.String("config", "", "Path to config file (default: search for "+config.ConfigFileName+")")
		input := flags.String("input", "", "Cucumber JSON report to replay")
		root := flags.String("root", "", "Directory feature uris are relative to (default: working directory)")
		output := flags.String("output", "", "Allure results directory (overrides output_dir)")
		noClean := flags.Bool("no-clean", false, "Keep existing results in the output directory")
		prefix := flags.String("prefix", "", "Prepended to every feature name (overrides feature_prefix)")
		godogBinary := flags.String("godog", "godog", "godog executable used without --input")
		logLevel := flags.String("log-level", "", "Log level (overrides log_level)")
		logJSON := flags.Bool("log-json", false, "Write logs as JSON")
		var features, tags stringList
		flags.Var(&features, "features", "Feature file, directory or glob used to recover outline examples (repeatable)")
		flags.Var(&tags, "tags", "Tag filter passed to godog (repeatable)")
		if code, done := parseFlags(cmd, flags, args, true, stdout, stderr); done {
			return code
		}
		inputValue := strings.TrimSpace(*input)
		if inputValue != "" && flags.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if inputValue == "" && flags.NArg() == 0 {
			fmt.Fprintln(stderr, "either --input or feature paths are required")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Replay failed:\n%v\n", err)
			return ExitError
		}
		set := map[string]bool{}
		flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if set["output"] {
			cfg.OutputDir = *output
		}
		if *noClean {
			clean := false
			cfg.CleanDir = &clean
		}
		if set["prefix"] {
			cfg.FeaturePrefix = *prefix
		}
		if set["log-level"] {
			cfg.LogLevel = *logLevel
		}
		if *logJSON {
			cfg.LogFormat = "json"
		}
		if err := config.Validate(&cfg); err != nil {
			fmt.Fprintf(stderr, "Replay failed:\n%v\n", err)
			return ExitError
		}

		log, err := logging.New(stderr, logging.Options{Level: cfg.LogLevel, JSON: cfg.LogFormat == "json"})
		if err != nil {
			fmt.Fprintf(stderr, "Replay failed: %v\n", err)
			return ExitError
		}

		rootDir := strings.TrimSpace(*root)
		if rootDir == "" {
			if rootDir, err = os.Getwd(); err != nil {
				fmt.Fprintf(stderr, "Replay failed: %v\n", err)
				return ExitError
			}
		}

		builder, err := replay(context.Background(), replayParams{
			Config:   cfg,
			Root:     rootDir,
			Input:    inputValue,
			Paths:    flags.Args(),
			Features: features,
			Tags:     tags,
			Godog:    *godogBinary,
		}, log)
		if err != nil {
			fmt.Fprintf(stderr, "Replay failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Wrote %d suites to %s\n", len(builder.Suites()), builder.Dir())
		return ExitOK
	}
}

// replay loads or produces the cucumber report and writes it as Allure results.
func replay(ctx context.Context, params replayParams, log logrus.FieldLogger) (*allure.Builder, error) {
	var features []cucumber.CukeFeatureJSON
	var err error
	if params.Input != "" {
		features, err = cucumber.ReadGodogJSON(params.Input)
	} else {
		features, err = cucumber.RunGodog(ctx, cucumber.RunOptions{
			Binary: params.Godog,
			Dir:    params.Root,
			Paths:  params.Paths,
			Tags:   params.Tags,
		})
	}
	if err != nil {
		return nil, err
	}
	log.WithField("features", len(features)).Debug("cucumber report loaded")

	featurePaths := params.Features
	if len(featurePaths) == 0 {
		featurePaths = params.Paths
	}
	if len(featurePaths) == 0 {
		featurePaths = reportedFeatures(params.Root, features)
	}
	index, err := cucumber.BuildFeatureIndex(params.Root, featurePaths)
	if err != nil {
		return nil, err
	}
	log.WithField("documents", index.Len()).Debug("feature index built")

	cfg := params.Config
	if err := allure.Prepare(cfg.OutputDir, cfg.Clean()); err != nil {
		return nil, err
	}
	builder := allure.NewBuilder(cfg.OutputDir, allure.WithLogger(log))
	clock := formatter.NewManualClock(time.Now())
	translator := formatter.New(builder,
		formatter.WithClock(clock),
		formatter.WithLogger(log),
		formatter.WithFeaturePrefix(cfg.FeaturePrefix),
	)
	if err := cucumber.Replay(features, translator, cucumber.ReplayOptions{Index: index, Clock: clock, Log: log}); err != nil {
		return nil, err
	}
	return builder, nil
}

// reportedFeatures lists the report's feature uris that exist under root.
func reportedFeatures(root string, features []cucumber.CukeFeatureJSON) []string {
	paths := make([]string, 0, len(features))
	for _, feature := range features {
		if feature.URI == "" {
			continue
		}
		path := feature.URI
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			paths = append(paths, feature.URI)
		}
	}
	return paths
}
