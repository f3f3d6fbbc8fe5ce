package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Options controls logger construction.
type Options struct {
	Level   string
	NoColor bool
	JSON    bool
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) (*logrus.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
		return logger, nil
	}
	styled := !opts.NoColor && shouldUseStyling(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !styled,
		ForceColors:      styled,
		DisableTimestamp: !styled,
		FullTimestamp:    styled,
	})
	return logger, nil
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// ParseLevel accepts logrus level names; empty means info.
func ParseLevel(value string) (logrus.Level, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(value)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected panic|fatal|error|warn|info|debug|trace)", value)
	}
	return level, nil
}

// shouldUseStyling reports whether w is a terminal that accepts colour.
func shouldUseStyling(w io.Writer) bool {
	if w == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if strings.EqualFold(os.Getenv("CLICOLOR"), "0") {
		return false
	}
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

// ShouldUseStyling is shouldUseStyling for other packages rendering to a writer.
func ShouldUseStyling(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	return shouldUseStyling(w)
}
