package godogfmt

import (
	"io"
	"sync"

	"github.com/cucumber/godog"
	"github.com/sirupsen/logrus"

	"allurecuke/internal/config"
)

// DefaultName is the format name passed to godog, as in --format allure.
const DefaultName = "allure"

// Reporter builds formatters for godog and forwards attachments to the running one.
type Reporter struct {
	opts Options

	mu      sync.Mutex
	current *Formatter
}

// NewReporter returns a reporter creating formatters with opts.
func NewReporter(opts Options) *Reporter {
	return &Reporter{opts: opts}
}

// Register registers a reporter with godog under name.
func Register(name string, opts Options) *Reporter {
	r := NewReporter(opts)
	godog.Format(name, "Writes Allure JSON test results.", r.Func())
	return r
}

// Func returns the godog constructor for this reporter's formatters.
func (r *Reporter) Func() godog.FormatterFunc {
	return func(_ string, out io.Writer) godog.Formatter {
		f := New(out, r.opts)
		r.mu.Lock()
		r.current = f
		r.mu.Unlock()
		return f
	}
}

// Current returns the formatter of the latest run, or nil before any run.
func (r *Reporter) Current() *Formatter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// AttachFile attaches a file to the running step of the current run.
func (r *Reporter) AttachFile(path, title string) error {
	f := r.Current()
	if f == nil {
		return nil
	}
	return f.AttachFile(path, title)
}

// OptionsFromConfig maps a loaded config to formatter options.
func OptionsFromConfig(cfg config.Config, log logrus.FieldLogger) Options {
	return Options{
		OutputDir:     cfg.OutputDir,
		CleanDir:      cfg.Clean(),
		FeaturePrefix: cfg.FeaturePrefix,
		Logger:        log,
	}
}
