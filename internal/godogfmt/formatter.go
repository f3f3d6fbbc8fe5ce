package godogfmt

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/sirupsen/logrus"

	"allurecuke/internal/allure"
	"allurecuke/internal/cucumber"
	"allurecuke/internal/formatter"
	"allurecuke/internal/logging"
	"allurecuke/internal/status"
)

// Options configures the godog formatter.
type Options struct {
	OutputDir     string
	CleanDir      bool
	FeaturePrefix string
	Logger        logrus.FieldLogger
	// Now replaces time.Now for event timestamps.
	Now func() time.Time
	// Builder overrides the Allure builder writing into OutputDir.
	Builder formatter.ReportBuilder
}

// Formatter is a godog formatter writing Allure results.
// godog may deliver events of concurrent scenarios interleaved; they are buffered per
// pickle and handed to the translator at Summary, feature by feature in pickle order.
type Formatter struct {
	out  io.Writer
	opts Options
	log  logrus.FieldLogger
	now  func() time.Time

	mu         sync.Mutex
	clock      *formatter.ManualClock
	translator *formatter.Translator
	docs       map[string]*cucumber.Document
	runs       map[string]*pickleRun
	order      []string
	active     *pickleRun

	featureURI string
	examplesID string
	err        error
}

type pickleRun struct {
	pickle      *messages.Pickle
	started     time.Time
	steps       map[string]*stepRun
	reported    int
	attachments []attachment
	flushed     bool
}

type stepRun struct {
	start       time.Time
	stop        time.Time
	result      status.Result
	done        bool
	attachments []attachment
}

type attachment struct {
	path  string
	title string
}

var _ godog.Formatter = (*Formatter)(nil)

// New returns a formatter writing its one-line summary to out.
func New(out io.Writer, opts Options) *Formatter {
	f := &Formatter{
		out:  out,
		opts: opts,
		log:  opts.Logger,
		now:  opts.Now,
		docs: make(map[string]*cucumber.Document),
		runs: make(map[string]*pickleRun),
	}
	if f.log == nil {
		f.log = logging.Discard()
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.out == nil {
		f.out = io.Discard
	}
	builder := opts.Builder
	if builder == nil {
		builder = allure.NewBuilder(opts.OutputDir, allure.WithLogger(f.log))
	}
	f.clock = formatter.NewManualClock(f.now())
	f.translator = formatter.New(builder,
		formatter.WithClock(f.clock),
		formatter.WithLogger(f.log),
		formatter.WithFeaturePrefix(opts.FeaturePrefix),
	)
	return f
}

// Err returns the error that stopped report generation, if any.
func (f *Formatter) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// TestRunStarted prepares the output directory.
func (f *Formatter) TestRunStarted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opts.Builder != nil {
		return
	}
	if err := allure.Prepare(f.opts.OutputDir, f.opts.CleanDir); err != nil {
		f.err = err
		f.log.WithError(err).Error("cannot prepare allure output dir")
	}
}

// Feature indexes the gherkin document of a feature about to run.
func (f *Formatter) Feature(doc *messages.GherkinDocument, uri string, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[uri] = cucumber.IndexDocument(doc)
}

// Pickle records the start of a scenario.
func (f *Formatter) Pickle(pickle *messages.Pickle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := &pickleRun{pickle: pickle, started: f.now(), steps: make(map[string]*stepRun)}
	f.runs[pickle.Id] = run
	f.order = append(f.order, pickle.Id)
	f.active = run
}

// Defined records the start of a step.
func (f *Formatter) Defined(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.run(pickle)
	if _, ok := run.steps[step.Id]; !ok {
		run.steps[step.Id] = &stepRun{start: f.now()}
	}
	f.active = run
}

// Passed records a passed step.
func (f *Formatter) Passed(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition) {
	f.finish(pickle, step, status.Result{Kind: status.Passed})
}

// Failed records a failed step.
func (f *Formatter) Failed(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition, err error) {
	f.finish(pickle, step, status.Result{Kind: status.Failed, Err: err})
}

// Ambiguous records a step matching several definitions as failed.
func (f *Formatter) Ambiguous(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition, err error) {
	f.finish(pickle, step, status.Result{Kind: status.Failed, Err: err})
}

// Skipped records a skipped step.
func (f *Formatter) Skipped(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition) {
	f.finish(pickle, step, status.Result{Kind: status.Skipped})
}

// Undefined records a step without a definition.
func (f *Formatter) Undefined(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition) {
	f.finish(pickle, step, status.Result{Kind: status.Undefined})
}

// Pending records a step whose definition returned godog.ErrPending.
func (f *Formatter) Pending(pickle *messages.Pickle, step *messages.PickleStep, _ *godog.StepDefinition) {
	f.finish(pickle, step, status.Result{Kind: status.Pending, Message: godog.ErrPending.Error()})
}

// Summary hands every scenario to the translator and writes the report.
func (f *Formatter) Summary() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.flushOrder() {
		if run := f.runs[id]; !run.flushed {
			f.flush(run)
		}
	}
	f.closeExamples()
	f.record(f.translator.RunFinished())
	if f.err != nil {
		fmt.Fprintf(f.out, "allure: report generation failed: %v\n", f.err)
		return
	}
	fmt.Fprintf(f.out, "allure: %d scenarios written to %s\n", len(f.order), f.opts.OutputDir)
}

// AttachFile attaches a file to the step currently running, or to its scenario before
// the first step. It is meant for single-threaded runs.
func (f *Formatter) AttachFile(path, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.active
	if run == nil || run.flushed || run.complete() {
		f.log.WithField("title", title).Warn("cannot attach file: scenario name is undefined")
		return nil
	}
	att := attachment{path: path, title: title}
	if step := run.current(); step != nil {
		step.attachments = append(step.attachments, att)
		return nil
	}
	run.attachments = append(run.attachments, att)
	return nil
}

func (f *Formatter) run(pickle *messages.Pickle) *pickleRun {
	run, ok := f.runs[pickle.Id]
	if !ok {
		f.log.WithField("scenario", pickle.Name).Warn("step reported before its scenario started")
		run = &pickleRun{pickle: pickle, started: f.now(), steps: make(map[string]*stepRun)}
		f.runs[pickle.Id] = run
		f.order = append(f.order, pickle.Id)
	}
	return run
}

func (f *Formatter) finish(pickle *messages.Pickle, step *messages.PickleStep, result status.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.run(pickle)
	sr, ok := run.steps[step.Id]
	if !ok {
		sr = &stepRun{start: f.now()}
		run.steps[step.Id] = sr
	}
	if sr.done {
		f.log.WithField("step", step.Text).Warn("step reported twice; keeping the first result")
		return
	}
	sr.stop = f.now()
	sr.result = result
	sr.done = true
	run.reported++
}

// flushOrder groups the pickles by feature, features in the order their first pickle
// started, pickles in start order within a feature.
func (f *Formatter) flushOrder() []string {
	byURI := make(map[string][]string)
	uris := make([]string, 0)
	for _, id := range f.order {
		uri := f.runs[id].pickle.Uri
		if _, ok := byURI[uri]; !ok {
			uris = append(uris, uri)
		}
		byURI[uri] = append(byURI[uri], id)
	}
	ids := make([]string, 0, len(f.order))
	for _, uri := range uris {
		ids = append(ids, byURI[uri]...)
	}
	return ids
}

// complete reports whether every step of the pickle has a result.
func (r *pickleRun) complete() bool {
	return r.reported >= len(r.pickle.Steps)
}

// current returns the step started but not yet finished.
func (r *pickleRun) current() *stepRun {
	for i := len(r.pickle.Steps) - 1; i >= 0; i-- {
		if sr, ok := r.steps[r.pickle.Steps[i].Id]; ok && !sr.done {
			return sr
		}
	}
	return nil
}

// flush replays a finished scenario into the translator.
func (f *Formatter) flush(run *pickleRun) {
	run.flushed = true
	if f.err != nil {
		return
	}
	pickle := run.pickle
	doc := f.docs[pickle.Uri]

	if pickle.Uri != f.featureURI {
		f.closeExamples()
		name := pickle.Uri
		if doc != nil && doc.Name != "" {
			name = doc.Name
		} else {
			f.log.WithField("uri", pickle.Uri).Warn("feature document not seen; using its uri as suite name")
		}
		f.clock.Set(run.started)
		if f.record(f.translator.SuiteStart(name)) {
			return
		}
		f.featureURI = pickle.Uri
	}

	tc := formatter.TestCase{Name: pickle.Name}
	row, ok := f.row(doc, pickle)
	if ok {
		if row.ExamplesID != f.examplesID {
			f.closeExamples()
			if f.record(f.translator.ExamplesStart(row.Outline, row.Table)) {
				return
			}
			f.examplesID = row.ExamplesID
		}
		index := row.Index
		tc.Example = &index
	} else {
		f.closeExamples()
	}

	f.clock.Set(run.started)
	if f.record(f.translator.TestStart(tc)) {
		return
	}
	f.attach(run.attachments)

	kinds := make([]status.Kind, 0, len(pickle.Steps))
	var scenario status.Result
	for _, step := range pickle.Steps {
		sr, ok := run.steps[step.Id]
		if !ok || !sr.done {
			continue
		}
		sr.result.Duration = sr.stop.Sub(sr.start)
		f.clock.Set(sr.start)
		if background(doc, step) {
			// Background steps are renamed against the examples row by the translator;
			// their attachments go to the scenario.
			if f.record(f.translator.BackgroundStep(step.Text, sr.result)) {
				return
			}
			f.attach(sr.attachments)
		} else {
			if f.record(f.translator.StepStart(step.Text)) {
				return
			}
			f.attach(sr.attachments)
			f.clock.Set(sr.stop)
			if f.record(f.translator.StepStop(step.Text, sr.result)) {
				return
			}
		}
		kinds = append(kinds, sr.result.Kind)
		if scenario.Err == nil && sr.result.Err != nil {
			scenario.Err = sr.result.Err
		}
		if scenario.Message == "" {
			scenario.Message = sr.result.Message
		}
	}
	scenario.Kind = status.Worst(kinds...)
	if len(pickle.Steps) == 0 {
		scenario.Kind = status.Undefined
	}
	f.record(f.translator.TestStop(scenario))
}

func (f *Formatter) row(doc *cucumber.Document, pickle *messages.Pickle) (cucumber.Row, bool) {
	if doc == nil || len(pickle.AstNodeIds) < 2 {
		return cucumber.Row{}, false
	}
	return doc.RowByID(pickle.AstNodeIds[1])
}

// background reports whether a pickle step comes from a feature or rule background.
func background(doc *cucumber.Document, step *messages.PickleStep) bool {
	return doc != nil && len(step.AstNodeIds) > 0 && doc.IsBackgroundStep(step.AstNodeIds[0])
}

func (f *Formatter) attach(attachments []attachment) {
	for _, att := range attachments {
		if err := f.translator.AttachFile(att.path, att.title); err != nil {
			f.log.WithError(err).WithField("title", att.title).Warn("cannot attach file")
		}
	}
}

func (f *Formatter) closeExamples() {
	if f.examplesID == "" {
		return
	}
	f.examplesID = ""
	f.record(f.translator.ExamplesStop())
}

// record keeps the first translator error and reports whether one occurred.
func (f *Formatter) record(err error) bool {
	if err == nil {
		return false
	}
	if f.err == nil {
		f.err = err
	}
	return true
}
