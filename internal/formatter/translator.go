package formatter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"allurecuke/internal/allure"
	"allurecuke/internal/logging"
	"allurecuke/internal/outline"
	"allurecuke/internal/status"
)

// Translator turns runner lifecycle events into report builder calls.
// It keeps at most one suite, test and step open and pairs every start with one stop.
// Events must be delivered sequentially.
type Translator struct {
	builder ReportBuilder
	holder  Holder
	tracker *Tracker
	clock   Clock
	log     logrus.FieldLogger
	prefix  string

	suiteOpen bool
	testOpen  bool
	stepOpen  bool

	examples   *outline.Context
	row        *int
	background outline.Buffer

	err error
}

// Option configures a Translator.
type Option func(*Translator)

// WithClock sets the clock used for start and stop timestamps.
func WithClock(clock Clock) Option {
	return func(t *Translator) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithLogger sets the logger for reporting anomalies.
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Translator) {
		if log != nil {
			t.log = log
		}
	}
}

// WithFeaturePrefix prepends prefix to every feature name.
func WithFeaturePrefix(prefix string) Option {
	return func(t *Translator) {
		t.prefix = prefix
	}
}

// New returns a Translator driving builder.
func New(builder ReportBuilder, opts ...Option) *Translator {
	t := &Translator{
		builder: builder,
		clock:   systemClock{},
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.tracker = t.holder.Create()
	t.tracker.StepIndex = -1
	t.tracker.FeatureName = ""
	return t
}

var _ Listener = (*Translator)(nil)

// Tracker returns the run tracker.
func (t *Translator) Tracker() (*Tracker, error) {
	return t.holder.Current()
}

// Err returns the builder error that aborted report generation, if any.
func (t *Translator) Err() error {
	return t.err
}

// SuiteStart opens a suite for a feature, closing a different open feature first.
func (t *Translator) SuiteStart(feature string) error {
	if t.err != nil {
		return nil
	}
	name := t.prefix + feature
	if t.suiteOpen {
		if t.tracker.FeatureName == name {
			return nil
		}
		if err := t.SuiteStop(); err != nil {
			return err
		}
	}
	if err := t.builder.StartSuite(name, t.clock.Now()); err != nil {
		return t.fail("start suite", err)
	}
	t.tracker.FeatureName = name
	t.suiteOpen = true
	return nil
}

// SuiteStop closes the open suite.
func (t *Translator) SuiteStop() error {
	if t.err != nil {
		return nil
	}
	if !t.suiteOpen {
		t.log.Warn("suite stop without an open suite")
		return nil
	}
	if err := t.closeDangling("suite stop"); err != nil {
		return err
	}
	t.examples = nil
	t.background.Reset()
	if err := t.builder.StopSuite(t.tracker.FeatureName, t.clock.Now()); err != nil {
		return t.fail("stop suite", err)
	}
	t.tracker.FeatureName = ""
	t.suiteOpen = false
	return nil
}

// ExamplesStart opens the expansion context of an outline's examples table.
func (t *Translator) ExamplesStart(outlineName string, table outline.Table) error {
	if t.err != nil {
		return nil
	}
	t.examples = outline.NewContext(outlineName, table)
	return nil
}

// ExamplesStop discards the examples context and any background steps buffered for it.
func (t *Translator) ExamplesStop() error {
	if t.err != nil {
		return nil
	}
	t.examples = nil
	t.background.Reset()
	return nil
}

// BackgroundStep reports a background step. Inside an open test it becomes a regular
// step, renamed against the open examples row; otherwise it is buffered and replayed when
// the next test opens.
func (t *Translator) BackgroundStep(name string, result status.Result) error {
	if t.err != nil || IsHook(name) {
		return nil
	}
	if t.testOpen {
		name = t.rowStepName(name)
		if err := t.StepStart(name); err != nil {
			return err
		}
		return t.StepStop(name, result)
	}
	t.background.Add(name, result)
	return nil
}

// TestStart opens a test entry for a scenario or an examples row.
func (t *Translator) TestStart(tc TestCase) error {
	if t.err != nil {
		return nil
	}
	if !t.suiteOpen {
		t.log.WithField("scenario", tc.Name).Warn("scenario start without an open feature; dropped")
		return nil
	}
	if err := t.closeDangling("next scenario start"); err != nil {
		return err
	}

	name, row := t.scenarioName(tc)
	now := t.clock.Now()
	info := allure.TestInfo{Feature: t.tracker.FeatureName, Story: name, Start: now}
	if err := t.builder.StartTest(t.tracker.FeatureName, name, info); err != nil {
		return t.fail("start test", err)
	}
	t.tracker.ScenarioName = name
	t.tracker.ScenarioStartTime = now
	t.tracker.StepIndex = -1
	t.testOpen = true
	t.row = row

	return t.replayBackground()
}

// TestStop closes the open test with the mapped status and failure detail.
func (t *Translator) TestStop(result status.Result) error {
	if t.err != nil {
		return nil
	}
	if !t.testOpen {
		t.log.Warn("scenario stop without an open scenario")
		return nil
	}
	if t.stepOpen {
		t.log.WithField("step", t.tracker.StepName).Warn("closing step left open at scenario stop")
		if err := t.closeStep(status.Result{}); err != nil {
			return err
		}
	}
	if !result.Kind.Known() {
		t.log.WithField("scenario", t.tracker.ScenarioName).Warn("unrecognized scenario result; status left unset")
	}
	return t.closeTest(result)
}

// StepStart opens a step unless it is a hook pseudo-step.
func (t *Translator) StepStart(name string) error {
	if t.err != nil || IsHook(name) {
		return nil
	}
	if !t.testOpen {
		t.log.WithField("step", name).Warn("step start without an open scenario; dropped")
		return nil
	}
	if t.stepOpen {
		t.log.WithField("step", t.tracker.StepName).Warn("closing step left open at next step start")
		if err := t.closeStep(status.Result{}); err != nil {
			return err
		}
	}
	now := t.clock.Now()
	t.tracker.StepIndex++
	t.tracker.StepName = name
	t.tracker.StepStartTime = now
	info := allure.StepInfo{Index: t.tracker.StepIndex, Title: name, Start: now}
	if err := t.builder.StartStep(t.tracker.FeatureName, t.tracker.ScenarioName, info); err != nil {
		return t.fail("start step", err)
	}
	t.stepOpen = true
	return nil
}

// StepStop closes the open step unless name is a hook pseudo-step.
func (t *Translator) StepStop(name string, result status.Result) error {
	if t.err != nil || IsHook(name) {
		return nil
	}
	if !t.stepOpen {
		t.log.WithField("step", name).Warn("step stop without an open step")
		return nil
	}
	if name != t.tracker.StepName {
		t.log.WithFields(logrus.Fields{"step": name, "open_step": t.tracker.StepName}).Warn("step stop does not match the open step")
	}
	if !result.Kind.Known() {
		t.log.WithField("step", t.tracker.StepName).Warn("unrecognized step result; status left unset")
	}
	return t.closeStep(result)
}

// RunFinished closes whatever is still open and writes the report.
func (t *Translator) RunFinished() error {
	if t.err != nil {
		return t.err
	}
	if err := t.closeDangling("run end"); err != nil {
		return err
	}
	if t.suiteOpen {
		if err := t.SuiteStop(); err != nil {
			return err
		}
	}
	if err := t.builder.Build(); err != nil {
		return t.fail("build report", err)
	}
	return nil
}

// AttachFile attaches a file to the open step, or to the open scenario between steps.
func (t *Translator) AttachFile(path, title string) error {
	tracker, err := t.holder.Current()
	if err != nil {
		return err
	}
	if t.err != nil {
		return nil
	}
	if !t.testOpen {
		t.log.WithFields(logrus.Fields{"title": title, "step": tracker.StepName}).
			Warn("cannot attach file: scenario name is undefined")
		return nil
	}
	stepTitle := ""
	if t.stepOpen {
		stepTitle = tracker.StepName
	}
	if err := t.builder.AttachFile(tracker.FeatureName, tracker.ScenarioName, stepTitle, path, title); err != nil {
		return fmt.Errorf("attach %q: %w", title, err)
	}
	return nil
}

func (t *Translator) scenarioName(tc TestCase) (string, *int) {
	if tc.Example == nil {
		return tc.Name, nil
	}
	if t.examples == nil {
		t.log.WithField("scenario", tc.Name).Warn("examples row without an open examples table")
		return tc.Name, nil
	}
	name, err := t.examples.ScenarioName(*tc.Example)
	if err != nil {
		t.log.WithError(err).WithField("scenario", tc.Name).Warn("cannot resolve examples row")
		return tc.Name, nil
	}
	row := *tc.Example
	return name, &row
}

func (t *Translator) replayBackground() error {
	if t.background.Len() == 0 {
		return nil
	}
	for _, step := range t.background.Replay(t.rowStepName) {
		if err := t.StepStart(step.Name); err != nil {
			return err
		}
		if err := t.StepStop(step.Name, step.Result); err != nil {
			return err
		}
	}
	return nil
}

// rowStepName substitutes the open examples row into a step name. Outside an outline row
// the name is returned as is.
func (t *Translator) rowStepName(name string) string {
	if t.row == nil || t.examples == nil {
		return name
	}
	resolved, err := t.examples.StepName(*t.row, name)
	if err != nil {
		t.log.WithError(err).WithField("step", name).Warn("cannot resolve background step against the examples row")
		return name
	}
	return resolved
}

// closeDangling closes a step and test left open, with an unset status.
func (t *Translator) closeDangling(at string) error {
	if t.stepOpen {
		t.log.WithField("step", t.tracker.StepName).Warn("closing step left open at " + at)
		if err := t.closeStep(status.Result{}); err != nil {
			return err
		}
	}
	if t.testOpen {
		t.log.WithField("scenario", t.tracker.ScenarioName).Warn("closing scenario left open at " + at)
		if err := t.closeTest(status.Result{}); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) closeTest(result status.Result) error {
	outcome := allure.Outcome{
		Status:  result.Status(),
		Failure: status.FailureOf(result),
		Start:   t.tracker.ScenarioStartTime,
		Stop:    t.clock.Now(),
	}
	if err := t.builder.StopTest(t.tracker.FeatureName, t.tracker.ScenarioName, outcome); err != nil {
		return t.fail("stop test", err)
	}
	t.tracker.ScenarioName = ""
	t.testOpen = false
	t.row = nil
	return nil
}

func (t *Translator) closeStep(result status.Result) error {
	now := t.clock.Now()
	t.tracker.StepStopTime = now
	info := allure.StepInfo{
		Index: t.tracker.StepIndex,
		Title: t.tracker.StepName,
		Start: t.tracker.StepStartTime,
		Stop:  now,
	}
	if err := t.builder.StopStep(t.tracker.FeatureName, t.tracker.ScenarioName, info, result.Status()); err != nil {
		return t.fail("stop step", err)
	}
	t.stepOpen = false
	return nil
}

// fail records the first builder error; later events become no-ops.
func (t *Translator) fail(op string, err error) error {
	t.err = fmt.Errorf("%s: %w", op, err)
	t.log.WithError(err).WithField("op", op).Error("report builder failed; report generation aborted")
	return t.err
}
