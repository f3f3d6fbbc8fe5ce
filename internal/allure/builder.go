package allure

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/godogx/allure/report"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"allurecuke/internal/logging"
	"allurecuke/internal/status"
)

// ErrNotFound reports a stop or attach call for something that was never started.
var ErrNotFound = errors.New("not found")

// Builder accumulates suites, tests and steps and writes them as Allure result files.
// It is not safe for concurrent use.
type Builder struct {
	dir    string
	suites []*TestSuite
	newID  func() string
	log    logrus.FieldLogger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithIDGenerator replaces the uuid generator used for result, container and attachment ids.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// NewBuilder returns a builder writing into dir.
func NewBuilder(dir string, opts ...Option) *Builder {
	b := &Builder{
		dir:   dir,
		newID: uuid.NewString,
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dir returns the output directory.
func (b *Builder) Dir() string {
	return b.dir
}

// Suites returns the suites recorded so far.
func (b *Builder) Suites() []*TestSuite {
	return b.suites
}

// StartSuite opens a suite.
func (b *Builder) StartSuite(name string, start time.Time) error {
	b.suites = append(b.suites, &TestSuite{
		Container: &report.Container{
			UUID:  b.newID(),
			Name:  name,
			Start: timestamp(start),
		},
		open: true,
	})
	b.log.WithField("suite", name).Debug("suite started")
	return nil
}

// StopSuite closes the most recent open suite with the given name.
func (b *Builder) StopSuite(name string, stop time.Time) error {
	suite, err := b.openSuite(name)
	if err != nil {
		return err
	}
	suite.Container.Stop = timestamp(stop)
	suite.open = false
	b.log.WithField("suite", name).Debug("suite stopped")
	return nil
}

// StartTest opens a test result inside an open suite.
func (b *Builder) StartTest(suiteName, testName string, info TestInfo) error {
	suite, err := b.openSuite(suiteName)
	if err != nil {
		return err
	}
	result := &report.Result{
		UUID:      b.newID(),
		Name:      testName,
		FullName:  suiteName + ": " + testName,
		HistoryID: suiteName + ": " + testName,
		Start:     timestamp(info.Start),
		Labels:    []report.Label{{Name: LabelSuite, Value: suiteName}},
	}
	if info.Feature != "" {
		result.Labels = append(result.Labels, report.Label{Name: LabelFeature, Value: info.Feature})
	}
	if info.Story != "" {
		result.Labels = append(result.Labels, report.Label{Name: LabelStory, Value: info.Story})
	}
	suite.TestCases = append(suite.TestCases, result)
	suite.tests = append(suite.tests, &testState{result: result, open: true})
	suite.Container.Children = append(suite.Container.Children, result.UUID)
	b.log.WithFields(logrus.Fields{"suite": suiteName, "test": testName}).Debug("test started")
	return nil
}

// StopTest closes an open test and records its outcome.
func (b *Builder) StopTest(suiteName, testName string, outcome Outcome) error {
	test, err := b.openTest(suiteName, testName)
	if err != nil {
		return err
	}
	result := test.result
	if !outcome.Start.IsZero() {
		result.Start = timestamp(outcome.Start)
	}
	result.Stop = timestamp(outcome.Stop)
	result.Status = report.Status(outcome.Status)
	if outcome.Failure != nil {
		result.StatusDetails = &report.StatusDetails{Message: outcome.Failure.Message, Trace: outcome.Failure.Trace}
	}
	test.open = false
	b.log.WithFields(logrus.Fields{"suite": suiteName, "test": testName, "status": outcome.Status}).Debug("test stopped")
	return nil
}

// StartStep opens a step inside an open test.
func (b *Builder) StartStep(suiteName, testName string, info StepInfo) error {
	test, err := b.openTest(suiteName, testName)
	if err != nil {
		return err
	}
	test.result.Steps = append(test.result.Steps, report.Step{
		Name:  info.Title,
		Start: timestamp(info.Start),
	})
	test.steps = append(test.steps, stepState{index: info.Index, open: true})
	return nil
}

// StopStep closes the open step matching index and title.
func (b *Builder) StopStep(suiteName, testName string, info StepInfo, st status.Status) error {
	test, err := b.openTest(suiteName, testName)
	if err != nil {
		return err
	}
	i := test.findStep(info.Index, info.Title)
	if i < 0 {
		return fmt.Errorf("step %d %q in %q/%q: %w", info.Index, info.Title, suiteName, testName, ErrNotFound)
	}
	test.result.Steps[i].Stop = timestamp(info.Stop)
	test.result.Steps[i].Status = report.Status(st)
	test.steps[i].open = false
	return nil
}

// AttachFile copies a file into the output directory and links it to a step, or to the
// test when stepTitle is empty.
func (b *Builder) AttachFile(suiteName, testName, stepTitle, path, title string) error {
	test, err := b.openTest(suiteName, testName)
	if err != nil {
		return err
	}
	step := -1
	if stepTitle != "" {
		step = test.findStep(-1, stepTitle)
		if step < 0 {
			return fmt.Errorf("step %q in %q/%q: %w", stepTitle, suiteName, testName, ErrNotFound)
		}
	}
	attachment, err := b.copyAttachment(path, title)
	if err != nil {
		return err
	}
	if step >= 0 {
		test.result.Steps[step].Attachments = append(test.result.Steps[step].Attachments, attachment)
	} else {
		test.result.Attachments = append(test.result.Attachments, attachment)
	}
	return nil
}

// Build writes one <uuid>-result.json per test and one <uuid>-container.json per suite.
func (b *Builder) Build() error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, suite := range b.suites {
		if suite.open {
			b.log.WithField("suite", suite.Name()).Warn("writing suite that was never stopped")
		}
		for _, result := range suite.TestCases {
			if err := b.writeJSON(result.UUID+"-result.json", result); err != nil {
				return fmt.Errorf("write result %q: %w", result.Name, err)
			}
		}
		if err := b.writeJSON(suite.Container.UUID+"-container.json", suite.Container); err != nil {
			return fmt.Errorf("write suite %q: %w", suite.Name(), err)
		}
		b.log.WithFields(logrus.Fields{"suite": suite.Name(), "results": len(suite.TestCases)}).Debug("suite written")
	}
	return nil
}

func (b *Builder) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.dir, name), data, 0o644)
}

func (b *Builder) openSuite(name string) (*TestSuite, error) {
	for i := len(b.suites) - 1; i >= 0; i-- {
		if b.suites[i].open && b.suites[i].Name() == name {
			return b.suites[i], nil
		}
	}
	return nil, fmt.Errorf("suite %q: %w", name, ErrNotFound)
}

func (b *Builder) openTest(suiteName, testName string) (*testState, error) {
	suite, err := b.openSuite(suiteName)
	if err != nil {
		return nil, err
	}
	for i := len(suite.tests) - 1; i >= 0; i-- {
		test := suite.tests[i]
		if test.open && test.result.Name == testName {
			return test, nil
		}
	}
	return nil, fmt.Errorf("test %q in suite %q: %w", testName, suiteName, ErrNotFound)
}

// findStep returns the position of the latest open step with the title, matching the index
// too when index >= 0, or -1.
func (t *testState) findStep(index int, title string) int {
	for i := len(t.steps) - 1; i >= 0; i-- {
		if !t.steps[i].open || t.result.Steps[i].Name != title {
			continue
		}
		if index >= 0 && t.steps[i].index != index {
			continue
		}
		return i
	}
	return -1
}

func (b *Builder) copyAttachment(path, title string) (report.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return report.Attachment{}, fmt.Errorf("create output dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	source := b.newID() + "-attachment" + ext
	if err := os.WriteFile(filepath.Join(b.dir, source), data, 0o644); err != nil {
		return report.Attachment{}, fmt.Errorf("write attachment: %w", err)
	}
	if title == "" {
		title = filepath.Base(path)
	}
	return report.Attachment{Name: title, Source: source, Type: mimeType(ext)}, nil
}

func mimeType(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if value := mime.TypeByExtension(ext); value != "" {
		if i := strings.Index(value, ";"); i >= 0 {
			value = value[:i]
		}
		return value
	}
	return "application/octet-stream"
}

// Prepare makes sure dir exists, removing previous results first when clean is set.
func Prepare(dir string, clean bool) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output dir is empty")
	}
	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clean output dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
