package cucumber

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"allurecuke/internal/formatter"
	"allurecuke/internal/logging"
)

// Attacher is implemented by listeners that accept file attachments.
type Attacher interface {
	AttachFile(path, title string) error
}

// ReplayOptions configures Replay.
type ReplayOptions struct {
	// Index recovers outline examples tables; without it outline rows replay as plain scenarios.
	Index FeatureIndex
	// Clock is advanced by recorded step durations. It must be the clock the listener reads.
	Clock *formatter.ManualClock
	Log   logrus.FieldLogger
}

// Replay feeds a cucumber JSON report to a listener as lifecycle events and finishes the run.
func Replay(features []CukeFeatureJSON, listener formatter.Listener, opts ReplayOptions) error {
	r := replayer{listener: listener, opts: opts, log: opts.Log}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if attacher, ok := listener.(Attacher); ok {
		r.attacher = attacher
	}
	for _, feature := range features {
		if err := r.feature(feature); err != nil {
			return err
		}
	}
	return listener.RunFinished()
}

type replayer struct {
	listener formatter.Listener
	attacher Attacher
	opts     ReplayOptions
	log      logrus.FieldLogger
}

func (r *replayer) feature(feature CukeFeatureJSON) error {
	name := feature.Name
	if name == "" {
		name = feature.URI
	}
	if err := r.listener.SuiteStart(name); err != nil {
		return err
	}

	rows := r.rowsFor(feature)
	current := ""
	for i, element := range feature.Elements {
		key := ""
		if rows[i] != nil {
			key = rows[i].ExamplesID
		}
		if key != current {
			if current != "" {
				if err := r.listener.ExamplesStop(); err != nil {
					return err
				}
			}
			if key != "" {
				if err := r.listener.ExamplesStart(rows[i].Outline, rows[i].Table); err != nil {
					return err
				}
			}
			current = key
		}

		if element.IsBackground() {
			for _, step := range element.Steps {
				result := StepResult(step.Result)
				r.advance(result.Duration)
				if err := r.listener.BackgroundStep(step.Name, result); err != nil {
					return err
				}
			}
			continue
		}
		if err := r.scenario(feature, element, rows[i]); err != nil {
			return err
		}
	}
	if current != "" {
		if err := r.listener.ExamplesStop(); err != nil {
			return err
		}
	}
	return r.listener.SuiteStop()
}

func (r *replayer) scenario(feature CukeFeatureJSON, element CukeElement, row *Row) error {
	tc := formatter.TestCase{Name: element.Name}
	if row != nil {
		index := row.Index
		tc.Example = &index
	}
	if err := r.listener.TestStart(tc); err != nil {
		return err
	}
	for _, step := range element.Steps {
		if err := r.listener.StepStart(step.Name); err != nil {
			return err
		}
		r.attach(feature, element, step)
		result := StepResult(step.Result)
		r.advance(result.Duration)
		if err := r.listener.StepStop(step.Name, result); err != nil {
			return err
		}
	}
	return r.listener.TestStop(ScenarioResult(element.Steps))
}

// rowsFor resolves the examples row of each element. Background elements take the row of
// the scenario they precede so the examples context is open before their steps buffer.
func (r *replayer) rowsFor(feature CukeFeatureJSON) []*Row {
	rows := make([]*Row, len(feature.Elements))
	var next *Row
	for i := len(feature.Elements) - 1; i >= 0; i-- {
		element := feature.Elements[i]
		if element.IsBackground() {
			rows[i] = next
			continue
		}
		next = nil
		if row, ok := r.opts.Index.FindRow(feature.URI, element.Line); ok {
			found := row
			next = &found
		}
		rows[i] = next
	}
	return rows
}

func (r *replayer) advance(d time.Duration) {
	if r.opts.Clock != nil && d > 0 {
		r.opts.Clock.Advance(d)
	}
}

func (r *replayer) attach(feature CukeFeatureJSON, element CukeElement, step CukeStep) {
	if len(step.Embeddings) == 0 {
		return
	}
	log := r.log.WithFields(logrus.Fields{"feature": feature.Name, "scenario": element.Name, "step": step.Name})
	if r.attacher == nil {
		log.Warn("listener does not accept attachments; embeddings dropped")
		return
	}
	for i, embedding := range step.Embeddings {
		path, err := writeEmbedding(embedding, i, log)
		if err != nil {
			log.WithError(err).Warn("cannot decode embedding")
			continue
		}
		title := embedding.Name
		if title == "" {
			title = fmt.Sprintf("embedding %d", i+1)
		}
		if err := r.attacher.AttachFile(path, title); err != nil {
			log.WithError(err).Warn("cannot attach embedding")
		}
		removeEmbedding(path, log)
	}
}

// createTemp creates the temp file holding a decoded embedding.
var createTemp = os.CreateTemp

func writeEmbedding(embedding CukeEmbedding, i int, log logrus.FieldLogger) (string, error) {
	data, err := base64.StdEncoding.DecodeString(embedding.Data)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(embedding.Name)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(embedding.MimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	file, err := createTemp("", fmt.Sprintf("embedding-%d-*%s", i, ext))
	if err != nil {
		return "", err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		removeEmbedding(file.Name(), log)
		return "", err
	}
	if err := file.Close(); err != nil {
		removeEmbedding(file.Name(), log)
		return "", err
	}
	return file.Name(), nil
}

func removeEmbedding(path string, log logrus.FieldLogger) {
	if err := os.Remove(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("cannot remove embedding temp file")
	}
}
