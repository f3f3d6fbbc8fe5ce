package cucumber

import (
	messages "github.com/cucumber/messages/go/v21"

	"allurecuke/internal/outline"
)

// Row locates one data row of a scenario outline's examples table.
type Row struct {
	Outline    string
	ExamplesID string
	// Index is the 0-based position of the row in its table body.
	Index int
	Line  int
	Table outline.Table
}

// Document indexes the outline rows and background steps of a gherkin document.
type Document struct {
	Name       string
	URI        string
	rows       []Row
	rowsByID   map[string]int
	background map[string]bool
}

// IndexDocument collects the outline rows and background step ids of a parsed feature,
// rules included.
func IndexDocument(doc *messages.GherkinDocument) *Document {
	d := &Document{rowsByID: make(map[string]int), background: make(map[string]bool)}
	if doc == nil || doc.Feature == nil {
		return d
	}
	d.Name = doc.Feature.Name
	d.URI = doc.Uri

	for _, scenario := range collectScenarios(doc.Feature) {
		for _, examples := range scenario.Examples {
			d.addExamples(scenario, examples)
		}
	}
	for _, background := range collectBackgrounds(doc.Feature) {
		for _, step := range background.Steps {
			if step != nil {
				d.background[step.Id] = true
			}
		}
	}
	return d
}

// IsBackgroundStep reports whether a gherkin step id belongs to a feature or rule background.
func (d *Document) IsBackgroundStep(id string) bool {
	return d.background[id]
}

// Rows returns every outline row in document order.
func (d *Document) Rows() []Row {
	return d.rows
}

// RowByID finds the examples row with the given table row id.
func (d *Document) RowByID(id string) (Row, bool) {
	i, ok := d.rowsByID[id]
	if !ok {
		return Row{}, false
	}
	return d.rows[i], true
}

// RowByLine finds the examples row declared on a line.
func (d *Document) RowByLine(line int) (Row, bool) {
	if line == 0 {
		return Row{}, false
	}
	for _, row := range d.rows {
		if row.Line == line {
			return row, true
		}
	}
	return Row{}, false
}

func (d *Document) addExamples(scenario *messages.Scenario, examples *messages.Examples) {
	if examples == nil {
		return
	}
	table := outline.Table{Name: examples.Name, Headers: cellValues(examples.TableHeader)}
	for _, row := range examples.TableBody {
		table.Rows = append(table.Rows, cellValues(row))
	}
	for i, row := range examples.TableBody {
		if row == nil {
			continue
		}
		d.rowsByID[row.Id] = len(d.rows)
		d.rows = append(d.rows, Row{
			Outline:    scenario.Name,
			ExamplesID: examples.Id,
			Index:      i,
			Line:       lineFromLocation(row.Location),
			Table:      table,
		})
	}
}

// collectScenarios flattens scenarios from a feature and its rules.
func collectScenarios(feature *messages.Feature) []*messages.Scenario {
	if feature == nil {
		return nil
	}
	scenarios := make([]*messages.Scenario, 0)
	for _, child := range feature.Children {
		if child == nil {
			continue
		}
		if child.Scenario != nil {
			scenarios = append(scenarios, child.Scenario)
		}
		if child.Rule != nil {
			for _, ruleChild := range child.Rule.Children {
				if ruleChild == nil {
					continue
				}
				if ruleChild.Scenario != nil {
					scenarios = append(scenarios, ruleChild.Scenario)
				}
			}
		}
	}
	return scenarios
}

// collectBackgrounds returns the feature background and those of its rules.
func collectBackgrounds(feature *messages.Feature) []*messages.Background {
	backgrounds := make([]*messages.Background, 0)
	for _, child := range feature.Children {
		if child == nil {
			continue
		}
		if child.Background != nil {
			backgrounds = append(backgrounds, child.Background)
		}
		if child.Rule == nil {
			continue
		}
		for _, ruleChild := range child.Rule.Children {
			if ruleChild != nil && ruleChild.Background != nil {
				backgrounds = append(backgrounds, ruleChild.Background)
			}
		}
	}
	return backgrounds
}

func cellValues(row *messages.TableRow) []string {
	if row == nil {
		return nil
	}
	values := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		if cell == nil {
			values = append(values, "")
			continue
		}
		values = append(values, cell.Value)
	}
	return values
}

// lineFromLocation extracts the line number from a Gherkin location.
func lineFromLocation(location *messages.Location) int {
	if location == nil {
		return 0
	}
	return int(location.Line)
}
