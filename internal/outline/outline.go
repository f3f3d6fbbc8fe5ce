package outline

import (
	"fmt"
	"strings"
)

// Table is an examples table of a scenario outline. Rows hold cell values in column order.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Row returns the values of a data row, or false when the index is out of range.
func (t Table) Row(index int) ([]string, bool) {
	if index < 0 || index >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[index], true
}

// Value looks up the value of a column for a row.
func (t Table) Value(index int, header string) (string, bool) {
	row, ok := t.Row(index)
	if !ok {
		return "", false
	}
	for i, h := range t.Headers {
		if h == header && i < len(row) {
			return row[i], true
		}
	}
	return "", false
}

// ResolveStepName substitutes a row into a templated step name.
// Headers are applied in column order with literal substring replacement, so a later header
// also rewrites text produced by an earlier substitution.
func ResolveStepName(template string, headers, row []string) string {
	name := template
	for i, header := range headers {
		if header == "" || i >= len(row) {
			continue
		}
		name = strings.ReplaceAll(name, header, row[i])
	}
	return name
}

// ResolveScenarioName renders "<outline>: {h0: v0, h1: v1}" pairing headers and values by position.
func ResolveScenarioName(outlineName string, headers, row []string) string {
	n := len(headers)
	if len(row) < n {
		n = len(row)
	}
	pairs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, fmt.Sprintf("%s: %s", headers[i], row[i]))
	}
	return fmt.Sprintf("%s: {%s}", outlineName, strings.Join(pairs, ", "))
}

// Context is the expansion state of one examples table while it is being visited.
type Context struct {
	Outline string
	Table   Table
}

// NewContext builds the expansion context for an outline's examples table.
func NewContext(outlineName string, table Table) *Context {
	return &Context{Outline: outlineName, Table: table}
}

// ScenarioName resolves the scenario name of a data row.
func (c *Context) ScenarioName(index int) (string, error) {
	row, ok := c.Table.Row(index)
	if !ok {
		return "", fmt.Errorf("examples row %d out of range (%d rows)", index, len(c.Table.Rows))
	}
	return ResolveScenarioName(c.Outline, c.Table.Headers, row), nil
}

// StepName resolves a templated step name for a data row.
func (c *Context) StepName(index int, template string) (string, error) {
	row, ok := c.Table.Row(index)
	if !ok {
		return "", fmt.Errorf("examples row %d out of range (%d rows)", index, len(c.Table.Rows))
	}
	return ResolveStepName(template, c.Table.Headers, row), nil
}
