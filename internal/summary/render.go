package summary

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var columns = []table.Column{
	{Title: "Feature", Width: 40},
	{Title: "Total", Width: 6},
	{Title: "Passed", Width: 7},
	{Title: "Failed", Width: 7},
	{Title: "Broken", Width: 7},
	{Title: "Canceled", Width: 9},
	{Title: "Pending", Width: 8},
	{Title: "Unknown", Width: 8},
	{Title: "Duration", Width: 10},
}

// Render writes the report as a table followed by a totals line.
func Render(w io.Writer, report Report, noColor bool) error {
	rows := make([]table.Row, 0, len(report.Suites))
	for _, suite := range report.Suites {
		rows = append(rows, countsRow(suite.Name, suite.Counts, suite.Duration))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithStyles(tableStyles(noColor)),
	)
	if _, err := fmt.Fprintln(w, t.View()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, renderTotals(report, noColor))
	return err
}

func countsRow(name string, c Counts, d time.Duration) table.Row {
	return table.Row{
		name,
		strconv.Itoa(c.Total),
		strconv.Itoa(c.Passed),
		strconv.Itoa(c.Failed),
		strconv.Itoa(c.Broken),
		strconv.Itoa(c.Canceled),
		strconv.Itoa(c.Pending),
		strconv.Itoa(c.Unknown),
		d.Round(time.Millisecond).String(),
	}
}

// tableStyles returns table styles without a highlighted cursor row.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.Styles{
			Header:   lipgloss.NewStyle().Padding(0, 1),
			Cell:     lipgloss.NewStyle().Padding(0, 1),
			Selected: lipgloss.NewStyle(),
		}
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	styles.Selected = lipgloss.NewStyle()
	return styles
}

func renderTotals(report Report, noColor bool) string {
	t := report.Totals
	line := "Scenarios: " + strconv.Itoa(t.Total) +
		" Passed: " + strconv.Itoa(t.Passed) +
		" Failed: " + strconv.Itoa(t.Failed) +
		" Broken: " + strconv.Itoa(t.Broken) +
		" Canceled: " + strconv.Itoa(t.Canceled) +
		" Pending: " + strconv.Itoa(t.Pending) +
		" Unknown: " + strconv.Itoa(t.Unknown)
	if t.Unset > 0 {
		line += " Unset: " + strconv.Itoa(t.Unset)
	}
	color := lipgloss.Color("42")
	switch {
	case report.Failed():
		color = lipgloss.Color("196")
	case t.Pending > 0 || t.Canceled > 0 || t.Unknown > 0 || t.Unset > 0:
		color = lipgloss.Color("220")
	}
	return stylize(line, noColor, color)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
