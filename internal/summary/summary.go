package summary

import (
	"fmt"
	"time"

	"allurecuke/internal/allure"
	"allurecuke/internal/status"
)

// Counts tallies test cases by report status. Unset counts cases written without a status.
type Counts struct {
	Total    int
	Passed   int
	Failed   int
	Broken   int
	Canceled int
	Pending  int
	Unknown  int
	Unset    int
}

func (c *Counts) add(value string) {
	c.Total++
	switch status.Status(value) {
	case status.StatusPassed:
		c.Passed++
	case status.StatusFailed:
		c.Failed++
	case status.StatusBroken:
		c.Broken++
	case status.StatusCanceled:
		c.Canceled++
	case status.StatusPending:
		c.Pending++
	case status.StatusUnknown:
		c.Unknown++
	default:
		c.Unset++
	}
}

func (c *Counts) merge(other Counts) {
	c.Total += other.Total
	c.Passed += other.Passed
	c.Failed += other.Failed
	c.Broken += other.Broken
	c.Canceled += other.Canceled
	c.Pending += other.Pending
	c.Unknown += other.Unknown
	c.Unset += other.Unset
}

// Suite summarizes one result container.
type Suite struct {
	Name     string
	Counts   Counts
	Duration time.Duration
}

// Report summarizes a results directory.
type Report struct {
	Dir    string
	Suites []Suite
	Totals Counts
}

// Failed reports whether any test failed or broke.
func (r Report) Failed() bool {
	return r.Totals.Failed > 0 || r.Totals.Broken > 0
}

// Load reads the result files in dir and summarizes them.
func Load(dir string) (Report, error) {
	suites, err := allure.LoadSuites(dir)
	if err != nil {
		return Report{}, err
	}
	if len(suites) == 0 {
		return Report{}, fmt.Errorf("no allure results in %s", dir)
	}
	report := Summarize(suites)
	report.Dir = dir
	return report, nil
}

// Summarize counts test case statuses per suite.
func Summarize(suites []*allure.TestSuite) Report {
	report := Report{Suites: make([]Suite, 0, len(suites))}
	for _, suite := range suites {
		entry := Suite{Name: suite.Name(), Duration: suite.Duration()}
		for _, tc := range suite.TestCases {
			entry.Counts.add(string(tc.Status))
		}
		report.Totals.merge(entry.Counts)
		report.Suites = append(report.Suites, entry)
	}
	return report
}
