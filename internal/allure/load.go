package allure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/godogx/allure/report"
)

// LoadSuites reads the containers and results in dir. Suites are ordered by container start,
// and each suite lists its results in container order. Results that no container references
// are grouped by their suite label.
func LoadSuites(dir string) ([]*TestSuite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}
	results := make(map[string]*report.Result)
	var resultOrder []*report.Result
	var containers []*report.Container
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, "-result.json"):
			result := &report.Result{}
			if err := readJSON(filepath.Join(dir, name), result); err != nil {
				return nil, err
			}
			results[result.UUID] = result
			resultOrder = append(resultOrder, result)
		case strings.HasSuffix(name, "-container.json"):
			container := &report.Container{}
			if err := readJSON(filepath.Join(dir, name), container); err != nil {
				return nil, err
			}
			containers = append(containers, container)
		}
	}

	suites := make([]*TestSuite, 0, len(containers))
	claimed := make(map[string]bool)
	for _, container := range containers {
		suite := &TestSuite{Container: container}
		for _, id := range container.Children {
			if result, ok := results[id]; ok && !claimed[id] {
				suite.TestCases = append(suite.TestCases, result)
				claimed[id] = true
			}
		}
		suites = append(suites, suite)
	}

	sort.SliceStable(resultOrder, func(i, j int) bool {
		return resultOrder[i].Start < resultOrder[j].Start
	})
	orphans := make(map[string]*TestSuite)
	for _, result := range resultOrder {
		if claimed[result.UUID] {
			continue
		}
		name := LabelValue(result, LabelSuite)
		suite, ok := orphans[name]
		if !ok {
			suite = &TestSuite{Container: &report.Container{Name: name, Start: result.Start}}
			orphans[name] = suite
			suites = append(suites, suite)
		}
		suite.TestCases = append(suite.TestCases, result)
		if result.Stop > suite.Container.Stop {
			suite.Container.Stop = result.Stop
		}
	}

	sort.SliceStable(suites, func(i, j int) bool {
		a, b := suites[i].Container, suites[j].Container
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Name < b.Name
	})
	return suites, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
