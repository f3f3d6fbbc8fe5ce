package cucumber

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FeatureIndex maps feature paths to their indexed gherkin documents.
type FeatureIndex struct {
	root   string
	byPath map[string]*Document
}

// BuildFeatureIndex parses features under repoRoot and indexes their outline rows.
func BuildFeatureIndex(repoRoot string, featurePaths []string) (FeatureIndex, error) {
	resolved, err := ExpandFeaturePaths(repoRoot, featurePaths)
	if err != nil {
		return FeatureIndex{}, err
	}
	index := FeatureIndex{root: repoRoot, byPath: make(map[string]*Document)}
	for _, path := range resolved {
		doc, err := ParseFeatureFile(path)
		if err != nil {
			return FeatureIndex{}, err
		}
		index.byPath[normalizePath(repoRoot, path)] = IndexDocument(doc)
	}
	return index, nil
}

// Len returns the number of indexed feature files.
func (idx FeatureIndex) Len() int {
	return len(idx.byPath)
}

// Document returns the indexed document for a feature uri.
func (idx FeatureIndex) Document(featurePath string) (*Document, bool) {
	doc, ok := idx.byPath[normalizePath(idx.root, featurePath)]
	return doc, ok
}

// FindRow locates the examples row declared at a line of a feature file.
func (idx FeatureIndex) FindRow(featurePath string, line int) (Row, bool) {
	doc, ok := idx.Document(featurePath)
	if !ok {
		return Row{}, false
	}
	return doc.RowByLine(line)
}

// Paths returns the indexed feature paths in a deterministic order.
func (idx FeatureIndex) Paths() []string {
	paths := make([]string, 0, len(idx.byPath))
	for path := range idx.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ExpandFeaturePaths expands directories/globs into feature file paths.
func ExpandFeaturePaths(repoRoot string, entries []string) ([]string, error) {
	paths := make([]string, 0)
	seen := make(map[string]struct{})
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if hasGlob(entry) {
			resolved := resolvePath(repoRoot, entry)
			matches, err := filepath.Glob(resolved)
			if err != nil {
				return nil, fmt.Errorf("expand glob %q: %w", entry, err)
			}
			for _, match := range matches {
				paths = appendUnique(paths, seen, match)
			}
			continue
		}
		resolved := resolvePath(repoRoot, entry)
		info, err := os.Stat(resolved)
		if err != nil {
			return nil, fmt.Errorf("stat feature path %q: %w", entry, err)
		}
		if info.IsDir() {
			dirPaths, err := collectFeatureFiles(resolved)
			if err != nil {
				return nil, err
			}
			for _, path := range dirPaths {
				paths = appendUnique(paths, seen, path)
			}
			continue
		}
		paths = appendUnique(paths, seen, resolved)
	}
	sort.Strings(paths)
	return paths, nil
}

// resolvePath resolves a repo-relative path.
func resolvePath(repoRoot, path string) string {
	if filepath.IsAbs(path) || repoRoot == "" {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(repoRoot, path))
}

// normalizePath cleans and normalizes a feature path.
func normalizePath(repoRoot, path string) string {
	abs := resolvePath(repoRoot, path)
	return filepath.Clean(abs)
}

// collectFeatureFiles walks a directory to find .feature files.
func collectFeatureFiles(root string) ([]string, error) {
	paths := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.HasSuffix(entry.Name(), ".feature") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk feature root %q: %w", root, err)
	}
	return paths, nil
}

// appendUnique appends a path if it has not been seen.
func appendUnique(paths []string, seen map[string]struct{}, path string) []string {
	normalized := filepath.Clean(path)
	if _, ok := seen[normalized]; ok {
		return paths
	}
	seen[normalized] = struct{}{}
	return append(paths, normalized)
}

// hasGlob reports whether a path includes glob characters.
func hasGlob(value string) bool {
	return strings.ContainsAny(value, "*?[]")
}
