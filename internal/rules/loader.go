package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadRules merges the embedded pack with the packs found in userDir and
// projectDir.
func LoadRules(userDir, projectDir string) ([]Rule, error) {
	return LoadRulesDirs(userDir, projectDir)
}

// LoadRulesDirs merges the embedded pack with the packs found in dirs.
// Later directories replace earlier ones rule by rule; empty or missing
// directories are skipped. The result is sorted by ID.
func LoadRulesDirs(dirs ...string) ([]Rule, error) {
	defaults, err := DefaultRules()
	if err != nil {
		return nil, fmt.Errorf("loading default rules: %w", err)
	}

	merged := Index(defaults)
	for _, dir := range dirs {
		found, err := loadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", dir, err)
		}
		for _, r := range found {
			merged[r.ID] = r
		}
	}

	result := make([]Rule, 0, len(merged))
	for _, r := range merged {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func loadDir(dir string) ([]Rule, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var allRules []Rule
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		rf, err := ParseRuleFile(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}

		allRules = append(allRules, rf.Rules...)
	}
	return allRules, nil
}
