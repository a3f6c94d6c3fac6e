package rule

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Loader reads rule definitions from JSON and YAML files. Invalid rules are
// skipped with a log entry; a single malformed definition never aborts the
// load.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a rule loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With("component", "rule-loader")}
}

// LoadDir loads every .json, .yaml and .yml file under dir (non-recursive)
// and returns the enabled, valid rules in evaluation order.
func (l *Loader) LoadDir(dir string) ([]*Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return l.LoadFiles(files)
}

// LoadFiles loads rule definitions from the given files. Each file may hold
// a single rule document or an array of documents.
func (l *Loader) LoadFiles(paths []string) ([]*Rule, error) {
	seen := make(map[string]string) // rule id -> source file
	var rules []*Rule

	for _, path := range paths {
		loaded, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("Failed to load rules from file", "file", path, "error", err)
			continue
		}

		for _, r := range loaded {
			if !r.Enabled {
				l.logger.Debug("Skipping disabled rule", "rule_id", r.ID, "file", path)
				continue
			}
			if prev, dup := seen[r.ID]; dup {
				// Later file wins, matching lexical load order
				l.logger.Info("Rule id conflict resolved by later file",
					"rule_id", r.ID, "new_file", path, "old_file", prev)
				for i := range rules {
					if rules[i].ID == r.ID {
						rules = append(rules[:i], rules[i+1:]...)
						break
					}
				}
			}
			seen[r.ID] = path
			rules = append(rules, r)
		}
	}

	Sort(rules)
	return rules, nil
}

// loadFile parses one file into validated rules.
func (l *Loader) loadFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	yamlFormat := false
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		yamlFormat = true
	}

	docs, err := decodeDocuments(data, yamlFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	var rules []*Rule
	for i, doc := range docs {
		r, err := FromDocument(doc)
		if err != nil {
			l.logger.Warn("Invalid rule skipped",
				"file", path, "index", i, "error", err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// decodeDocuments parses raw bytes into generic rule documents, supporting
// both a single document and an array of documents.
func decodeDocuments(data []byte, yamlFormat bool) ([]map[string]any, error) {
	if yamlFormat {
		var many []map[string]any
		if err := yaml.Unmarshal(data, &many); err == nil {
			return many, nil
		}
		var single map[string]any
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, err
		}
		return []map[string]any{single}, nil
	}

	var many []map[string]any
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var single map[string]any
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []map[string]any{single}, nil
}

// FromDocument validates a generic rule document against the external schema
// and converts it into a Rule.
func FromDocument(doc map[string]any) (*Rule, error) {
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	// Round-trip through JSON keeps the conversion lossless with respect to
	// the external schema.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode rule document: %w", err)
	}

	var r Rule
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("failed to decode rule document: %w", err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
