// Package seed loads initial platform data from YAML fixtures.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bece-prep/platform/internal/catalog"
	"gopkg.in/yaml.v3"
)

// Data is the YAML fixture shape. A fixture file may carry any subset of
// the four sections; files in a directory are merged in walk order.
type Data struct {
	Subjects    []catalog.Subject    `yaml:"subjects"`
	Topics      []catalog.Topic      `yaml:"topics"`
	Questions   []catalog.Question   `yaml:"questions"`
	Predictions []catalog.Prediction `yaml:"predictions"`
}

// Load reads all fixture files under dir. An empty dir returns the
// built-in default set. Files that fail to parse are skipped with a
// warning, matching how partial fixture trees are tolerated elsewhere.
func Load(dir string) (*Data, error) {
	if dir == "" {
		return Default(), nil
	}

	merged := &Data{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var d Data
		if err := yaml.Unmarshal(raw, &d); err != nil {
			slog.Warn("skipping invalid seed file", "path", path, "error", err)
			return nil
		}
		merged.Subjects = append(merged.Subjects, d.Subjects...)
		merged.Topics = append(merged.Topics, d.Topics...)
		merged.Questions = append(merged.Questions, d.Questions...)
		merged.Predictions = append(merged.Predictions, d.Predictions...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading seed fixtures: %w", err)
	}
	return merged, nil
}

// Apply seeds the repository with this data set. Returns true when the
// store was actually seeded.
func Apply(ctx context.Context, repo *catalog.Repo, data *Data) (bool, error) {
	return repo.SeedInitialData(ctx, catalog.SeedSet{
		Subjects:    data.Subjects,
		Topics:      data.Topics,
		Questions:   data.Questions,
		Predictions: data.Predictions,
	})
}

// Default returns the built-in seed set.
func Default() *Data {
	var d Data
	if err := yaml.Unmarshal([]byte(defaultYAML), &d); err != nil {
		// The default fixture is a compile-time constant; a parse failure
		// is a programming error.
		panic(fmt.Sprintf("seed: invalid default fixture: %v", err))
	}
	return &d
}
