package filtering

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/output"
)

type excludeFileFilter struct {
	path    string
	enabled bool
	reason  string
}

// NewExcludeFile creates a filter that removes the profiles listed in a JSON
// file, both as sources and as targets. The file holds an array of profile
// IDs. An empty path leaves the document unchanged.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path), enabled: true}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return f.enabled }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, doc output.Document) (output.Document, Step, error) {
	initial := doc.Len()
	if f.path == "" {
		return doc, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	ids, err := readExcludedIDs(f.path)
	if err != nil {
		return doc, Step{}, fmt.Errorf("getting excluded profiles from file: %w", err)
	}

	results := doc.Results[:0]
	removed := make([]int, 0)
	for _, r := range doc.Results {
		if _, ok := ids[r.ProfileID]; ok {
			removed = append(removed, r.ProfileID)
			continue
		}
		results = append(results, r)
	}
	doc.Results = results

	doc, step := keep(doc, func(_ int, e output.ScoreEntry) bool {
		_, excluded := ids[e.ProfileID]
		return !excluded
	})
	step.Initial = initial
	step.Dropped = initial - step.Left

	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding profiles based on exclude file",
			zap.String("path", f.path),
			zap.Ints("excluded_profiles", removed),
			zap.Int("profiles_left", len(doc.Results)),
		)
	}

	return doc, step, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: details}
}

func readExcludedIDs(path string) (map[int]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ids := make(map[int]struct{})
	if len(strings.TrimSpace(string(data))) == 0 {
		return ids, nil
	}

	var list []int
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}
	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids, nil
}
