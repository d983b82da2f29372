package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/match-scorer/internal/output"
)

type minScoreFilter struct {
	min     float64
	enabled bool
	reason  string
}

// NewMinScore creates a filter that drops scores below threshold. A
// threshold of zero or less leaves the filter disabled.
func NewMinScore(threshold float64) Filter {
	f := &minScoreFilter{min: threshold, enabled: threshold > 0}
	if !f.enabled {
		f.reason = "minimum score is not set"
	}
	return f
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return f.enabled }

func (f *minScoreFilter) Validate() error {
	if f.min > 1 {
		return fmt.Errorf("minimum score %v is above 1", f.min)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, _ Deps, doc output.Document) (output.Document, Step, error) {
	doc, step := keep(doc, func(_ int, e output.ScoreEntry) bool {
		return e.Score >= f.min
	})
	return doc, step, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"min": strconv.FormatFloat(f.min, 'f', -1, 64)},
	}
}
