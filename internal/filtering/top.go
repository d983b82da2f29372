package filtering

import (
	"context"
	"sort"
	"strconv"

	"github.com/spigell/match-scorer/internal/output"
)

type topFilter struct {
	n       int
	enabled bool
	reason  string
}

// NewTop creates a filter that keeps the n best scores of every profile,
// best first. Ties are broken by the lower profile ID. n <= 0 disables it.
func NewTop(n int) Filter {
	f := &topFilter{n: n, enabled: n > 0}
	if !f.enabled {
		f.reason = "top is not set"
	}
	return f
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *topFilter) IsEnabled() bool { return f.enabled }

func (f *topFilter) Validate() error { return nil }

func (f *topFilter) Apply(_ context.Context, _ Deps, doc output.Document) (output.Document, Step, error) {
	initial := doc.Len()
	for i := range doc.Results {
		scores := doc.Results[i].Scores
		sort.SliceStable(scores, func(a, b int) bool {
			if scores[a].Score != scores[b].Score {
				return scores[a].Score > scores[b].Score
			}
			return scores[a].ProfileID < scores[b].ProfileID
		})
		if len(scores) > f.n {
			doc.Results[i].Scores = scores[:f.n]
		}
	}
	left := doc.Len()
	return doc, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *topFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"n": strconv.Itoa(f.n)},
	}
}
