// Package filtering trims a results document before it is written.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/output"
)

// Filter represents a single filtering step applied to the results document.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, deps Deps, doc output.Document) (output.Document, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step, counted in score entries.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the enabled filters in order on a copy of doc.
func Run(ctx context.Context, deps Deps, steps []Filter, doc output.Document) (output.Document, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return output.Document{}, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	doc = doc.Clone()
	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return output.Document{}, err
		}

		next, info, err := step.Apply(ctx, deps, doc)
		if err != nil {
			return output.Document{}, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		doc = next
	}

	return doc, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep drops every score entry for which fn returns false.
func keep(doc output.Document, fn func(source int, e output.ScoreEntry) bool) (output.Document, Step) {
	initial := doc.Len()
	for i := range doc.Results {
		r := &doc.Results[i]
		kept := r.Scores[:0]
		for _, e := range r.Scores {
			if fn(r.ProfileID, e) {
				kept = append(kept, e)
			}
		}
		r.Scores = kept
	}
	left := doc.Len()
	return doc, Step{Initial: initial, Dropped: initial - left, Left: left}
}
