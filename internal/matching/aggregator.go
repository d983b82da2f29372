package matching

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/match-scorer/internal/profile"
)

var (
	// ErrDuplicateProfile indicates that two input profiles share an ID.
	ErrDuplicateProfile = errors.New("duplicate profile id")

	// ErrNilProfile indicates a nil entry in the input.
	ErrNilProfile = errors.New("nil profile")
)

// Observer receives per-pair notifications during aggregation.
// Implementations must be safe for concurrent use.
type Observer interface {
	PairScored(PairScore)
	PairExcluded(source, target int)
}

// Aggregator scores every ordered pair of a profile set.
type Aggregator struct {
	calc     Calculator
	workers  int
	observer Observer
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWorkers bounds the number of concurrently scored source profiles.
// Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Aggregator) { a.workers = n }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(a *Aggregator) { a.observer = o }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator returns an Aggregator that scores pairs with calc.
func NewAggregator(calc Calculator, opts ...Option) *Aggregator {
	a := &Aggregator{calc: calc}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Aggregate scores every ordered pair (i, j), i != j, of profiles. Each pair
// is scored on its own; nothing is reused between (a, b) and (b, a).
// Either all pairs are returned or the first error is.
func (a *Aggregator) Aggregate(ctx context.Context, profiles []*profile.Profile) (*Results, error) {
	sources := make([]int, len(profiles))
	seen := make(map[int]struct{}, len(profiles))
	for i, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("position %d: %w", i, ErrNilProfile)
		}
		if _, ok := seen[p.ID()]; ok {
			return nil, fmt.Errorf("profile %d: %w", p.ID(), ErrDuplicateProfile)
		}
		seen[p.ID()] = struct{}{}
		sources[i] = p.ID()
	}

	rows := make([][]PairScore, len(profiles))
	excluded := make([]int, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range profiles {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			row, skipped, err := a.scoreRow(gctx, profiles, i)
			if err != nil {
				return err
			}
			rows[i] = row
			excluded[i] = skipped
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating scores: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregating scores: %w", err)
	}

	total := 0
	for _, n := range excluded {
		total += n
	}

	res := newResults(rows, sources, total)
	a.logger.Debug("aggregation finished",
		zap.Int("profiles", len(profiles)),
		zap.Int("pairs", res.Len()),
		zap.Int("excluded", total),
		zap.Int("workers", a.workers),
	)
	return res, nil
}

func (a *Aggregator) scoreRow(ctx context.Context, profiles []*profile.Profile, i int) ([]PairScore, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	src := profiles[i]
	row := make([]PairScore, 0, len(profiles)-1)
	skipped := 0

	for j, dst := range profiles {
		if i == j {
			continue
		}

		m := a.calc.Match(src, dst)
		if !m.Defined {
			skipped++
			if a.observer != nil {
				a.observer.PairExcluded(src.ID(), dst.ID())
			}
			continue
		}

		ps := PairScore{Source: src.ID(), Target: dst.ID(), Score: m.Score}
		row = append(row, ps)
		if a.observer != nil {
			a.observer.PairScored(ps)
		}
	}

	return row, skipped, nil
}
