package matching

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/match-scorer/internal/profile"
)

type recordingObserver struct {
	mu       sync.Mutex
	scored   int
	excluded []string
}

func (o *recordingObserver) PairScored(PairScore) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scored++
}

func (o *recordingObserver) PairExcluded(source, target int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.excluded = append(o.excluded, fmt.Sprintf("%d->%d", source, target))
}

func generated(t *testing.T, n int) []*profile.Profile {
	t.Helper()

	profiles := make([]*profile.Profile, 0, n)
	for id := 0; id < n; id++ {
		specs := make([]answerSpec, 0, 4)
		for q := 0; q < 4; q++ {
			specs = append(specs, answerSpec{
				question:   q,
				code:       (id + q) % 3,
				acceptable: []int{(id * q) % 3, (q + 1) % 3},
				importance: (id + q) % 5,
			})
		}
		profiles = append(profiles, newProfile(t, id*10, specs...))
	}
	return profiles
}

func TestAggregateCounts(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2, 3, 7} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()

			res, err := NewAggregator(Calculator{}, WithWorkers(3)).Aggregate(context.Background(), generated(t, n))
			require.NoError(t, err)

			want := 0
			if n > 1 {
				want = n * (n - 1)
			}
			assert.Equal(t, want, res.Len())
			assert.Len(t, res.Sources(), n)
			assert.Zero(t, res.Excluded())
		})
	}
}

func TestAggregateMatchesCalculator(t *testing.T) {
	t.Parallel()

	profiles := generated(t, 6)
	calc := Calculator{}

	res, err := NewAggregator(calc).Aggregate(context.Background(), profiles)
	require.NoError(t, err)

	for _, src := range profiles {
		for _, dst := range profiles {
			got, ok := res.Score(src.ID(), dst.ID())
			if src.ID() == dst.ID() {
				assert.False(t, ok)
				continue
			}
			require.True(t, ok)
			assert.Equal(t, calc.Score(src, dst), got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)

			back, ok := res.Score(dst.ID(), src.ID())
			require.True(t, ok)
			assert.Equal(t, got, back)
		}
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	t.Parallel()

	profiles := generated(t, 9)

	first, err := NewAggregator(Calculator{}, WithWorkers(1)).Aggregate(context.Background(), profiles)
	require.NoError(t, err)
	second, err := NewAggregator(Calculator{}, WithWorkers(8)).Aggregate(context.Background(), profiles)
	require.NoError(t, err)

	assert.Equal(t, first.Pairs(), second.Pairs())

	pairs := first.Pairs()
	require.NotEmpty(t, pairs)
	assert.Equal(t, PairScore{Source: 0, Target: 10, Score: pairs[0].Score}, pairs[0])
}

func TestAggregateWorkedExample(t *testing.T) {
	t.Parallel()

	p0, p1 := exampleProfiles(t)

	res, err := NewAggregator(Calculator{}).Aggregate(context.Background(), []*profile.Profile{p0, p1})
	require.NoError(t, err)
	assert.Equal(t, []PairScore{
		{Source: 0, Target: 1, Score: 0},
		{Source: 1, Target: 0, Score: 0},
	}, res.Pairs())
}

func TestAggregateRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	a := newProfile(t, 5)
	b := newProfile(t, 5, answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 1})

	_, err := NewAggregator(Calculator{}).Aggregate(context.Background(), []*profile.Profile{a, b})
	require.ErrorIs(t, err, ErrDuplicateProfile)
}

func TestAggregateRejectsNilProfile(t *testing.T) {
	t.Parallel()

	_, err := NewAggregator(Calculator{}).Aggregate(context.Background(), []*profile.Profile{newProfile(t, 1), nil})
	require.ErrorIs(t, err, ErrNilProfile)
}

func TestAggregateExcludePolicy(t *testing.T) {
	t.Parallel()

	empty := newProfile(t, 1)
	a := newProfile(t, 2, answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 2})
	b := newProfile(t, 3, answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 3})

	obs := &recordingObserver{}
	res, err := NewAggregator(Calculator{Policy: ZeroTotalExclude}, WithObserver(obs)).
		Aggregate(context.Background(), []*profile.Profile{empty, a, b})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Len())
	assert.Equal(t, 4, res.Excluded())
	assert.Equal(t, 2, obs.scored)
	assert.ElementsMatch(t, []string{"1->2", "1->3", "2->1", "3->1"}, obs.excluded)

	_, ok := res.Score(1, 2)
	assert.False(t, ok)
	score, ok := res.Score(2, 3)
	require.True(t, ok)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, []int{1, 2, 3}, res.Sources())
}

func TestAggregateHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewAggregator(Calculator{}).Aggregate(ctx, generated(t, 4))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestAggregateLogsSummary(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)

	_, err := NewAggregator(Calculator{}, WithLogger(zap.New(core)), WithWorkers(2)).
		Aggregate(context.Background(), generated(t, 3))
	require.NoError(t, err)

	entries := observed.FilterMessage("aggregation finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 3, fields["profiles"])
	assert.EqualValues(t, 6, fields["pairs"])
	assert.EqualValues(t, 2, fields["workers"])
}

func TestResultsAreCopies(t *testing.T) {
	t.Parallel()

	res, err := NewAggregator(Calculator{}).Aggregate(context.Background(), generated(t, 2))
	require.NoError(t, err)

	pairs := res.Pairs()
	pairs[0].Score = 42
	sources := res.Sources()
	sources[0] = 99

	assert.NotEqual(t, 42.0, res.Pairs()[0].Score)
	assert.Equal(t, 0, res.Sources()[0])
}
