package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/profile"
)

func TestRecorderObservesAggregation(t *testing.T) {
	t.Parallel()

	a, err := profile.NewAnswer(1, 1, []int{1}, 3)
	require.NoError(t, err)

	p1, err := profile.New(1, a)
	require.NoError(t, err)
	p2, err := profile.New(2, a)
	require.NoError(t, err)
	empty, err := profile.New(3)
	require.NoError(t, err)

	rec := New()
	_, err = matching.NewAggregator(matching.Calculator{Policy: matching.ZeroTotalExclude}, matching.WithObserver(rec)).
		Aggregate(context.Background(), []*profile.Profile{p1, p2, empty})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.pairsScored))
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.pairsExcluded))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.scores))
}

func TestRecorderLoaded(t *testing.T) {
	t.Parallel()

	rec := New()
	rec.Loaded(5, map[string]int{"malformed": 2, "duplicate_profile": 1})

	assert.Equal(t, 5.0, testutil.ToFloat64(rec.profilesLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.recordsSkipped.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.recordsSkipped.WithLabelValues("duplicate_profile")))

	expected := `
# HELP match_scorer_profiles_loaded Number of profiles that passed validation.
# TYPE match_scorer_profiles_loaded gauge
match_scorer_profiles_loaded 5
`
	require.NoError(t, testutil.GatherAndCompare(rec.Gatherer(), strings.NewReader(expected), "match_scorer_profiles_loaded"))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	rec := New()
	rec.PairScored(matching.PairScore{Source: 1, Target: 2, Score: 0.75})
	rec.Finished(1500 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "match_scorer.prom")
	require.NoError(t, rec.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "match_scorer_pairs_scored_total 1")
	assert.Contains(t, text, "match_scorer_run_duration_seconds 1.5")
	assert.Contains(t, text, `match_scorer_score_bucket{le="0.8"} 1`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	t.Parallel()

	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "out.prom"))
	require.Error(t, err)
}
