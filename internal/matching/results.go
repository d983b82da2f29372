package matching

// PairScore is the score of one ordered (source, target) pair.
type PairScore struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Score  float64 `json:"score"`
}

type pairKey struct {
	source, target int
}

// Results holds the output of one aggregation run. It is read-only.
type Results struct {
	pairs    []PairScore
	index    map[pairKey]int
	sources  []int
	excluded int
}

func newResults(rows [][]PairScore, sources []int, excluded int) *Results {
	n := 0
	for _, row := range rows {
		n += len(row)
	}

	r := &Results{
		pairs:    make([]PairScore, 0, n),
		index:    make(map[pairKey]int, n),
		sources:  sources,
		excluded: excluded,
	}
	for _, row := range rows {
		for _, ps := range row {
			r.index[pairKey{ps.Source, ps.Target}] = len(r.pairs)
			r.pairs = append(r.pairs, ps)
		}
	}
	return r
}

// Len returns the number of scored pairs.
func (r *Results) Len() int { return len(r.pairs) }

// Excluded returns how many pairs were left out as undefined.
func (r *Results) Excluded() int { return r.excluded }

// Score looks up the score for an ordered pair.
func (r *Results) Score(source, target int) (float64, bool) {
	i, ok := r.index[pairKey{source, target}]
	if !ok {
		return 0, false
	}
	return r.pairs[i].Score, true
}

// Pairs returns a copy of all pair scores, ordered by the input position of
// the source and then of the target.
func (r *Results) Pairs() []PairScore {
	out := make([]PairScore, len(r.pairs))
	copy(out, r.pairs)
	return out
}

// Sources returns the profile IDs in input order, including profiles that
// ended up with no scored pairs.
func (r *Results) Sources() []int {
	out := make([]int, len(r.sources))
	copy(out, r.sources)
	return out
}
