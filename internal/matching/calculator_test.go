package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/match-scorer/internal/profile"
)

type answerSpec struct {
	question   int
	code       int
	acceptable []int
	importance int
}

func newProfile(t *testing.T, id int, specs ...answerSpec) *profile.Profile {
	t.Helper()

	answers := make([]profile.Answer, 0, len(specs))
	for _, s := range specs {
		a, err := profile.NewAnswer(s.question, s.code, s.acceptable, s.importance)
		require.NoError(t, err)
		answers = append(answers, a)
	}

	p, err := profile.New(id, answers...)
	require.NoError(t, err)
	return p
}

func exampleProfiles(t *testing.T) (*profile.Profile, *profile.Profile) {
	p0 := newProfile(t, 0,
		answerSpec{question: 0, code: 1, acceptable: []int{0, 3}, importance: 0},
		answerSpec{question: 1, code: 2, acceptable: []int{0, 2}, importance: 2},
	)
	p1 := newProfile(t, 1,
		answerSpec{question: 0, code: 2, acceptable: []int{1, 2, 3}, importance: 4},
		answerSpec{question: 1, code: 3, acceptable: []int{3}, importance: 3},
	)
	return p0, p1
}

func TestCalculatorWorkedExample(t *testing.T) {
	t.Parallel()

	p0, p1 := exampleProfiles(t)
	m := Calculator{}.Match(p0, p1)

	assert.True(t, m.Defined)
	assert.Zero(t, m.Forward)
	assert.InDelta(t, 250.0/300.0, m.Backward, 1e-12)
	assert.Zero(t, m.Score)
}

func TestCalculatorSymmetry(t *testing.T) {
	t.Parallel()

	a := newProfile(t, 1,
		answerSpec{question: 1, code: 1, acceptable: []int{1, 2}, importance: 4},
		answerSpec{question: 2, code: 3, acceptable: []int{3}, importance: 2},
		answerSpec{question: 5, code: 0, acceptable: []int{0}, importance: 1},
	)
	b := newProfile(t, 2,
		answerSpec{question: 1, code: 2, acceptable: []int{1}, importance: 3},
		answerSpec{question: 2, code: 1, acceptable: []int{1, 3}, importance: 4},
		answerSpec{question: 9, code: 4, acceptable: []int{4}, importance: 2},
	)

	calc := Calculator{}
	ab := calc.Match(a, b)
	ba := calc.Match(b, a)

	assert.Equal(t, ab.Score, ba.Score)
	assert.Equal(t, ab.Forward, ba.Backward)
	assert.Equal(t, ab.Backward, ba.Forward)

	// a: 261 total, q1 (250) satisfied by b's 2, q2 (10) not, q5 unanswered by b.
	assert.InDelta(t, 250.0/261.0, ab.Forward, 1e-12)
	// b: 300 total, q1 (50) satisfied by a's 1, q2 (250) satisfied by a's 3, q9 (10) unanswered.
	assert.InDelta(t, 300.0/310.0, ab.Backward, 1e-12)
	assert.InDelta(t, math.Sqrt(250.0/261.0*300.0/310.0), ab.Score, 1e-12)
}

func TestCalculatorSelfScore(t *testing.T) {
	t.Parallel()

	selfAccepting := newProfile(t, 1,
		answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 3},
		answerSpec{question: 2, code: 2, acceptable: []int{2, 4}, importance: 1},
	)
	assert.Equal(t, 1.0, Calculator{}.Score(selfAccepting, selfAccepting))

	partly := newProfile(t, 2,
		answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 3},
		answerSpec{question: 2, code: 2, acceptable: []int{4}, importance: 2},
	)
	// 50 of 60 accepted in both directions.
	assert.InDelta(t, 50.0/60.0, Calculator{}.Score(partly, partly), 1e-12)
}

func TestCalculatorZeroTotal(t *testing.T) {
	t.Parallel()

	empty := newProfile(t, 1)
	weightless := newProfile(t, 2, answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 0})
	other := newProfile(t, 3, answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 4})

	tests := []struct {
		name        string
		policy      ZeroTotalPolicy
		self, other *profile.Profile
		defined     bool
	}{
		{name: "empty as zero", policy: ZeroTotalAsZero, self: empty, other: other, defined: true},
		{name: "weightless as zero", policy: ZeroTotalAsZero, self: other, other: weightless, defined: true},
		{name: "both empty as zero", policy: ZeroTotalAsZero, self: empty, other: empty, defined: true},
		{name: "empty excluded", policy: ZeroTotalExclude, self: empty, other: other, defined: false},
		{name: "weightless excluded", policy: ZeroTotalExclude, self: other, other: weightless, defined: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := Calculator{Policy: tt.policy}.Match(tt.self, tt.other)
			assert.Equal(t, tt.defined, m.Defined)
			assert.Zero(t, m.Score)
			assert.False(t, math.IsNaN(m.Score))
		})
	}
}

func TestCalculatorNearZeroTotal(t *testing.T) {
	t.Parallel()

	// A single weight-1 question is the smallest non-zero total.
	a := newProfile(t, 1, answerSpec{question: 1, code: 1, acceptable: []int{2}, importance: 1})
	b := newProfile(t, 2, answerSpec{question: 1, code: 2, acceptable: []int{1}, importance: 1})
	c := newProfile(t, 3, answerSpec{question: 1, code: 3, acceptable: []int{1}, importance: 1})

	for _, policy := range []ZeroTotalPolicy{ZeroTotalAsZero, ZeroTotalExclude} {
		calc := Calculator{Policy: policy}

		m := calc.Match(a, b)
		assert.True(t, m.Defined)
		assert.Equal(t, 1.0, m.Score)

		m = calc.Match(a, c)
		assert.True(t, m.Defined)
		assert.Zero(t, m.Score)
	}
}

func TestCalculatorIgnoresQuestionsOnlyOtherAnswered(t *testing.T) {
	t.Parallel()

	a := newProfile(t, 1, answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 2})
	b := newProfile(t, 2,
		answerSpec{question: 1, code: 1, acceptable: []int{1}, importance: 2},
		answerSpec{question: 2, code: 1, acceptable: []int{1}, importance: 4},
	)

	m := Calculator{}.Match(a, b)
	assert.Equal(t, 1.0, m.Forward)
	assert.InDelta(t, 10.0/260.0, m.Backward, 1e-12)
}

func TestParseZeroTotalPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseZeroTotalPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ZeroTotalAsZero, p)

	p, err = ParseZeroTotalPolicy(" Exclude ")
	require.NoError(t, err)
	assert.Equal(t, ZeroTotalExclude, p)
	assert.Equal(t, "exclude", p.String())

	_, err = ParseZeroTotalPolicy("nan")
	assert.Error(t, err)
}
