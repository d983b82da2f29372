// Package matching scores how well profiles satisfy each other's preferences.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/match-scorer/internal/profile"
)

// ZeroTotalPolicy decides what a direction scores when the driving profile
// carries no importance weight at all.
type ZeroTotalPolicy int

const (
	// ZeroTotalAsZero treats the ratio of a weightless direction as 0.
	ZeroTotalAsZero ZeroTotalPolicy = iota
	// ZeroTotalExclude marks the pair as undefined so it is left out of results.
	ZeroTotalExclude
)

// ParseZeroTotalPolicy maps the config spelling to a policy.
func ParseZeroTotalPolicy(s string) (ZeroTotalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return ZeroTotalAsZero, nil
	case "exclude":
		return ZeroTotalExclude, nil
	default:
		return 0, fmt.Errorf("unknown zero-total policy %q (want zero or exclude)", s)
	}
}

func (p ZeroTotalPolicy) String() string {
	if p == ZeroTotalExclude {
		return "exclude"
	}
	return "zero"
}

// Match is the breakdown of one pairwise score.
type Match struct {
	// Forward is the share of self's weighted preferences that other satisfies.
	Forward float64
	// Backward is the share of other's weighted preferences that self satisfies.
	Backward float64
	// Score is the geometric mean of Forward and Backward.
	Score float64
	// Defined is false when a direction had zero total weight under ZeroTotalExclude.
	Defined bool
}

// Calculator computes pairwise scores. The zero value uses ZeroTotalAsZero.
type Calculator struct {
	Policy ZeroTotalPolicy
}

// Score returns the symmetric match score of self and other.
func (c Calculator) Score(self, other *profile.Profile) float64 {
	return c.Match(self, other).Score
}

// Match returns both directional ratios and the combined score.
func (c Calculator) Match(self, other *profile.Profile) Match {
	fwd, fwdOK := satisfaction(self, other)
	bwd, bwdOK := satisfaction(other, self)

	if (!fwdOK || !bwdOK) && c.Policy == ZeroTotalExclude {
		return Match{Forward: fwd, Backward: bwd}
	}

	return Match{
		Forward:  fwd,
		Backward: bwd,
		Score:    math.Sqrt(fwd * bwd),
		Defined:  true,
	}
}

// satisfaction is the importance-weighted share of driver's questions for
// which counterpart gave an acceptable answer. ok is false when driver's
// total weight is zero; the ratio is then 0.
func satisfaction(driver, counterpart *profile.Profile) (ratio float64, ok bool) {
	var total, matched int
	driver.Each(func(mine profile.Answer) {
		w := mine.Importance().Weight()
		total += w

		theirs, answered := counterpart.Answer(mine.QuestionID())
		if answered && mine.Accepts(theirs.Code()) {
			matched += w
		}
	})

	if total == 0 {
		return 0, false
	}
	return float64(matched) / float64(total), true
}
