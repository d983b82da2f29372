// Package profile holds the validated, immutable records that scoring reads.
package profile

import (
	"fmt"
	"sort"
)

// Profile is a participant and the questions it answered. It is never
// modified after New returns.
type Profile struct {
	id      int
	answers map[int]Answer
}

// New builds a Profile. Answering the same question twice is an error.
func New(id int, answers ...Answer) (*Profile, error) {
	m := make(map[int]Answer, len(answers))
	for _, a := range answers {
		if _, ok := m[a.questionID]; ok {
			return nil, NewValidationError(fmt.Sprintf("profile %d", id), ErrDuplicateQuestion,
				fmt.Sprintf("question %d answered more than once", a.questionID))
		}
		m[a.questionID] = a
	}

	return &Profile{id: id, answers: m}, nil
}

func (p *Profile) ID() int { return p.id }

// Len returns the number of answered questions.
func (p *Profile) Len() int { return len(p.answers) }

// Answer returns the answer to questionID, if the profile gave one.
func (p *Profile) Answer(questionID int) (Answer, bool) {
	a, ok := p.answers[questionID]
	return a, ok
}

// QuestionIDs returns the answered question IDs in ascending order.
func (p *Profile) QuestionIDs() []int {
	ids := make([]int, 0, len(p.answers))
	for id := range p.answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Each calls fn for every answer. Iteration order is unspecified.
func (p *Profile) Each(fn func(Answer)) {
	for _, a := range p.answers {
		fn(a)
	}
}

// TotalWeight is the sum of the importance weights of all answers.
func (p *Profile) TotalWeight() int {
	total := 0
	for _, a := range p.answers {
		total += a.importance.Weight()
	}
	return total
}
