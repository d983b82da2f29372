package profile

import (
	"fmt"
	"sort"
)

// Importance is the code a profile attaches to a question to say how much
// the counterpart's answer matters.
type Importance int

const (
	Irrelevant Importance = iota
	LittleImportant
	SomewhatImportant
	VeryImportant
	Mandatory
)

var importanceWeights = [...]int{
	Irrelevant:        0,
	LittleImportant:   1,
	SomewhatImportant: 10,
	VeryImportant:     50,
	Mandatory:         250,
}

// ParseImportance returns the Importance for code or a validation error when
// the code is not in the weight table.
func ParseImportance(code int) (Importance, error) {
	return parseImportance("importance", code)
}

func parseImportance(entity string, code int) (Importance, error) {
	if !Importance(code).valid() {
		return 0, NewValidationError(entity, ErrUnknownImportance,
			fmt.Sprintf("importance code %d is outside 0..%d", code, len(importanceWeights)-1))
	}
	return Importance(code), nil
}

func (i Importance) valid() bool {
	return i >= 0 && int(i) < len(importanceWeights)
}

// Weight returns the scoring weight of the importance level. Levels outside
// the table weigh nothing.
func (i Importance) Weight() int {
	if !i.valid() {
		return 0
	}
	return importanceWeights[i]
}

// Answer is one profile's response to one question.
type Answer struct {
	questionID int
	code       int
	acceptable map[int]struct{}
	importance Importance
}

// NewAnswer builds an Answer. The importance code is validated here so no
// Answer with an unknown weight can reach scoring.
func NewAnswer(questionID, code int, acceptable []int, importance int) (Answer, error) {
	imp, err := parseImportance(fmt.Sprintf("answer to question %d", questionID), importance)
	if err != nil {
		return Answer{}, err
	}

	set := make(map[int]struct{}, len(acceptable))
	for _, c := range acceptable {
		set[c] = struct{}{}
	}

	return Answer{
		questionID: questionID,
		code:       code,
		acceptable: set,
		importance: imp,
	}, nil
}

func (a Answer) QuestionID() int        { return a.questionID }
func (a Answer) Code() int              { return a.code }
func (a Answer) Importance() Importance { return a.importance }

// Accepts reports whether code is one of the answers this profile accepts.
func (a Answer) Accepts(code int) bool {
	_, ok := a.acceptable[code]
	return ok
}

// Acceptable returns the accepted codes in ascending order.
func (a Answer) Acceptable() []int {
	codes := make([]int, 0, len(a.acceptable))
	for c := range a.acceptable {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

func (a Answer) String() string {
	return fmt.Sprintf("question=%d answer=%d acceptable=%v importance=%d",
		a.questionID, a.code, a.Acceptable(), int(a.importance))
}
