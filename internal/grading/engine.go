package grading

import (
	"slices"
	"sort"

	"github.com/mind-engage/examprep/internal/exam"
)

// Strategy decides whether a selection answers a question correctly.
type Strategy interface {
	Correct(key []int, sel []int) bool
}

var strategies = map[string]Strategy{
	"single": singleStrategy{},
	"multi":  multiStrategy{},
}

func kind(q exam.Question) string {
	if q.Multi() {
		return "multi"
	}
	return "single"
}

// IsCorrect compares the sorted selection with the sorted key. A question with no key
// and an empty selection are always incorrect.
func IsCorrect(q exam.Question, sel []int) bool {
	key := q.CorrectSet()
	if len(key) == 0 || len(sel) == 0 {
		return false
	}
	return strategies[kind(q)].Correct(key, sel)
}

// --- Strategies ---

type singleStrategy struct{}

func (singleStrategy) Correct(key []int, sel []int) bool {
	return len(sel) == 1 && len(key) == 1 && sel[0] == key[0]
}

// multiStrategy awards nothing unless both sorted lists match exactly.
type multiStrategy struct{}

func (multiStrategy) Correct(key []int, sel []int) bool {
	return slices.Equal(key, Sorted(sel))
}

// Sorted returns a sorted copy of sel.
func Sorted(sel []int) []int {
	out := append([]int(nil), sel...)
	sort.Ints(out)
	return out
}
