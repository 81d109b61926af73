package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/mind-engage/examprep/internal/exam"
)

// interleavePattern is one cycle of the difficulty ratio, hardest first.
var interleavePattern = [...]exam.Difficulty{
	exam.Hard, exam.Hard, exam.Hard,
	exam.Medium, exam.Medium, exam.Medium, exam.Medium,
	exam.Easy, exam.Easy, exam.Easy,
}

// Interleave merges the three buckets following interleavePattern. Slots whose
// bucket is exhausted are skipped, so every input element appears exactly once.
func Interleave[T any](hard, medium, easy []T) []T {
	out := make([]T, 0, len(hard)+len(medium)+len(easy))
	buckets := map[exam.Difficulty][]T{exam.Hard: hard, exam.Medium: medium, exam.Easy: easy}
	for len(out) < cap(out) {
		for _, d := range interleavePattern {
			b := buckets[d]
			if len(b) == 0 {
				continue
			}
			out = append(out, b[0])
			buckets[d] = b[1:]
		}
	}
	return out
}

// Mix is a difficulty distribution in percent.
type Mix struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (m Mix) Validate() error {
	if m.Easy < 0 || m.Medium < 0 || m.Hard < 0 {
		return fmt.Errorf("difficulty mix has a negative share: %+v", m)
	}
	if m.Easy+m.Medium+m.Hard == 0 {
		return errors.New("difficulty mix is empty")
	}
	return nil
}

// Counts splits total across the buckets. Rounding drift goes to the bucket with
// the largest share so the counts always sum to total.
func (m Mix) Counts(total int) map[exam.Difficulty]int {
	shares := map[exam.Difficulty]int{exam.Easy: m.Easy, exam.Medium: m.Medium, exam.Hard: m.Hard}
	sum := m.Easy + m.Medium + m.Hard
	counts := make(map[exam.Difficulty]int, 3)
	if sum <= 0 || total <= 0 {
		return counts
	}
	allocated := 0
	for d, pct := range shares {
		n := int(math.Round(float64(pct) * float64(total) / float64(sum)))
		counts[d] = n
		allocated += n
	}
	if allocated != total {
		largest := exam.Hard
		for _, d := range []exam.Difficulty{exam.Medium, exam.Easy} {
			if shares[d] > shares[largest] {
				largest = d
			}
		}
		counts[largest] += total - allocated
		if counts[largest] < 0 {
			counts[largest] = 0
		}
	}
	return counts
}
