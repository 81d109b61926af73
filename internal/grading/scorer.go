package grading

import (
	"math"

	"github.com/mind-engage/examprep/internal/exam"
)

// Tally is a local count over a finished question set.
type Tally struct {
	Correct      int `json:"correct"`
	Wrong        int `json:"wrong"`
	NotAttempted int `json:"notAttempted"`
}

func (t Tally) Total() int { return t.Correct + t.Wrong + t.NotAttempted }

// Percent is the share of correct answers over all questions, 0 for an empty set.
func (t Tally) Percent() float64 {
	if t.Total() == 0 {
		return 0
	}
	return round2(100 * float64(t.Correct) / float64(t.Total()))
}

// TallyAnswers counts sels against qs; the slices are parallel.
func TallyAnswers(qs []exam.Question, sels [][]int) Tally {
	var t Tally
	for i, q := range qs {
		var sel []int
		if i < len(sels) {
			sel = sels[i]
		}
		switch {
		case len(sel) == 0:
			t.NotAttempted++
		case IsCorrect(q, sel):
			t.Correct++
		default:
			t.Wrong++
		}
	}
	return t
}

// Scorer options

type Option func(*config)

type config struct {
	PassPercent float64
	Weights     map[exam.Difficulty]float64
}

func WithPassPercent(p float64) Option { return func(c *config) { c.PassPercent = p } }

// WithDifficultyWeights enables the weighted percentage. Questions without a
// difficulty weigh 1.
func WithDifficultyWeights(easy, medium, hard float64) Option {
	return func(c *config) {
		c.Weights = map[exam.Difficulty]float64{exam.Easy: easy, exam.Medium: medium, exam.Hard: hard}
	}
}

// Scorer re-grades submitted answers against the stored key.
type Scorer struct{ cfg config }

func NewScorer(opts ...Option) *Scorer {
	cfg := config{PassPercent: 60}
	for _, o := range opts {
		o(&cfg)
	}
	return &Scorer{cfg: cfg}
}

// Score recomputes isCorrect for every record using keyed, the stored questions by
// id. Records whose question is unknown count as wrong. The returned records are
// the re-graded copy that should be persisted.
func (s *Scorer) Score(keyed map[string]exam.Question, answers []exam.AnswerRecord, duration int) (exam.ScoredResult, []exam.AnswerRecord) {
	out := make([]exam.AnswerRecord, len(answers))
	var (
		correct              int
		gotWeight, allWeight float64
	)
	for i, a := range answers {
		q, ok := keyed[a.QuestionID]
		a.IsCorrect = ok && IsCorrect(q, a.SelectedAnswer)
		if a.IsCorrect {
			correct++
		}
		w := s.weight(q.Difficulty)
		allWeight += w
		if a.IsCorrect {
			gotWeight += w
		}
		out[i] = a
	}

	res := exam.ScoredResult{CorrectAnswers: correct, Duration: duration}
	if len(answers) > 0 {
		res.Score = round2(100 * float64(correct) / float64(len(answers)))
	}
	if s.cfg.Weights != nil && allWeight > 0 {
		wp := round2(100 * gotWeight / allWeight)
		res.WeightedPercent = &wp
	}
	res.Passed = len(answers) > 0 && res.Percent() >= s.cfg.PassPercent
	return res, out
}

func (s *Scorer) weight(d exam.Difficulty) float64 {
	if w, ok := s.cfg.Weights[d]; ok && w > 0 {
		return w
	}
	return 1
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
