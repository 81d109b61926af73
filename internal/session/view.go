package session

import (
	"slices"
	"time"

	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
)

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	ID        string
	Flow      Flow
	Mode      Mode
	Status    Status
	Current   int
	Total     int
	Answered  int
	Remaining int
	StartedAt time.Time
	// Question is the current question. Its key is stripped in test mode until
	// the session completes.
	Question exam.Question
	Answer   []int
	Answers  [][]int
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		ID:        e.id,
		Flow:      e.cfg.Flow,
		Mode:      e.cfg.Mode,
		Status:    e.status,
		Current:   e.current,
		Total:     len(e.questions),
		Remaining: e.remaining,
		StartedAt: e.startedAt,
		Answers:   make([][]int, len(e.answers)),
	}
	for i, a := range e.answers {
		s.Answers[i] = slices.Clone(a)
		if len(a) > 0 {
			s.Answered++
		}
	}
	if len(e.questions) > 0 {
		q := e.questions[e.current]
		if !e.keyVisibleLocked() {
			q = q.WithoutKey()
		}
		s.Question = q
		s.Answer = s.Answers[e.current]
	}
	return s
}

func (e *Engine) keyVisibleLocked() bool {
	return e.cfg.Mode == ModePractice || e.status == StatusCompleted
}

// Feedback is the verdict on one question.
type Feedback struct {
	Answered    bool
	Correct     bool
	Key         []int
	Explanation string
}

// Feedback reports correctness for question i. Practice sessions get it for
// answered questions while running; test sessions only once completed.
func (e *Engine) Feedback(i int) (Feedback, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.questions) || !e.keyVisibleLocked() {
		return Feedback{}, false
	}
	sel := e.answers[i]
	if e.status == StatusRunning && len(sel) == 0 {
		return Feedback{}, false
	}
	q := e.questions[i]
	return Feedback{
		Answered:    len(sel) > 0,
		Correct:     grading.IsCorrect(q, sel),
		Key:         q.CorrectSet(),
		Explanation: q.Explanation,
	}, true
}

// Outcome is what a finished session shows: local counts computed on this side
// and the sink's authoritative result when it arrived.
type Outcome struct {
	Status   Status
	Local    grading.Tally
	Duration int
	Answers  []exam.AnswerRecord
	Result   *exam.ScoredResult
	Err      error
}

// Percent prefers the authoritative figure.
func (o Outcome) Percent() float64 {
	if o.Result != nil {
		return o.Result.Percent()
	}
	return o.Local.Percent()
}

func (o Outcome) Passed() bool { return o.Result != nil && o.Result.Passed }

// Outcome is available once finalize has begun.
func (e *Engine) Outcome() (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.records == nil {
		return Outcome{Status: e.status}, false
	}
	o := Outcome{
		Status:   e.status,
		Local:    grading.TallyAnswers(e.questions, e.answers),
		Duration: e.duration,
		Answers:  slices.Clone(e.records),
		Err:      e.submitErr,
	}
	if e.result != nil {
		r := *e.result
		o.Result = &r
	}
	return o, true
}
