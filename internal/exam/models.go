package exam

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty accepts the three levels case-insensitively; "" means any.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "", Easy, Medium, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// DefaultMaxSelections caps multi-answer questions that do not set maxSelections.
const DefaultMaxSelections = 2

type Question struct {
	ID             string     `json:"id" yaml:"id"`
	Subject        string     `json:"subject" yaml:"subject"`
	Chapter        string     `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	QuestionNumber int        `json:"questionNumber" yaml:"questionNumber"`
	Prompt         string     `json:"prompt" yaml:"prompt"`
	ImageURL       string     `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Options        []string   `json:"options" yaml:"options"`
	CorrectAnswer  *int       `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
	CorrectAnswers []int      `json:"correctAnswers,omitempty" yaml:"correctAnswers,omitempty"`
	AllowMultiple  bool       `json:"allowMultiple,omitempty" yaml:"allowMultiple,omitempty"`
	MaxSelections  int        `json:"maxSelections,omitempty" yaml:"maxSelections,omitempty"`
	Explanation    string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}

// Multi reports whether the question accepts several simultaneous selections.
func (q Question) Multi() bool {
	return q.AllowMultiple || len(q.CorrectAnswers) > 1
}

// SelectionCap is the largest selection a slot may hold for this question.
func (q Question) SelectionCap() int {
	if !q.Multi() {
		return 1
	}
	if q.MaxSelections > 0 {
		return q.MaxSelections
	}
	return DefaultMaxSelections
}

// CorrectSet returns the sorted answer key. A question without a key yields nil.
func (q Question) CorrectSet() []int {
	var out []int
	switch {
	case len(q.CorrectAnswers) > 0:
		out = append(out, q.CorrectAnswers...)
	case q.CorrectAnswer != nil:
		out = []int{*q.CorrectAnswer}
	default:
		return nil
	}
	sort.Ints(out)
	return out
}

// Option is a displayable choice with its original index.
type Option struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// VisibleOptions drops blank options but keeps original indices for answer encoding.
func (q Question) VisibleOptions() []Option {
	out := make([]Option, 0, len(q.Options))
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			continue
		}
		out = append(out, Option{Index: i, Text: o})
	}
	return out
}

// ValidOption reports whether i names a visible option.
func (q Question) ValidOption(i int) bool {
	return i >= 0 && i < len(q.Options) && strings.TrimSpace(q.Options[i]) != ""
}

// WithoutKey strips the answer key and explanation before a question is served to test takers.
func (q Question) WithoutKey() Question {
	q.CorrectAnswer = nil
	q.CorrectAnswers = nil
	q.Explanation = ""
	return q
}

// Selection is the chosen option indices for one question. It encodes as -1 when empty.
type Selection []int

func (s Selection) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("-1"), nil
	}
	return json.Marshal([]int(s))
}

func (s *Selection) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = nil
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		if n < 0 {
			*s = nil
		} else {
			*s = Selection{n}
		}
		return nil
	}
	var arr []int
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("selectedAnswer: %w", err)
	}
	*s = arr
	return nil
}

// AnswerRecord is one question's entry in a submission payload.
type AnswerRecord struct {
	QuestionID     string    `json:"questionId"`
	Subject        string    `json:"subject"`
	QuestionNumber int       `json:"questionNumber"`
	SelectedAnswer Selection `json:"selectedAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
	TimeSpent      int       `json:"timeSpent"`
}

type Submission struct {
	UserID   string         `json:"userId"`
	Subject  string         `json:"subject"`
	Answers  []AnswerRecord `json:"answers"`
	Duration int            `json:"duration"`
}

// ScoredResult is the authoritative score returned for a submission.
type ScoredResult struct {
	CorrectAnswers  int      `json:"correctAnswers"`
	Score           float64  `json:"score"`
	WeightedPercent *float64 `json:"weightedPercent,omitempty"`
	Passed          bool     `json:"passed"`
	Duration        int      `json:"duration"`
}

// Percent prefers the weighted percentage when the scorer supplied one.
func (r ScoredResult) Percent() float64 {
	if r.WeightedPercent != nil {
		return *r.WeightedPercent
	}
	return r.Score
}

// Result is a persisted, append-only score record.
type Result struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Subject     string         `json:"subject"`
	Answers     []AnswerRecord `json:"answers"`
	Scored      ScoredResult   `json:"result"`
	SubmittedAt time.Time      `json:"submittedAt"`
}
