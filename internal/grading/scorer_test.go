package grading_test

import (
	"testing"

	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
)

func keyed() map[string]exam.Question {
	return map[string]exam.Question{
		"e": {ID: "e", Options: []string{"a", "b"}, CorrectAnswer: intp(0), Difficulty: exam.Easy},
		"m": {ID: "m", Options: []string{"a", "b"}, CorrectAnswer: intp(0), Difficulty: exam.Medium},
		"h": {ID: "h", Options: []string{"a", "b", "c"}, CorrectAnswers: []int{1, 2}, Difficulty: exam.Hard},
	}
}

func TestScorerRegradesClientClaims(t *testing.T) {
	answers := []exam.AnswerRecord{
		{QuestionID: "e", SelectedAnswer: exam.Selection{1}, IsCorrect: true}, // client lies
		{QuestionID: "m", SelectedAnswer: exam.Selection{0}},
		{QuestionID: "h", SelectedAnswer: exam.Selection{2, 1}},
		{QuestionID: "ghost", SelectedAnswer: exam.Selection{0}, IsCorrect: true},
	}
	res, graded := grading.NewScorer().Score(keyed(), answers, 42)
	if res.CorrectAnswers != 2 || res.Score != 50 || res.Duration != 42 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.WeightedPercent != nil {
		t.Fatal("weighted percent without weights")
	}
	if res.Passed {
		t.Fatal("50% must not pass the default 60% threshold")
	}
	wantCorrect := []bool{false, true, true, false}
	for i, a := range graded {
		if a.IsCorrect != wantCorrect[i] {
			t.Fatalf("answer %d: isCorrect=%v", i, a.IsCorrect)
		}
	}
	if !answers[0].IsCorrect {
		t.Fatal("Score mutated its input")
	}
}

func TestScorerWeightedPercent(t *testing.T) {
	s := grading.NewScorer(grading.WithDifficultyWeights(1, 2, 3), grading.WithPassPercent(70))
	answers := []exam.AnswerRecord{
		{QuestionID: "e", SelectedAnswer: exam.Selection{1}},
		{QuestionID: "m", SelectedAnswer: exam.Selection{0}},
		{QuestionID: "h", SelectedAnswer: exam.Selection{1, 2}},
	}
	res, _ := s.Score(keyed(), answers, 10)
	if res.WeightedPercent == nil || *res.WeightedPercent != 83.33 {
		t.Fatalf("weighted percent: %v", res.WeightedPercent)
	}
	if res.Score != 66.67 {
		t.Fatalf("score: %v", res.Score)
	}
	if !res.Passed || res.Percent() != 83.33 {
		t.Fatalf("pass should follow the weighted percent: %+v", res)
	}
}

func TestScorerEmptySubmission(t *testing.T) {
	res, graded := grading.NewScorer(grading.WithPassPercent(0)).Score(keyed(), nil, 0)
	if res.Score != 0 || res.Passed || len(graded) != 0 {
		t.Fatalf("got %+v", res)
	}
}
