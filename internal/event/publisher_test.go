package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mind-engage/examprep/internal/exam"
)

func TestNewResultRecorded(t *testing.T) {
	wp := 80.0
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ev := NewResultRecorded(exam.Result{
		ID: "r1", UserID: "u1", Subject: "physics", SubmittedAt: at,
		Answers: []exam.AnswerRecord{
			{QuestionID: "q1", IsCorrect: true},
			{QuestionID: "q2"},
		},
		Scored: exam.ScoredResult{CorrectAnswers: 1, Score: 50, WeightedPercent: &wp, Passed: true, Duration: 30},
	})
	if ev.Total != 2 || ev.Percent != 80 || len(ev.WrongQuestionIDs) != 1 || ev.WrongQuestionIDs[0] != "q2" {
		t.Fatalf("event %+v", ev)
	}

	msg, err := Message(ev)
	if err != nil {
		t.Fatal(err)
	}
	if msg.MessageId != "r1" || msg.ContentType != "application/json" || !msg.Timestamp.Equal(at) {
		t.Fatalf("publishing %+v", msg)
	}
	var env struct {
		Type    string         `json:"type"`
		Payload ResultRecorded `json:"payload"`
	}
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != RoutingResultRecorded || env.Payload.UserID != "u1" {
		t.Fatalf("envelope %+v", env)
	}
}

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewEventPublisher("", "examprep.events")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.PublishResult(context.Background(), ResultRecorded{ResultID: "r1"}); err != nil {
		t.Fatalf("disabled publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
