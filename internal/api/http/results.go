package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/examprep/internal/event"
	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
	"github.com/mind-engage/examprep/internal/rbac"
	syncx "github.com/mind-engage/examprep/internal/sync"
)

// EventAppender is the part of syncx.EventRepo the handlers use.
type EventAppender interface {
	Append(ctx context.Context, e syncx.Event) error
}

const maxSubmissionBytes = 1 << 20

// POST /api/results  { userId, subject, answers: AnswerRecord[], duration }
// The client's isCorrect flags are ignored; answers are re-graded against the
// stored key and the record is appended, never updated.
func SubmitResultHandler(store exam.Store, scorer *grading.Scorer, events EventAppender, pub event.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var sub exam.Submission
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes)).Decode(&sub); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				http.Error(w, "submission too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		caller := rbac.SubjectFromContext(ctx)
		if sub.UserID == "" {
			sub.UserID = caller
		}
		if sub.UserID != caller && !rbac.Can(ctx, rbac.PermResultSubmitAny) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if len(sub.Answers) == 0 {
			http.Error(w, "answers required", http.StatusBadRequest)
			return
		}
		if len(sub.Answers) > maxQuestionCount {
			http.Error(w, "too many answers", http.StatusBadRequest)
			return
		}
		if sub.Duration < 0 {
			sub.Duration = 0
		}

		// One record per question; repeats would be counted again by the scorer.
		ids := make([]string, 0, len(sub.Answers))
		seen := make(map[string]bool, len(sub.Answers))
		for _, a := range sub.Answers {
			if seen[a.QuestionID] {
				http.Error(w, "duplicate questionId "+a.QuestionID, http.StatusBadRequest)
				return
			}
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
		qs, err := store.Query(ctx, exam.Filter{IDs: ids})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		keyed := make(map[string]exam.Question, len(qs))
		for _, q := range qs {
			keyed[q.ID] = q
		}
		if sub.Subject == "" && len(qs) > 0 {
			sub.Subject = qs[0].Subject
		}

		scored, graded := scorer.Score(keyed, sub.Answers, sub.Duration)
		res := exam.Result{
			ID:          uuid.NewString(),
			UserID:      sub.UserID,
			Subject:     sub.Subject,
			Answers:     graded,
			Scored:      scored,
			SubmittedAt: time.Now().UTC(),
		}
		if err := store.AppendResult(ctx, res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if events != nil {
			data, _ := json.Marshal(res)
			if err := events.Append(ctx, syncx.Event{Type: syncx.TypeSessionSubmitted, Key: res.ID, DataJSON: string(data)}); err != nil {
				log.Printf("event log: %v", err)
			}
		}
		if pub != nil {
			if err := pub.PublishResult(ctx, event.NewResultRecorded(res)); err != nil {
				log.Printf("publish result %s: %v", res.ID, err)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": res.ID, "result": scored})
	}
}

// GET /api/users/{userID}/results?subject=&limit=50&offset=0
func ListUserResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListResults(r.Context(), exam.ResultListOpts{
			UserID:  chi.URLParam(r, "userID"),
			Subject: strings.TrimSpace(r.URL.Query().Get("subject")),
			Limit:   parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:  parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /api/users/{userID}/wrong?subject=&attempts=10
// Lists questions whose most recent answer, within the last attempts results,
// was wrong or missing. The ids feed the wrong-answers retry flow.
func WrongAnswersHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListResults(r.Context(), exam.ResultListOpts{
			UserID:  chi.URLParam(r, "userID"),
			Subject: strings.TrimSpace(r.URL.Query().Get("subject")),
			Limit:   parseIntDefault(r.URL.Query().Get("attempts"), 10),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"ids": WrongQuestionIDs(list)})
	}
}

// WrongQuestionIDs takes results newest first and keeps each question's latest
// verdict.
func WrongQuestionIDs(results []exam.Result) []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, res := range results {
		for _, a := range res.Answers {
			if seen[a.QuestionID] {
				continue
			}
			seen[a.QuestionID] = true
			if !a.IsCorrect {
				ids = append(ids, a.QuestionID)
			}
		}
	}
	return ids
}
