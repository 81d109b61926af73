package http

import (
	"encoding/json"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/examprep/internal/exam"
	syncx "github.com/mind-engage/examprep/internal/sync"
)

const (
	maxQuestionCount = 200
	maxBankBytes     = 10 << 20
)

// GET /api/questions?subject=&chapter=&difficulty=&count=&shuffle=1&ids=
func ListQuestionsHandler(store exam.Store, serveKeys bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		diff, err := exam.ParseDifficulty(q.Get("difficulty"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f := exam.Filter{
			Subject:    strings.TrimSpace(q.Get("subject")),
			Chapters:   splitCSV(q["chapter"]...),
			Difficulty: diff,
			IDs:        splitCSV(q["ids"]...),
			Limit:      min(parseIntDefault(q.Get("count"), 0), maxQuestionCount),
			Shuffle:    parseBool(q.Get("shuffle")),
		}
		if f.Subject == "" && len(f.IDs) == 0 {
			http.Error(w, "subject or ids required", http.StatusBadRequest)
			return
		}
		if f.Limit == 0 {
			f.Limit = maxQuestionCount
		}
		qs, err := store.Query(r.Context(), f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !serveKeys {
			for i := range qs {
				qs[i] = qs[i].WithoutKey()
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
	}
}

// POST /api/questions/import  body: a YAML or JSON bank document
func ImportQuestionsHandler(store exam.Store, events EventAppender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBankBytes))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		qs, err := exam.ParseBank(body, bankFormat(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutQuestions(r.Context(), qs...); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if events != nil {
			ids := make([]string, len(qs))
			for i, q := range qs {
				ids[i] = q.ID
			}
			data, _ := json.Marshal(map[string]any{"ids": ids})
			err := events.Append(r.Context(), syncx.Event{
				Type: syncx.TypeQuestionsImported, Key: strconv.Itoa(len(qs)), DataJSON: string(data),
			})
			if err != nil {
				log.Printf("event log: %v", err)
			}
		}
		writeJSON(w, http.StatusOK, map[string]int{"imported": len(qs)})
	}
}

func bankFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasSuffix(mt, "json") {
		return "json"
	}
	return "yaml"
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// splitCSV accepts repeated and comma-separated values alike.
func splitCSV(vals ...string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
