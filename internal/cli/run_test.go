package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/mind-engage/examprep/internal/api/http"
	auth "github.com/mind-engage/examprep/internal/auth/middleware"
	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
)

func intp(v int) *int { return &v }

func newServer(t *testing.T) (*httptest.Server, exam.Store, *auth.AuthService) {
	t.Helper()
	store := exam.NewInMemoryStore()
	err := store.PutQuestions(context.Background(), exam.Question{
		ID: "c1", Subject: "chemistry", Prompt: "Symbol for sodium?",
		Options: []string{"Na", "So", "", "S"}, CorrectAnswer: intp(0), Explanation: "From natrium.",
	})
	if err != nil {
		t.Fatal(err)
	}
	a := auth.NewAuthService("k", "", "")
	r := chi.NewRouter()
	(&api.API{Store: store, Scorer: grading.NewScorer(), Auth: a, ServeAnswerKeys: true, EnableGuest: true}).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store, a
}

// runWith feeds input to the run command. The pipe stays open until the
// command returns so end of input never races the session finishing.
func runWith(t *testing.T, input string, args ...string) (int, string, string) {
	t.Helper()
	pr, pw := io.Pipe()
	prev := stdin
	stdin = pr
	t.Cleanup(func() { stdin = prev })
	go pw.Write([]byte(input))

	var out, errb bytes.Buffer
	code := Run(append([]string{"run"}, args...), &out, &errb)
	pw.Close()
	return code, out.String(), errb.String()
}

func TestRunTestSessionAsGuest(t *testing.T) {
	srv, store, _ := newServer(t)
	code, out, errs := runWith(t, "1\ns\n", "--server", srv.URL, "--subject", "chemistry")
	if code != ExitOK {
		t.Fatalf("exit %d\nstdout:\n%s\nstderr:\n%s", code, out, errs)
	}
	// The blank option is hidden, so "S" is shown as option 3.
	if !strings.Contains(out, "3) S") || strings.Contains(out, "4)") {
		t.Fatalf("options not renumbered:\n%s", out)
	}
	if !strings.Contains(out, "Correct 1, wrong 0, not attempted 0 of 1") || !strings.Contains(out, "Passed") {
		t.Fatalf("outcome missing:\n%s", out)
	}

	list, _ := store.ListResults(context.Background(), exam.ResultListOpts{})
	if len(list) != 1 || !strings.HasPrefix(list[0].UserID, "guest|") || !list[0].Answers[0].IsCorrect {
		t.Fatalf("recorded %+v", list)
	}
}

func TestRunPracticeAutoSubmits(t *testing.T) {
	srv, _, _ := newServer(t)
	code, out, errs := runWith(t, "3\n", "--server", srv.URL, "--subject", "chemistry", "--flow", "practice")
	if code != ExitOK {
		t.Fatalf("exit %d\nstdout:\n%s\nstderr:\n%s", code, out, errs)
	}
	for _, want := range []string{"not quite, answer: Na", "From natrium.", "Correct 0, wrong 1", "Not passed", "#1 c1: answered 4, key 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunQuitLeavesNothingRecorded(t *testing.T) {
	srv, store, _ := newServer(t)
	code, out, _ := runWith(t, "1\nq\n", "--server", srv.URL, "--subject", "chemistry")
	if code != ExitError || !strings.Contains(out, "left without submitting") {
		t.Fatalf("exit %d:\n%s", code, out)
	}
	if list, _ := store.ListResults(context.Background(), exam.ResultListOpts{}); len(list) != 0 {
		t.Fatalf("recorded %+v", list)
	}
}

func TestRunEmptySelection(t *testing.T) {
	srv, _, _ := newServer(t)
	code, out, _ := runWith(t, "", "--server", srv.URL, "--subject", "history")
	if code != ExitOK || !strings.Contains(out, "no questions match") {
		t.Fatalf("exit %d:\n%s", code, out)
	}
}

func TestRunWrongAnswersFlow(t *testing.T) {
	srv, store, a := newServer(t)
	store.AppendResult(context.Background(), exam.Result{
		ID: "r1", UserID: "u1", Subject: "chemistry",
		Answers: []exam.AnswerRecord{{QuestionID: "c1"}},
	})
	tok, _ := a.IssueJWT("u1", "student")
	code, out, errs := runWith(t, "1\ns\n", "--server", srv.URL, "--flow", "wrong-answers", "--user", "u1", "--token", tok)
	if code != ExitOK || !strings.Contains(out, "Correct 1") {
		t.Fatalf("exit %d\nstdout:\n%s\nstderr:\n%s", code, out, errs)
	}
	if list, _ := store.ListResults(context.Background(), exam.ResultListOpts{UserID: "u1"}); len(list) != 2 {
		t.Fatalf("results %d", len(list))
	}
}

func TestRunFlagErrors(t *testing.T) {
	cases := [][]string{
		{"--flow", "nope", "--subject", "x"},
		{"--subject", "x", "--difficulty", "impossible"},
		{"--subject", "x", "--mix", "1,2"},
		{},
		{"--subject", "x", "extra"},
	}
	for _, args := range cases {
		if code, _, _ := runWith(t, "", args...); code != ExitUsage {
			t.Fatalf("%v: exit %d", args, code)
		}
	}
}

func TestImportAndResults(t *testing.T) {
	srv, store, a := newServer(t)
	bank := filepath.Join(t.TempDir(), "bank.json")
	os.WriteFile(bank, []byte(`{"questions":[{"id":"b1","subject":"biology","options":["cell","atom"],"correctAnswer":0}]}`), 0o644)

	student, _ := a.IssueJWT("u1", "student")
	var out, errb bytes.Buffer
	if code := Run([]string{"import", "--server", srv.URL, "--token", student, bank}, &out, &errb); code != ExitError {
		t.Fatalf("student import: exit %d", code)
	}
	if !strings.Contains(errb.String(), "403") {
		t.Fatalf("stderr %q", errb.String())
	}

	editor, _ := a.IssueJWT("ed", "editor")
	out.Reset()
	errb.Reset()
	if code := Run([]string{"import", "--server", srv.URL, "--token", editor, bank}, &out, &errb); code != ExitOK {
		t.Fatalf("editor import: exit %d: %s", code, errb.String())
	}
	if !strings.Contains(out.String(), "Imported 1 of 1") {
		t.Fatalf("stdout %q", out.String())
	}
	if _, err := store.GetQuestion(context.Background(), "b1"); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if code := Run([]string{"results", "--server", srv.URL, "--token", student, "--user", "u1"}, &out, &errb); code != ExitOK {
		t.Fatalf("results: exit %d", code)
	}
	if !strings.Contains(out.String(), "No results yet") {
		t.Fatalf("stdout %q", out.String())
	}
}
