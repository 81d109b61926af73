package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/examprep/internal/client"
	"github.com/mind-engage/examprep/internal/config"
	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/session"
)

const sessionHelp = `Commands:
  1 2 ...   select option(s); on multi-answer questions each number toggles
  n / p     next / previous question
  g N       go to question N
  s         submit
  q         quit without submitting`

func runSession(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		server := flags.String("server", config.FromEnv().ServerURL, "examprepd base URL")
		token := flags.String("token", os.Getenv("EXAMPREP_TOKEN"), "bearer token; a guest token is requested when empty")
		user := flags.String("user", "", "user id the token belongs to")
		flow := flags.String("flow", string(session.FlowCustomTest), "session flow")
		subject := flags.String("subject", "", "subject")
		chapters := flags.String("chapter", "", "comma-separated chapters")
		difficulty := flags.String("difficulty", "", "easy, medium or hard")
		mixFlag := flags.String("mix", "", "easy,medium,hard percentages, e.g. 30,40,30")
		count := flags.Int("count", 0, "number of questions (0 uses the flow default)")
		minutes := flags.Int("minutes", 0, "time limit in minutes (0 uses the flow default)")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if rejectArgs(cmd, flags.Args(), stderr) {
			return ExitUsage
		}

		preset, err := session.Preset(session.Flow(*flow))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}
		diff, err := exam.ParseDifficulty(*difficulty)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}
		params := session.Params{
			UserID:     *user,
			Subject:    strings.TrimSpace(*subject),
			Chapters:   splitList(*chapters),
			Difficulty: diff,
			Count:      *count,
			TimeLimit:  time.Duration(*minutes) * time.Minute,
		}
		if *mixFlag != "" {
			m, err := parseMix(*mixFlag)
			if err != nil {
				fmt.Fprintln(stderr, err)
				return ExitUsage
			}
			params.Mix = &m
		}
		if !preset.Retry && params.Subject == "" {
			fmt.Fprintln(stderr, "run needs --subject")
			return ExitUsage
		}

		ctx := context.Background()
		tok := *token
		if tok == "" {
			tok, params.UserID, err = client.New(client.Config{BaseURL: *server, Timeout: 30 * time.Second}).Guest(ctx)
			if err != nil {
				fmt.Fprintf(stderr, "guest login failed: %v\n", err)
				return ExitError
			}
		}
		c := client.New(client.Config{BaseURL: *server, Token: tok, Timeout: 30 * time.Second})

		if preset.Retry {
			if params.UserID == "" {
				fmt.Fprintln(stderr, "the wrong-answers flow needs --user")
				return ExitUsage
			}
			params.RetryIDs, err = c.WrongIDs(ctx, params.UserID, params.Subject)
			if err != nil {
				fmt.Fprintf(stderr, "list wrong answers: %v\n", err)
				return ExitError
			}
		}

		t := &terminal{out: stdout}
		eng := session.New(preset, params, c, c, session.WithNotifier(t.notice))
		defer eng.Close()
		if err := eng.Load(ctx); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitError
		}
		if eng.Status() == session.StatusAbandoned {
			return ExitOK
		}
		return t.loop(ctx, eng, stdin)
	}
}

// terminal renders a session as plain text. Notices arrive from the countdown
// goroutine, so every write goes through mu.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) printf(format string, a ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, a...)
}

func (t *terminal) notice(n session.Notice) { t.printf("** %s\n", n) }

func (t *terminal) loop(ctx context.Context, eng *session.Engine, in io.Reader) int {
	lines := make(chan string)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-quit:
				return
			}
		}
	}()

	t.printf("%s\n\n", sessionHelp)
	t.render(eng)
	for {
		select {
		case <-eng.Done():
			return t.finish(eng)
		case line, ok := <-lines:
			if !ok {
				t.printf("input closed, answers were not submitted\n")
				return ExitError
			}
			if !t.handle(ctx, eng, strings.Fields(line)) {
				t.printf("left without submitting\n")
				return ExitError
			}
		}
	}
}

// handle applies one input line. It returns false when the user quits.
func (t *terminal) handle(ctx context.Context, eng *session.Engine, words []string) bool {
	if len(words) == 0 {
		t.render(eng)
		return true
	}
	switch words[0] {
	case "q", "quit":
		return false
	case "s", "submit":
		if !eng.Submit(ctx) {
			t.printf("already submitted\n")
		}
		return true
	case "n", "next":
		if !eng.Next() {
			t.printf("this is the last question\n")
		}
	case "p", "prev":
		if !eng.Prev() {
			t.printf("this is the first question\n")
		}
	case "g", "goto":
		n, err := strconv.Atoi(strings.Join(words[1:], ""))
		if err != nil || !eng.GoTo(n-1) {
			t.printf("no such question\n")
		}
	case "h", "help", "?":
		t.printf("%s\n", sessionHelp)
		return true
	default:
		if !t.choose(eng, words) {
			t.printf("unknown command %q, type ? for help\n", strings.Join(words, " "))
			return true
		}
	}
	t.render(eng)
	return true
}

// choose maps displayed option numbers to option indices and selects them.
func (t *terminal) choose(eng *session.Engine, words []string) bool {
	snap := eng.Snapshot()
	visible := snap.Question.VisibleOptions()
	for _, w := range words {
		n, err := strconv.Atoi(w)
		if err != nil {
			return false
		}
		if n < 1 || n > len(visible) {
			t.printf("no option %d\n", n)
			continue
		}
		if !eng.Select(visible[n-1].Index) {
			t.printf("option %d not taken (at most %d selections)\n", n, snap.Question.SelectionCap())
		}
	}
	if fb, ok := eng.Feedback(snap.Current); ok && snap.Mode == session.ModePractice {
		if fb.Correct {
			t.printf("correct\n")
		} else {
			t.printf("not quite, answer: %s\n", optionList(snap.Question, fb.Key))
		}
		if fb.Explanation != "" {
			t.printf("%s\n", fb.Explanation)
		}
	}
	return true
}

func (t *terminal) render(eng *session.Engine) {
	s := eng.Snapshot()
	if s.Status != session.StatusRunning {
		return
	}
	q := s.Question
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%d/%d] %s", s.Current+1, s.Total, q.Subject)
	if q.Chapter != "" {
		fmt.Fprintf(&b, " / %s", q.Chapter)
	}
	fmt.Fprintf(&b, "  answered %d/%d  time left %s\n", s.Answered, s.Total, formatClock(s.Remaining))
	fmt.Fprintf(&b, "%s\n", q.Prompt)
	if q.ImageURL != "" {
		fmt.Fprintf(&b, "(image: %s)\n", q.ImageURL)
	}
	for n, o := range q.VisibleOptions() {
		mark := " "
		if slices.Contains(s.Answer, o.Index) {
			mark = "*"
		}
		fmt.Fprintf(&b, " %s %d) %s\n", mark, n+1, o.Text)
	}
	if q.Multi() {
		fmt.Fprintf(&b, "(select up to %d)\n", q.SelectionCap())
	}
	t.printf("%s> ", b.String())
}

func (t *terminal) finish(eng *session.Engine) int {
	o, _ := eng.Outcome()
	if o.Status == session.StatusAbandoned {
		return ExitOK
	}
	t.printf("\nCorrect %d, wrong %d, not attempted %d of %d\n",
		o.Local.Correct, o.Local.Wrong, o.Local.NotAttempted, o.Local.Total())
	t.printf("Score %.2f%%  time %s\n", o.Percent(), formatClock(o.Duration))
	if o.Err != nil {
		t.printf("Result was not recorded: %v\n", o.Err)
		return ExitError
	}
	if o.Passed() {
		t.printf("Passed\n")
	} else {
		t.printf("Not passed\n")
	}
	for i, a := range o.Answers {
		fb, ok := eng.Feedback(i)
		if !ok || fb.Correct {
			continue
		}
		t.printf("  #%d %s: answered %s, key %s\n", i+1, a.QuestionID, indexList(a.SelectedAnswer), indexList(fb.Key))
	}
	return ExitOK
}

func optionList(q exam.Question, idx []int) string {
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		if q.ValidOption(i) {
			parts = append(parts, q.Options[i])
		}
	}
	return strings.Join(parts, ", ")
}

func indexList(idx []int) string {
	if len(idx) == 0 {
		return "-"
	}
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v + 1)
	}
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMix(s string) (session.Mix, error) {
	parts := splitList(s)
	if len(parts) != 3 {
		return session.Mix{}, fmt.Errorf("--mix wants easy,medium,hard, got %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return session.Mix{}, fmt.Errorf("--mix: %w", err)
		}
		v[i] = n
	}
	m := session.Mix{Easy: v[0], Medium: v[1], Hard: v[2]}
	return m, m.Validate()
}
