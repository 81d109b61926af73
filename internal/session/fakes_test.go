package session_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/session"
)

/* ---------------- fakes for the engine's collaborators ---------------- */

type fakeProvider struct {
	mu      sync.Mutex
	bank    []exam.Question
	err     error
	queries []exam.Filter
}

func (p *fakeProvider) Questions(_ context.Context, f exam.Filter) ([]exam.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, f)
	if p.err != nil {
		return nil, p.err
	}
	var out []exam.Question
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			for _, q := range p.bank {
				if q.ID == id {
					out = append(out, q)
				}
			}
		}
	} else {
		for _, q := range p.bank {
			if f.Matches(q) {
				out = append(out, q)
			}
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type fakeSink struct {
	mu    sync.Mutex
	calls []exam.Submission
	err   error
	// gate, when set, blocks Submit until closed or the context ends.
	gate chan struct{}
}

func (s *fakeSink) Submit(ctx context.Context, sub exam.Submission) (exam.ScoredResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, sub)
	gate, err := s.gate, s.err
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return exam.ScoredResult{}, ctx.Err()
		}
	}
	if err != nil {
		return exam.ScoredResult{}, err
	}
	correct := 0
	for _, a := range sub.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	score := 100 * float64(correct) / float64(len(sub.Answers))
	return exam.ScoredResult{CorrectAnswers: correct, Score: score, Passed: score >= 60, Duration: sub.Duration}, nil
}

func (s *fakeSink) Calls() []exam.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]exam.Submission(nil), s.calls...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// manualTicker fires only when the test sends on ch.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type notices struct {
	mu   sync.Mutex
	list []session.Notice
}

func (n *notices) add(x session.Notice) {
	n.mu.Lock()
	n.list = append(n.list, x)
	n.mu.Unlock()
}

func (n *notices) kinds() []session.NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]session.NoticeKind, len(n.list))
	for i, x := range n.list {
		out[i] = x.Kind
	}
	return out
}

var errBoom = errors.New("boom")

func intp(v int) *int { return &v }

type harness struct {
	engine   *session.Engine
	provider *fakeProvider
	sink     *fakeSink
	clock    *fakeClock
	ticker   *manualTicker
	notices  *notices
}

func newHarness(cfg session.Config, p session.Params, bank ...exam.Question) *harness {
	h := &harness{
		provider: &fakeProvider{bank: bank},
		sink:     &fakeSink{},
		clock:    newFakeClock(),
		ticker:   &manualTicker{ch: make(chan time.Time)},
		notices:  &notices{},
	}
	h.engine = session.New(cfg, p, h.provider, h.sink,
		session.WithClock(h.clock.Now),
		session.WithTicker(func(time.Duration) session.Ticker { return h.ticker }),
		session.WithNotifier(h.notices.add),
	)
	return h
}

func testConfig(limit time.Duration) session.Config {
	return session.Config{Flow: session.FlowCustomTest, Mode: session.ModeTest, TimeLimit: limit}
}

func physics() []exam.Question {
	return []exam.Question{
		{ID: "q1", Subject: "physics", QuestionNumber: 1, Options: []string{"a", "b", "c"}, CorrectAnswer: intp(1), Difficulty: exam.Easy},
		{ID: "q2", Subject: "physics", QuestionNumber: 2, Options: []string{"a", "b", "c"}, CorrectAnswers: []int{0, 1}, MaxSelections: 2, Difficulty: exam.Hard},
	}
}
