package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
)

var (
	ErrNotLoading = errors.New("session is not loading")
	ErrClosed     = errors.New("session closed")
)

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithTicker replaces the one-second wall-clock ticker.
func WithTicker(f func(time.Duration) Ticker) Option { return func(e *Engine) { e.newTicker = f } }

func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notify = n } }

func WithID(id string) Option { return func(e *Engine) { e.id = id } }

// Engine runs one timed session. All methods are safe for concurrent use; the
// mutex serialises the countdown goroutine with caller operations.
type Engine struct {
	id       string
	cfg      Config
	params   Params
	provider Provider
	sink     Sink

	now       func() time.Time
	newTicker func(time.Duration) Ticker
	notify    Notifier

	// ctx is cancelled by Close and bounds every provider and sink call.
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	status    Status
	closed    bool
	fetching  bool
	questions []exam.Question
	answers   [][]int
	current   int
	remaining int
	startedAt time.Time
	enteredAt time.Time
	spent     []time.Duration
	ticker    Ticker
	stopTimer chan struct{}

	// set once finalize begins
	duration  int
	records   []exam.AnswerRecord
	result    *exam.ScoredResult
	submitErr error
}

func New(cfg Config, p Params, prov Provider, sink Sink, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		id:        uuid.NewString(),
		cfg:       cfg,
		params:    p,
		provider:  prov,
		sink:      sink,
		now:       time.Now,
		newTicker: newStdTicker,
		notify:    func(Notice) {},
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusLoading,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) ID() string { return e.id }

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Done is closed once the session is completed or abandoned.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Load fetches the question set and starts the countdown. A failed load leaves
// the session loading so it can be retried.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.status != StatusLoading || e.fetching || e.closed {
		e.mu.Unlock()
		return ErrNotLoading
	}
	e.fetching = true
	e.mu.Unlock()

	ctx, cancel := e.requestCtx(ctx)
	qs, err := loadQuestions(ctx, e.provider, e.cfg, e.params)
	cancel()

	e.mu.Lock()
	e.fetching = false
	if err == nil && e.closed {
		err = ErrClosed
	}
	if err != nil {
		e.mu.Unlock()
		e.notify(Notice{Kind: NoticeLoadFailed, Message: "could not load questions", Err: err})
		return fmt.Errorf("load questions: %w", err)
	}
	if len(qs) == 0 {
		e.status, _ = transition(e.status, evEmpty)
		close(e.done)
		e.mu.Unlock()
		e.notify(Notice{Kind: NoticeEmpty, Message: "no questions match this selection"})
		return nil
	}

	e.questions = qs
	e.answers = make([][]int, len(qs))
	e.spent = make([]time.Duration, len(qs))
	e.current = 0
	e.remaining = max(1, int(e.cfg.timeLimit(e.params)/time.Second))
	e.startedAt = e.now()
	e.enteredAt = e.startedAt
	e.status, _ = transition(e.status, evLoaded)
	e.startTimerLocked()
	e.mu.Unlock()
	return nil
}

// --- countdown ---

func (e *Engine) startTimerLocked() {
	t := e.newTicker(time.Second)
	stop := make(chan struct{})
	e.ticker, e.stopTimer = t, stop
	go e.runTimer(t, stop)
}

func (e *Engine) runTimer(t Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-e.ctx.Done():
			return
		case <-t.C():
			e.Tick()
		}
	}
}

func (e *Engine) stopTimerLocked() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.stopTimer)
	e.ticker, e.stopTimer = nil, nil
}

// Tick takes one second off the countdown and finalizes when it reaches zero.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.status != StatusRunning || e.closed {
		e.mu.Unlock()
		return
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining > 0 {
		e.mu.Unlock()
		return
	}
	sub, ok := e.beginFinalizeLocked()
	e.mu.Unlock()
	if !ok {
		return
	}
	e.notify(Notice{Kind: NoticeTimeUp, Message: "time is up, submitting your answers"})
	e.deliver(e.ctx, sub)
}

// --- answering ---

// SelectSingle makes i the only selection on the current question.
func (e *Engine) SelectSingle(i int) bool { return e.selectAt(i, false) }

// ToggleMulti adds or removes i on the current question. Adding beyond the
// question's selection cap is refused.
func (e *Engine) ToggleMulti(i int) bool { return e.selectAt(i, true) }

// Select dispatches to ToggleMulti or SelectSingle by the current question's kind.
func (e *Engine) Select(i int) bool {
	e.mu.Lock()
	multi := e.status == StatusRunning && e.questions[e.current].Multi()
	e.mu.Unlock()
	return e.selectAt(i, multi)
}

func (e *Engine) selectAt(i int, toggle bool) bool {
	e.mu.Lock()
	if e.status != StatusRunning || e.closed {
		e.mu.Unlock()
		return false
	}
	q := e.questions[e.current]
	if !q.ValidOption(i) {
		e.mu.Unlock()
		return false
	}
	slot := e.answers[e.current]
	switch pos := slices.Index(slot, i); {
	case !toggle:
		slot = []int{i}
	case pos >= 0:
		slot = slices.Delete(slices.Clone(slot), pos, pos+1)
	case len(slot) < q.SelectionCap():
		slot = append(slices.Clone(slot), i)
	default:
		e.mu.Unlock()
		return false
	}
	if len(slot) == 0 {
		slot = nil
	}
	e.answers[e.current] = slot

	var (
		sub  exam.Submission
		auto bool
	)
	if e.cfg.AutoSubmit && e.current == len(e.questions)-1 && len(slot) == q.SelectionCap() {
		sub, auto = e.beginFinalizeLocked()
	}
	e.mu.Unlock()
	if auto {
		go e.deliver(e.ctx, sub)
	}
	return true
}

// --- navigation ---

func (e *Engine) Next() bool { return e.move(func(cur int) int { return cur + 1 }) }
func (e *Engine) Prev() bool { return e.move(func(cur int) int { return cur - 1 }) }

// GoTo makes question i current. Out-of-range indices are refused.
func (e *Engine) GoTo(i int) bool { return e.move(func(int) int { return i }) }

func (e *Engine) move(to func(cur int) int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusRunning || e.closed {
		return false
	}
	i := to(e.current)
	if i < 0 || i >= len(e.questions) {
		return false
	}
	if i != e.current {
		e.flushDwellLocked(e.now())
		e.current = i
	}
	return true
}

func (e *Engine) flushDwellLocked(now time.Time) {
	if d := now.Sub(e.enteredAt); d > 0 {
		e.spent[e.current] += d
	}
	e.enteredAt = now
}

// --- finalize ---

// Submit finalizes the session and waits for the sink. It returns false when the
// session was not running, including when the countdown got there first.
func (e *Engine) Submit(ctx context.Context) bool {
	e.mu.Lock()
	sub, ok := e.beginFinalizeLocked()
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.deliver(ctx, sub)
	return true
}

// beginFinalizeLocked moves running to submitting and freezes the payload. Only
// the first caller gets ok.
func (e *Engine) beginFinalizeLocked() (exam.Submission, bool) {
	if e.closed {
		return exam.Submission{}, false
	}
	next, ok := transition(e.status, evFinalize)
	if !ok {
		return exam.Submission{}, false
	}
	e.status = next
	e.stopTimerLocked()

	now := e.now()
	e.flushDwellLocked(now)
	e.duration = max(0, int(now.Sub(e.startedAt)/time.Second))
	e.records = make([]exam.AnswerRecord, len(e.questions))
	for i, q := range e.questions {
		sel := e.answers[i]
		e.records[i] = exam.AnswerRecord{
			QuestionID:     q.ID,
			Subject:        q.Subject,
			QuestionNumber: q.QuestionNumber,
			SelectedAnswer: exam.Selection(grading.Sorted(sel)),
			IsCorrect:      grading.IsCorrect(q, sel),
			TimeSpent:      int(e.spent[i] / time.Second),
		}
	}
	subject := e.params.Subject
	if subject == "" {
		subject = e.questions[0].Subject
	}
	return exam.Submission{
		UserID:   e.params.UserID,
		Subject:  subject,
		Answers:  slices.Clone(e.records),
		Duration: e.duration,
	}, true
}

func (e *Engine) deliver(parent context.Context, sub exam.Submission) {
	ctx, cancel := e.requestCtx(parent)
	res, err := e.sink.Submit(ctx, sub)
	cancel()

	e.mu.Lock()
	if err != nil {
		e.submitErr = err
	} else {
		e.result = &res
	}
	e.status, _ = transition(e.status, evSettled)
	close(e.done)
	e.mu.Unlock()

	if err != nil {
		e.notify(Notice{Kind: NoticeSubmitFailed, Message: "could not submit your answers", Err: err})
		return
	}
	e.notify(Notice{Kind: NoticeSubmitted, Message: fmt.Sprintf("submitted: %.1f%%", res.Percent())})
}

// requestCtx derives a context that also ends when the engine is closed.
func (e *Engine) requestCtx(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(e.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close stops the countdown and cancels any in-flight provider or sink call.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.stopTimerLocked()
	e.mu.Unlock()
	e.cancel()
}
