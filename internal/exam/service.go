package exam

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	results   []Result
	rnd       *rand.Rand
}

func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[string]Question{},
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *memoryStore) PutQuestions(_ context.Context, qs ...Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range qs {
		if err := Validate(q); err != nil {
			return err
		}
		m.questions[q.ID] = q
	}
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) Query(_ context.Context, f Filter) ([]Question, error) {
	m.mu.RLock()
	out := make([]Question, 0)
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			if q, ok := m.questions[id]; ok {
				out = append(out, q)
			}
		}
	} else {
		for _, q := range m.questions {
			if f.Matches(q) {
				out = append(out, q)
			}
		}
		sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	m.mu.RUnlock()

	if f.Shuffle {
		m.mu.Lock()
		m.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		m.mu.Unlock()
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memoryStore) AppendResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memoryStore) ListResults(_ context.Context, opts ResultListOpts) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Result, 0)
	// newest first
	for i := len(m.results) - 1; i >= 0; i-- {
		r := m.results[i]
		if opts.UserID != "" && r.UserID != opts.UserID {
			continue
		}
		if opts.Subject != "" && r.Subject != opts.Subject {
			continue
		}
		out = append(out, r)
	}
	return page(out, opts.Offset, opts.Limit), nil
}

// Matches applies the non-ID criteria of f to q.
func (f Filter) Matches(q Question) bool {
	if f.Subject != "" && q.Subject != f.Subject {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if len(f.Chapters) > 0 {
		for _, c := range f.Chapters {
			if q.Chapter == c {
				return true
			}
		}
		return false
	}
	return true
}

func less(a, b Question) bool {
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}
	if a.QuestionNumber != b.QuestionNumber {
		return a.QuestionNumber < b.QuestionNumber
	}
	return a.ID < b.ID
}

func page[T any](in []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return in[:0]
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
