package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mind-engage/examprep/internal/exam"
)

// Provider answers question queries; see internal/client for the HTTP one.
type Provider interface {
	Questions(ctx context.Context, f exam.Filter) ([]exam.Question, error)
}

var ErrNoSubject = errors.New("subject is required")

// loadQuestions resolves cfg and p into provider queries and returns the session's
// question set, deduplicated by id.
func loadQuestions(ctx context.Context, prov Provider, cfg Config, p Params) ([]exam.Question, error) {
	count := cfg.count(p)
	if cfg.Retry {
		if len(p.RetryIDs) == 0 {
			return nil, nil
		}
		qs, err := prov.Questions(ctx, exam.Filter{IDs: p.RetryIDs, Limit: count, Shuffle: true})
		return dedupe(qs), err
	}
	if p.Subject == "" {
		return nil, ErrNoSubject
	}
	base := exam.Filter{Subject: p.Subject, Chapters: p.Chapters, Shuffle: true}

	switch {
	case p.Difficulty != "":
		f := base
		f.Difficulty = p.Difficulty
		f.Limit = count
		qs, err := prov.Questions(ctx, f)
		return dedupe(qs), err

	case p.Mix != nil:
		if err := p.Mix.Validate(); err != nil {
			return nil, err
		}
		if count <= 0 {
			return nil, errors.New("a difficulty mix needs a question count")
		}
		counts := p.Mix.Counts(count)
		b, err := fetchBuckets(ctx, prov, base, func(d exam.Difficulty) int {
			if counts[d] == 0 {
				return -1
			}
			return counts[d]
		})
		if err != nil {
			return nil, err
		}
		return dedupe(Interleave(b[exam.Hard], b[exam.Medium], b[exam.Easy])), nil

	case len(p.Chapters) > 0:
		b, err := fetchBuckets(ctx, prov, base, func(exam.Difficulty) int { return count })
		if err != nil {
			return nil, err
		}
		return truncate(dedupe(Interleave(b[exam.Hard], b[exam.Medium], b[exam.Easy])), count), nil
	}

	f := base
	f.Limit = count
	qs, err := prov.Questions(ctx, f)
	return dedupe(qs), err
}

// fetchBuckets queries each difficulty separately. limitFor returns the bucket's
// limit, 0 for unbounded or a negative value to skip the bucket.
func fetchBuckets(ctx context.Context, prov Provider, base exam.Filter, limitFor func(exam.Difficulty) int) (map[exam.Difficulty][]exam.Question, error) {
	out := make(map[exam.Difficulty][]exam.Question, 3)
	for _, d := range []exam.Difficulty{exam.Hard, exam.Medium, exam.Easy} {
		f := base
		f.Difficulty = d
		f.Limit = limitFor(d)
		if f.Limit < 0 {
			continue
		}
		qs, err := prov.Questions(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("fetch %s questions: %w", d, err)
		}
		out[d] = qs
	}
	return out, nil
}

func dedupe(qs []exam.Question) []exam.Question {
	seen := make(map[string]bool, len(qs))
	out := qs[:0:0]
	for _, q := range qs {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}

func truncate(qs []exam.Question, n int) []exam.Question {
	if n > 0 && len(qs) > n {
		return qs[:n]
	}
	return qs
}
