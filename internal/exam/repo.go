package exam

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Filter selects questions from the bank. IDs, when set, replaces every other criterion
// except Limit and Shuffle.
type Filter struct {
	Subject    string
	Chapters   []string
	Difficulty Difficulty
	IDs        []string
	Limit      int
	Shuffle    bool
}

type ResultListOpts struct {
	UserID  string
	Subject string
	Limit   int
	Offset  int
}

// Store holds the question bank and the append-only results log.
type Store interface {
	PutQuestions(ctx context.Context, qs ...Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	Query(ctx context.Context, f Filter) ([]Question, error)

	AppendResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, opts ResultListOpts) ([]Result, error)
}
