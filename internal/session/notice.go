package session

import (
	"context"

	"github.com/mind-engage/examprep/internal/exam"
)

// Sink scores a finished session.
type Sink interface {
	Submit(ctx context.Context, s exam.Submission) (exam.ScoredResult, error)
}

type NoticeKind string

const (
	NoticeLoadFailed   NoticeKind = "load-failed"
	NoticeEmpty        NoticeKind = "empty"
	NoticeTimeUp       NoticeKind = "time-up"
	NoticeSubmitted    NoticeKind = "submitted"
	NoticeSubmitFailed NoticeKind = "submit-failed"
)

// Notice is a user-facing message raised by the engine. Adapters decide how to
// show it.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

func (n Notice) String() string {
	if n.Err != nil {
		return n.Message + ": " + n.Err.Error()
	}
	return n.Message
}

// Notifier receives notices. It is called without the engine lock held.
type Notifier func(Notice)
