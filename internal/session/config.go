package session

import (
	"fmt"
	"time"

	"github.com/mind-engage/examprep/internal/exam"
)

// Mode decides when correctness becomes visible to the test taker.
type Mode string

const (
	ModeTest     Mode = "test"     // blind until completed
	ModePractice Mode = "practice" // per-question feedback while running
)

// Flow names one of the page flows the engine serves.
type Flow string

const (
	FlowCustomTest   Flow = "custom-test"
	FlowDemo         Flow = "demo"
	FlowSubjectTest  Flow = "subject-test"
	FlowPractice     Flow = "practice"
	FlowWrongAnswers Flow = "wrong-answers"
)

// DefaultTimeLimit applies when neither the preset nor the params set one.
const DefaultTimeLimit = 30 * time.Minute

// Config is the fixed behaviour of a flow.
type Config struct {
	Flow         Flow
	Mode         Mode
	TimeLimit    time.Duration
	DefaultCount int
	// AutoSubmit finalizes as soon as the last question holds a complete answer.
	AutoSubmit bool
	// Retry sources questions from Params.RetryIDs instead of a subject query.
	Retry bool
}

var presets = map[Flow]Config{
	FlowCustomTest:   {Flow: FlowCustomTest, Mode: ModeTest, TimeLimit: 30 * time.Minute, DefaultCount: 20},
	FlowDemo:         {Flow: FlowDemo, Mode: ModeTest, TimeLimit: 10 * time.Minute, DefaultCount: 10},
	FlowSubjectTest:  {Flow: FlowSubjectTest, Mode: ModeTest, TimeLimit: 60 * time.Minute, DefaultCount: 50},
	FlowPractice:     {Flow: FlowPractice, Mode: ModePractice, TimeLimit: 30 * time.Minute, DefaultCount: 20, AutoSubmit: true},
	FlowWrongAnswers: {Flow: FlowWrongAnswers, Mode: ModeTest, TimeLimit: 30 * time.Minute, Retry: true},
}

// Preset returns the configuration of a named flow.
func Preset(f Flow) (Config, error) {
	c, ok := presets[f]
	if !ok {
		return Config{}, fmt.Errorf("unknown flow %q", f)
	}
	return c, nil
}

// Flows lists the known flow names.
func Flows() []Flow {
	return []Flow{FlowCustomTest, FlowDemo, FlowSubjectTest, FlowPractice, FlowWrongAnswers}
}

// Params is what a test taker chose for one session.
type Params struct {
	UserID     string
	Subject    string
	Chapters   []string
	Difficulty exam.Difficulty // single level; overrides Mix and interleaving
	Mix        *Mix
	Count      int           // 0 uses the preset's DefaultCount, which may be 0 for no limit
	TimeLimit  time.Duration // 0 uses the preset's
	RetryIDs   []string
}

func (c Config) timeLimit(p Params) time.Duration {
	switch {
	case p.TimeLimit > 0:
		return p.TimeLimit
	case c.TimeLimit > 0:
		return c.TimeLimit
	}
	return DefaultTimeLimit
}

func (c Config) count(p Params) int {
	if p.Count > 0 {
		return p.Count
	}
	return c.DefaultCount
}
