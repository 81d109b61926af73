package session

type Status string

const (
	StatusLoading    Status = "loading"
	StatusRunning    Status = "running"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusAbandoned }

type event int

const (
	evLoaded   event = iota // non-empty question set arrived
	evEmpty                 // provider returned nothing
	evFinalize              // manual submit, time up or auto-submit
	evSettled               // sink answered, successfully or not
)

// transition is the only place status changes are decided. ok is false when ev is
// not accepted in from, and the caller must then leave the session untouched.
func transition(from Status, ev event) (to Status, ok bool) {
	switch {
	case from == StatusLoading && ev == evLoaded:
		return StatusRunning, true
	case from == StatusLoading && ev == evEmpty:
		return StatusAbandoned, true
	case from == StatusRunning && ev == evFinalize:
		return StatusSubmitting, true
	case from == StatusSubmitting && ev == evSettled:
		return StatusCompleted, true
	}
	return from, false
}
