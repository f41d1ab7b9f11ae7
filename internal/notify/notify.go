// Package notify implements the single notice banner shown above the car list.
//
// The banner is a small state machine:
//
//	Hidden ──ShowError──▶ ShowingError   ──(5s)──▶ Hidden
//	Hidden ──ShowSuccess▶ ShowingSuccess ──(3s)──▶ Hidden
//
// Any Show call supersedes whatever is on screen. Each notice carries a
// generation number and its hide timer only fires for its own generation, so a
// timer left over from an older notice can never hide a newer one.
package notify

import (
	"sync"
	"time"
)

// State is the banner's visibility.
type State int

const (
	Hidden State = iota
	ShowingError
	ShowingSuccess
)

func (s State) String() string {
	switch s {
	case ShowingError:
		return "error"
	case ShowingSuccess:
		return "success"
	default:
		return "hidden"
	}
}

// Default display durations.
const (
	ErrorDuration   = 5 * time.Second
	SuccessDuration = 3 * time.Second
)

// Notice is a point-in-time copy of the banner.
type Notice struct {
	State   State  `json:"-"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Visible reports whether the banner is on screen.
func (n Notice) Visible() bool { return n.State != Hidden }

// Timer is the subset of *time.Timer the notifier needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it; tests substitute
// a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAfterFunc replaces the timer source.
func WithAfterFunc(af AfterFunc) Option {
	return func(n *Notifier) { n.afterFunc = af }
}

// WithDurations overrides how long errors and successes stay visible.
func WithDurations(errDur, okDur time.Duration) Option {
	return func(n *Notifier) {
		n.errorDuration = errDur
		n.successDuration = okDur
	}
}

// Notifier is safe for concurrent use.
type Notifier struct {
	mu         sync.Mutex
	notice     Notice
	generation uint64
	timer      Timer
	listeners  []func(Notice)

	afterFunc       AfterFunc
	errorDuration   time.Duration
	successDuration time.Duration
}

// New returns a hidden notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		afterFunc:       realAfterFunc,
		errorDuration:   ErrorDuration,
		successDuration: SuccessDuration,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ShowError displays msg as an error for the error duration.
func (n *Notifier) ShowError(msg string) {
	n.show(ShowingError, msg, n.errorDuration)
}

// ShowSuccess displays msg as a success for the success duration.
func (n *Notifier) ShowSuccess(msg string) {
	n.show(ShowingSuccess, msg, n.successDuration)
}

// HideError hides the banner if it is currently showing an error. A success
// notice is left alone.
func (n *Notifier) HideError() {
	n.mu.Lock()
	if n.notice.State != ShowingError {
		n.mu.Unlock()
		return
	}
	n.generation++
	n.stopTimerLocked()
	n.notice = Notice{State: Hidden, Kind: Hidden.String()}
	snap, listeners := n.notice, n.listenersLocked()
	n.mu.Unlock()
	notifyAll(listeners, snap)
}

// Hide clears the banner whatever it shows.
func (n *Notifier) Hide() {
	n.mu.Lock()
	if n.notice.State == Hidden {
		n.mu.Unlock()
		return
	}
	n.generation++
	n.stopTimerLocked()
	n.notice = Notice{State: Hidden, Kind: Hidden.String()}
	snap, listeners := n.notice, n.listenersLocked()
	n.mu.Unlock()
	notifyAll(listeners, snap)
}

// Current returns the notice on screen.
func (n *Notifier) Current() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notice.Kind == "" {
		return Notice{State: Hidden, Kind: Hidden.String()}
	}
	return n.notice
}

// OnChange registers fn to be called, outside the lock, after every state
// change including timed hides.
func (n *Notifier) OnChange(fn func(Notice)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Stop cancels a pending hide timer. The current notice stays as it is.
func (n *Notifier) Stop() {
	n.mu.Lock()
	n.stopTimerLocked()
	n.mu.Unlock()
}

func (n *Notifier) show(state State, msg string, d time.Duration) {
	n.mu.Lock()
	n.generation++
	gen := n.generation
	n.stopTimerLocked()
	n.notice = Notice{State: state, Kind: state.String(), Message: msg}
	n.timer = n.afterFunc(d, func() { n.expire(gen) })
	snap, listeners := n.notice, n.listenersLocked()
	n.mu.Unlock()
	notifyAll(listeners, snap)
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.generation {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.notice = Notice{State: Hidden, Kind: Hidden.String()}
	snap, listeners := n.notice, n.listenersLocked()
	n.mu.Unlock()
	notifyAll(listeners, snap)
}

func (n *Notifier) stopTimerLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) listenersLocked() []func(Notice) {
	if len(n.listeners) == 0 {
		return nil
	}
	out := make([]func(Notice), len(n.listeners))
	copy(out, n.listeners)
	return out
}

func notifyAll(listeners []func(Notice), notice Notice) {
	for _, fn := range listeners {
		fn(notice)
	}
}
