// Package progress defines the sink long-running loads report to.
//
// A [Reporter] is told the goal once, advanced once per finished item and
// closed with Done. Implementations here cover the common cases: [Nop]
// discards everything, [Log] writes to a charmbracelet logger, [Tracker]
// records state for tests and polling UIs, and [Func] forwards to a
// callback.
package progress

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Reporter receives progress updates.
type Reporter interface {
	// Reset sets the goal and the current position.
	Reset(goal, current int)
	// Advance moves one item forward.
	Advance()
	// Report shows a status message.
	Report(msg string)
	// Done marks the operation finished.
	Done()
}

// Nop discards all updates.
type Nop struct{}

func (Nop) Reset(int, int) {}
func (Nop) Advance()       {}
func (Nop) Report(string)  {}
func (Nop) Done()          {}

// Log reports progress to a logger. Item updates are logged at debug level;
// completion is logged at info level with the elapsed time.
type Log struct {
	Logger *log.Logger
	Label  string

	mu      sync.Mutex
	goal    int
	current int
	start   time.Time
}

// NewLog creates a log reporter. A nil logger uses log.Default().
func NewLog(l *log.Logger, label string) *Log {
	if l == nil {
		l = log.Default()
	}
	return &Log{Logger: l, Label: label, start: time.Now()}
}

func (r *Log) Reset(goal, current int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goal, r.current = goal, current
	r.start = time.Now()
	r.Logger.Debug(r.Label, "goal", goal)
}

func (r *Log) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	r.Logger.Debug(r.Label, "item", r.current, "of", r.goal)
}

func (r *Log) Report(msg string) {
	r.Logger.Info(msg)
}

func (r *Log) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logger.Infof("%s: %d items (%s)", r.Label, r.current, time.Since(r.start).Round(time.Millisecond))
}

// Snapshot is the state of a Tracker at one point in time.
type Snapshot struct {
	Goal     int
	Current  int
	Messages []string
	Done     bool
}

// Fraction returns Current/Goal clamped to [0, 1]. An empty goal counts as
// complete once Done was called.
func (s Snapshot) Fraction() float64 {
	if s.Goal <= 0 {
		if s.Done {
			return 1
		}
		return 0
	}
	f := float64(s.Current) / float64(s.Goal)
	return min(max(f, 0), 1)
}

// Tracker records every update. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	state  Snapshot
	resets int
}

func (t *Tracker) Reset(goal, current int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Goal, t.state.Current = goal, current
	t.resets++
}

func (t *Tracker) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Current++
}

func (t *Tracker) Report(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Messages = append(t.state.Messages, msg)
}

func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Done = true
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.Messages = append([]string(nil), t.state.Messages...)
	return s
}

// Resets returns how often Reset was called.
func (t *Tracker) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}

// Func forwards every update as a Snapshot to a callback. The callback runs
// on the reporting goroutine.
type Func struct {
	tracker Tracker
	fn      func(Snapshot)
}

// NewFunc creates a reporter calling fn after every update.
func NewFunc(fn func(Snapshot)) *Func {
	return &Func{fn: fn}
}

func (f *Func) Reset(goal, current int) {
	f.tracker.Reset(goal, current)
	f.fn(f.tracker.Snapshot())
}

func (f *Func) Advance() {
	f.tracker.Advance()
	f.fn(f.tracker.Snapshot())
}

func (f *Func) Report(msg string) {
	f.tracker.Report(msg)
	f.fn(f.tracker.Snapshot())
}

func (f *Func) Done() {
	f.tracker.Done()
	f.fn(f.tracker.Snapshot())
}

var (
	_ Reporter = Nop{}
	_ Reporter = (*Log)(nil)
	_ Reporter = (*Tracker)(nil)
	_ Reporter = (*Func)(nil)
)
