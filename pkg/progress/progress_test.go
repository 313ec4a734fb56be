package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestTracker(t *testing.T) {
	var tr Tracker
	tr.Reset(3, 0)
	tr.Advance()
	tr.Advance()
	tr.Report("halfway")

	s := tr.Snapshot()
	if s.Goal != 3 || s.Current != 2 || s.Done {
		t.Errorf("snapshot = %+v", s)
	}
	if len(s.Messages) != 1 || s.Messages[0] != "halfway" {
		t.Errorf("messages = %v", s.Messages)
	}

	tr.Advance()
	tr.Done()
	if got := tr.Snapshot(); !got.Done || got.Fraction() != 1 {
		t.Errorf("final snapshot = %+v", got)
	}
	if tr.Resets() != 1 {
		t.Errorf("Resets() = %d, want 1", tr.Resets())
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name string
		s    Snapshot
		want float64
	}{
		{"empty", Snapshot{}, 0},
		{"empty done", Snapshot{Done: true}, 1},
		{"half", Snapshot{Goal: 4, Current: 2}, 0.5},
		{"overshoot", Snapshot{Goal: 2, Current: 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Fraction(); got != tt.want {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFunc(t *testing.T) {
	var seen []Snapshot
	f := NewFunc(func(s Snapshot) { seen = append(seen, s) })
	f.Reset(2, 0)
	f.Advance()
	f.Done()

	if len(seen) != 3 {
		t.Fatalf("callback ran %d times, want 3", len(seen))
	}
	if last := seen[2]; !last.Done || last.Current != 1 {
		t.Errorf("last snapshot = %+v", last)
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := NewLog(l, "loading")

	r.Reset(2, 0)
	r.Advance()
	r.Advance()
	r.Done()

	out := buf.String()
	if !strings.Contains(out, "loading: 2 items") {
		t.Errorf("log output missing summary:\n%s", out)
	}
}
