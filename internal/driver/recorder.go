package driver

import (
	"fmt"
	"strings"
	"sync"
)

// Recorder is a Driver that records actions instead of performing them.
type Recorder struct {
	mu      sync.Mutex
	Width   int
	Height  int
	Actions []string

	// Fail makes every action whose record starts with the prefix return
	// an error.
	Fail string
}

// NewRecorder creates a Recorder for a w×h screen.
func NewRecorder(w, h int) *Recorder {
	return &Recorder{Width: w, Height: h}
}

func (r *Recorder) record(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := fmt.Sprintf(format, args...)
	r.Actions = append(r.Actions, a)
	if r.Fail != "" && strings.HasPrefix(a, r.Fail) {
		return fmt.Errorf("%s failed", a)
	}
	return nil
}

func (r *Recorder) Move(x, y int) error        { return r.record("move %d,%d", x, y) }
func (r *Recorder) Click(x, y int) error       { return r.record("click %d,%d", x, y) }
func (r *Recorder) DoubleClick(x, y int) error { return r.record("dblclick %d,%d", x, y) }
func (r *Recorder) RightClick(x, y int) error  { return r.record("rclick %d,%d", x, y) }
func (r *Recorder) TypeText(text string) error { return r.record("type %s", text) }

func (r *Recorder) Press(key string, modifiers ...string) error {
	if len(modifiers) == 0 {
		return r.record("key %s", key)
	}
	return r.record("key %s+%s", strings.Join(modifiers, "+"), key)
}

func (r *Recorder) ScreenSize() (int, int) { return r.Width, r.Height }

// Snapshot returns a copy of the recorded actions.
func (r *Recorder) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Actions))
	copy(out, r.Actions)
	return out
}
