// Package abort cancels a run when the user presses the abort key.
package abort

import (
	"context"
	"strings"

	"treenav/internal/session"

	gohook "github.com/robotn/gohook"
)

// escRawcodes are the raw codes of Escape on Windows (VK_ESCAPE) and X11
// (XK_Escape).
var escRawcodes = map[uint16]bool{27: true, 0xff1b: true}

// Watch starts a global keyboard hook and calls cancel the first time key
// is pressed. The returned stop function ends the hook.
func Watch(ctx context.Context, key string, cancel context.CancelFunc, sess *session.Session) (stop func()) {
	events := gohook.Start()
	if events == nil {
		sess.Warnf("Keyboard hook unavailable; '%s' will not abort the run", key)
		return func() {}
	}
	sess.Infof("Press '%s' to abort", key)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				sess.Errorf("PANIC in abort hook: %v", r)
			}
		}()
		if listen(ctx, events, key) {
			sess.Warnf("Abort key '%s' pressed, stopping", key)
			cancel()
		}
	}()

	return func() {
		gohook.End()
		<-done
	}
}

// listen returns true when key is pressed before ctx ends or the event
// stream closes.
func listen(ctx context.Context, events <-chan gohook.Event, key string) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Kind == gohook.KeyDown && Matches(ev, key) {
				return true
			}
		}
	}
}

// Matches reports whether ev is a press of the named key.
func Matches(ev gohook.Event, key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "esc" || key == "escape" {
		if escRawcodes[ev.Rawcode] {
			return true
		}
		key = "esc"
	}
	if code, ok := gohook.Keycode[key]; ok && ev.Keycode == code {
		return true
	}
	if len(key) == 1 && ev.Keychar == rune(key[0]) {
		return true
	}
	return false
}
