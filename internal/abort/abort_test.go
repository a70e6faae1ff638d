package abort

import (
	"context"
	"testing"
	"time"

	gohook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
)

func TestMatchesEscape(t *testing.T) {
	assert.True(t, Matches(gohook.Event{Kind: gohook.KeyDown, Rawcode: 27}, "esc"))
	assert.True(t, Matches(gohook.Event{Kind: gohook.KeyDown, Keycode: gohook.Keycode["esc"]}, "Escape"))
	assert.False(t, Matches(gohook.Event{Kind: gohook.KeyDown, Rawcode: 81, Keycode: gohook.Keycode["q"]}, "esc"))
}

func TestMatchesChar(t *testing.T) {
	assert.True(t, Matches(gohook.Event{Kind: gohook.KeyDown, Keychar: 'q'}, "q"))
	assert.False(t, Matches(gohook.Event{Kind: gohook.KeyDown, Keychar: 'w'}, "q"))
}

func TestListenStopsOnKey(t *testing.T) {
	events := make(chan gohook.Event, 3)
	events <- gohook.Event{Kind: gohook.MouseMove}
	events <- gohook.Event{Kind: gohook.KeyUp, Rawcode: 27}
	events <- gohook.Event{Kind: gohook.KeyDown, Rawcode: 27}
	assert.True(t, listen(context.Background(), events, "esc"))
}

func TestListenEndsWithContext(t *testing.T) {
	events := make(chan gohook.Event)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.False(t, listen(ctx, events, "esc"))
}

func TestListenEndsWhenStreamCloses(t *testing.T) {
	events := make(chan gohook.Event)
	close(events)
	assert.False(t, listen(context.Background(), events, "esc"))
}
