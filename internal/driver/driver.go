// Package driver sends mouse and keyboard input to the desktop.
package driver

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-vgo/robotgo"
)

// Driver is the input surface the navigator needs.
type Driver interface {
	Move(x, y int) error
	Click(x, y int) error
	DoubleClick(x, y int) error
	RightClick(x, y int) error
	TypeText(text string) error
	Press(key string, modifiers ...string) error
	ScreenSize() (int, int)
}

// Robot drives the real desktop through robotgo.
type Robot struct {
	// Pause is slept after every action so the UI can catch up.
	Pause time.Duration
}

// NewRobot creates a Robot with a short settle pause.
func NewRobot() *Robot {
	return &Robot{Pause: 300 * time.Millisecond}
}

func (r *Robot) settle() {
	if r.Pause > 0 {
		robotgo.MilliSleep(int(r.Pause / time.Millisecond))
	}
}

// Move puts the pointer at (x, y) without clicking.
func (r *Robot) Move(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// Click moves to (x, y) and left-clicks.
func (r *Robot) Click(x, y int) error {
	robotgo.MoveClick(x, y, "left", false)
	r.settle()
	return nil
}

// DoubleClick moves to (x, y) and double-clicks.
func (r *Robot) DoubleClick(x, y int) error {
	robotgo.MoveClick(x, y, "left", true)
	r.settle()
	return nil
}

// RightClick moves to (x, y) and right-clicks.
func (r *Robot) RightClick(x, y int) error {
	robotgo.MoveClick(x, y, "right", false)
	r.settle()
	return nil
}

// TypeText pastes text into the focused field. Pasting avoids keyboard
// layout problems with robotgo.TypeStr.
func (r *Robot) TypeText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	if err := robotgo.KeyTap("v", "ctrl"); err != nil {
		return fmt.Errorf("failed to paste: %w", err)
	}
	r.settle()
	return nil
}

// Press taps key with optional modifiers ("shift", "ctrl", "alt").
func (r *Robot) Press(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	r.settle()
	return nil
}

// ScreenSize returns the primary screen size in pixels.
func (r *Robot) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
