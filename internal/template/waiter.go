package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"treenav/internal/capture"
	"treenav/internal/session"
	"treenav/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	// ErrTimeout is returned when none of the templates appeared in time.
	ErrTimeout = errors.New("timed out waiting for image")

	// ErrInterrupted is returned when an interruption template appeared first.
	ErrInterrupted = errors.New("interruption image found")

	// ErrNoTemplates is returned when none of the requested templates could be loaded.
	ErrNoTemplates = errors.New("none of the images could be loaded")
)

// DefaultInterruptThreshold is the confidence for interruption templates.
const DefaultInterruptThreshold = 0.8

// WaitSpec describes one polling wait.
type WaitSpec struct {
	Templates []string
	Region    geometry.SearchRegion
	Timeout   time.Duration

	// Interrupt templates abort the wait when seen. InterruptRegion
	// defaults to Region.
	Interrupt       []string
	InterruptRegion *geometry.SearchRegion
}

// Waiter polls the screen until a template appears.
type Waiter struct {
	Source             capture.Source
	Matcher            *Matcher
	Interval           time.Duration // Poll period
	Settle             time.Duration // Pause after a successful match
	InterruptThreshold float64
	sess               *session.Session
}

// NewWaiter creates a Waiter with a one second poll period.
func NewWaiter(src capture.Source, m *Matcher, sess *session.Session) *Waiter {
	return &Waiter{
		Source:             src,
		Matcher:            m,
		Interval:           time.Second,
		Settle:             time.Second,
		InterruptThreshold: DefaultInterruptThreshold,
		sess:               sess,
	}
}

// WaitFor blocks until one of spec.Templates is visible in spec.Region,
// an interruption template is visible, the timeout expires or ctx is done.
func (w *Waiter) WaitFor(ctx context.Context, spec WaitSpec) (MatchResult, error) {
	names := w.loadable(spec.Templates)
	if len(names) == 0 {
		w.sess.Errorf("None of the images [%s] could be loaded", strings.Join(spec.Templates, ", "))
		return MatchResult{}, ErrNoTemplates
	}
	interrupts := w.loadable(spec.Interrupt)
	interruptRegion := spec.Region
	if spec.InterruptRegion != nil {
		interruptRegion = *spec.InterruptRegion
	}

	deadline := time.Now().Add(spec.Timeout)
	for {
		if err := ctx.Err(); err != nil {
			return MatchResult{}, err
		}

		res, err := w.poll(names, spec.Region, interrupts, interruptRegion)
		switch {
		case err == nil:
			w.sess.Infof("Image '%s' found with confidence: %.2f", res.Template, res.Confidence)
			if err := sleep(ctx, w.Settle); err != nil {
				return res, err
			}
			return res, nil
		case errors.Is(err, ErrInterrupted):
			return MatchResult{}, err
		case !errors.Is(err, errNotYet):
			w.sess.Warnf("Screen poll failed: %v", err)
		}

		if !time.Now().Before(deadline) {
			break
		}
		if err := sleep(ctx, w.Interval); err != nil {
			return MatchResult{}, err
		}
	}

	w.sess.Warnf("Timeout of %s: None of the images [%s] was found", spec.Timeout, strings.Join(names, ", "))
	return MatchResult{}, ErrTimeout
}

var errNotYet = errors.New("not yet visible")

func (w *Waiter) poll(names []string, region geometry.SearchRegion, interrupts []string, interruptRegion geometry.SearchRegion) (MatchResult, error) {
	screen, err := w.Source.Grab()
	if err != nil {
		return MatchResult{}, err
	}
	defer screen.Close()

	if len(interrupts) > 0 {
		crop, err := grayCrop(screen, interruptRegion)
		if err != nil {
			return MatchResult{}, err
		}
		res, ok := w.Matcher.MatchWithThreshold(crop, interrupts, w.InterruptThreshold)
		crop.Close()
		if ok {
			w.sess.Warnf("Interruption image '%s' found", res.Template)
			return res, ErrInterrupted
		}
	}

	crop, err := grayCrop(screen, region)
	if err != nil {
		return MatchResult{}, err
	}
	defer crop.Close()
	w.saveDebugRegion(crop, names)

	// Any template clearing the threshold ends the wait; the first in order wins.
	for _, name := range names {
		if res, ok := w.Matcher.Match(crop, []string{name}); ok {
			return res, nil
		}
	}
	return MatchResult{}, errNotYet
}

func (w *Waiter) saveDebugRegion(crop gocv.Mat, names []string) {
	for _, name := range names {
		if path := w.sess.DebugPath("region_" + name); path != "" {
			gocv.IMWrite(ensurePNG(path), crop)
		}
	}
}

func (w *Waiter) loadable(names []string) []string {
	var out []string
	for _, name := range names {
		if _, err := w.Matcher.Store.Get(name); err == nil {
			out = append(out, name)
		}
	}
	return out
}

func grayCrop(screen gocv.Mat, region geometry.SearchRegion) (gocv.Mat, error) {
	if region.Rect(screen.Cols(), screen.Rows()).Empty() {
		return gocv.NewMat(), fmt.Errorf("search region %s is empty", region)
	}
	_, view := capture.Crop(screen, region)
	defer view.Close()
	return capture.Gray(view), nil
}

func ensurePNG(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".bmp") {
		return path
	}
	return path + ".png"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
