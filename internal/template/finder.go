package template

import (
	"image"
	"strings"

	"treenav/internal/capture"
	"treenav/internal/session"
	"treenav/pkg/geometry"

	"gocv.io/x/gocv"
)

// Finder runs one-shot searches against a fresh screenshot and reports
// results in screen coordinates.
type Finder struct {
	Source  capture.Source
	Matcher *Matcher
	sess    *session.Session
}

// NewFinder creates a Finder.
func NewFinder(src capture.Source, m *Matcher, sess *session.Session) *Finder {
	return &Finder{Source: src, Matcher: m, sess: sess}
}

// Locate finds the best of names inside region. The result location is in
// absolute screen pixels.
func (f *Finder) Locate(names []string, region geometry.SearchRegion) (MatchResult, bool) {
	crop, bounds, _, err := capture.GrabGray(f.Source, region)
	if err != nil {
		f.sess.Errorf("Screen capture failed: %v", err)
		return MatchResult{}, false
	}
	defer crop.Close()

	res, ok := f.Matcher.Match(crop, names)
	if !ok {
		f.sess.Warnf("None of the images [%s] was found", strings.Join(names, ", "))
		return MatchResult{}, false
	}
	f.sess.Infof("Image '%s' found with confidence: %.2f", res.Template, res.Confidence)
	return res.Offset(image.Pt(bounds.X, bounds.Y)), true
}

// FindPosition returns the top-left of the best match as fractions of the
// screen size.
func (f *Finder) FindPosition(names []string, region geometry.SearchRegion) (float64, float64, bool) {
	crop, bounds, size, err := capture.GrabGray(f.Source, region)
	if err != nil {
		f.sess.Errorf("Screen capture failed: %v", err)
		return 0, 0, false
	}
	defer crop.Close()

	res, ok := f.Matcher.Match(crop, names)
	if !ok {
		f.sess.Warnf("None of the images [%s] was found", strings.Join(names, ", "))
		return 0, 0, false
	}
	x := float64(bounds.X+res.Location.X) / float64(size.X)
	y := float64(bounds.Y+res.Location.Y) / float64(size.Y)
	f.sess.Infof("Image '%s' found with confidence: %.2f", res.Template, res.Confidence)
	return x, y, true
}

// VerticalExtent returns the fractional y of the top of the first and the
// bottom of the last occurrence of name in region, counting every
// placement that clears the matcher threshold.
func (f *Finder) VerticalExtent(name string, region geometry.SearchRegion) (float64, float64, bool) {
	tmpl, err := f.Matcher.Store.Get(name)
	if err != nil {
		return 0, 0, false
	}

	crop, bounds, size, err := capture.GrabGray(f.Source, region)
	if err != nil {
		f.sess.Errorf("Screen capture failed: %v", err)
		return 0, 0, false
	}
	defer crop.Close()

	minY, maxY, ok := rowSpan(crop, tmpl.Mat, f.Matcher.Threshold)
	if !ok {
		f.sess.Warnf("Could not find Y coordinates of the %s image", name)
		return 0, 0, false
	}
	top := float64(bounds.Y+minY) / float64(size.Y)
	bottom := float64(bounds.Y+maxY+tmpl.Height()) / float64(size.Y)
	return top, bottom, true
}

// rowSpan returns the smallest and largest row of the correlation map whose
// score reaches threshold.
func rowSpan(region, tmpl gocv.Mat, threshold float64) (int, int, bool) {
	scores, ok := Correlate(region, tmpl)
	if !ok {
		return 0, 0, false
	}
	defer scores.Close()

	minY, maxY := -1, -1
	for y := 0; y < scores.Rows(); y++ {
		for x := 0; x < scores.Cols(); x++ {
			if float64(scores.GetFloatAt(y, x)) >= threshold {
				if minY < 0 {
					minY = y
				}
				maxY = y
				break
			}
		}
	}
	return minY, maxY, minY >= 0
}
