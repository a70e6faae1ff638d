package template

import (
	"fmt"
	"image"
	"strings"

	"treenav/internal/session"

	"gocv.io/x/gocv"
)

// DefaultThreshold is the minimum confidence for a single best match.
const DefaultThreshold = 0.7

// MatchResult describes the best location of a template inside a region.
type MatchResult struct {
	Template   string
	Confidence float64
	Location   image.Point // Top-left, relative to the searched region
	Width      int
	Height     int
}

// Center returns the middle pixel of the match, relative to the region.
func (m MatchResult) Center() image.Point {
	return image.Point{X: m.Location.X + m.Width/2, Y: m.Location.Y + m.Height/2}
}

// Offset returns a copy with Location translated by p.
func (m MatchResult) Offset(p image.Point) MatchResult {
	m.Location = m.Location.Add(p)
	return m
}

func (m MatchResult) String() string {
	return fmt.Sprintf("%s@(%d,%d) %.2f", m.Template, m.Location.X, m.Location.Y, m.Confidence)
}

// Matcher finds the best-scoring template in a grayscale region.
type Matcher struct {
	Store     *Store
	Threshold float64
	sess      *session.Session
}

// NewMatcher creates a Matcher with DefaultThreshold.
func NewMatcher(store *Store, sess *session.Session) *Matcher {
	return &Matcher{Store: store, Threshold: DefaultThreshold, sess: sess}
}

// Match returns the highest-confidence match among names whose score clears
// the matcher threshold. Templates are tried in order and a later template
// only replaces the best when strictly better, so ties go to the first.
func (m *Matcher) Match(region gocv.Mat, names []string) (MatchResult, bool) {
	return m.MatchWithThreshold(region, names, m.Threshold)
}

// MatchWithThreshold is Match with an explicit threshold.
func (m *Matcher) MatchWithThreshold(region gocv.Mat, names []string, threshold float64) (MatchResult, bool) {
	var best MatchResult
	found := false

	for _, name := range names {
		tmpl, err := m.Store.Get(name)
		if err != nil {
			continue
		}

		score, loc, ok := BestScore(region, tmpl.Mat)
		if !ok {
			m.sess.Debugf("Template '%s' (%dx%d) does not fit region %dx%d",
				name, tmpl.Width(), tmpl.Height(), region.Cols(), region.Rows())
			continue
		}

		if score >= threshold && (!found || score > best.Confidence) {
			best = MatchResult{
				Template:   name,
				Confidence: score,
				Location:   loc,
				Width:      tmpl.Width(),
				Height:     tmpl.Height(),
			}
			found = true
		}
	}

	if !found {
		m.sess.Debugf("None of the images [%s] was found with sufficient confidence", strings.Join(names, ", "))
	}
	return best, found
}

// BestScore returns the peak TM_CCOEFF_NORMED score of tmpl over region
// and its top-left location. ok is false when the template does not fit.
func BestScore(region, tmpl gocv.Mat) (float64, image.Point, bool) {
	scores, ok := Correlate(region, tmpl)
	if !ok {
		return 0, image.Point{}, false
	}
	defer scores.Close()

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
	return float64(maxVal), maxLoc, true
}

// Correlate computes the full normalized cross-correlation map of tmpl over
// region. The returned CV_32F Mat has (H-h+1)×(W-w+1) cells, one per
// top-left placement; the caller owns it. ok is false when the template is
// empty or larger than the region.
func Correlate(region, tmpl gocv.Mat) (gocv.Mat, bool) {
	if region.Empty() || tmpl.Empty() ||
		tmpl.Rows() > region.Rows() || tmpl.Cols() > region.Cols() {
		return gocv.NewMat(), false
	}

	mask := gocv.NewMat()
	defer mask.Close()

	scores := gocv.NewMat()
	gocv.MatchTemplate(region, tmpl, &scores, gocv.TmCcoeffNormed, mask)
	return scores, true
}
