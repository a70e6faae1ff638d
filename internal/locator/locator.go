// Package locator finds every occurrence of a tree icon in a screen region.
package locator

import (
	"fmt"
	"image"
	"sort"

	"treenav/internal/template"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Params controls icon detection.
type Params struct {
	Threshold   float64 // Minimum TM_CCOEFF_NORMED score for a candidate
	KernelSize  int     // Side of the dilation kernel used for peak detection
	MinSpacing  float64 // Minimum horizontal gap between kept icons, in icon widths
	RowFraction float64 // Row tolerance, in icon heights
}

// DefaultParams returns the detection parameters used for tree views.
func DefaultParams() Params {
	return Params{
		Threshold:   0.65,
		KernelSize:  5,
		MinSpacing:  0.8,
		RowFraction: 0.5,
	}
}

// Stats summarizes the scores of the kept icons.
type Stats struct {
	Candidates int
	Count      int
	Mean       float64
	StdDev     float64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d icons (%d candidates), score %.3f±%.3f", s.Count, s.Candidates, s.Mean, s.StdDev)
}

type candidate struct {
	pt    image.Point
	score float64
}

type row struct {
	y      int
	points []candidate
}

// LocateAll returns the top-left of every icon occurrence in region, in
// region coordinates. Points come out row by row, in the order rows were
// opened by descending score, and left to right within a row.
func LocateAll(region gocv.Mat, icon *template.Template, params Params) ([]image.Point, Stats) {
	if icon == nil {
		return nil, Stats{}
	}
	scores, ok := template.Correlate(region, icon.Mat)
	if !ok {
		return nil, Stats{}
	}
	defer scores.Close()

	cands := findPeaks(scores, params)
	stats := Stats{Candidates: len(cands)}
	if len(cands) == 0 {
		return nil, stats
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	rows := groupRows(cands, int(float64(icon.Height())*params.RowFraction))

	minGap := params.MinSpacing * float64(icon.Width())
	var points []image.Point
	var kept []float64
	for _, r := range rows {
		sort.SliceStable(r.points, func(i, j int) bool { return r.points[i].pt.X < r.points[j].pt.X })
		prev := -100
		for _, c := range r.points {
			if float64(c.pt.X-prev) >= minGap {
				points = append(points, c.pt)
				kept = append(kept, c.score)
				prev = c.pt.X
			}
		}
	}

	stats.Count = len(points)
	switch len(kept) {
	case 0:
	case 1:
		stats.Mean = kept[0]
	default:
		stats.Mean, stats.StdDev = stat.MeanStdDev(kept, nil)
	}
	return points, stats
}

// findPeaks keeps correlation cells above threshold that equal the dilated
// map, i.e. local maxima within the kernel neighborhood.
func findPeaks(scores gocv.Mat, params Params) []candidate {
	k := params.KernelSize
	if k < 1 {
		k = 1
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(scores, &dilated, kernel)

	thresh := float32(params.Threshold)
	var out []candidate
	for y := 0; y < scores.Rows(); y++ {
		for x := 0; x < scores.Cols(); x++ {
			val := scores.GetFloatAt(y, x)
			if val < thresh || val < dilated.GetFloatAt(y, x) {
				continue
			}
			out = append(out, candidate{pt: image.Pt(x, y), score: float64(val)})
		}
	}
	return out
}

// groupRows assigns each candidate to the first row whose reference y is
// closer than tol, opening a new row otherwise.
func groupRows(cands []candidate, tol int) []*row {
	var rows []*row
	for _, c := range cands {
		var target *row
		for _, r := range rows {
			if abs(c.pt.Y-r.y) < tol {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: c.pt.Y}
			rows = append(rows, target)
		}
		target.points = append(target.points, c)
	}
	return rows
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
