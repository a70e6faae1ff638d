// Package synth renders synthetic tree-view screenshots for tests and for
// the foldermap self-check.
package synth

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Background is the gray level of the synthetic tree panel.
const Background = 235

func gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// Canvas returns a w×h single-channel image filled with Background.
func Canvas(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(Background, 0, 0, 0), h, w, gocv.MatTypeCV8U)
}

// FolderIcon draws a 16×14 folder glyph: a tab, an outlined body and a
// shaded front flap.
func FolderIcon() gocv.Mat {
	icon := Canvas(16, 14)
	gocv.Rectangle(&icon, image.Rect(1, 1, 7, 4), gray(90), -1)
	gocv.Rectangle(&icon, image.Rect(1, 3, 15, 13), gray(150), -1)
	gocv.Rectangle(&icon, image.Rect(1, 3, 15, 13), gray(40), 1)
	gocv.Line(&icon, image.Pt(2, 6), image.Pt(14, 6), gray(60), 1)
	gocv.Rectangle(&icon, image.Rect(4, 8, 8, 11), gray(210), -1)
	return icon
}

// DocumentIcon draws a 12×14 page glyph with text lines, distinct from FolderIcon.
func DocumentIcon() gocv.Mat {
	icon := Canvas(12, 14)
	gocv.Rectangle(&icon, image.Rect(1, 1, 11, 13), gray(255), -1)
	gocv.Rectangle(&icon, image.Rect(1, 1, 11, 13), gray(30), 1)
	for y := 4; y <= 10; y += 3 {
		gocv.Line(&icon, image.Pt(3, y), image.Pt(9, y), gray(80), 1)
	}
	return icon
}

// Paste copies src into dst with its top-left at (x, y).
func Paste(dst *gocv.Mat, src gocv.Mat, x, y int) {
	roi := dst.Region(image.Rect(x, y, x+src.Cols(), y+src.Rows()))
	defer roi.Close()
	src.CopyTo(&roi)
}

// Text draws a label in dark Hershey glyphs with its baseline at (x, y).
func Text(dst *gocv.Mat, s string, x, y int) {
	gocv.PutText(dst, s, image.Pt(x, y), gocv.FontHersheyPlain, 1.0, gray(20), 1)
}

// Row describes one tree entry for Tree.
type Row struct {
	Label  string
	Indent int
}

// Tree renders rows of folder icons with labels, one row every pitch
// pixels, and returns the image with the icon top-left positions.
func Tree(w, h, pitch int, rows []Row) (gocv.Mat, []image.Point) {
	canvas := Canvas(w, h)
	icon := FolderIcon()
	defer icon.Close()

	var points []image.Point
	for i, r := range rows {
		x := 10 + r.Indent
		y := 10 + i*pitch
		Paste(&canvas, icon, x, y)
		if r.Label != "" {
			Text(&canvas, r.Label, x+icon.Cols()+4, y+icon.Rows()-2)
		}
		points = append(points, image.Pt(x, y))
	}
	return canvas, points
}
