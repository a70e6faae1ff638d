package folders

import (
	"fmt"
	"image"

	"treenav/pkg/colorutil"
	"treenav/pkg/geometry"

	"gocv.io/x/gocv"
)

// Mark is one annotated icon of an overview image, in region coordinates.
type Mark struct {
	Icon  image.Rectangle
	ROI   geometry.RectInt
	Text  string
	Click image.Point
}

// SaveOverview writes a color copy of region annotated with marks.
func SaveOverview(path string, region gocv.Mat, marks []Mark) error {
	canvas := Annotate(region, marks)
	defer canvas.Close()
	if !gocv.IMWrite(path, canvas) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

// Annotate returns a BGR copy of region with icon boxes, label regions,
// click points and labels drawn on it.
func Annotate(region gocv.Mat, marks []Mark) gocv.Mat {
	canvas := gocv.NewMat()
	if region.Channels() == 1 {
		gocv.CvtColor(region, &canvas, gocv.ColorGrayToBGR)
	} else {
		region.CopyTo(&canvas)
	}

	for _, mk := range marks {
		gocv.Rectangle(&canvas, mk.Icon, colorutil.Label, 1)
		gocv.Rectangle(&canvas, mk.ROI.ToImage(), colorutil.ROI, 1)
		gocv.Circle(&canvas, mk.Click, 3, colorutil.Click, -1)
		gocv.PutText(&canvas, mk.Text, image.Pt(mk.Icon.Min.X, max(10, mk.Icon.Min.Y-2)),
			gocv.FontHersheyPlain, 0.8, colorutil.Label, 1)
	}
	return canvas
}
