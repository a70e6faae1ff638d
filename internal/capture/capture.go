// Package capture grabs the screen as an OpenCV Mat and crops search regions.
package capture

import (
	"fmt"
	"image"

	"treenav/pkg/geometry"

	"github.com/kbinani/screenshot"
	"gocv.io/x/gocv"
)

// Source produces screenshots. Implemented by Screen and by fakes in tests.
type Source interface {
	Grab() (gocv.Mat, error)
}

// Screen captures one physical display.
type Screen struct {
	Display int
}

// NewScreen returns a Screen for the primary display.
func NewScreen() *Screen {
	return &Screen{Display: 0}
}

// Size returns the display size in pixels.
func (s *Screen) Size() (int, int, error) {
	if screenshot.NumActiveDisplays() <= s.Display {
		return 0, 0, fmt.Errorf("display %d not active", s.Display)
	}
	b := screenshot.GetDisplayBounds(s.Display)
	return b.Dx(), b.Dy(), nil
}

// Grab captures the display as a BGR Mat. The caller owns the Mat.
func (s *Screen) Grab() (gocv.Mat, error) {
	if screenshot.NumActiveDisplays() <= s.Display {
		return gocv.NewMat(), fmt.Errorf("display %d not active", s.Display)
	}
	img, err := screenshot.CaptureDisplay(s.Display)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to capture display %d: %w", s.Display, err)
	}
	return ToBGR(img)
}

// ToBGR converts a Go image to a 3-channel BGR Mat.
func ToBGR(img image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image: %w", err)
	}
	return rgb, nil
}

// Gray converts a BGR (or already single-channel) Mat to grayscale.
// The caller owns the returned Mat.
func Gray(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	if src.Channels() == 1 {
		src.CopyTo(&dst)
		return dst
	}
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// Crop returns the pixel bounds of region on src and a view into src.
// The view shares memory with src and must be closed before src.
func Crop(src gocv.Mat, region geometry.SearchRegion) (geometry.RectInt, gocv.Mat) {
	bounds := region.Rect(src.Cols(), src.Rows())
	return bounds, src.Region(bounds.ToImage())
}

// GrabGray captures the screen and returns the grayscale crop of region,
// plus the region's absolute pixel bounds and the full screen size.
func GrabGray(src Source, region geometry.SearchRegion) (gocv.Mat, geometry.RectInt, image.Point, error) {
	return grabRegion(src, region, Gray)
}

// GrabColor is GrabGray without the grayscale conversion. Used when the
// caller needs the color crop for debug overlays.
func GrabColor(src Source, region geometry.SearchRegion) (gocv.Mat, geometry.RectInt, image.Point, error) {
	return grabRegion(src, region, func(view gocv.Mat) gocv.Mat { return view.Clone() })
}

func grabRegion(src Source, region geometry.SearchRegion, own func(gocv.Mat) gocv.Mat) (gocv.Mat, geometry.RectInt, image.Point, error) {
	screen, err := src.Grab()
	if err != nil {
		return gocv.NewMat(), geometry.RectInt{}, image.Point{}, err
	}
	defer screen.Close()

	size := image.Pt(screen.Cols(), screen.Rows())
	if region.Rect(size.X, size.Y).Empty() {
		return gocv.NewMat(), geometry.RectInt{}, size, fmt.Errorf("search region %s is empty on %dx%d screen", region, size.X, size.Y)
	}
	bounds, view := Crop(screen, region)
	defer view.Close()
	return own(view), bounds, size, nil
}

// Still is a Source that always returns a copy of a fixed image. Used by
// offline tools that replay a saved screenshot.
type Still struct {
	Mat gocv.Mat
}

// Grab returns a clone of the stored image.
func (s *Still) Grab() (gocv.Mat, error) {
	if s.Mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	return s.Mat.Clone(), nil
}
