package capture

import (
	"image"
	"image/color"
	"testing"

	"treenav/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestToBGRAndGray(t *testing.T) {
	mat, err := ToBGR(solidImage(8, 4, color.RGBA{R: 200, G: 200, B: 200, A: 255}))
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 3, mat.Channels())

	gray := Gray(mat)
	defer gray.Close()
	assert.Equal(t, 1, gray.Channels())
	assert.Equal(t, uint8(200), gray.GetUCharAt(2, 3))
}

func TestGrabGrayCropsRegion(t *testing.T) {
	mat, err := ToBGR(solidImage(200, 100, color.RGBA{R: 10, G: 10, B: 10, A: 255}))
	require.NoError(t, err)
	still := &Still{Mat: mat}
	defer still.Mat.Close()

	crop, bounds, size, err := GrabGray(still, geometry.NewSearchRegion(0.1, 0.5, 0.6, 1))
	require.NoError(t, err)
	defer crop.Close()

	assert.Equal(t, image.Pt(200, 100), size)
	assert.Equal(t, geometry.RectInt{X: 20, Y: 50, Width: 100, Height: 50}, bounds)
	assert.Equal(t, 100, crop.Cols())
	assert.Equal(t, 50, crop.Rows())
}

func TestGrabGrayEmptyRegion(t *testing.T) {
	mat, err := ToBGR(solidImage(10, 10, color.RGBA{A: 255}))
	require.NoError(t, err)
	still := &Still{Mat: mat}
	defer still.Mat.Close()

	crop, _, _, err := GrabGray(still, geometry.NewSearchRegion(0.5, 0.5, 0.55, 0.55))
	defer crop.Close()
	assert.Error(t, err)
}

func TestStillEmpty(t *testing.T) {
	s := &Still{Mat: gocv.NewMat()}
	defer s.Mat.Close()
	_, err := s.Grab()
	assert.Error(t, err)
}
