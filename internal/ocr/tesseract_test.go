package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A@b#12_c-d.e!", "Ab12_c-d.e"},
		{"  3B_WIP \n", "3B_WIP"},
		{"Work in Progress", "WorkinProgress"},
		{"Climate|", "Climate"},
		{"çãé", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanLabel(tt.in), "CleanLabel(%q)", tt.in)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("eng")
	if err != nil {
		t.Skipf("tesseract unavailable: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestRecognizeRejectsEmpty(t *testing.T) {
	e := newTestEngine(t)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err := e.Recognize(empty)
	assert.Error(t, err)
}

func TestPrepareUpscalesShortCrops(t *testing.T) {
	e := &Engine{MinHeight: 30}
	img := gocv.NewMatWithSize(15, 40, gocv.MatTypeCV8U)
	defer img.Close()

	out := e.prepare(img)
	defer out.Close()
	require.False(t, out.Empty())
	assert.Equal(t, 30, out.Rows())
	assert.Equal(t, 80, out.Cols())

	e.MinHeight = 0
	same := e.prepare(img)
	defer same.Close()
	assert.Equal(t, 15, same.Rows())
}
