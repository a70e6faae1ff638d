// Package colorutil provides shared colors for debug overlays.
package colorutil

import (
	"image/color"
)

// Overlay colors used when annotating debug screenshots.
var (
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Label is the color for OCR'd text drawn next to a detected icon.
var Label = Blue

// ROI is the color for label regions of interest.
var ROI = Red

// Click is the color for the click marker.
var Click = Green
