// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ToImage converts to an image.Rectangle.
func (r RectInt) ToImage() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ClampTo returns the intersection with a w×h image anchored at the origin.
func (r RectInt) ClampTo(w, h int) RectInt {
	x0 := max(0, r.X)
	y0 := max(0, r.Y)
	x1 := min(w, r.X+r.Width)
	y1 := min(h, r.Y+r.Height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// SearchRegion is a rectangle expressed as fractions (0..1) of the screen size.
// It is converted to pixels only when a screenshot is available.
type SearchRegion struct {
	X0 float64 `yaml:"x0"`
	Y0 float64 `yaml:"y0"`
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
}

// FullScreen covers the entire display.
var FullScreen = SearchRegion{X0: 0, Y0: 0, X1: 1, Y1: 1}

// NewSearchRegion creates a SearchRegion from fractional corners.
func NewSearchRegion(x0, y0, x1, y1 float64) SearchRegion {
	return SearchRegion{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Validate checks that the corners are ordered.
func (s SearchRegion) Validate() error {
	if s.X0 >= s.X1 || s.Y0 >= s.Y1 {
		return fmt.Errorf("invalid search region (%.2f,%.2f)-(%.2f,%.2f): corners not ordered",
			s.X0, s.Y0, s.X1, s.Y1)
	}
	return nil
}

// Rect converts the region to absolute pixel bounds for a w×h screen.
// Fractions are truncated toward zero and the result is clamped to the image.
func (s SearchRegion) Rect(w, h int) RectInt {
	x0 := int(float64(w) * s.X0)
	y0 := int(float64(h) * s.Y0)
	x1 := int(float64(w) * s.X1)
	y1 := int(float64(h) * s.Y1)
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}.ClampTo(w, h)
}

// WithY returns a copy with a new vertical span, keeping X unchanged.
func (s SearchRegion) WithY(y0, y1 float64) SearchRegion {
	s.Y0 = y0
	s.Y1 = y1
	return s
}

// ParseSearchRegion parses "x0,y0,x1,y1" and validates the result.
func ParseSearchRegion(text string) (SearchRegion, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 4 {
		return SearchRegion{}, fmt.Errorf("search region %q: want x0,y0,x1,y1", text)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return SearchRegion{}, fmt.Errorf("search region %q: %w", text, err)
		}
		v[i] = f
	}
	s := NewSearchRegion(v[0], v[1], v[2], v[3])
	return s, s.Validate()
}

func (s SearchRegion) String() string {
	return fmt.Sprintf("(%.2f, %.2f) -> (%.2f, %.2f)", s.X0, s.Y0, s.X1, s.Y1)
}
