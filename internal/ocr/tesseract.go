// Package ocr reads folder labels from tree-view crops.
package ocr

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// LabelChars is the character set allowed in folder labels.
const LabelChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_."

// Recognizer turns an image of a single text line into a string.
type Recognizer interface {
	Recognize(img gocv.Mat) (string, error)
}

// Engine provides OCR using Tesseract. A single Engine serializes calls to
// its client.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client

	// MinHeight upscales crops shorter than this many pixels. Zero disables.
	MinHeight int
}

// NewEngine creates a new OCR engine for lang ("eng" when empty).
func NewEngine(lang string) (*Engine, error) {
	if lang == "" {
		lang = "eng"
	}
	client := gosseract.NewClient()

	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Folder codes like 3B_WIP are not dictionary words
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")

	if err := client.SetWhitelist(LabelChars); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	// PSM 7 = Treat the image as a single text line
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Version reports the Tesseract library version.
func (e *Engine) Version() string {
	return e.client.Version()
}

// Recognize performs OCR on a whole image and returns the cleaned label.
func (e *Engine) Recognize(img gocv.Mat) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("empty image")
	}

	processed := e.prepare(img)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return CleanLabel(text), nil
}

func (e *Engine) prepare(img gocv.Mat) gocv.Mat {
	h := img.Rows()
	if e.MinHeight <= 0 || h >= e.MinHeight {
		return img.Clone()
	}
	scale := float64(e.MinHeight) / float64(h)
	scaled := gocv.NewMat()
	gocv.Resize(img, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	return scaled
}

// CleanLabel drops every rune outside LabelChars, including whitespace.
func CleanLabel(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 128 && strings.ContainsRune(LabelChars, r) {
			return r
		}
		return -1
	}, text)
}
