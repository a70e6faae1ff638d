// Package template loads reference images and locates them on screen with
// normalized cross-correlation.
package template

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"treenav/internal/session"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrNotFound is returned when a template asset does not exist.
var ErrNotFound = errors.New("template not found")

// Template is a named grayscale reference image. Immutable once loaded.
type Template struct {
	Name string
	Mat  gocv.Mat
}

// Width returns the template width in pixels.
func (t *Template) Width() int { return t.Mat.Cols() }

// Height returns the template height in pixels.
func (t *Template) Height() int { return t.Mat.Rows() }

// Store loads templates from an asset directory and caches them by name.
// Only the navigation goroutine uses a Store, so it is not locked.
type Store struct {
	dir   string
	sess  *session.Session
	cache map[string]*Template
}

// NewStore creates a Store reading from dir.
func NewStore(dir string, sess *session.Session) *Store {
	return &Store{
		dir:   dir,
		sess:  sess,
		cache: make(map[string]*Template),
	}
}

// Dir returns the asset directory.
func (s *Store) Dir() string { return s.dir }

// Add registers an in-memory template under name, replacing any cached one.
// The Store takes ownership of mat.
func (s *Store) Add(name string, mat gocv.Mat) *Template {
	if old, ok := s.cache[name]; ok {
		old.Mat.Close()
	}
	t := &Template{Name: name, Mat: mat}
	s.cache[name] = t
	return t
}

// Get returns the named template, loading it on first use. A missing or
// undecodable asset is logged and reported as an error; callers treat it
// as "cannot match".
func (s *Store) Get(name string) (*Template, error) {
	if t, ok := s.cache[name]; ok {
		return t, nil
	}

	t, err := s.load(name)
	if err != nil {
		s.sess.Errorf("Image '%s' loading error. Check if it exists in '%s': %v", name, s.dir, err)
		return nil, err
	}
	s.cache[name] = t
	return t, nil
}

func (s *Store) load(name string) (*Template, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	gray := toGray(img)
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", path, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%s: empty image", path)
	}
	return &Template{Name: name, Mat: mat}, nil
}

// toGray converts any decoded image to 8-bit grayscale anchored at the origin.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Close releases every cached template.
func (s *Store) Close() {
	for name, t := range s.cache {
		t.Mat.Close()
		delete(s.cache, name)
	}
}
