package folders

import (
	"fmt"
	"image"

	"treenav/internal/capture"
	"treenav/internal/ocr"
	"treenav/internal/session"
	"treenav/internal/template"
	"treenav/pkg/geometry"

	"gocv.io/x/gocv"
)

// Label region geometry, relative to the icon.
const (
	// ROIReach is how far right of the icon a label may extend.
	ROIReach = 300
	// ClickOffset is the horizontal distance from the icon's right edge to
	// the click point.
	ClickOffset = 20
)

// Mapper reads the label next to each located icon.
type Mapper struct {
	OCR  ocr.Recognizer
	sess *session.Session
}

// NewMapper creates a Mapper.
func NewMapper(rec ocr.Recognizer, sess *session.Session) *Mapper {
	return &Mapper{OCR: rec, sess: sess}
}

// labelROI returns the label area right of an icon whose top-left is p, in
// region coordinates.
func labelROI(p image.Point, iconW, iconH, cols, rows int) geometry.RectInt {
	x0 := p.X + iconW - 1
	x1 := min(cols, p.X+iconW+ROIReach)
	y0 := max(0, p.Y)
	y1 := min(rows, p.Y+iconH)
	return geometry.RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Map OCRs the label of every icon at points (region coordinates) and
// returns the labeled entries. origin is the screen position of the
// region's top-left. A failing ROI is logged and skipped.
func (m *Mapper) Map(region gocv.Mat, origin image.Point, icon *template.Template, points []image.Point) *FolderMap {
	result := NewFolderMap()
	if icon == nil || region.Empty() {
		return result
	}

	gray := capture.Gray(region)
	defer gray.Close()

	iconW, iconH := icon.Width(), icon.Height()
	var marks []Mark
	for i, p := range points {
		roi := labelROI(p, iconW, iconH, gray.Cols(), gray.Rows())
		if roi.Empty() || roi.X < 0 || roi.X >= gray.Cols() {
			m.sess.Debugf("Icon %d at (%d,%d): empty label region", i, p.X, p.Y)
			continue
		}

		text, err := m.readLabel(region, gray, roi, i)
		if err != nil {
			m.sess.Errorf("Error processing ROI %d: %v", i, err)
			continue
		}
		if text == "" {
			m.sess.Debugf("Icon %d at (%d,%d): no text", i, p.X, p.Y)
			continue
		}

		entry := FolderEntry{
			Text:   text,
			ClickX: origin.X + p.X + iconW + ClickOffset,
			ClickY: origin.Y + p.Y + iconH/2,
			IconX:  origin.X + p.X,
			IconY:  origin.Y + p.Y,
		}
		if prev, dup := result.Get(text); dup {
			m.sess.Warnf("Label '%s' read twice; (%d,%d) replaces (%d,%d)",
				text, entry.IconX, entry.IconY, prev.IconX, prev.IconY)
		}
		result.Set(text, entry)
		m.sess.Infof("Folder found: '%s' at (%d, %d)", text, entry.ClickX, entry.ClickY)
		marks = append(marks, Mark{
			Icon:  image.Rect(p.X, p.Y, p.X+iconW, p.Y+iconH),
			ROI:   roi,
			Text:  text,
			Click: image.Pt(p.X+iconW+ClickOffset, p.Y+iconH/2),
		})
	}

	if path := m.sess.DebugPath("folder_map.png"); path != "" {
		if err := SaveOverview(path, region, marks); err != nil {
			m.sess.Warnf("Could not save folder overview: %v", err)
		}
	}
	m.sess.Infof("Mapped %d folders from %d icons", result.Len(), len(points))
	return result
}

// readLabel tries the inverted crop first, then the plain one. The debug
// "original" crop is taken from the unconverted region.
func (m *Mapper) readLabel(region, gray gocv.Mat, roi geometry.RectInt, idx int) (string, error) {
	crop := gray.Region(roi.ToImage())
	defer crop.Close()

	if path := m.sess.DebugPath(fmt.Sprintf("roi_icon_%d_original.png", idx)); path != "" {
		source := region.Region(roi.ToImage())
		gocv.IMWrite(path, source)
		source.Close()
	}

	plain := crop.Clone()
	defer plain.Close()
	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(plain, &inverted)

	m.saveCrop(fmt.Sprintf("roi_icon_%d_inverted.png", idx), inverted)

	text, err := m.OCR.Recognize(inverted)
	if err != nil {
		return "", err
	}
	text = ocr.CleanLabel(text)
	if text != "" {
		return text, nil
	}

	text, err = m.OCR.Recognize(plain)
	if err != nil {
		return "", err
	}
	return ocr.CleanLabel(text), nil
}

func (m *Mapper) saveCrop(name string, img gocv.Mat) {
	if path := m.sess.DebugPath(name); path != "" {
		gocv.IMWrite(path, img)
	}
}
