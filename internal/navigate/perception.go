package navigate

import (
	"context"
	"image"

	"treenav/internal/capture"
	"treenav/internal/config"
	"treenav/internal/folders"
	"treenav/internal/locator"
	"treenav/internal/ocr"
	"treenav/internal/session"
	"treenav/internal/template"
	"treenav/pkg/geometry"
)

// Perception is everything the navigator reads from the screen.
type Perception interface {
	WaitFor(ctx context.Context, spec template.WaitSpec) (template.MatchResult, error)
	Locate(names []string, region geometry.SearchRegion) (template.MatchResult, bool)
	FindPosition(names []string, region geometry.SearchRegion) (float64, float64, bool)
	VerticalExtent(name string, region geometry.SearchRegion) (float64, float64, bool)
	MapFolders(icon string, region geometry.SearchRegion) *folders.FolderMap
}

// Vision implements Perception on live screenshots.
type Vision struct {
	Source capture.Source
	Store  *template.Store
	Waiter *template.Waiter
	Finder *template.Finder
	Mapper *folders.Mapper
	Params locator.Params
	sess   *session.Session
}

// NewVision wires the perception core with thresholds from cfg.
func NewVision(src capture.Source, store *template.Store, rec ocr.Recognizer, cfg *config.Config, sess *session.Session) *Vision {
	matcher := template.NewMatcher(store, sess)
	matcher.Threshold = cfg.Thresholds.Match

	waiter := template.NewWaiter(src, matcher, sess)
	waiter.InterruptThreshold = cfg.Thresholds.Interrupt

	params := locator.DefaultParams()
	params.Threshold = cfg.Thresholds.Icons

	return &Vision{
		Source: src,
		Store:  store,
		Waiter: waiter,
		Finder: template.NewFinder(src, matcher, sess),
		Mapper: folders.NewMapper(rec, sess),
		Params: params,
		sess:   sess,
	}
}

func (v *Vision) WaitFor(ctx context.Context, spec template.WaitSpec) (template.MatchResult, error) {
	return v.Waiter.WaitFor(ctx, spec)
}

func (v *Vision) Locate(names []string, region geometry.SearchRegion) (template.MatchResult, bool) {
	return v.Finder.Locate(names, region)
}

func (v *Vision) FindPosition(names []string, region geometry.SearchRegion) (float64, float64, bool) {
	return v.Finder.FindPosition(names, region)
}

func (v *Vision) VerticalExtent(name string, region geometry.SearchRegion) (float64, float64, bool) {
	return v.Finder.VerticalExtent(name, region)
}

// MapFolders locates every icon in region and reads its label.
func (v *Vision) MapFolders(icon string, region geometry.SearchRegion) *folders.FolderMap {
	tmpl, err := v.Store.Get(icon)
	if err != nil {
		return folders.NewFolderMap()
	}

	crop, bounds, _, err := capture.GrabColor(v.Source, region)
	if err != nil {
		v.sess.Errorf("Screen capture failed: %v", err)
		return folders.NewFolderMap()
	}
	defer crop.Close()

	gray := capture.Gray(crop)
	defer gray.Close()

	points, stats := locator.LocateAll(gray, tmpl, v.Params)
	v.sess.Infof("Icon '%s': %s", icon, stats)
	return v.Mapper.Map(crop, image.Pt(bounds.X, bounds.Y), tmpl, points)
}
