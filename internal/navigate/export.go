package navigate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"treenav/internal/config"
	"treenav/internal/driver"
	"treenav/internal/session"
	"treenav/internal/template"
	"treenav/pkg/geometry"
)

// Exporter saves the module that is currently open.
type Exporter interface {
	Export(ctx context.Context, module string) error
}

// Action is what a Step does once its image is visible.
type Action int

const (
	Click Action = iota
	DoubleClick
	RightClick
	// WaitGone polls until the image disappears.
	WaitGone
	// Await only waits for the image.
	Await
)

// DefaultBand is the vertical span used when a step's band image is not
// on screen.
var DefaultBand = [2]float64{0.1, 0.4}

// Step waits for one of Templates in Region and acts on it.
type Step struct {
	Templates []string
	Region    geometry.SearchRegion
	Timeout   time.Duration
	Action    Action
	OffsetX   int
	Optional  bool // A missing optional image is not an error

	// BandBy narrows Region vertically to the rows where this image
	// appears inside BandRegion.
	BandBy     string
	BandRegion geometry.SearchRegion
}

// ExportSteps exports the open module to a CSV file on the desktop and
// closes it. Menus, dialogs and the module view come from r.
func ExportSteps(r config.Regions) []Step {
	full := geometry.FullScreen
	menus := r.Export
	dialog := r.ExportDialog
	return []Step{
		{Templates: []string{"maximize.png"}, Region: geometry.NewSearchRegion(0.1, 0.05, 0.7, 0.5), Timeout: 5 * time.Second, Optional: true},
		{Templates: AssetModuleMain, Region: r.ModuleView, Timeout: 10 * time.Second, Action: Await},
		{Templates: AssetColumnSeparator, Region: r.ColumnSeparator, Timeout: 5 * time.Second, Action: RightClick, OffsetX: -50, Optional: true,
			BandBy: AssetModuleMain[0], BandRegion: r.ModuleView},
		{Templates: AssetRemoveColumn, Region: full, Timeout: 5 * time.Second, Optional: true},
		{Templates: []string{"file.png", "file_en.png"}, Region: full, Timeout: 10 * time.Second},
		{Templates: []string{"export.png", "export_en.png"}, Region: menus, Timeout: 30 * time.Second},
		{Templates: []string{"export_sheet.png", "export_sheet_en.png"}, Region: menus, Timeout: 30 * time.Second},
		{Templates: []string{"export_browse.png", "export_browse_en.png"}, Region: dialog, Timeout: 30 * time.Second},
		{Templates: []string{"export_desktop.png"}, Region: geometry.NewSearchRegion(0.4, 0.2, 0.9, 0.8), Timeout: 30 * time.Second},
		{Templates: []string{"export_open.png", "export_open_en.png"}, Region: full, Timeout: 10 * time.Second},
		{Templates: []string{"export_csv.png", "export_csv_en.png"}, Region: dialog, Timeout: 30 * time.Second},
		{Templates: []string{"confirm_overwrite.png", "confirm_overwrite_en.png"}, Region: geometry.NewSearchRegion(0.25, 0.3, 0.7, 0.7), Timeout: 5 * time.Second, Optional: true},
		{Templates: []string{"exporting.png"}, Region: geometry.NewSearchRegion(0.3, 0.2, 0.6, 0.4), Timeout: 10 * time.Minute, Action: WaitGone},
		{Templates: []string{"close_module.png"}, Region: full, Timeout: 10 * time.Second},
		{Templates: []string{"confirm_close.png", "confirm_close_en.png"}, Region: geometry.NewSearchRegion(0.05, 0.05, 0.8, 0.95), Timeout: 10 * time.Second, Optional: true},
	}
}

// StepExporter runs a fixed list of steps.
type StepExporter struct {
	See   Perception
	Input driver.Driver
	Steps []Step
	Sleep func(ctx context.Context, d time.Duration) error

	// GonePoll is the timeout of each visibility probe of a WaitGone step.
	GonePoll time.Duration

	sess *session.Session
}

// NewStepExporter creates an exporter running ExportSteps with the
// regions of cfg.
func NewStepExporter(see Perception, input driver.Driver, cfg *config.Config, sess *session.Session) *StepExporter {
	return &StepExporter{
		See:      see,
		Input:    input,
		Steps:    ExportSteps(cfg.Regions),
		Sleep:    sleep,
		GonePoll: 5 * time.Second,
		sess:     sess,
	}
}

// Export runs the steps in order.
func (e *StepExporter) Export(ctx context.Context, module string) error {
	for i, st := range e.Steps {
		if err := e.run(ctx, st); err != nil {
			return fmt.Errorf("%s: step %d (%s): %w", module, i+1, st.Templates[0], err)
		}
		if err := e.Sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	e.sess.Infof("Export of module %s completed successfully", module)
	return nil
}

func (e *StepExporter) run(ctx context.Context, st Step) error {
	if st.Action == WaitGone {
		return e.waitGone(ctx, st)
	}
	region := e.region(st)

	_, err := e.See.WaitFor(ctx, template.WaitSpec{Templates: st.Templates, Region: region, Timeout: st.Timeout})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if st.Optional {
			return nil
		}
		return fmt.Errorf("%w (%v)", ErrNotVisible, err)
	}
	if st.Action == Await {
		return nil
	}

	res, ok := e.See.Locate(st.Templates, region)
	if !ok {
		if st.Optional {
			return nil
		}
		return ErrNotVisible
	}
	c := res.Center()
	x, y := c.X+st.OffsetX, c.Y
	switch st.Action {
	case DoubleClick:
		return e.Input.DoubleClick(x, y)
	case RightClick:
		return e.Input.RightClick(x, y)
	default:
		return e.Input.Click(x, y)
	}
}

// region returns the step region, narrowed to the band of st.BandBy when set.
func (e *StepExporter) region(st Step) geometry.SearchRegion {
	if st.BandBy == "" {
		return st.Region
	}
	top, bottom, ok := e.See.VerticalExtent(st.BandBy, st.BandRegion)
	if !ok {
		e.sess.Warnf("Image %s not found, using default band %.2f-%.2f", st.BandBy, DefaultBand[0], DefaultBand[1])
		top, bottom = DefaultBand[0], DefaultBand[1]
	}
	return st.Region.WithY(top, bottom)
}

// waitGone probes until the image is no longer visible or st.Timeout passes.
func (e *StepExporter) waitGone(ctx context.Context, st Step) error {
	deadline := time.Now().Add(st.Timeout)
	for time.Now().Before(deadline) {
		_, err := e.See.WaitFor(ctx, template.WaitSpec{Templates: st.Templates, Region: st.Region, Timeout: e.GonePoll})
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, template.ErrTimeout), errors.Is(err, template.ErrNoTemplates):
			return nil
		case err != nil:
			return err
		}
	}
	return fmt.Errorf("still visible after %s", st.Timeout)
}
