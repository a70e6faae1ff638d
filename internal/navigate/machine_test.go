package navigate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"
	"time"

	"treenav/internal/config"
	"treenav/internal/driver"
	"treenav/internal/folders"
	"treenav/internal/ocr"
	"treenav/internal/session"
	"treenav/internal/template"
	"treenav/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScreen answers perception queries from fixed tables.
type fakeScreen struct {
	visible   map[string]bool
	hideAfter map[string]int // Template disappears after this many waits
	waits     map[string]int
	maps      map[string][]*folders.FolderMap
	header    bool
	mapped    []geometry.SearchRegion
	located   []geometry.SearchRegion
	extent    map[string][2]float64

	// input, when set, is inspected on every MapFolders call.
	input     *driver.Recorder
	beforeMap []string
}

func newFakeScreen(visible ...string) *fakeScreen {
	f := &fakeScreen{
		visible:   make(map[string]bool),
		hideAfter: make(map[string]int),
		waits:     make(map[string]int),
		maps:      make(map[string][]*folders.FolderMap),
		extent:    make(map[string][2]float64),
		header:    true,
	}
	for _, v := range visible {
		f.visible[v] = true
	}
	return f
}

func (f *fakeScreen) isVisible(name string) bool {
	if n, ok := f.hideAfter[name]; ok && f.waits[name] > n {
		return false
	}
	return f.visible[name]
}

func (f *fakeScreen) WaitFor(ctx context.Context, spec template.WaitSpec) (template.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return template.MatchResult{}, err
	}
	for _, name := range spec.Templates {
		f.waits[name]++
		if f.isVisible(name) {
			return template.MatchResult{Template: name, Confidence: 1, Width: 10, Height: 10}, nil
		}
	}
	return template.MatchResult{}, template.ErrTimeout
}

func (f *fakeScreen) Locate(names []string, region geometry.SearchRegion) (template.MatchResult, bool) {
	f.located = append(f.located, region)
	for _, name := range names {
		if f.isVisible(name) {
			return template.MatchResult{Template: name, Confidence: 1, Location: image.Pt(100, 100), Width: 10, Height: 10}, true
		}
	}
	return template.MatchResult{}, false
}

func (f *fakeScreen) FindPosition(_ []string, _ geometry.SearchRegion) (float64, float64, bool) {
	return 0.3, 0.12, f.header
}

func (f *fakeScreen) VerticalExtent(name string, _ geometry.SearchRegion) (float64, float64, bool) {
	e, ok := f.extent[name]
	return e[0], e[1], ok
}

func (f *fakeScreen) MapFolders(icon string, region geometry.SearchRegion) *folders.FolderMap {
	f.mapped = append(f.mapped, region)
	if f.input != nil {
		if actions := f.input.Snapshot(); len(actions) > 0 {
			f.beforeMap = append(f.beforeMap, actions[len(actions)-1])
		}
	}
	queue := f.maps[icon]
	if len(queue) == 0 {
		return folders.NewFolderMap()
	}
	f.maps[icon] = queue[1:]
	return queue[0]
}

func (f *fakeScreen) queue(icon string, maps ...*folders.FolderMap) {
	f.maps[icon] = append(f.maps[icon], maps...)
}

// fmAt builds a map whose entries are clicked at (300, y0+20*i). Labels
// go through the OCR cleanup, so spaces are dropped as on screen.
func fmAt(y0 int, labels ...string) *folders.FolderMap {
	m := folders.NewFolderMap()
	for i, raw := range labels {
		l := ocr.CleanLabel(raw)
		y := y0 + 20*i
		m.Set(l, folders.FolderEntry{Text: l, ClickX: 300, ClickY: y, IconX: 270, IconY: y - 7})
	}
	return m
}

type fakeExporter struct {
	modules []string
	fail    map[string]bool
}

func (e *fakeExporter) Export(ctx context.Context, module string) error {
	e.modules = append(e.modules, module)
	if e.fail[module] {
		return errors.New("export dialog vanished")
	}
	return nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestMachine(see Perception, exp Exporter) (*Machine, *driver.Recorder, *session.Session) {
	rec := driver.NewRecorder(1920, 1080)
	sess := session.Discard()
	m := NewMachine(see, rec, exp, config.Default(), sess)
	m.Sleep = noSleep
	return m, rec, sess
}

func back(n int) []string {
	out := []string{"click 960,540", "key shift+tab"}
	for i := 0; i < n; i++ {
		out = append(out, "key shift+left")
	}
	return out
}

// inputs drops pointer moves from the recorded actions.
func inputs(rec *driver.Recorder) []string {
	var out []string
	for _, a := range rec.Snapshot() {
		if !strings.HasPrefix(a, "move ") {
			out = append(out, a)
		}
	}
	return out
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var openProject = []string{
	"click 105,105", // projects
	"click 105,105", // tools
	"click 105,105", // find
	"type 332BEV",
	"click 105,105", // find check
	"key enter",
	"dblclick 105,105", // project folder
}

func standardScreen() *fakeScreen {
	return newFakeScreen("projects.png", "tools.png", "find.png", "find_check.png",
		"folder.png", "folder_yellow.png", "open_read_only.png", "main.png")
}

func TestRunExportsWantedModules(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A", "2B", "2B_old"))
	see.queue(IconFolder,
		fmAt(200, "Design", "Functional Requirements Folder"),
		fmAt(300, "Comfort", "Climate Folder"),
		fmAt(400, "Defroster", "Heating"),
	)
	see.queue(IconModule, fmAt(500, "VF126_Defrost", "VF200_Other"))
	exp := &fakeExporter{}
	m, rec, sess := newTestMachine(see, exp)

	report, err := m.Run(context.Background(), config.Run{
		Projects: []string{"332BEV"},
		Domains:  []string{"Climate"},
		UseCases: []string{"defroster"},
		VFs:      []string{"vf126"},
	})
	require.NoError(t, err)

	assert.Equal(t, concat(
		openProject,
		[]string{
			"dblclick 300,120", // 2B
			"dblclick 300,220", // FunctionalRequirementsFolder
			"dblclick 300,320", // ClimateFolder
			"dblclick 300,400", // Defroster
			"dblclick 300,500", // VF126_Defrost
			"click 105,105",    // open read-only
		},
		back(1),
		back(7),
		[]string{"click 105,105"},
	), inputs(rec))

	assert.Equal(t, []string{"VF126_Defrost"}, exp.modules)
	assert.Equal(t, 1, report.Projects)
	assert.Equal(t, []string{"VF126_Defrost"}, report.Exported)
	assert.Len(t, report.Modules, 2)
	assert.Contains(t, sess.Paths(), "332BEV / 2B / FunctionalRequirementsFolder / ClimateFolder / Defroster / VF126_Defrost [exported]")
	assert.Contains(t, sess.Paths(), "332BEV / 2B / FunctionalRequirementsFolder / ClimateFolder / Defroster / VF200_Other")

	require.NotEmpty(t, see.mapped)
	assert.Equal(t, geometry.SearchRegion{X0: 0.1, Y0: 0.12, X1: 0.3, Y1: 0.95}, see.mapped[0])
}

func TestRunDescendsIntoSubfolders(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "3A"))
	see.queue(IconFolder,
		fmAt(200, "Functional_Requirements"),
		fmAt(300, "Climate"),
		fmAt(400, "Defroster"),
		fmAt(450, "Front", "Rear"),
	)
	see.queue(IconModule, fmAt(500), fmAt(600, "VF126_A"), fmAt(700))
	exp := &fakeExporter{}
	m, rec, sess := newTestMachine(see, exp)

	_, err := m.Run(context.Background(), config.Run{
		Projects: []string{"332BEV"},
		Domains:  []string{"climate"},
		VFs:      []string{"VF126"},
	})
	require.NoError(t, err)

	actions := inputs(rec)
	tail := concat(
		[]string{"dblclick 300,450"}, // Front
		[]string{"dblclick 300,600", "click 105,105"},
		back(1),
		[]string{"dblclick 300,470"}, // Rear
		back(1),
		back(2),
		back(7),
		[]string{"click 105,105"},
	)
	require.GreaterOrEqual(t, len(actions), len(tail))
	assert.Equal(t, tail, actions[len(actions)-len(tail):])
	assert.Equal(t, []string{"VF126_A"}, exp.modules)
	assert.Contains(t, sess.Paths(), "332BEV / 3A / Functional_Requirements / Climate / Defroster / Rear / (empty)")
}

func TestRunDomainMissingBacksOutFour(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A"))
	see.queue(IconFolder, fmAt(200, "Functional Requirements"), fmAt(300, "Comfort", "Body"))
	m, rec, _ := newTestMachine(see, &fakeExporter{})

	report, err := m.Run(context.Background(), config.Run{Projects: []string{"332BEV"}, Domains: []string{"Climate"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Projects)

	actions := inputs(rec)
	tail := concat([]string{"dblclick 300,200"}, back(4), []string{"click 105,105"})
	assert.Equal(t, tail, actions[len(actions)-len(tail):])
}

func TestRunSkipsMissingProject(t *testing.T) {
	see := newFakeScreen("projects.png", "tools.png", "find.png", "find_check.png", "find_close.png")
	m, rec, _ := newTestMachine(see, &fakeExporter{})

	report, err := m.Run(context.Background(), config.Run{Projects: []string{"NOPE", "ALSO"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"NOPE", "ALSO"}, report.Skipped)
	assert.Zero(t, report.Projects)
	for _, a := range rec.Snapshot() {
		assert.NotEqual(t, "key shift+tab", a)
	}
}

func TestRunStopsWithoutLevelFolder(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A_old", "misc old"))
	m, _, _ := newTestMachine(see, &fakeExporter{})

	_, err := m.Run(context.Background(), config.Run{Projects: []string{"332BEV", "400XYZ"}})
	assert.ErrorIs(t, err, ErrNoDestination)
	assert.Contains(t, err.Error(), "332BEV")
}

func TestRunStopsWithoutRequirements(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A"))
	see.queue(IconFolder, fmAt(200, "Design", "Tests"))
	m, _, _ := newTestMachine(see, &fakeExporter{})

	_, err := m.Run(context.Background(), config.Run{Projects: []string{"332BEV"}})
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestRunFailsWithoutProjectsView(t *testing.T) {
	m, _, _ := newTestMachine(newFakeScreen(), &fakeExporter{})
	_, err := m.Run(context.Background(), config.Run{Projects: []string{"332BEV"}})
	assert.ErrorIs(t, err, ErrNotVisible)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, rec, _ := newTestMachine(standardScreen(), &fakeExporter{})

	_, err := m.Run(ctx, config.Run{Projects: []string{"332BEV"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Snapshot())
}

func TestRunRecordsFailedExport(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A"))
	see.queue(IconFolder, fmAt(200, "Functional Requirements Folder"), fmAt(300, "Climate"), fmAt(400, "UC1"))
	see.queue(IconModule, fmAt(500, "VF1", "VF2"))
	exp := &fakeExporter{fail: map[string]bool{"VF1": true}}
	m, _, sess := newTestMachine(see, exp)

	report, err := m.Run(context.Background(), config.Run{
		Projects: []string{"P"},
		Domains:  []string{"Climate"},
		VFs:      []string{"VF"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VF1"}, report.Failed)
	assert.Equal(t, []string{"VF2"}, report.Exported)
	assert.Contains(t, sess.Paths(), "P / 1A / FunctionalRequirementsFolder / Climate / UC1 / VF1 [export failed]")
}

func TestRunParksPointerBeforeMapping(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A"))
	see.queue(IconFolder, fmAt(200, "Functional Requirements Folder"), fmAt(300, "Climate"), fmAt(400, "UC1"))
	m, rec, _ := newTestMachine(see, &fakeExporter{})
	see.input = rec

	_, err := m.Run(context.Background(), config.Run{Projects: []string{"P"}, Domains: []string{"Climate"}})
	require.NoError(t, err)
	require.Len(t, see.beforeMap, len(see.mapped))
	for i, a := range see.beforeMap {
		assert.Equal(t, "move 960,540", a, "mapping %d", i)
	}
}

func TestRunOpensFoldersWithDoubleClick(t *testing.T) {
	see := standardScreen()
	see.queue(IconProjectFolder, fmAt(100, "1A"))
	see.queue(IconFolder, fmAt(200, "Functional Requirements Folder"), fmAt(300, "Comfort"))
	m, rec, _ := newTestMachine(see, &fakeExporter{})

	_, err := m.Run(context.Background(), config.Run{Projects: []string{"P"}, Domains: []string{"Climate"}})
	require.NoError(t, err)
	actions := inputs(rec)
	assert.Contains(t, actions, "dblclick 300,100")
	assert.Contains(t, actions, "dblclick 300,200")
	assert.NotContains(t, actions, "click 300,100")
	assert.NotContains(t, actions, "click 300,200")
}

func TestTreeRegionFallsBackToDefaults(t *testing.T) {
	see := newFakeScreen()
	see.header = false
	m, _, _ := newTestMachine(see, nil)
	assert.Equal(t, geometry.SearchRegion{X0: 0.1, Y0: 0.1, X1: 0.3, Y1: 0.95}, m.treeRegion())
}

func TestStateString(t *testing.T) {
	for s := SelectProject; s <= Skip; s++ {
		assert.False(t, strings.HasPrefix(s.String(), "State("), fmt.Sprint(int(s)))
	}
	assert.Equal(t, "State(42)", State(42).String())
}
