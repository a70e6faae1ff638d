// Package navigate walks the application's project tree: it opens each
// project, descends to the requirements of the wanted domains and exports
// the wanted modules.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"treenav/internal/config"
	"treenav/internal/driver"
	"treenav/internal/folders"
	"treenav/internal/hierarchy"
	"treenav/internal/session"
	"treenav/internal/template"
	"treenav/pkg/geometry"
)

var (
	// ErrNoDestination is returned when a required folder is not in the tree.
	ErrNoDestination = errors.New("no matching folder")

	// ErrNotVisible is returned when a required image never appeared.
	ErrNotVisible = errors.New("image not visible")
)

// State is a navigation phase for one project.
type State int

const (
	SelectProject State = iota
	SelectLevel
	SelectRequirements
	SelectDomain
	SelectUseCase
	Done
	Skip
)

func (s State) String() string {
	switch s {
	case SelectProject:
		return "SelectProject"
	case SelectLevel:
		return "SelectLevel"
	case SelectRequirements:
		return "SelectRequirements"
	case SelectDomain:
		return "SelectDomain"
	case SelectUseCase:
		return "SelectUseCase"
	case Done:
		return "Done"
	case Skip:
		return "Skip"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tree levels to collapse when leaving a project.
const (
	backFromUseCases = 7
	backFromDomains  = 4
)

// Report summarizes a run.
type Report struct {
	Projects int      // Projects opened
	Skipped  []string // Projects not found
	Modules  []string // Every module seen, as a tree path
	Exported []string
	Failed   []string
}

// visit is the per-project navigation state.
type visit struct {
	project      string
	level        string
	requirements string
	domain       string
	back         int
}

func (v *visit) path(extra ...string) []string {
	return append([]string{v.project, v.level, v.requirements, v.domain}, extra...)
}

// Machine runs the per-project state machine.
type Machine struct {
	See      Perception
	Input    driver.Driver
	Exporter Exporter
	Regions  config.Regions
	Timeout  time.Duration // Default wait timeout
	Sleep    func(ctx context.Context, d time.Duration) error

	run    config.Run
	report *Report
	sess   *session.Session
}

// NewMachine creates a Machine with the regions and timeouts of cfg.
func NewMachine(see Perception, input driver.Driver, exp Exporter, cfg *config.Config, sess *session.Session) *Machine {
	return &Machine{
		See:      see,
		Input:    input,
		Exporter: exp,
		Regions:  cfg.Regions,
		Timeout:  cfg.Run.WaitTimeout.Duration,
		Sleep:    sleep,
		sess:     sess,
	}
}

// Run visits every project of run. Projects that cannot be found are
// skipped; a missing level or requirements folder stops the run.
func (m *Machine) Run(ctx context.Context, run config.Run) (*Report, error) {
	m.run = run
	m.report = &Report{}

	if err := m.Sleep(ctx, run.StartDelay.Duration); err != nil {
		return m.report, err
	}
	if err := m.clickImage(AssetProjects, geometry.FullScreen); err != nil {
		return m.report, fmt.Errorf("projects view: %w", err)
	}

	for _, code := range run.Projects {
		if err := ctx.Err(); err != nil {
			return m.report, err
		}
		if err := m.runProject(ctx, code); err != nil {
			return m.report, fmt.Errorf("project %s: %w", code, err)
		}
	}
	m.sess.Infof("Run finished: %d projects, %d modules exported, %d failed",
		m.report.Projects, len(m.report.Exported), len(m.report.Failed))
	return m.report, nil
}

func (m *Machine) runProject(ctx context.Context, code string) error {
	v := &visit{project: code, back: backFromUseCases}
	state := SelectProject
	for state != Done && state != Skip {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.sess.Debugf("Project %s: %s", code, state)

		next, err := m.step(ctx, state, v)
		if err != nil {
			return fmt.Errorf("%s: %w", state, err)
		}
		state = next
	}

	if state == Skip {
		m.report.Skipped = append(m.report.Skipped, code)
		return nil
	}
	if err := driver.BackLevels(m.Input, v.back); err != nil {
		return err
	}
	if err := m.clickImage(AssetProjects, geometry.FullScreen); err != nil {
		m.sess.Warnf("Could not return to the projects view: %v", err)
	}
	return m.Sleep(ctx, 500*time.Millisecond)
}

func (m *Machine) step(ctx context.Context, s State, v *visit) (State, error) {
	switch s {
	case SelectProject:
		return m.selectProject(ctx, v)
	case SelectLevel:
		return m.selectLevel(ctx, v)
	case SelectRequirements:
		return m.selectRequirements(ctx, v)
	case SelectDomain:
		return m.selectDomain(ctx, v)
	case SelectUseCase:
		return m.selectUseCases(ctx, v)
	}
	return Done, nil
}

func (m *Machine) selectProject(ctx context.Context, v *visit) (State, error) {
	found, err := m.searchProject(ctx, v.project)
	if err != nil {
		return Skip, err
	}
	if !found {
		m.sess.Warnf("Project %s not found. Continuing to the next project.", v.project)
		return Skip, nil
	}
	m.report.Projects++
	return SelectLevel, nil
}

// searchProject opens the find dialog, searches for code and opens the
// result. It reports false when the project is not listed.
func (m *Machine) searchProject(ctx context.Context, code string) (bool, error) {
	for _, names := range [][]string{AssetTools, AssetFind} {
		if err := m.waitAndClick(ctx, names, m.Regions.Toolbar, m.Timeout); err != nil {
			return false, err
		}
	}
	if _, err := m.wait(ctx, AssetFindCheck, m.Regions.FindDialog, m.Timeout); err != nil {
		return false, err
	}
	if err := m.Input.TypeText(code); err != nil {
		return false, err
	}
	if err := m.Sleep(ctx, time.Second); err != nil {
		return false, err
	}
	if err := m.clickImage(AssetFindCheck, m.Regions.FindDialog); err != nil {
		return false, err
	}
	if err := m.Input.Press("enter"); err != nil {
		return false, err
	}

	_, err := m.wait(ctx, AssetProjectFolder, m.Regions.FindResult, 10*time.Second)
	found := err == nil
	switch {
	case found:
		if err := m.clickImageWith(m.Input.DoubleClick, AssetProjectFolder, m.Regions.FindResult); err != nil {
			return false, err
		}
		if err := m.Sleep(ctx, 2*time.Second); err != nil {
			return false, err
		}
	case !errors.Is(err, ErrNotVisible):
		return false, err
	}

	if err := m.clickImage(AssetFindClose, geometry.FullScreen); err != nil {
		m.sess.Warnf("Could not close the find dialog: %v", err)
	}
	return found, m.Sleep(ctx, time.Second)
}

func (m *Machine) selectLevel(ctx context.Context, v *visit) (State, error) {
	fm, err := m.mapAfter(ctx, IconProjectFolder, AssetProjectFolder)
	if err != nil {
		return Done, fmt.Errorf("failed to map level folders: %w", err)
	}
	name, ok := hierarchy.PickHighest(fm.Keys())
	if !ok {
		return Done, fmt.Errorf("no valid level folder in project %s: %w", v.project, ErrNoDestination)
	}
	m.sess.Infof("Selecting highest level folder: %s", name)
	if err := m.clickFolder(name, fm); err != nil {
		return Done, err
	}
	v.level = name
	return SelectRequirements, nil
}

func (m *Machine) selectRequirements(ctx context.Context, v *visit) (State, error) {
	fm, err := m.mapAfter(ctx, IconFolder, []string{IconFolder})
	if err != nil {
		return Done, fmt.Errorf("failed to map requirements folder: %w", err)
	}
	name, ok := hierarchy.PickRequirements(fm.Keys())
	if !ok {
		return Done, fmt.Errorf("functional requirements folder not found in %s: %w", v.project, ErrNoDestination)
	}
	if err := m.clickFolder(name, fm); err != nil {
		return Done, fmt.Errorf("error clicking on requirements folder: %w", err)
	}
	v.requirements = name
	return SelectDomain, nil
}

func (m *Machine) selectDomain(ctx context.Context, v *visit) (State, error) {
	fm, err := m.mapAfter(ctx, IconFolder, []string{IconFolder})
	if err != nil {
		return Done, fmt.Errorf("failed to map domain folders: %w", err)
	}
	name, ok := hierarchy.MatchDomain(fm.Keys(), m.run.Domains)
	if !ok {
		m.sess.Warnf("None of the specified domains was found in project %s. Available domains: %s",
			v.project, strings.Join(fm.Keys(), ", "))
		v.back = backFromDomains
		return Done, nil
	}
	m.sess.Infof("Domain found: %s", name)
	if err := m.clickFolder(name, fm); err != nil {
		return Done, err
	}
	v.domain = name
	return SelectUseCase, nil
}

func (m *Machine) selectUseCases(ctx context.Context, v *visit) (State, error) {
	fm, err := m.mapAfter(ctx, IconFolder, []string{IconFolder})
	if errors.Is(err, ErrNotVisible) {
		m.sess.Warnf("No use case folders under %s", v.domain)
		return Done, nil
	}
	if err != nil {
		return Done, err
	}

	selected := hierarchy.MatchUseCases(fm.Keys(), m.run.UseCases)
	if len(selected) == 0 {
		m.sess.Warnf("None of the specified use cases was found")
		return Done, nil
	}
	if len(m.run.UseCases) > 0 {
		m.sess.Infof("Use cases found: %s", strings.Join(selected, ", "))
	}

	for _, uc := range selected {
		if err := m.visitUseCase(ctx, v, uc, fm); err != nil {
			return Done, fmt.Errorf("use case %s: %w", uc, err)
		}
	}
	return Done, nil
}

func (m *Machine) visitUseCase(ctx context.Context, v *visit, uc string, fm *folders.FolderMap) error {
	if err := m.clickFolder(uc, fm); err != nil {
		m.sess.Warnf("Skipping use case %s: %v", uc, err)
		return nil
	}
	region := m.treeRegion()
	if err := m.Sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	subs, err := m.mapFolders(ctx, IconFolder, region)
	if err != nil {
		return err
	}
	modules, err := m.mapFolders(ctx, IconModule, region)
	if err != nil {
		return err
	}

	if subs.Len() == 0 && modules.Len() == 0 {
		m.sess.RegisterPath(v.path(uc, "(empty)")...)
	}
	if err := m.handleModules(ctx, v, modules, uc); err != nil {
		return err
	}

	if subs.Len() == 0 {
		if err := m.Sleep(ctx, time.Second); err != nil {
			return err
		}
		return driver.BackLevels(m.Input, 1)
	}

	for _, sub := range subs.Keys() {
		if err := m.clickFolder(sub, subs); err != nil {
			m.sess.Warnf("Skipping sub-folder %s: %v", sub, err)
			continue
		}
		modules, err := m.mapFolders(ctx, IconModule, m.treeRegion())
		if err != nil {
			return err
		}
		if modules.Len() == 0 {
			m.sess.RegisterPath(v.path(uc, sub, "(empty)")...)
		}
		if err := m.handleModules(ctx, v, modules, uc, sub); err != nil {
			return err
		}
		if err := m.Sleep(ctx, time.Second); err != nil {
			return err
		}
		if err := driver.BackLevels(m.Input, 1); err != nil {
			return err
		}
	}
	if err := m.Sleep(ctx, time.Second); err != nil {
		return err
	}
	return driver.BackLevels(m.Input, 2)
}

// handleModules records every module under folder and exports the wanted ones.
func (m *Machine) handleModules(ctx context.Context, v *visit, modules *folders.FolderMap, folder ...string) error {
	for _, name := range modules.Keys() {
		path := v.path(append(folder, name)...)
		m.sess.RegisterPath(path...)
		m.report.Modules = append(m.report.Modules, strings.Join(path, " / "))

		if !hierarchy.WantsExport(name, m.run.VFs) {
			continue
		}
		if err := m.exportModule(ctx, name, modules); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.sess.Errorf("Export of %s failed: %v", name, err)
			m.report.Failed = append(m.report.Failed, name)
			m.sess.RegisterPath(v.path(append(folder, name+" [export failed]")...)...)
			continue
		}
		m.report.Exported = append(m.report.Exported, name)
		m.sess.RegisterPath(v.path(append(folder, name+" [exported]")...)...)
	}
	return nil
}

func (m *Machine) exportModule(ctx context.Context, name string, modules *folders.FolderMap) error {
	if err := m.clickFolder(name, modules); err != nil {
		return err
	}
	if err := m.waitAndClick(ctx, AssetReadOnly, geometry.NewSearchRegion(0.05, 0.05, 0.8, 0.95), m.Timeout); err != nil {
		return err
	}
	if _, err := m.wait(ctx, AssetModuleMain, m.Regions.ModuleView, 20*time.Second); err != nil {
		return err
	}
	m.sess.Infof("Starting export of module: %s", name)
	return m.Exporter.Export(ctx, name)
}

// mapAfter waits for any of waitFor in the tree, then maps icon in the
// refined tree region.
func (m *Machine) mapAfter(ctx context.Context, icon string, waitFor []string) (*folders.FolderMap, error) {
	if _, err := m.wait(ctx, waitFor, m.Regions.Tree, m.Timeout); err != nil {
		return nil, err
	}
	return m.mapFolders(ctx, icon, m.treeRegion())
}

// mapFolders parks the pointer so no hover highlight covers a label, then
// maps icon in region.
func (m *Machine) mapFolders(ctx context.Context, icon string, region geometry.SearchRegion) (*folders.FolderMap, error) {
	if err := driver.Park(m.Input); err != nil {
		return nil, err
	}
	if err := m.Sleep(ctx, time.Second); err != nil {
		return nil, err
	}
	return m.See.MapFolders(icon, region), nil
}

// treeRegion bounds the tree by the column header: it starts below the
// header and ends at its left edge.
func (m *Machine) treeRegion() geometry.SearchRegion {
	x, y, ok := m.See.FindPosition(AssetMenuHeader, m.Regions.MenuHeader)
	if !ok {
		m.sess.Warnf("Could not find the menu header, using default coordinates")
		x, y = m.Regions.DefaultTreeX, m.Regions.DefaultTreeY
	}
	return geometry.SearchRegion{X0: m.Regions.Tree.X0, Y0: y, X1: x, Y1: m.Regions.Tree.Y1}
}

func (m *Machine) clickFolder(name string, fm *folders.FolderMap) error {
	e, score, ok := folders.Resolve(name, fm)
	if !ok {
		m.sess.Errorf("Folder '%s' not found in map", name)
		return fmt.Errorf("folder %q: %w", name, ErrNoDestination)
	}
	if score < folders.ScoreExact {
		m.sess.Infof("Folder '%s' matched '%s' (score %d)", name, e.Text, score)
	}
	m.sess.Infof("Opening folder '%s' at (%d, %d)", e.Text, e.ClickX, e.ClickY)
	return m.Input.DoubleClick(e.ClickX, e.ClickY)
}

// clickImage left-clicks the center of the best visible match of names.
func (m *Machine) clickImage(names []string, region geometry.SearchRegion) error {
	return m.clickImageWith(m.Input.Click, names, region)
}

func (m *Machine) clickImageWith(click func(x, y int) error, names []string, region geometry.SearchRegion) error {
	res, ok := m.See.Locate(names, region)
	if !ok {
		return fmt.Errorf("%s: %w", strings.Join(names, ", "), ErrNotVisible)
	}
	c := res.Center()
	return click(c.X, c.Y)
}

func (m *Machine) waitAndClick(ctx context.Context, names []string, region geometry.SearchRegion, timeout time.Duration) error {
	if _, err := m.wait(ctx, names, region, timeout); err != nil {
		return err
	}
	return m.clickImage(names, region)
}

// wait maps a timeout or interruption to ErrNotVisible and passes context
// errors through. The result location is region-relative.
func (m *Machine) wait(ctx context.Context, names []string, region geometry.SearchRegion, timeout time.Duration) (template.MatchResult, error) {
	res, err := m.See.WaitFor(ctx, template.WaitSpec{Templates: names, Region: region, Timeout: timeout})
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, ctx.Err()
	default:
		return res, fmt.Errorf("%s: %w (%v)", strings.Join(names, ", "), ErrNotVisible, err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
