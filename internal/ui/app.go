package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/export"
	partimporter "github.com/piwi3910/MoldQuote/internal/importer"
	"github.com/piwi3910/MoldQuote/internal/logging"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/project"
)

// Tab indices of the main window.
const (
	tabRFQ = iota
	tabParts
	tabTools
	tabResults
)

// App holds all application state and UI references.
type App struct {
	app    fyne.App
	window fyne.Window
	log    *logging.Logger
	theme  *MoldQuoteTheme

	project     model.Project
	projectPath string
	dirty       bool
	history     *History

	library     model.Library
	libraryPath string
	config      model.AppConfig
	configPath  string

	// Last evaluation; nil when the project changed since.
	evals []engine.ToolEvaluation

	tabs *container.AppTabs

	// UI references for dynamic updates
	rfqContainer    *fyne.Container
	partsContainer  *fyne.Container
	toolsContainer  *fyne.Container
	resultContainer *fyne.Container
}

// NewApp loads the app config and the material and machine library from the
// config directory. Missing or unreadable files fall back to defaults.
func NewApp(fyneApp fyne.App, window fyne.Window, log *logging.Logger) *App {
	a := &App{
		app:        fyneApp,
		window:     window,
		log:        log,
		project:    model.NewProject(),
		history:    NewHistory(),
		configPath: project.DefaultConfigPath(),
	}

	cfg, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		log.Warn("failed to load app config, using defaults", zap.Error(err))
		cfg = model.DefaultAppConfig()
	}
	a.config = cfg

	lib, libPath, err := project.LoadOrCreateLibrary()
	if err != nil {
		log.Warn("failed to load library, using presets", zap.Error(err))
		lib = model.DefaultLibrary()
	}
	a.library, a.libraryPath = lib, libPath

	a.theme = NewMoldQuoteTheme(cfg.Theme)
	fyneApp.Settings().SetTheme(a.theme)

	window.SetCloseIntercept(a.confirmQuit)
	a.updateTitle()
	return a
}

// SetupMenus creates the native menu bar for the application. It is called
// again whenever the undo state or the recent project list changes.
func (a *App) SetupMenus() {
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = a.buildRecentMenu()

	// File Menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New RFQ", func() {
			a.confirmDiscard(a.newProject)
		}),
		fyne.NewMenuItem("Open RFQ...", func() {
			a.confirmDiscard(a.loadProject)
		}),
		recentItem,
		fyne.NewMenuItem("Save", func() {
			a.saveProject(false)
		}),
		fyne.NewMenuItem("Save As...", func() {
			a.saveProject(true)
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Parts from CSV...", func() {
			a.importParts("csv")
		}),
		fyne.NewMenuItem("Import Parts from Excel...", func() {
			a.importParts("excel")
		}),
		fyne.NewMenuItem("Import Part Outlines from DXF...", func() {
			a.importParts("dxf")
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Excel Report...", func() {
			a.exportReport("xlsx")
		}),
		fyne.NewMenuItem("Export PDF Report...", func() {
			a.exportReport("pdf")
		}),
		fyne.NewMenuItem("Export Tool Labels...", func() {
			a.exportReport("labels")
		}),
		fyne.NewMenuItem("Export Platen Layout (DXF)...", func() {
			a.showLayoutExportDialog()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Backup...", func() {
			a.exportBackup()
		}),
		fyne.NewMenuItem("Import Backup...", func() {
			a.importBackup()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.confirmQuit()
		}),
	)

	undoLabel := "Undo"
	if l := a.history.UndoLabel(); l != "" {
		undoLabel = "Undo " + l
	}
	undoItem := fyne.NewMenuItem(undoLabel, a.undo)
	undoItem.Disabled = !a.history.CanUndo()
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoItem := fyne.NewMenuItem("Redo", a.redo)
	redoItem.Disabled = !a.history.CanRedo()
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}

	// Edit Menu
	editMenu := fyne.NewMenu("Edit",
		undoItem,
		redoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear All Tools", func() {
			a.mutate("Clear Tools", func(p *model.Project) { p.Tools = []model.Tool{} })
		}),
	)

	// Library Menu
	libraryMenu := fyne.NewMenu("Library",
		fyne.NewMenuItem("Materials...", func() {
			a.showMaterialsDialog()
		}),
		fyne.NewMenuItem("Machines...", func() {
			a.showMachinesDialog()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Library...", func() {
			a.importLibrary()
		}),
		fyne.NewMenuItem("Export Library...", func() {
			a.exportLibrary()
		}),
	)

	// Tools Menu
	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Evaluate RFQ", func() {
			a.runEvaluation()
			a.tabs.SelectIndex(tabResults)
		}),
		fyne.NewMenuItem("Compare Machines...", func() {
			a.showCompareToolPicker()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", func() {
			a.showSettingsDialog()
		}),
	)

	// Help Menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			a.showAboutDialog()
		}),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(
		fileMenu,
		editMenu,
		libraryMenu,
		toolsMenu,
		helpMenu,
	))
}

func (a *App) buildRecentMenu() *fyne.Menu {
	if len(a.config.RecentProjects) == 0 {
		empty := fyne.NewMenuItem("No recent projects", nil)
		empty.Disabled = true
		return fyne.NewMenu("", empty)
	}
	items := make([]*fyne.MenuItem, 0, len(a.config.RecentProjects))
	for _, path := range a.config.RecentProjects {
		p := path
		items = append(items, fyne.NewMenuItem(filepath.Base(p), func() {
			a.confirmDiscard(func() { a.openProjectPath(p) })
		}))
	}
	return fyne.NewMenu("", items...)
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About MoldQuote",
		"MoldQuote - Injection Mold Tooling Feasibility\n\n"+
			"Sizes injection molds for quote requests: clamping force,\n"+
			"shot volume, cycle time, demand and machine fit.\n\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	rfqTab := container.NewTabItem("RFQ", a.buildRFQPanel())
	partsTab := container.NewTabItem("Parts", a.buildPartsPanel())
	toolsTab := container.NewTabItem("Tools", a.buildToolsPanel())
	resultsTab := container.NewTabItem("Results", a.buildResultsPanel())

	a.tabs = container.NewAppTabs(rfqTab, partsTab, toolsTab, resultsTab)
	a.tabs.SetTabLocation(container.TabLocationTop)

	a.window.Canvas().AddShortcut(
		&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.saveProject(false) },
	)
	a.window.Canvas().AddShortcut(
		&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.undo() },
	)
	a.window.Canvas().AddShortcut(
		&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.redo() },
	)

	return withTooltipLayer(a.tabs, a.window.Canvas())
}

// ─── State Changes ─────────────────────────────────────────

// mutate records an undo snapshot, applies fn to the project and refreshes
// every panel.
func (a *App) mutate(label string, fn func(p *model.Project)) {
	a.history.Push(MakeSnapshot(a.project, label))
	fn(&a.project)
	a.changed()
}

func (a *App) changed() {
	a.dirty = true
	a.evals = nil
	a.refreshAll()
	a.SetupMenus()
	a.updateTitle()
}

func (a *App) undo() {
	prev, ok := a.history.Undo(MakeSnapshot(a.project, ""))
	if !ok {
		return
	}
	a.project = prev.Project
	a.changed()
}

func (a *App) redo() {
	next, ok := a.history.Redo(MakeSnapshot(a.project, ""))
	if !ok {
		return
	}
	a.project = next.Project
	a.changed()
}

func (a *App) refreshAll() {
	a.refreshRFQPanel()
	a.refreshPartsList()
	a.refreshToolsList()
	a.refreshResults()
}

func (a *App) updateTitle() {
	title := "MoldQuote - " + a.project.Name
	if a.dirty {
		title += " *"
	}
	a.window.SetTitle(title)
}

// setProject replaces the open project and resets the undo history.
func (a *App) setProject(p model.Project, path string) {
	a.project = p
	a.projectPath = path
	a.dirty = false
	a.evals = nil
	a.history.Clear()
	a.refreshAll()
	a.SetupMenus()
	a.updateTitle()
}

func (a *App) confirmDiscard(next func()) {
	if !a.dirty {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The current RFQ has unsaved changes. Discard them?",
		func(ok bool) {
			if ok {
				next()
			}
		}, a.window)
}

func (a *App) confirmQuit() {
	a.confirmDiscard(func() {
		_ = a.log.Sync()
		a.app.Quit()
	})
}

func (a *App) saveConfig() {
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		a.log.Error("failed to save app config", zap.Error(err))
		dialog.ShowError(err, a.window)
	}
}

func (a *App) saveLibrary() {
	if err := project.SaveLibrary(a.libraryPath, a.library); err != nil {
		a.log.Error("failed to save library", zap.Error(err))
		dialog.ShowError(err, a.window)
	}
}

// ─── Project Files ─────────────────────────────────────────

func (a *App) newProject() {
	a.setProject(model.NewProject(), "")
	a.tabs.SelectIndex(tabRFQ)
}

func (a *App) saveProject(saveAs bool) {
	if a.projectPath != "" && !saveAs {
		a.writeProject(a.projectPath)
		return
	}
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		a.writeProject(path)
	}, a.window)
	d.SetFileName(a.project.Name + project.FileExtension)
	d.SetFilter(storage.NewExtensionFileFilter([]string{project.FileExtension}))
	d.Show()
}

func (a *App) writeProject(path string) {
	written, err := project.Save(path, a.project)
	if err != nil {
		a.log.Error("failed to save project", zap.String("path", path), zap.Error(err))
		dialog.ShowError(err, a.window)
		return
	}
	a.projectPath = written
	a.dirty = false
	a.config.AddRecentProject(written)
	a.saveConfig()
	a.SetupMenus()
	a.updateTitle()
	a.log.Info("project saved", zap.String("path", written), zap.String("rfq", a.project.Name))
}

func (a *App) loadProject() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		a.openProjectPath(path)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{project.FileExtension}))
	d.Show()
}

func (a *App) openProjectPath(path string) {
	proj, err := project.Load(path)
	if err != nil {
		a.log.Error("failed to load project", zap.String("path", path), zap.Error(err))
		dialog.ShowError(err, a.window)
		return
	}
	a.setProject(proj, path)
	a.config.AddRecentProject(path)
	a.saveConfig()
	a.SetupMenus()
	a.log.Info("project opened", zap.String("path", path), zap.Int("parts", len(proj.Parts)), zap.Int("tools", len(proj.Tools)))
}

// ─── Evaluation ────────────────────────────────────────────

// runEvaluation evaluates every tool of the project and shows the results.
func (a *App) runEvaluation() {
	a.evals = engine.EvaluateProject(a.project, a.library, a.config.Policy)
	for _, ev := range a.evals {
		if ev.Report == nil {
			a.log.Warn("tool not evaluated", zap.String("tool", ev.Tool.Name), zap.String("error", ev.Error))
			continue
		}
		a.log.LogEvaluation(ev.Report.ToolName, ev.Report.MachineName, ev.Report.Fits(), len(ev.Report.Warnings))
	}
	a.refreshResults()
}

// evaluations returns the current evaluation, running it when stale.
func (a *App) evaluations() []engine.ToolEvaluation {
	if a.evals == nil {
		a.runEvaluation()
	}
	return a.evals
}

// ─── Import / Export ───────────────────────────────────────

func (a *App) importParts(kind string) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		var result partimporter.ImportResult
		switch kind {
		case "excel":
			result = partimporter.ImportExcel(path, a.library)
		case "dxf":
			result = partimporter.ImportDXF(path)
		default:
			result = partimporter.ImportCSV(path, a.library)
		}
		a.log.LogImport(filepath.Base(path), len(result.Parts), len(result.Errors), len(result.Warnings))
		a.handleImportResult(result)
	}, a.window)
	switch kind {
	case "excel":
		d.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx"}))
	case "dxf":
		d.SetFilter(storage.NewExtensionFileFilter([]string{".dxf"}))
	default:
		d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt"}))
	}
	d.Show()
}

func (a *App) handleImportResult(result partimporter.ImportResult) {
	if len(result.Errors) > 0 {
		errorMsg := "Errors encountered during import:\n\n" + strings.Join(result.Errors, "\n")
		dialog.ShowError(fmt.Errorf("%s", errorMsg), a.window)
	}
	for _, w := range result.Warnings {
		a.log.Warn("import warning", zap.String("warning", w))
	}

	if len(result.Parts) > 0 {
		a.mutate("Import Parts", func(p *model.Project) {
			p.Parts = append(p.Parts, result.Parts...)
		})
		a.tabs.SelectIndex(tabParts)

		msg := fmt.Sprintf("Successfully imported %d parts.", len(result.Parts))
		if len(result.Errors) > 0 {
			msg += fmt.Sprintf("\n\nHowever, %d rows had errors and were skipped.", len(result.Errors))
		}
		dialog.ShowInformation("Import Complete", msg, a.window)
	}
}

// exportReport writes the Excel report, PDF report or label sheet.
func (a *App) exportReport(kind string) {
	if len(a.project.Tools) == 0 {
		dialog.ShowInformation("Nothing to export", "Add at least one tool to the RFQ first.", a.window)
		return
	}
	evals := a.evaluations()

	ext := "." + kind
	if kind == "labels" {
		ext = ".pdf"
	}
	name := a.project.Name
	if kind == "labels" {
		name += " labels"
	}

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		switch kind {
		case "xlsx":
			err = export.ExportExcel(path, a.project, a.library, evals)
		case "labels":
			err = export.ExportLabels(path, a.project, evals)
		default:
			err = export.ExportPDF(path, a.project, evals)
		}
		if err != nil {
			a.log.Error("export failed", zap.String("format", kind), zap.String("path", path), zap.Error(err))
			dialog.ShowError(err, a.window)
			return
		}
		a.log.Info("report exported", zap.String("format", kind), zap.String("path", path))
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Saved to %s", path), a.window)
	}, a.window)
	d.SetFileName(name + ext)
	d.Show()
}

// layoutCandidates returns the evaluations that can be drawn on a platen.
func layoutCandidates(evals []engine.ToolEvaluation) []engine.ToolEvaluation {
	var out []engine.ToolEvaluation
	for _, ev := range evals {
		if ev.Machine != nil && ev.Report != nil && ev.Report.Dimensions != nil {
			out = append(out, ev)
		}
	}
	return out
}

func (a *App) showLayoutExportDialog() {
	candidates := layoutCandidates(a.evaluations())
	if len(candidates) == 0 {
		dialog.ShowInformation("No layout available",
			"Assign a machine to a tool and give it dimensions or parts with a footprint first.", a.window)
		return
	}
	names := make([]string, len(candidates))
	for i, ev := range candidates {
		names[i] = ev.Tool.Name
	}
	toolSelect := widget.NewSelect(names, nil)
	toolSelect.SetSelectedIndex(0)

	dialog.ShowForm("Export Platen Layout", "Export", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Tool", toolSelect)},
		func(ok bool) {
			if !ok || toolSelect.SelectedIndex() < 0 {
				return
			}
			a.exportLayoutDXF(candidates[toolSelect.SelectedIndex()])
		}, a.window)
}

func (a *App) exportLayoutDXF(ev engine.ToolEvaluation) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := export.ExportLayoutDXF(path, *ev.Machine, *ev.Report.Dimensions); err != nil {
			a.log.Error("layout export failed", zap.String("tool", ev.Tool.Name), zap.Error(err))
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Platen layout saved to %s", path), a.window)
	}, a.window)
	d.SetFileName(ev.Tool.Name + " layout.dxf")
	d.Show()
}
