package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/project"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// formatSizes renders the machine size ladder for editing.
func formatSizes(sizes []float64) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.FormatFloat(s, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// parseSizes reads a comma or space separated list of tonnages, sorted
// ascending without duplicates.
func parseSizes(text string) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' || r == ' ' })
	seen := map[float64]bool{}
	var sizes []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("machine sizes: %q is not a positive tonnage", f)
		}
		if !seen[v] {
			seen[v] = true
			sizes = append(sizes, v)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("machine sizes: at least one size is required")
	}
	sort.Float64s(sizes)
	return sizes, nil
}

// showSettingsDialog displays the application settings and policy editor.
func (a *App) showSettingsDialog() {
	cfg := a.config
	cfg.Policy.Clamping.MachineSizesTonnes = append([]float64(nil), a.config.Policy.Clamping.MachineSizesTonnes...)
	pol := &cfg.Policy

	// Helper to create a float entry bound to a pointer
	floatEntry := func(val *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(*val, 'f', -1, 64))
		e.OnChanged = func(text string) {
			if v, err := strconv.ParseFloat(text, 64); err == nil {
				*val = v
			}
		}
		return e
	}

	intEntry := func(val *int) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.Itoa(*val))
		e.OnChanged = func(text string) {
			if v, err := strconv.Atoi(text); err == nil {
				*val = v
			}
		}
		return e
	}

	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, func(selected string) {
		cfg.Theme = selected
	})
	themeSelect.SetSelected(cfg.Theme)

	machineSelect := widget.NewSelect(a.machineOptions(), func(selected string) {
		cfg.DefaultMachineID = a.machineIDByName(selected)
	})
	machineSelect.SetSelected(a.machineNameByID(cfg.DefaultMachineID))

	levelSelect := widget.NewSelect(logLevels, func(selected string) {
		cfg.LogLevel = selected
	})
	levelSelect.SetSelected(cfg.LogLevel)

	general := container.NewVBox(
		widget.NewCard("Application", "", container.NewGridWithColumns(2,
			widget.NewLabel("Theme"), themeSelect,
			widget.NewLabel("Default Machine"), machineSelect,
			widget.NewLabel("Log Level (after restart)"), levelSelect,
		)),
	)

	sizesEntry := widget.NewEntry()
	sizesEntry.SetText(formatSizes(pol.Clamping.MachineSizesTonnes))

	clamping := widget.NewCard("Clamping & Pressure", "", container.NewGridWithColumns(2,
		widget.NewLabel("Safety Factor"), floatEntry(&pol.Clamping.SafetyFactor),
		widget.NewLabel("Base Injection Pressure (bar)"), floatEntry(&pol.Clamping.BaseInjectionPressure),
		widget.NewLabel("Max Injection Pressure (bar)"), floatEntry(&pol.Clamping.MaxInjectionPressure),
		widget.NewLabel("Thin Wall Threshold (mm)"), floatEntry(&pol.Clamping.ThinWallThresholdMM),
		widget.NewLabel("Machine Sizes (t)"), sizesEntry,
		widget.NewLabel("Size Target Utilization"), floatEntry(&pol.Clamping.SizeTargetUtilization),
	))

	shot := widget.NewCard("Shot & Screw", "", container.NewGridWithColumns(2,
		widget.NewLabel("Runner Share (%)"), floatEntry(&pol.Shot.RunnerPercent),
		widget.NewLabel("Barrel Warning (%)"), floatEntry(&pol.Shot.BarrelWarningPercent),
		widget.NewLabel("Barrel Critical (%)"), floatEntry(&pol.Shot.BarrelCriticalPercent),
		widget.NewLabel("Weight Tolerance (%)"), floatEntry(&pol.Shot.WeightTolerancePercent),
		widget.NewLabel("Screw Optimal Min (D)"), floatEntry(&pol.Screw.OptimalMin),
		widget.NewLabel("Screw Optimal Max (D)"), floatEntry(&pol.Screw.OptimalMax),
		widget.NewLabel("Screw Acceptable Min (D)"), floatEntry(&pol.Screw.AcceptableMin),
		widget.NewLabel("Screw Acceptable Max (D)"), floatEntry(&pol.Screw.AcceptableMax),
	))

	partChecks := widget.NewCard("Part Data Checks", "", container.NewGridWithColumns(2,
		widget.NewLabel("Min Wall (mm)"), floatEntry(&pol.Part.MinWallMM),
		widget.NewLabel("Max Wall (mm)"), floatEntry(&pol.Part.MaxWallMM),
		widget.NewLabel("Flat Area Factor"), floatEntry(&pol.Part.FlatAreaFactor),
		widget.NewLabel("Area/Volume Limit"), floatEntry(&pol.Part.AreaVolumeLimit),
	))

	demand := widget.NewCard("Production Capacity", "", container.NewGridWithColumns(2,
		widget.NewLabel("Hours per Week"), floatEntry(&pol.Demand.HoursPerWeek),
		widget.NewLabel("Weeks per Year"), floatEntry(&pol.Demand.WeeksPerYear),
		widget.NewLabel("Efficiency (OEE, 0-1)"), floatEntry(&pol.Demand.Efficiency),
		widget.NewLabel("Infeasible Above (%)"), floatEntry(&pol.Demand.InfeasiblePercent),
		widget.NewLabel("High Utilization (%)"), floatEntry(&pol.Demand.HighPercent),
		widget.NewLabel("Low Utilization (%)"), floatEntry(&pol.Demand.LowPercent),
		widget.NewLabel("Min Plausible Cycle (s)"), floatEntry(&pol.Demand.MinPlausibleCycleS),
		widget.NewLabel("Max Plausible Cycle (s)"), floatEntry(&pol.Demand.MaxPlausibleCycleS),
		widget.NewLabel("Target Utilization (0-1)"), floatEntry(&pol.Demand.TargetUtilization),
		widget.NewLabel("Max Cavities"), intEntry(&pol.Demand.MaxCavities),
		widget.NewLabel("Imbalance Threshold (%)"), floatEntry(&pol.Demand.ImbalanceThresholdP),
	))

	fit := widget.NewCard("Machine Fit", "Fractions of machine capacity", container.NewGridWithColumns(2,
		widget.NewLabel("Platen Warning"), floatEntry(&pol.Fit.PlatenWarningFraction),
		widget.NewLabel("Clamp Issue"), floatEntry(&pol.Fit.ClampIssueFraction),
		widget.NewLabel("Clamp High"), floatEntry(&pol.Fit.ClampHighFraction),
		widget.NewLabel("Clamp Low"), floatEntry(&pol.Fit.ClampLowFraction),
		widget.NewLabel("Shot Issue"), floatEntry(&pol.Fit.ShotIssueFraction),
		widget.NewLabel("Shot Warning"), floatEntry(&pol.Fit.ShotWarningFraction),
	))

	var d dialog.Dialog

	resetBtn := widget.NewButtonWithIcon("Reset Policy", theme.ViewRefreshIcon(), func() {
		dialog.ShowConfirm("Reset Policy", "Replace every threshold with the defaults?", func(ok bool) {
			if !ok {
				return
			}
			a.config.Policy = model.DefaultPolicy()
			a.saveConfig()
			a.evals = nil
			a.refreshAll()
			d.Hide()
		}, a.window)
	})
	importBtn := widget.NewButtonWithIcon("Import Policy...", theme.FolderOpenIcon(), func() {
		a.importPolicy(func() { d.Hide() })
	})
	exportBtn := widget.NewButtonWithIcon("Export Policy...", theme.DocumentSaveIcon(), func() {
		a.exportPolicy()
	})

	tabs := container.NewAppTabs(
		container.NewTabItem("General", general),
		container.NewTabItem("Clamping", container.NewVScroll(clamping)),
		container.NewTabItem("Shot", container.NewVScroll(container.NewVBox(shot, partChecks))),
		container.NewTabItem("Demand", container.NewVScroll(demand)),
		container.NewTabItem("Fit", container.NewVScroll(fit)),
	)
	content := container.NewBorder(nil,
		container.NewHBox(resetBtn, layout.NewSpacer(), importBtn, exportBtn),
		nil, nil, tabs)

	d = dialog.NewCustomConfirm("Settings", "Save", "Cancel", content, func(ok bool) {
		if !ok {
			return
		}
		sizes, err := parseSizes(sizesEntry.Text)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		pol.Clamping.MachineSizesTonnes = sizes
		if err := pol.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("invalid policy: %w", err), a.window)
			return
		}

		a.config = cfg
		a.saveConfig()
		a.theme.SetVariantName(cfg.Theme)
		a.app.Settings().SetTheme(a.theme)
		a.evals = nil
		a.refreshAll()
		a.log.Info("settings saved", zap.String("theme", cfg.Theme), zap.String("default_machine", cfg.DefaultMachineID))
	}, a.window)
	d.Resize(fyne.NewSize(560, 640))
	d.Show()
}

func (a *App) importPolicy(onDone func()) {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		policy, err := project.LoadPolicy(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.config.Policy = policy
		a.saveConfig()
		a.evals = nil
		a.refreshAll()
		onDone()
		a.log.Info("policy imported", zap.String("path", path))
	}, a.window)
}

func (a *App) exportPolicy() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := project.SavePolicy(path, a.config.Policy); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Policy saved to %s", path), a.window)
	}, a.window)
	d.SetFileName("moldquote-policy.json")
	d.Show()
}

// ─── Backup ────────────────────────────────────────────────

func (a *App) exportBackup() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := project.ExportAllData(path, a.config, a.library); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete",
			fmt.Sprintf("Settings and library exported to:\n%s", path), a.window)
	}, a.window)
	d.SetFileName("moldquote-backup.json")
	d.Show()
}

func (a *App) importBackup() {
	dialog.ShowConfirm("Import Backup",
		"Importing a backup replaces your current settings and library.\n\nAre you sure you want to continue?",
		func(ok bool) {
			if !ok {
				return
			}
			dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err != nil || reader == nil {
					return
				}
				path := reader.URI().Path()
				reader.Close()
				backup, err := project.ImportAllData(path)
				if err != nil {
					dialog.ShowError(err, a.window)
					return
				}
				a.config = backup.Config
				a.library = backup.Library
				a.saveConfig()
				a.saveLibrary()
				a.theme.SetVariantName(a.config.Theme)
				a.app.Settings().SetTheme(a.theme)
				a.evals = nil
				a.refreshAll()
				a.SetupMenus()
				dialog.ShowInformation("Import Complete",
					fmt.Sprintf("Data imported from backup created at %s.", backup.CreatedAt), a.window)
			}, a.window)
		},
		a.window,
	)
}
