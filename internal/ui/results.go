package ui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/export"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/ui/widgets"
)

// ─── Results Panel ─────────────────────────────────────────

func (a *App) buildResultsPanel() fyne.CanvasObject {
	a.resultContainer = container.NewStack()
	a.refreshResults()
	return a.resultContainer
}

func (a *App) refreshResults() {
	if a.resultContainer == nil {
		return
	}
	a.resultContainer.RemoveAll()
	if a.evals == nil {
		a.resultContainer.Add(widget.NewLabel("No results yet. Add parts and tools, then click Evaluate."))
		a.resultContainer.Refresh()
		return
	}
	if len(a.evals) == 0 {
		a.resultContainer.Add(widget.NewLabel("The RFQ has no tools to evaluate."))
		a.resultContainer.Refresh()
		return
	}

	cards := container.NewVBox()
	for _, ev := range a.evals {
		cards.Add(a.buildEvaluationCard(ev))
	}
	a.resultContainer.Add(container.NewVScroll(cards))
	a.resultContainer.Refresh()
}

func (a *App) buildEvaluationCard(ev engine.ToolEvaluation) fyne.CanvasObject {
	if ev.Report == nil {
		return widget.NewCard(ev.Tool.Name, "Not evaluated", widget.NewLabel(ev.Error))
	}
	r := *ev.Report

	body := container.NewVBox()
	for _, s := range reportSections(r) {
		if len(s.lines) == 0 {
			continue
		}
		body.Add(widget.NewLabelWithStyle(s.title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		for _, line := range s.lines {
			l := widget.NewLabel(line)
			l.Wrapping = fyne.TextWrapWord
			body.Add(l)
		}
	}
	if groups := a.groupSummaries(ev); len(groups) > 0 {
		body.Add(widget.NewLabelWithStyle("Alternative Configurations", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		for _, g := range groups {
			body.Add(widget.NewLabel(g))
		}
	}

	compareBtn := widget.NewButtonWithIcon("Compare Machines", theme.SearchIcon(), func() {
		a.showCompareDialog(ev.Tool.ID)
	})
	buttons := container.NewHBox(layout.NewSpacer(), compareBtn)

	var left fyne.CanvasObject = body
	if ev.Machine != nil && r.Dimensions != nil {
		l := export.NewLayout(*ev.Machine, *r.Dimensions)
		platen := widgets.NewPlatenCanvas(l, ev.Machine.Name, 280, 280)
		layoutBtn := widget.NewButtonWithIcon("Export Layout", theme.DocumentSaveIcon(), func() {
			a.exportLayoutDXF(ev)
		})
		buttons.Add(layoutBtn)
		left = container.NewBorder(nil, nil, nil, container.NewVBox(platen), body)
	}

	return widget.NewCard(r.ToolName, reportStatus(r), container.NewBorder(nil, buttons, nil, nil, left))
}

// reportStatus is the one-line verdict shown under the tool name.
func reportStatus(r engine.ToolReport) string {
	var parts []string
	switch {
	case r.Fit == nil:
		parts = append(parts, "No machine assigned")
	case r.Fit.Fits:
		parts = append(parts, "Fits "+r.MachineName)
	default:
		parts = append(parts, fmt.Sprintf("Does NOT fit %s (%d issue(s))", r.MachineName, len(r.Fit.Issues)))
	}
	if r.Feasible() {
		parts = append(parts, "demand feasible")
	} else {
		parts = append(parts, "demand NOT feasible")
	}
	if n := len(r.Warnings); n > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", n))
	}
	return strings.Join(parts, " · ")
}

type reportSection struct {
	title string
	lines []string
}

// reportSections renders a tool report as titled groups of text lines.
func reportSections(r engine.ToolReport) []reportSection {
	var clamp reportSection
	clamp.title = "Clamping"
	if c := r.Clamping; c != nil {
		clamp.lines = append(clamp.lines, fmt.Sprintf("Required clamping force: %.1f kN (%.1f t)", c.ForceKN, c.ForceKN/10))
		clamp.lines = append(clamp.lines, fmt.Sprintf("Specific pressure: %.0f bar (%s), safety factor %.2f", c.PressureBar, pressureSourceText(c.PressureSource), c.SafetyFactor))
		for _, pf := range c.Breakdown {
			clamp.lines = append(clamp.lines, fmt.Sprintf("  %s: %.2f cm² × %d = %.1f kN", pf.PartName, pf.AreaCM2, pf.Cavities, pf.ForceKN))
		}
	} else if r.ClampingError != "" {
		clamp.lines = append(clamp.lines, "Not calculated: "+r.ClampingError)
	}
	if r.InjectionPressureBar != nil {
		clamp.lines = append(clamp.lines, fmt.Sprintf("Estimated injection pressure: %.0f bar", *r.InjectionPressureBar))
	}
	if r.MachineSize != nil {
		clamp.lines = append(clamp.lines, "Machine size: "+r.MachineSize.Label)
	}

	var shot reportSection
	shot.title = "Shot"
	shot.lines = append(shot.lines, fmt.Sprintf("Cavities: %d, lifters: %d, sliders: %d", r.Totals.TotalCavities, r.Totals.TotalLifters, r.Totals.TotalSliders))
	if r.ShotVolume.TotalCM3 > 0 {
		shot.lines = append(shot.lines, fmt.Sprintf("Shot volume: %.1f cm³ (parts %.1f + runner %.1f)", r.ShotVolume.TotalCM3, r.ShotVolume.PartsCM3, r.ShotVolume.RunnerCM3))
	}
	if r.ShotWeight.TotalG > 0 {
		shot.lines = append(shot.lines, fmt.Sprintf("Shot weight: %.1f g", r.ShotWeight.TotalG))
	}
	if r.Barrel != nil && r.Barrel.HasData() {
		shot.lines = append(shot.lines, fmt.Sprintf("Barrel usage: %.1f%% - %s", r.Barrel.Percent, r.Barrel.Message))
	}
	if r.Screw != nil {
		shot.lines = append(shot.lines, fmt.Sprintf("Screw stroke ratio: %.2f D - %s", r.Screw.Ratio, r.Screw.Message))
	}

	var demand reportSection
	demand.title = "Production"
	if r.CycleTimeS != nil {
		suffix := ""
		if r.CycleTimeEstimated {
			suffix = " (estimated)"
		}
		demand.lines = append(demand.lines, fmt.Sprintf("Cycle time: %.1f s%s", *r.CycleTimeS, suffix))
	}
	for _, d := range r.Demand {
		line := fmt.Sprintf("%s: %s pcs/yr on %d cavities", d.PartName, countText(&d.AnnualDemand), d.Cavities)
		if d.Check != nil {
			line += " - " + d.Check.String()
		}
		if d.RecommendedCavities > 0 && d.RecommendedCavities != d.Cavities {
			line += fmt.Sprintf(" (recommended: %d)", d.RecommendedCavities)
		}
		demand.lines = append(demand.lines, line)
	}
	if r.Imbalance.Checked {
		demand.lines = append(demand.lines, r.Imbalance.Message)
	}

	var fit reportSection
	fit.title = "Machine Fit"
	if d := r.Dimensions; d != nil {
		suffix := ""
		if r.DimensionsEstimated {
			suffix = fmt.Sprintf(" (estimated, %d × %d cavities)", d.Columns, d.Rows)
		}
		fit.lines = append(fit.lines, fmt.Sprintf("Mold: %.0f × %.0f × %.0f mm%s", d.WidthMM, d.HeightMM, d.LengthMM, suffix))
	}
	if r.Fit != nil {
		fit.lines = append(fit.lines, r.Fit.String())
	}

	var warn reportSection
	warn.title = "Warnings"
	warn.lines = append(warn.lines, r.Warnings...)

	return []reportSection{clamp, shot, demand, fit, warn}
}

func pressureSourceText(s engine.PressureSource) string {
	switch s {
	case engine.PressureManual:
		return "manual"
	case engine.PressureMaterialMax:
		return "material max"
	default:
		return "material average"
	}
}

// groupSummaries evaluates each alternative configuration group of a tool on
// its own.
func (a *App) groupSummaries(ev engine.ToolEvaluation) []string {
	if !ev.Tool.HasAlternativeConfigs() {
		return nil
	}
	rt, err := a.project.ResolveTool(ev.Tool.ID, a.library)
	if err != nil {
		return nil
	}
	var lines []string
	for _, g := range ev.Tool.ConfigGroups() {
		report, err := engine.Evaluate(engine.WithConfigGroup(rt, g), ev.Machine, a.config.Policy)
		if err != nil {
			lines = append(lines, fmt.Sprintf("Group %d: %v", g, err))
			continue
		}
		line := fmt.Sprintf("Group %d: %d cavities", g, report.Totals.TotalCavities)
		if report.Clamping != nil {
			line += fmt.Sprintf(", %.1f kN", report.Clamping.ForceKN)
		}
		if report.Fit != nil {
			line += ", " + fitText(report.Fit.Fits)
		}
		lines = append(lines, line)
	}
	return lines
}

func fitText(fits bool) string {
	if fits {
		return "fits"
	}
	return "does not fit"
}

// ─── Machine Comparison ────────────────────────────────────

func (a *App) showCompareToolPicker() {
	if len(a.project.Tools) == 0 {
		dialog.ShowInformation("No tools", "Add a tool to the RFQ first.", a.window)
		return
	}
	names := make([]string, len(a.project.Tools))
	for i, t := range a.project.Tools {
		names[i] = t.Name
	}
	toolSelect := widget.NewSelect(names, nil)
	toolSelect.SetSelectedIndex(0)
	dialog.ShowForm("Compare Machines", "Compare", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Tool", toolSelect)},
		func(ok bool) {
			if ok && toolSelect.SelectedIndex() >= 0 {
				a.showCompareDialog(a.project.Tools[toolSelect.SelectedIndex()].ID)
			}
		}, a.window)
}

// showCompareDialog ranks every library machine for one tool.
func (a *App) showCompareDialog(toolID string) {
	rt, err := a.project.ResolveTool(toolID, a.library)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	results, err := engine.CompareMachines(rt, a.library.Machines, a.config.Policy)
	if err != nil {
		a.log.Warn("machine comparison failed", zap.String("tool", rt.Tool.Name), zap.Error(err))
		dialog.ShowError(err, a.window)
		return
	}

	list := container.NewVBox(container.NewGridWithColumns(6,
		widget.NewLabelWithStyle("Machine", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Clamp", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Fits", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Issues", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Warnings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel(""),
	), widget.NewSeparator())

	var d dialog.Dialog
	for _, c := range results {
		mc := c
		clamp := "-"
		if mc.ClampCapacityKN > 0 {
			clamp = fmt.Sprintf("%.0f kN", mc.ClampCapacityKN)
		}
		list.Add(container.NewGridWithColumns(6,
			widget.NewLabel(mc.MachineName),
			widget.NewLabel(clamp),
			widget.NewLabel(fitText(mc.Fits)),
			widget.NewLabel(strconv.Itoa(mc.IssueCount)),
			widget.NewLabel(strconv.Itoa(mc.WarningCount)),
			newIconButtonWithTooltip(theme.ConfirmIcon(), "Assign this machine to the tool", func() {
				a.mutate("Assign Machine", func(p *model.Project) {
					if t := p.FindTool(toolID); t != nil {
						t.MachineID = mc.MachineID
					}
				})
				a.runEvaluation()
				if d != nil {
					d.Hide()
				}
			}),
		))
	}

	d = dialog.NewCustom("Compare Machines - "+rt.Tool.Name, "Close", container.NewVScroll(list), a.window)
	d.Resize(fyne.NewSize(720, 480))
	d.Show()
}
