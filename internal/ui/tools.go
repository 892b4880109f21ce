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

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

var complexityOptions = []string{noneOption, "1", "2", "3", "4", "5"}

// ─── Tools Panel ───────────────────────────────────────────

func (a *App) buildToolsPanel() fyne.CanvasObject {
	a.toolsContainer = container.NewVBox()
	a.refreshToolsList()

	addBtn := widget.NewButtonWithIcon("Add Tool", theme.ContentAddIcon(), func() {
		a.showToolDialog(-1)
	})
	evalBtn := widget.NewButtonWithIcon("Evaluate", theme.MediaPlayIcon(), func() {
		a.runEvaluation()
		a.tabs.SelectIndex(tabResults)
	})

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Injection Molds", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			addBtn,
			evalBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.toolsContainer),
	)
}

func (a *App) refreshToolsList() {
	if a.toolsContainer == nil {
		return
	}
	a.toolsContainer.RemoveAll()

	if len(a.project.Tools) == 0 {
		a.toolsContainer.Add(widget.NewLabel("No tools defined. Click 'Add Tool' and assign parts to it."))
		return
	}

	header := container.NewGridWithColumns(11,
		widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Type", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Feed", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Parts", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Cavities", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Machine", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Cycle", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Price", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel(""),
		widget.NewLabel(""),
		widget.NewLabel(""),
	)
	a.toolsContainer.Add(header)
	a.toolsContainer.Add(widget.NewSeparator())

	for i := range a.project.Tools {
		idx := i
		t := a.project.Tools[idx]

		machine := "-"
		if m := a.library.FindMachineByID(t.MachineID); m != nil {
			machine = m.Name
		}
		cavities := strconv.Itoa(t.Cavities)
		if rt, err := a.project.ResolveTool(t.ID, a.library); err == nil {
			totals := engine.ToolTotals(rt)
			cavities = strconv.Itoa(totals.TotalCavities)
			if t.HasAlternativeConfigs() {
				cavities += " (alt.)"
			}
		}

		row := container.NewGridWithColumns(11,
			widget.NewLabel(t.Name),
			widget.NewLabel(t.Type.String()),
			widget.NewLabel(t.InjectionSystem.String()),
			widget.NewLabel(strconv.Itoa(t.PartsCount())),
			widget.NewLabel(cavities),
			widget.NewLabel(machine),
			widget.NewLabel(valueText(t.CycleTimeS, "s")),
			widget.NewLabel(priceText(t)),
			newIconButtonWithTooltip(theme.DocumentCreateIcon(), "Edit tool", func() {
				a.showToolDialog(idx)
			}),
			newIconButtonWithTooltip(theme.ListIcon(), "Part configurations", func() {
				a.showConfigurationsDialog(idx)
			}),
			newIconButtonWithTooltip(theme.DeleteIcon(), "Delete tool", func() {
				a.mutate("Delete Tool", func(p *model.Project) {
					p.Tools = append(p.Tools[:idx], p.Tools[idx+1:]...)
				})
			}),
		)
		a.toolsContainer.Add(row)
	}
}

func (a *App) machineOptions() []string {
	return append([]string{noneOption}, a.library.MachineNames()...)
}

func (a *App) machineIDByName(name string) string {
	if m := a.library.FindMachineByName(name); m != nil {
		return m.ID
	}
	return ""
}

func (a *App) machineNameByID(id string) string {
	if m := a.library.FindMachineByID(id); m != nil {
		return m.Name
	}
	return noneOption
}

func (a *App) partOptions() []string {
	names := make([]string, len(a.project.Parts))
	for i, p := range a.project.Parts {
		names[i] = p.Name
	}
	return names
}

func (a *App) partIDByName(name string) string {
	for _, p := range a.project.Parts {
		if p.Name == name {
			return p.ID
		}
	}
	return ""
}

func (a *App) partNameByID(id string) string {
	if p := a.project.FindPart(id); p != nil {
		return p.Name
	}
	return noneOption
}

// showToolDialog adds a tool when idx is negative, else edits tool idx.
func (a *App) showToolDialog(idx int) {
	var t model.Tool
	if idx < 0 {
		t = model.NewTool(fmt.Sprintf("Tool %d", len(a.project.Tools)+1))
		t.MachineID = a.config.DefaultMachineID
	} else {
		t = a.project.Tools[idx]
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(t.Name)
	typeOptions := []model.ToolType{model.ToolSingle, model.ToolFamily}
	typeSelect := widget.NewSelect(optionLabels(typeOptions), nil)
	typeSelect.SetSelected(t.Type.String())
	systemSelect := widget.NewSelect(optionLabels(model.InjectionSystems), nil)
	systemSelect.SetSelected(t.InjectionSystem.String())
	pointsEntry := widget.NewEntry()
	pointsEntry.SetText(optIntText(t.InjectionPoints))
	nozzleSelect := widget.NewSelect(optionLabels(model.NozzleTypes), nil)
	nozzleSelect.SetSelected(t.NozzleType.String())
	finishSelect := widget.NewSelect(optionLabels(model.SurfaceFinishes), nil)
	finishSelect.SetSelected(t.SurfaceFinish.String())

	materialSelect := widget.NewSelect(a.materialOptions(), nil)
	materialSelect.SetSelected(a.materialNameByID(t.MaterialID))
	pressureEntry := widget.NewEntry()
	pressureEntry.SetText(optFloatText(t.ManualPressureBar))
	pressureEntry.SetPlaceHolder("from material")
	useMaxCheck := widget.NewCheck("Use material maximum pressure", nil)
	useMaxCheck.SetChecked(t.UseMaxPressure)

	cycleEntry := widget.NewEntry()
	cycleEntry.SetText(optFloatText(t.CycleTimeS))
	cycleEntry.SetPlaceHolder("estimated when blank")
	widthEntry := widget.NewEntry()
	widthEntry.SetText(optFloatText(t.WidthMM))
	heightEntry := widget.NewEntry()
	heightEntry.SetText(optFloatText(t.HeightMM))
	lengthEntry := widget.NewEntry()
	lengthEntry.SetText(optFloatText(t.LengthMM))
	machineSelect := widget.NewSelect(a.machineOptions(), nil)
	machineSelect.SetSelected(a.machineNameByID(t.MachineID))

	cavitiesEntry := widget.NewEntry()
	cavitiesEntry.SetText(strconv.Itoa(t.Cavities))
	liftersEntry := widget.NewEntry()
	liftersEntry.SetText(strconv.Itoa(t.LiftersCount))
	slidersEntry := widget.NewEntry()
	slidersEntry.SetText(strconv.Itoa(t.SlidersCount))
	legacyPartSelect := widget.NewSelect(append([]string{noneOption}, a.partOptions()...), nil)
	legacyPartSelect.SetSelected(a.partNameByID(t.LegacyPartID))
	legacyCard := widget.NewCard("Without Configurations", "Used only when no part configurations exist",
		container.NewGridWithColumns(2,
			widget.NewLabel("Part"), legacyPartSelect,
			widget.NewLabel("Cavities"), cavitiesEntry,
			widget.NewLabel("Lifters"), liftersEntry,
			widget.NewLabel("Sliders"), slidersEntry,
		))
	if t.IsDefined() {
		legacyCard.Hide()
	}

	enquiryEntry := widget.NewEntry()
	enquiryEntry.SetText(optFloatText(t.PriceEnquiry))
	estimatedEntry := widget.NewEntry()
	estimatedEntry.SetText(optFloatText(t.PriceEstimated))
	finalEntry := widget.NewEntry()
	finalEntry.SetText(optFloatText(t.PriceFinal))
	supplierEntry := widget.NewEntry()
	supplierEntry.SetText(t.SupplierName)
	countryEntry := widget.NewEntry()
	countryEntry.SetText(t.SupplierCountry)
	complexitySelect := widget.NewSelect(complexityOptions, nil)
	complexitySelect.SetSelected(noneOption)
	if t.Complexity != nil {
		complexitySelect.SetSelected(strconv.Itoa(*t.Complexity))
	}
	notesEntry := widget.NewMultiLineEntry()
	notesEntry.SetText(t.Notes)

	title, confirm := "Add Tool", "Add"
	if idx >= 0 {
		title, confirm = "Edit Tool", "Save"
	}

	content := container.NewVBox(
		widget.NewCard("Tool", "", container.NewGridWithColumns(2,
			widget.NewLabel("Name"), nameEntry,
			widget.NewLabel("Type"), typeSelect,
			widget.NewLabel("Injection System"), systemSelect,
			widget.NewLabel("Injection Points"), pointsEntry,
			widget.NewLabel("Nozzle"), nozzleSelect,
			widget.NewLabel("Surface Finish"), finishSelect,
		)),
		widget.NewCard("Process", "", container.NewGridWithColumns(2,
			widget.NewLabel("Material"), materialSelect,
			widget.NewLabel("Manual Pressure (bar)"), pressureEntry,
			widget.NewLabel(""), useMaxCheck,
			widget.NewLabel("Cycle Time (s)"), cycleEntry,
		)),
		widget.NewCard("Mold Size", "Estimated from the parts when blank", container.NewGridWithColumns(2,
			widget.NewLabel("Width (mm)"), widthEntry,
			widget.NewLabel("Height (mm)"), heightEntry,
			widget.NewLabel("Stack Height (mm)"), lengthEntry,
			widget.NewLabel("Machine"), machineSelect,
		)),
		legacyCard,
		widget.NewCard("Commercial", "", container.NewGridWithColumns(2,
			widget.NewLabel("Price Enquiry"), enquiryEntry,
			widget.NewLabel("Price Estimated"), estimatedEntry,
			widget.NewLabel("Price Final"), finalEntry,
			widget.NewLabel("Supplier"), supplierEntry,
			widget.NewLabel("Supplier Country"), countryEntry,
			widget.NewLabel("Complexity (1-5)"), complexitySelect,
		)),
		widget.NewLabel("Notes"),
		notesEntry,
	)

	d := dialog.NewCustomConfirm(title, confirm, "Cancel", container.NewVScroll(content), func(ok bool) {
		if !ok {
			return
		}
		if strings.TrimSpace(nameEntry.Text) == "" {
			dialog.ShowError(fmt.Errorf("tool name must not be empty"), a.window)
			return
		}

		var fp fieldParser
		updated := t
		updated.Name = strings.TrimSpace(nameEntry.Text)
		updated.Type = optionByLabel(typeOptions, typeSelect.Selected, model.ToolSingle)
		updated.InjectionSystem = optionByLabel(model.InjectionSystems, systemSelect.Selected, model.ColdRunner)
		updated.InjectionPoints = fp.int("Injection points", pointsEntry.Text)
		updated.NozzleType = optionByLabel(model.NozzleTypes, nozzleSelect.Selected, model.NozzleColdRunner)
		updated.SurfaceFinish = optionByLabel(model.SurfaceFinishes, finishSelect.Selected, model.FinishEDM)
		updated.MaterialID = a.materialIDByName(materialSelect.Selected)
		updated.ManualPressureBar = fp.float("Manual pressure", pressureEntry.Text)
		updated.UseMaxPressure = useMaxCheck.Checked
		updated.CycleTimeS = fp.float("Cycle time", cycleEntry.Text)
		updated.WidthMM = fp.float("Width", widthEntry.Text)
		updated.HeightMM = fp.float("Height", heightEntry.Text)
		updated.LengthMM = fp.float("Stack height", lengthEntry.Text)
		updated.MachineID = a.machineIDByName(machineSelect.Selected)
		minCavities := 1
		if t.IsDefined() {
			minCavities = 0
		}
		updated.Cavities = fp.count("Cavities", cavitiesEntry.Text, minCavities)
		updated.LiftersCount = fp.count("Lifters", liftersEntry.Text, 0)
		updated.SlidersCount = fp.count("Sliders", slidersEntry.Text, 0)
		updated.LegacyPartID = a.partIDByName(legacyPartSelect.Selected)
		updated.PriceEnquiry = fp.float("Price enquiry", enquiryEntry.Text)
		updated.PriceEstimated = fp.float("Price estimated", estimatedEntry.Text)
		updated.PriceFinal = fp.float("Price final", finalEntry.Text)
		updated.SupplierName = strings.TrimSpace(supplierEntry.Text)
		updated.SupplierCountry = strings.TrimSpace(countryEntry.Text)
		updated.Complexity = nil
		if n, err := strconv.Atoi(complexitySelect.Selected); err == nil {
			updated.Complexity = model.Int(n)
		}
		updated.Notes = notesEntry.Text
		if fp.err != nil {
			dialog.ShowError(fp.err, a.window)
			return
		}

		if idx < 0 {
			a.mutate("Add Tool", func(p *model.Project) { p.Tools = append(p.Tools, updated) })
		} else {
			a.mutate("Edit Tool", func(p *model.Project) { p.Tools[idx] = updated })
		}
	}, a.window)
	d.Resize(fyne.NewSize(560, 760))
	d.Show()
}

// ─── Part Configurations ───────────────────────────────────

// showConfigurationsDialog edits which parts tool idx molds, with their
// cavities, mechanisms and alternative groups.
func (a *App) showConfigurationsDialog(idx int) {
	list := container.NewVBox()
	var refreshList func()

	refreshList = func() {
		list.RemoveAll()
		t := a.project.Tools[idx]

		if len(t.Configurations) == 0 {
			list.Add(widget.NewLabel("No parts assigned. The tool-level cavity count and part are used."))
			return
		}

		list.Add(container.NewGridWithColumns(7,
			widget.NewLabelWithStyle("Part", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Cavities", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Lifters", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Sliders", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Group", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabel(""),
			widget.NewLabel(""),
		))
		list.Add(widget.NewSeparator())

		for i := range t.Configurations {
			ci := i
			c := t.Configurations[ci]
			group := "always"
			if c.GroupID != nil {
				group = strconv.Itoa(*c.GroupID)
			}
			list.Add(container.NewGridWithColumns(7,
				widget.NewLabel(a.partNameByID(c.PartID)),
				widget.NewLabel(strconv.Itoa(c.Cavities)),
				widget.NewLabel(strconv.Itoa(c.LiftersCount)),
				widget.NewLabel(strconv.Itoa(c.SlidersCount)),
				widget.NewLabel(group),
				newIconButtonWithTooltip(theme.DocumentCreateIcon(), "Edit configuration", func() {
					a.showConfigurationDialog(idx, ci, refreshList)
				}),
				newIconButtonWithTooltip(theme.DeleteIcon(), "Remove part from tool", func() {
					a.mutate("Remove Configuration", func(p *model.Project) {
						cfgs := p.Tools[idx].Configurations
						p.Tools[idx].Configurations = append(cfgs[:ci], cfgs[ci+1:]...)
					})
					refreshList()
				}),
			))
		}
	}
	refreshList()

	addBtn := widget.NewButtonWithIcon("Assign Part", theme.ContentAddIcon(), func() {
		if len(a.project.Parts) == 0 {
			dialog.ShowInformation("No parts", "Add parts to the RFQ first.", a.window)
			return
		}
		a.showConfigurationDialog(idx, -1, refreshList)
	})

	content := container.NewBorder(
		widget.NewLabel("Configurations sharing a group number are alternatives; only one group runs at a time."),
		container.NewHBox(layout.NewSpacer(), addBtn),
		nil, nil,
		container.NewVScroll(list),
	)
	d := dialog.NewCustom("Part Configurations - "+a.project.Tools[idx].Name, "Close", content, a.window)
	d.Resize(fyne.NewSize(700, 450))
	d.Show()
}

// showConfigurationDialog adds (ci < 0) or edits a configuration of tool idx.
func (a *App) showConfigurationDialog(idx, ci int, onDone func()) {
	tool := a.project.Tools[idx]
	var c model.ToolPartConfiguration
	if ci < 0 {
		c = model.NewToolPartConfiguration(a.project.Parts[0].ID, 1)
	} else {
		c = tool.Configurations[ci]
	}

	partSelect := widget.NewSelect(a.partOptions(), nil)
	partSelect.SetSelected(a.partNameByID(c.PartID))
	cavitiesEntry := widget.NewEntry()
	cavitiesEntry.SetText(strconv.Itoa(c.Cavities))
	liftersEntry := widget.NewEntry()
	liftersEntry.SetText(strconv.Itoa(c.LiftersCount))
	slidersEntry := widget.NewEntry()
	slidersEntry.SetText(strconv.Itoa(c.SlidersCount))
	groupEntry := widget.NewEntry()
	groupEntry.SetText(optIntText(c.GroupID))
	groupEntry.SetPlaceHolder("blank = always runs")
	notesEntry := widget.NewEntry()
	notesEntry.SetText(c.Notes)

	hint := widget.NewLabel("")
	recommendBtn := widget.NewButtonWithIcon("Recommend", theme.SearchIcon(), func() {
		part := a.project.FindPart(a.partIDByName(partSelect.Selected))
		if part == nil {
			return
		}
		demand, ok := part.YearlyDemand()
		if !ok {
			hint.SetText("Part has no yearly demand.")
			return
		}
		cycle, ok := model.Positive(tool.CycleTimeS)
		if !ok {
			if wall, hasWall := model.Positive(part.WallThicknessMM); hasWall {
				family := ""
				if m := a.library.FindMaterialByID(part.MaterialID); m != nil {
					family = m.Family
				}
				cycle = engine.EstimateCycleTime(wall, family, part.VolumeCM3, tool.InjectionSystem.IsHot())
				ok = true
			}
		}
		if !ok {
			hint.SetText("Enter a cycle time or the part wall thickness.")
			return
		}
		n := engine.RecommendCavities(demand, cycle, a.config.Policy.Demand)
		cavitiesEntry.SetText(strconv.Itoa(n))
		hint.SetText(fmt.Sprintf("%d cavities for %s pcs/yr at %.1f s", n, countText(&demand), cycle))
	})

	form := dialog.NewForm("Part Configuration", "Save", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Part", partSelect),
			widget.NewFormItem("Cavities", container.NewBorder(nil, nil, nil, recommendBtn, cavitiesEntry)),
			widget.NewFormItem("", hint),
			widget.NewFormItem("Lifters", liftersEntry),
			widget.NewFormItem("Sliders", slidersEntry),
			widget.NewFormItem("Alternative Group", groupEntry),
			widget.NewFormItem("Notes", notesEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			var fp fieldParser
			updated := c
			updated.PartID = a.partIDByName(partSelect.Selected)
			updated.Cavities = fp.count("Cavities", cavitiesEntry.Text, 1)
			updated.LiftersCount = fp.count("Lifters", liftersEntry.Text, 0)
			updated.SlidersCount = fp.count("Sliders", slidersEntry.Text, 0)
			updated.GroupID = fp.int("Alternative group", groupEntry.Text)
			updated.Notes = notesEntry.Text
			if fp.err != nil {
				dialog.ShowError(fp.err, a.window)
				return
			}
			if updated.PartID == "" {
				dialog.ShowError(fmt.Errorf("select a part"), a.window)
				return
			}

			if ci < 0 {
				a.mutate("Assign Part", func(p *model.Project) {
					t := &p.Tools[idx]
					t.Configurations = append(t.Configurations, updated)
					if len(t.Configurations) > 1 && t.Type == model.ToolSingle {
						t.Type = model.ToolFamily
					}
				})
			} else {
				a.mutate("Edit Configuration", func(p *model.Project) {
					p.Tools[idx].Configurations[ci] = updated
				})
			}
			onDone()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(480, 420))
	form.Show()
}
