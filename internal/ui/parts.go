package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

const noneOption = "(none)"

// ─── Parts Panel ───────────────────────────────────────────

func (a *App) buildPartsPanel() fyne.CanvasObject {
	a.partsContainer = container.NewVBox()
	a.refreshPartsList()

	addBtn := widget.NewButtonWithIcon("Add Part", theme.ContentAddIcon(), func() {
		a.showPartDialog(-1)
	})

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Molded Parts", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			addBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.partsContainer),
	)
}

func (a *App) refreshPartsList() {
	if a.partsContainer == nil {
		return
	}
	a.partsContainer.RemoveAll()

	if len(a.project.Parts) == 0 {
		a.partsContainer.Add(widget.NewLabel("No parts added yet. Click 'Add Part' or import a part list to begin."))
		return
	}

	header := container.NewGridWithColumns(10,
		widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Part No.", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Material", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Proj. Area", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Weight", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Wall", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Peak Demand", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Checks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel(""),
		widget.NewLabel(""),
	)
	a.partsContainer.Add(header)
	a.partsContainer.Add(widget.NewSeparator())

	for i := range a.project.Parts {
		idx := i
		p := a.project.Parts[idx]

		material := "-"
		var density *float64
		if m := a.library.FindMaterialByID(p.MaterialID); m != nil {
			material = m.ShortName
			density = m.DensityGCM3
		}
		area, ok := engine.PartArea(p)
		peak := "-"
		if d, ok := p.YearlyDemand(); ok {
			peak = countText(&d)
		}

		checks := partChecksText(p, engine.CheckPart(p, density, a.config.Policy))

		row := container.NewGridWithColumns(10,
			widget.NewLabel(p.Name),
			widget.NewLabel(p.PartNumber),
			widget.NewLabel(material),
			widget.NewLabel(areaText(p, area, ok)),
			widget.NewLabel(valueText(p.WeightG, "g")),
			widget.NewLabel(valueText(p.WallThicknessMM, "mm")),
			widget.NewLabel(peak),
			widget.NewLabel(checks),
			newIconButtonWithTooltip(theme.DocumentCreateIcon(), "Edit part", func() {
				a.showPartDialog(idx)
			}),
			newIconButtonWithTooltip(theme.DeleteIcon(), "Delete part and its tool assignments", func() {
				a.confirmDeletePart(idx)
			}),
		)
		a.partsContainer.Add(row)
	}
}

func (a *App) confirmDeletePart(idx int) {
	p := a.project.Parts[idx]
	dialog.ShowConfirm("Delete Part",
		fmt.Sprintf("Delete %q? It is also removed from every tool that molds it.", p.Name),
		func(ok bool) {
			if ok {
				a.mutate("Delete Part", func(proj *model.Project) { proj.RemovePart(p.ID) })
			}
		}, a.window)
}

func (a *App) materialOptions() []string {
	return append([]string{noneOption}, a.library.MaterialNames()...)
}

// materialIDByName maps a select label back to a material ID; "" for none.
func (a *App) materialIDByName(name string) string {
	if m := a.library.FindMaterialByName(name); m != nil {
		return m.ID
	}
	return ""
}

func (a *App) materialNameByID(id string) string {
	if m := a.library.FindMaterialByID(id); m != nil {
		return m.Name
	}
	return noneOption
}

// showPartDialog adds a part when idx is negative, else edits part idx.
func (a *App) showPartDialog(idx int) {
	var p model.Part
	if idx < 0 {
		p = model.NewPart(fmt.Sprintf("Part %d", len(a.project.Parts)+1))
	} else {
		p = a.project.Parts[idx]
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(p.Name)
	numberEntry := widget.NewEntry()
	numberEntry.SetText(p.PartNumber)
	materialSelect := widget.NewSelect(a.materialOptions(), nil)
	materialSelect.SetSelected(a.materialNameByID(p.MaterialID))

	areaEntry := widget.NewEntry()
	areaEntry.SetText(optFloatText(p.Geometry.AreaCM2))
	areaEntry.SetPlaceHolder("cm²")
	boxLEntry := widget.NewEntry()
	boxLEntry.SetText(optFloatText(p.Geometry.BoxLengthMM))
	boxWEntry := widget.NewEntry()
	boxWEntry.SetText(optFloatText(p.Geometry.BoxWidthMM))
	effEntry := widget.NewEntry()
	effEntry.SetText(optFloatText(p.Geometry.BoxEffectivePercent))
	effEntry.SetPlaceHolder("100")
	areaPreview := widget.NewLabel("")

	boxFields := container.NewGridWithColumns(2,
		widget.NewLabel("Box Length (mm)"), boxLEntry,
		widget.NewLabel("Box Width (mm)"), boxWEntry,
		widget.NewLabel("Effective Share (%)"), effEntry,
	)
	directFields := container.NewGridWithColumns(2, widget.NewLabel("Projected Area (cm²)"), areaEntry)

	modes := []model.GeometryMode{model.GeometryDirect, model.GeometryBox}
	modeSelect := widget.NewSelect(optionLabels(modes), nil)

	currentGeometry := func() (model.Geometry, error) {
		var fp fieldParser
		g := model.Geometry{
			Mode:                optionByLabel(modes, modeSelect.Selected, model.GeometryDirect),
			AreaCM2:             fp.float("Projected area", areaEntry.Text),
			BoxLengthMM:         fp.float("Box length", boxLEntry.Text),
			BoxWidthMM:          fp.float("Box width", boxWEntry.Text),
			BoxEffectivePercent: fp.float("Effective share", effEntry.Text),
		}
		return g, fp.err
	}
	updatePreview := func(string) {
		g, err := currentGeometry()
		if err != nil {
			areaPreview.SetText(err.Error())
			return
		}
		if area, err := engine.ResolveArea(g); err == nil {
			areaPreview.SetText(fmt.Sprintf("Projected area: %.2f cm²", area))
		} else {
			_, msg := engine.ValidateGeometry(g)
			areaPreview.SetText(msg)
		}
	}
	modeSelect.OnChanged = func(selected string) {
		if optionByLabel(modes, selected, model.GeometryDirect) == model.GeometryBox {
			boxFields.Show()
			directFields.Hide()
		} else {
			boxFields.Hide()
			directFields.Show()
		}
		updatePreview(selected)
	}
	for _, e := range []*widget.Entry{areaEntry, boxLEntry, boxWEntry, effEntry} {
		e.OnChanged = updatePreview
	}
	modeSelect.SetSelected(p.Geometry.Mode.String())

	weightEntry := widget.NewEntry()
	weightEntry.SetText(optFloatText(p.WeightG))
	volumeEntry := widget.NewEntry()
	volumeEntry.SetText(optFloatText(p.VolumeCM3))
	deriveBtn := widget.NewButtonWithIcon("From Density", theme.ViewRefreshIcon(), func() {
		m := a.library.FindMaterialByName(materialSelect.Selected)
		if m == nil {
			dialog.ShowInformation("No material", "Select a material with a density first.", a.window)
			return
		}
		density, ok := m.Density()
		if !ok {
			dialog.ShowInformation("No density", m.Name+" has no density in the library.", a.window)
			return
		}
		w, _ := parseOptFloat("Weight", weightEntry.Text)
		v, _ := parseOptFloat("Volume", volumeEntry.Text)
		switch {
		case w != nil && v == nil:
			if vol, ok := engine.VolumeFromWeight(*w, density); ok {
				volumeEntry.SetText(optFloatText(&vol))
			}
		case v != nil && w == nil:
			if wt, ok := engine.WeightFromVolume(*v, density); ok {
				weightEntry.SetText(optFloatText(&wt))
			}
		}
	})

	wallEntry := widget.NewEntry()
	wallEntry.SetText(optFloatText(p.WallThicknessMM))
	flowEntry := widget.NewEntry()
	flowEntry.SetText(optFloatText(p.FlowLengthMM))
	depthEntry := widget.NewEntry()
	depthEntry.SetText(optFloatText(p.DepthMM))
	peakEntry := widget.NewEntry()
	peakEntry.SetText(optIntText(p.PeakDemand))
	peakEntry.SetPlaceHolder("pieces / year")
	lifetimeEntry := widget.NewEntry()
	lifetimeEntry.SetText(optIntText(p.LifetimeDemand))
	finishSelect := widget.NewSelect(append([]string{noneOption}, optionLabels(model.SurfaceFinishes)...), nil)
	if p.SurfaceFinish == "" {
		finishSelect.SetSelected(noneOption)
	} else {
		finishSelect.SetSelected(p.SurfaceFinish.String())
	}
	notesEntry := widget.NewMultiLineEntry()
	notesEntry.SetText(p.Notes)

	title, confirm := "Add Part", "Add"
	if idx >= 0 {
		title, confirm = "Edit Part", "Save"
	}

	form := dialog.NewForm(title, confirm, "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Part Number", numberEntry),
			widget.NewFormItem("Material", materialSelect),
			widget.NewFormItem("Geometry", modeSelect),
			widget.NewFormItem("", container.NewVBox(directFields, boxFields, areaPreview)),
			widget.NewFormItem("Weight (g)", weightEntry),
			widget.NewFormItem("Volume (cm³)", container.NewBorder(nil, nil, nil, deriveBtn, volumeEntry)),
			widget.NewFormItem("Wall Thickness (mm)", wallEntry),
			widget.NewFormItem("Flow Length (mm)", flowEntry),
			widget.NewFormItem("Depth (mm)", depthEntry),
			widget.NewFormItem("Peak Demand", peakEntry),
			widget.NewFormItem("Lifetime Demand", lifetimeEntry),
			widget.NewFormItem("Surface Finish", finishSelect),
			widget.NewFormItem("Notes", notesEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			if strings.TrimSpace(nameEntry.Text) == "" {
				dialog.ShowError(fmt.Errorf("part name must not be empty"), a.window)
				return
			}
			geometry, err := currentGeometry()
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}

			var fp fieldParser
			updated := p
			updated.Name = strings.TrimSpace(nameEntry.Text)
			updated.PartNumber = strings.TrimSpace(numberEntry.Text)
			updated.MaterialID = a.materialIDByName(materialSelect.Selected)
			updated.Geometry = geometry
			updated.WeightG = fp.float("Weight", weightEntry.Text)
			updated.VolumeCM3 = fp.float("Volume", volumeEntry.Text)
			updated.WallThicknessMM = fp.float("Wall thickness", wallEntry.Text)
			updated.FlowLengthMM = fp.float("Flow length", flowEntry.Text)
			updated.DepthMM = fp.float("Depth", depthEntry.Text)
			updated.PeakDemand = fp.int("Peak demand", peakEntry.Text)
			updated.LifetimeDemand = fp.int("Lifetime demand", lifetimeEntry.Text)
			updated.SurfaceFinish = optionByLabel(model.SurfaceFinishes, finishSelect.Selected, "")
			updated.Notes = notesEntry.Text
			if fp.err != nil {
				dialog.ShowError(fp.err, a.window)
				return
			}

			if idx < 0 {
				a.mutate("Add Part", func(proj *model.Project) { proj.Parts = append(proj.Parts, updated) })
			} else {
				for _, rev := range model.DiffPart(&p, updated, "desktop") {
					a.log.Debug("part changed",
						zap.String("part", updated.Name),
						zap.String("field", rev.Field),
						zap.String("old", rev.OldValue),
						zap.String("new", rev.NewValue))
				}
				a.mutate("Edit Part", func(proj *model.Project) { proj.Parts[idx] = updated })
			}

			var density *float64
			if m := a.library.FindMaterialByID(updated.MaterialID); m != nil {
				density = m.DensityGCM3
			}
			check := engine.CheckPart(updated, density, a.config.Policy)
			lines := check.Warnings
			if missing := updated.MissingFields(); len(missing) > 0 {
				lines = append([]string{"Missing for quoting: " + strings.Join(missing, ", ")}, lines...)
			}
			if len(lines) > 0 {
				if check.Weight.Checked {
					lines = append(lines, weightCheckText(check.Weight))
				}
				dialog.ShowInformation("Check Part Data", strings.Join(lines, "\n"), a.window)
			}
		},
		a.window,
	)
	form.Resize(fyne.NewSize(520, 720))
	form.Show()
}
