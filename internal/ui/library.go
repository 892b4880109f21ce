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

	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/project"
)

// numField binds an entry to an optional numeric field of a record.
type numField struct {
	label  string
	target **float64
}

// numericFormItems creates one entry per field and returns the form items
// with a function that writes the parsed values back to the targets.
func numericFormItems(fields []numField) ([]*widget.FormItem, func() error) {
	entries := make([]*widget.Entry, len(fields))
	items := make([]*widget.FormItem, len(fields))
	for i, f := range fields {
		e := widget.NewEntry()
		e.SetText(optFloatText(*f.target))
		entries[i] = e
		items[i] = widget.NewFormItem(f.label, e)
	}
	apply := func() error {
		var fp fieldParser
		values := make([]*float64, len(fields))
		for i, f := range fields {
			values[i] = fp.float(f.label, entries[i].Text)
		}
		if fp.err != nil {
			return fp.err
		}
		for i, f := range fields {
			*f.target = values[i]
		}
		return nil
	}
	return items, apply
}

// ─── Materials Dialog ──────────────────────────────────────

func (a *App) showMaterialsDialog() {
	list := container.NewVBox()
	var refreshList func()

	refreshList = func() {
		list.RemoveAll()

		if len(a.library.Materials) == 0 {
			list.Add(widget.NewLabel("No materials defined."))
			return
		}

		list.Add(container.NewGridWithColumns(7,
			widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Family", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Density", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Pressure", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Flow Ratio", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabel(""),
			widget.NewLabel(""),
		))
		list.Add(widget.NewSeparator())

		for i := range a.library.Materials {
			idx := i
			m := a.library.Materials[idx]
			pressure := "-"
			if lo, hi := m.PressureMinBar, m.PressureMaxBar; lo != nil && hi != nil {
				pressure = fmt.Sprintf("%g-%g bar", *lo, *hi)
			} else if avg, ok := m.AvgPressure(); ok {
				pressure = fmt.Sprintf("%g bar", avg)
			}
			name := m.Name
			if m.IsPreset {
				name += " (preset)"
			}

			deleteBtn := newIconButtonWithTooltip(theme.DeleteIcon(), "Delete material", func() {
				a.library.Materials = append(a.library.Materials[:idx], a.library.Materials[idx+1:]...)
				a.saveLibrary()
				refreshList()
				a.refreshAll()
			})
			if m.IsPreset {
				deleteBtn.Disable()
			}

			list.Add(container.NewGridWithColumns(7,
				widget.NewLabel(name),
				widget.NewLabel(m.Family),
				widget.NewLabel(valueText(m.DensityGCM3, "g/cm³")),
				widget.NewLabel(pressure),
				widget.NewLabel(valueText(m.FlowLengthRatio, ": 1")),
				newIconButtonWithTooltip(theme.DocumentCreateIcon(), "Edit material", func() {
					a.showMaterialDialog(idx, refreshList)
				}),
				deleteBtn,
			))
		}
	}
	refreshList()

	addBtn := widget.NewButtonWithIcon("Add Material", theme.ContentAddIcon(), func() {
		a.showMaterialDialog(-1, refreshList)
	})

	content := container.NewBorder(
		nil,
		container.NewHBox(addBtn, layout.NewSpacer()),
		nil, nil,
		container.NewVScroll(list),
	)
	d := dialog.NewCustom("Materials", "Close", content, a.window)
	d.Resize(fyne.NewSize(820, 520))
	d.Show()
}

func (a *App) showMaterialDialog(idx int, onDone func()) {
	var m model.Material
	if idx < 0 {
		m = model.NewMaterial("New Material", "", "")
	} else {
		m = a.library.Materials[idx]
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(m.Name)
	shortEntry := widget.NewEntry()
	shortEntry.SetText(m.ShortName)
	familyEntry := widget.NewSelectEntry([]string{"PP", "PE", "ABS", "PA", "PC", "POM", "PBT", "PMMA", "PS", "TPE"})
	familyEntry.SetText(m.Family)
	notesEntry := widget.NewEntry()
	notesEntry.SetText(m.Notes)

	numItems, apply := numericFormItems([]numField{
		{"Density (g/cm³)", &m.DensityGCM3},
		{"Pressure Min (bar)", &m.PressureMinBar},
		{"Pressure Max (bar)", &m.PressureMaxBar},
		{"Flow Length Ratio", &m.FlowLengthRatio},
		{"Shrinkage Min (%)", &m.ShrinkageMinPercent},
		{"Shrinkage Max (%)", &m.ShrinkageMaxPercent},
		{"Melt Temp Min (°C)", &m.MeltTempMinC},
		{"Melt Temp Max (°C)", &m.MeltTempMaxC},
		{"Mold Temp Min (°C)", &m.MoldTempMinC},
		{"Mold Temp Max (°C)", &m.MoldTempMaxC},
	})

	items := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Short Name", shortEntry),
		widget.NewFormItem("Family", familyEntry),
	}
	items = append(items, numItems...)
	items = append(items, widget.NewFormItem("Notes", notesEntry))

	title := "Add Material"
	if idx >= 0 {
		title = "Edit Material"
	}
	form := dialog.NewForm(title, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		if strings.TrimSpace(nameEntry.Text) == "" {
			dialog.ShowError(fmt.Errorf("material name must not be empty"), a.window)
			return
		}
		if err := apply(); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if lo, hi := m.PressureMinBar, m.PressureMaxBar; lo != nil && hi != nil && *lo > *hi {
			dialog.ShowError(fmt.Errorf("minimum pressure exceeds maximum pressure"), a.window)
			return
		}
		m.Name = strings.TrimSpace(nameEntry.Text)
		m.ShortName = strings.TrimSpace(shortEntry.Text)
		m.Family = strings.ToUpper(strings.TrimSpace(familyEntry.Text))
		m.Notes = notesEntry.Text

		if idx < 0 {
			a.library.Materials = append(a.library.Materials, m)
		} else {
			a.library.Materials[idx] = m
		}
		a.saveLibrary()
		onDone()
		a.refreshAll()
	}, a.window)
	form.Resize(fyne.NewSize(460, 680))
	form.Show()
}

// ─── Machines Dialog ───────────────────────────────────────

func (a *App) showMachinesDialog() {
	list := container.NewVBox()
	var refreshList func()

	refreshList = func() {
		list.RemoveAll()

		if len(a.library.Machines) == 0 {
			list.Add(widget.NewLabel("No machines defined."))
			return
		}

		list.Add(container.NewGridWithColumns(7,
			widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Clamp", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Shot", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Tie-Bars", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Mold Height", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabel(""),
			widget.NewLabel(""),
		))
		list.Add(widget.NewSeparator())

		for i := range a.library.Machines {
			idx := i
			m := a.library.Machines[idx]
			tieBars := "-"
			if h, v := m.TieBarSpacingHMM, m.TieBarSpacingVMM; h != nil && v != nil {
				tieBars = fmt.Sprintf("%g × %g mm", *h, *v)
			}
			moldHeight := "-"
			if lo, hi := m.MinMoldHeightMM, m.MaxMoldHeightMM; lo != nil && hi != nil {
				moldHeight = fmt.Sprintf("%g-%g mm", *lo, *hi)
			}
			name := m.Name
			if m.ID == a.config.DefaultMachineID {
				name += " (default)"
			}

			deleteBtn := newIconButtonWithTooltip(theme.DeleteIcon(), "Delete machine", func() {
				a.library.Machines = append(a.library.Machines[:idx], a.library.Machines[idx+1:]...)
				a.saveLibrary()
				refreshList()
				a.refreshAll()
			})
			if m.IsPreset {
				deleteBtn.Disable()
			}

			list.Add(container.NewGridWithColumns(7,
				widget.NewLabel(name),
				widget.NewLabel(valueText(m.ClampingForceKN, "kN")),
				widget.NewLabel(valueText(m.ShotWeightG, "g")),
				widget.NewLabel(tieBars),
				widget.NewLabel(moldHeight),
				newIconButtonWithTooltip(theme.DocumentCreateIcon(), "Edit machine", func() {
					a.showMachineDialog(idx, refreshList)
				}),
				deleteBtn,
			))
		}
	}
	refreshList()

	addBtn := widget.NewButtonWithIcon("Add Machine", theme.ContentAddIcon(), func() {
		a.showMachineDialog(-1, refreshList)
	})

	content := container.NewBorder(
		nil,
		container.NewHBox(addBtn, layout.NewSpacer()),
		nil, nil,
		container.NewVScroll(list),
	)
	d := dialog.NewCustom("Machines", "Close", content, a.window)
	d.Resize(fyne.NewSize(820, 520))
	d.Show()
}

func (a *App) showMachineDialog(idx int, onDone func()) {
	var m model.Machine
	if idx < 0 {
		m = model.NewMachine("New Machine", "")
	} else {
		m = a.library.Machines[idx]
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(m.Name)
	manufacturerEntry := widget.NewEntry()
	manufacturerEntry.SetText(m.Manufacturer)
	notesEntry := widget.NewEntry()
	notesEntry.SetText(m.Notes)

	numItems, apply := numericFormItems([]numField{
		{"Clamping Force (kN)", &m.ClampingForceKN},
		{"Shot Weight (g)", &m.ShotWeightG},
		{"Injection Pressure (bar)", &m.InjectionPressureBar},
		{"Barrel Volume (cm³)", &m.BarrelVolumeCM3},
		{"Screw Diameter (mm)", &m.ScrewDiameterMM},
		{"Max Injection Stroke (mm)", &m.MaxInjectionStrokeMM},
		{"Platen Width (mm)", &m.PlatenWidthMM},
		{"Platen Height (mm)", &m.PlatenHeightMM},
		{"Tie-Bar Spacing H (mm)", &m.TieBarSpacingHMM},
		{"Tie-Bar Spacing V (mm)", &m.TieBarSpacingVMM},
		{"Min Mold Height (mm)", &m.MinMoldHeightMM},
		{"Max Mold Height (mm)", &m.MaxMoldHeightMM},
		{"Max Opening Stroke (mm)", &m.MaxOpeningMM},
	})

	items := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Manufacturer", manufacturerEntry),
	}
	items = append(items, numItems...)
	items = append(items, widget.NewFormItem("Notes", notesEntry))

	title := "Add Machine"
	if idx >= 0 {
		title = "Edit Machine"
	}
	form := dialog.NewForm(title, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		if strings.TrimSpace(nameEntry.Text) == "" {
			dialog.ShowError(fmt.Errorf("machine name must not be empty"), a.window)
			return
		}
		if err := apply(); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if lo, hi := m.MinMoldHeightMM, m.MaxMoldHeightMM; lo != nil && hi != nil && *lo > *hi {
			dialog.ShowError(fmt.Errorf("minimum mold height exceeds maximum mold height"), a.window)
			return
		}
		m.Name = strings.TrimSpace(nameEntry.Text)
		m.Manufacturer = strings.TrimSpace(manufacturerEntry.Text)
		m.Notes = notesEntry.Text

		if idx < 0 {
			a.library.Machines = append(a.library.Machines, m)
		} else {
			a.library.Machines[idx] = m
		}
		a.saveLibrary()
		onDone()
		a.refreshAll()
	}, a.window)
	form.Resize(fyne.NewSize(460, 760))
	form.Show()
}

// ─── Library Import / Export ───────────────────────────────

func (a *App) importLibrary() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		before := len(a.library.Materials) + len(a.library.Machines)
		merged, err := project.ImportLibrary(path, a.library)
		if err != nil {
			a.log.Error("library import failed", zap.String("path", path), zap.Error(err))
			dialog.ShowError(err, a.window)
			return
		}
		a.library = merged
		a.saveLibrary()
		a.refreshAll()
		added := len(merged.Materials) + len(merged.Machines) - before
		a.log.Info("library imported", zap.String("path", path), zap.Int("added", added))
		dialog.ShowInformation("Import Complete", fmt.Sprintf("Added %d materials and machines.", added), a.window)
	}, a.window)
}

func (a *App) exportLibrary() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := project.ExportLibrary(path, a.library); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Library saved to %s", path), a.window)
	}, a.window)
	d.SetFileName("moldquote-library.json")
	d.Show()
}
