package ui

import (
	"fmt"
	"sort"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// ─── RFQ Panel ─────────────────────────────────────────────

func (a *App) buildRFQPanel() fyne.CanvasObject {
	a.rfqContainer = container.NewVBox()
	a.refreshRFQPanel()
	return container.NewVScroll(a.rfqContainer)
}

func (a *App) refreshRFQPanel() {
	if a.rfqContainer == nil {
		return
	}
	a.rfqContainer.RemoveAll()
	p := a.project

	nameEntry := widget.NewEntry()
	nameEntry.SetText(p.Name)
	customerEntry := widget.NewEntry()
	customerEntry.SetText(p.Customer)
	statusSelect := widget.NewSelect(optionLabels(model.RFQStatuses), nil)
	statusSelect.SetSelected(p.Status.String())
	notesEntry := widget.NewMultiLineEntry()
	notesEntry.SetText(p.Notes)
	notesEntry.SetMinRowsVisible(3)

	sopEntry := widget.NewEntry()
	sopEntry.SetText(optIntText(p.DemandSOP))
	sopEntry.SetPlaceHolder("pieces / year")
	sopDateEntry := widget.NewEntry()
	sopDateEntry.SetText(optDateText(p.DemandSOPDate))
	sopDateEntry.SetPlaceHolder("YYYY-MM-DD")
	eaopEntry := widget.NewEntry()
	eaopEntry.SetText(optIntText(p.DemandEAOP))
	eaopEntry.SetPlaceHolder("pieces / year")
	eaopDateEntry := widget.NewEntry()
	eaopDateEntry.SetText(optDateText(p.DemandEAOPDate))
	eaopDateEntry.SetPlaceHolder("YYYY-MM-DD")
	flexEntry := widget.NewEntry()
	flexEntry.SetText(optFloatText(p.FlexPercent))

	applyBtn := widget.NewButtonWithIcon("Apply", theme.ConfirmIcon(), func() {
		var fp fieldParser
		sop := fp.int("SOP demand", sopEntry.Text)
		sopDate := fp.date("SOP date", sopDateEntry.Text)
		eaop := fp.int("EAOP demand", eaopEntry.Text)
		eaopDate := fp.date("EAOP date", eaopDateEntry.Text)
		flex := fp.float("Flex", flexEntry.Text)
		if fp.err != nil {
			dialog.ShowError(fp.err, a.window)
			return
		}
		a.mutate("Edit RFQ", func(p *model.Project) {
			p.Name = nameEntry.Text
			p.Customer = customerEntry.Text
			p.Status = model.ParseRFQStatus(statusSelect.Selected)
			p.Notes = notesEntry.Text
			p.DemandSOP, p.DemandSOPDate = sop, sopDate
			p.DemandEAOP, p.DemandEAOPDate = eaop, eaopDate
			p.FlexPercent = flex
		})
	})

	requestCard := widget.NewCard("Quote Request", "", container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel("RFQ Name"), nameEntry,
			widget.NewLabel("Customer"), customerEntry,
			widget.NewLabel("Status"), statusSelect,
			widget.NewLabel("Created"), widget.NewLabel(p.CreatedAt.Local().Format("2006-01-02 15:04")),
		),
		widget.NewLabel("Notes"),
		notesEntry,
	))

	demandCard := widget.NewCard("Demand Plan", "Annual volumes at start of production and end of run", container.NewGridWithColumns(4,
		widget.NewLabel("SOP Demand"), sopEntry,
		widget.NewLabel("SOP Date"), sopDateEntry,
		widget.NewLabel("EAOP Demand"), eaopEntry,
		widget.NewLabel("EAOP Date"), eaopDateEntry,
		widget.NewLabel("Flex (%)"), flexEntry,
	))

	a.rfqContainer.Add(requestCard)
	a.rfqContainer.Add(demandCard)
	a.rfqContainer.Add(container.NewHBox(layout.NewSpacer(), applyBtn))
	a.rfqContainer.Add(a.buildAnnualDemandCard())
	a.rfqContainer.Add(a.buildSummaryCard())
}

// buildAnnualDemandCard lists the per-year forecast of the RFQ.
func (a *App) buildAnnualDemandCard() fyne.CanvasObject {
	list := container.NewVBox()
	demands := a.project.AnnualDemands

	if len(demands) == 0 {
		list.Add(widget.NewLabel("No yearly forecast. SOP and EAOP volumes are used."))
	} else {
		list.Add(container.NewGridWithColumns(4,
			widget.NewLabelWithStyle("Year", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Volume", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Flex (%)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabel(""),
		))
		list.Add(widget.NewSeparator())
		for i := range demands {
			idx := i
			d := demands[idx]
			list.Add(container.NewGridWithColumns(4,
				widget.NewLabel(fmt.Sprintf("%d", d.Year)),
				widget.NewLabel(countText(d.Volume)),
				widget.NewLabel(valueText(d.FlexPercent, "%")),
				newIconButtonWithTooltip(theme.DeleteIcon(), "Remove year", func() {
					a.mutate("Remove Demand Year", func(p *model.Project) {
						p.AnnualDemands = append(p.AnnualDemands[:idx], p.AnnualDemands[idx+1:]...)
					})
				}),
			))
		}
	}

	addBtn := widget.NewButtonWithIcon("Add Year", theme.ContentAddIcon(), func() {
		a.showAnnualDemandDialog()
	})
	return widget.NewCard("Yearly Forecast", "", container.NewBorder(nil, container.NewHBox(layout.NewSpacer(), addBtn), nil, nil, list))
}

func (a *App) showAnnualDemandDialog() {
	next := time.Now().Year()
	for _, d := range a.project.AnnualDemands {
		if d.Year >= next {
			next = d.Year + 1
		}
	}

	yearEntry := widget.NewEntry()
	yearEntry.SetText(fmt.Sprintf("%d", next))
	volumeEntry := widget.NewEntry()
	volumeEntry.SetPlaceHolder("pieces")
	flexEntry := widget.NewEntry()
	flexEntry.SetPlaceHolder("optional, e.g. 110")

	form := dialog.NewForm("Add Demand Year", "Add", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Year", yearEntry),
			widget.NewFormItem("Volume", volumeEntry),
			widget.NewFormItem("Flex (%)", flexEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			var fp fieldParser
			year := fp.count("Year", yearEntry.Text, 1900)
			volume := fp.int("Volume", volumeEntry.Text)
			flex := fp.float("Flex", flexEntry.Text)
			if fp.err != nil {
				dialog.ShowError(fp.err, a.window)
				return
			}
			a.mutate("Add Demand Year", func(p *model.Project) {
				p.AnnualDemands = upsertDemand(p.AnnualDemands, model.AnnualDemand{Year: year, Volume: volume, FlexPercent: flex})
			})
		},
		a.window,
	)
	form.Resize(fyne.NewSize(350, 250))
	form.Show()
}

// upsertDemand replaces the entry of the same year or adds d, keeping the
// list sorted by year.
func upsertDemand(demands []model.AnnualDemand, d model.AnnualDemand) []model.AnnualDemand {
	out := make([]model.AnnualDemand, 0, len(demands)+1)
	for _, existing := range demands {
		if existing.Year != d.Year {
			out = append(out, existing)
		}
	}
	out = append(out, d)
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func (a *App) buildSummaryCard() fyne.CanvasObject {
	p := a.project
	window := "-"
	if sop, eaop, ok := p.DemandWindow(); ok {
		window = fmt.Sprintf("%s → %s pcs/yr", countText(&sop), countText(&eaop))
	}
	return widget.NewCard("Summary", "", container.NewGridWithColumns(2,
		widget.NewLabel("Parts"), widget.NewLabel(fmt.Sprintf("%d", len(p.Parts))),
		widget.NewLabel("Tools"), widget.NewLabel(fmt.Sprintf("%d", len(p.Tools))),
		widget.NewLabel("Demand Window"), widget.NewLabel(window),
	))
}
