package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

// checkLevel grades one line of a tool report.
type checkLevel int

const (
	levelInfo checkLevel = iota
	levelOK
	levelWarn
	levelFail
)

// checkRow is one line of the checks table on a tool page.
type checkRow struct {
	Label string
	Value string
	Level checkLevel
}

// levelColors maps check levels to row fill colors.
var levelColors = map[checkLevel][3]int{
	levelInfo: {255, 255, 255},
	levelOK:   {220, 237, 200},
	levelWarn: {255, 235, 156},
	levelFail: {255, 199, 206},
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	drawWidth    = 125.0
	tableX       = marginLeft + drawWidth + 12.0
	tableLabelW  = 42.0
	tableValueW  = pageWidth - marginRight - tableX - tableLabelW
)

// WritePDF writes the feasibility report of p to w: one page per tool with
// a platen diagram and its checks, followed by a summary page.
func WritePDF(w io.Writer, p model.Project, evals []engine.ToolEvaluation) error {
	if len(evals) == 0 {
		return fmt.Errorf("no tools to report")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(p.Name+" feasibility report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, ev := range evals {
		pdf.AddPage()
		renderToolPage(pdf, tr, ev, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, tr, p, evals)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return pdf.Output(w)
}

// ExportPDF writes the feasibility report to path.
func ExportPDF(path string, p model.Project, evals []engine.ToolEvaluation) error {
	return writeFile(path, func(w io.Writer) error {
		return WritePDF(w, p, evals)
	})
}

// renderToolPage draws one tool evaluation on the current page.
func renderToolPage(pdf *fpdf.Fpdf, tr func(string) string, ev engine.ToolEvaluation, toolNum int) {
	t := ev.Tool

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, tr(fmt.Sprintf("Tool %d: %s", toolNum, t.Name)), "", 0, "L", false, 0, "")

	machine := "no machine assigned"
	if ev.Machine != nil {
		machine = ev.Machine.Name
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("%s tool | %s | %s | Machine: %s", t.Type, t.InjectionSystem, t.NozzleType, machine)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, tr(stats), "", 0, "L", false, 0, "")

	if ev.Report == nil {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, drawAreaTop)
		pdf.MultiCell(pageWidth-marginLeft-marginRight, 6, tr("Cannot evaluate: "+ev.Error), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		return
	}
	r := *ev.Report

	drawHeight := pageHeight - drawAreaTop - marginBottom - 12
	if r.Dimensions != nil {
		var m model.Machine
		if ev.Machine != nil {
			m = *ev.Machine
		}
		layout := NewLayout(m, *r.Dimensions)
		drawLayout(pdf, tr, layout, r.Fits() || r.Fit == nil, marginLeft, drawAreaTop, drawWidth, drawHeight)
	} else {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(120, 120, 120)
		pdf.SetXY(marginLeft, drawAreaTop+drawHeight/2)
		pdf.CellFormat(drawWidth, 6, "Tool dimensions unknown", "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	y := drawChecksTable(pdf, tr, toolChecks(r), drawAreaTop)
	drawWarnings(pdf, tr, r.Warnings, y+6)
}

// drawLayout renders the platen view scaled into the given box.
func drawLayout(pdf *fpdf.Fpdf, tr func(string) string, l Layout, ok bool, x, y, w, h float64) {
	b := l.Bounds()
	if b.W <= 0 || b.H <= 0 {
		return
	}
	scale := math.Min(w/b.W, h/b.H)
	ox := x + (w-b.W*scale)/2
	oy := y

	// mm to page coordinates; page Y grows downwards
	px := func(mx float64) float64 { return ox + (mx-b.X)*scale }
	py := func(my float64) float64 { return oy + (b.Y+b.H-my)*scale }
	rect := func(r Rect, style string) {
		pdf.Rect(px(r.X), py(r.Y+r.H), r.W*scale, r.H*scale, style)
	}

	pdf.SetLineWidth(0.4)
	pdf.SetDrawColor(90, 90, 90)
	pdf.SetFillColor(225, 225, 225)
	if !l.HasPlaten {
		pdf.SetDashPattern([]float64{2, 1}, 0)
	}
	rect(l.Platen, "FD")
	pdf.SetDashPattern([]float64{}, 0)

	if l.HasTieBars {
		pdf.SetLineWidth(0.2)
		pdf.SetDrawColor(33, 150, 243)
		pdf.SetDashPattern([]float64{1.5, 1}, 0)
		rect(l.Clearance, "D")
		pdf.SetDashPattern([]float64{}, 0)

		pdf.SetFillColor(70, 70, 70)
		pdf.SetDrawColor(30, 30, 30)
		for _, c := range l.TieBars {
			pdf.Circle(px(c.X), py(c.Y), c.R*scale, "FD")
		}
	}

	if ok && l.ToolClearsTieBars() {
		pdf.SetFillColor(76, 175, 80)
	} else {
		pdf.SetFillColor(244, 67, 54)
	}
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	rect(l.Tool, "FD")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	toolLabel := fmt.Sprintf("%.0f x %.0f", l.Tool.W, l.Tool.H)
	labelW := pdf.GetStringWidth(toolLabel)
	if labelW < l.Tool.W*scale-2 {
		pdf.SetXY(px(0)-labelW/2, py(0)-2)
		pdf.CellFormat(labelW, 4, toolLabel, "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(80, 80, 80)
	caption := fmt.Sprintf("Platen %.0f x %.0f mm", l.Platen.W, l.Platen.H)
	if l.HasTieBars {
		caption += fmt.Sprintf(" | tie-bar clearance %.0f x %.0f mm", l.Clearance.W, l.Clearance.H)
	}
	if !l.HasPlaten {
		caption += " (platen estimated)"
	}
	pdf.SetXY(x, py(b.Y)+2)
	pdf.CellFormat(w, 4, tr(caption), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawChecksTable renders rows at the right of the page and returns the Y
// position below the table.
func drawChecksTable(pdf *fpdf.Fpdf, tr func(string) string, rows []checkRow, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetXY(tableX, y)
	pdf.CellFormat(tableLabelW, 6, "Check", "1", 0, "L", true, 0, "")
	pdf.CellFormat(tableValueW, 6, "Result", "1", 0, "L", true, 0, "")
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		c := levelColors[row.Level]
		pdf.SetFillColor(c[0], c[1], c[2])

		value := tr(row.Value)
		for pdf.GetStringWidth(value) > tableValueW-2 && len(value) > 3 {
			value = value[:len(value)-4] + "..."
		}
		pdf.SetXY(tableX, y)
		pdf.CellFormat(tableLabelW, 5, tr(row.Label), "1", 0, "L", true, 0, "")
		pdf.CellFormat(tableValueW, 5, value, "1", 0, "L", true, 0, "")
		y += 5
	}
	return y
}

// drawWarnings lists warnings under the checks table until the page is full.
func drawWarnings(pdf *fpdf.Fpdf, tr func(string) string, warnings []string, y float64) {
	if len(warnings) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(180, 110, 0)
	pdf.SetXY(tableX, y)
	pdf.CellFormat(tableLabelW+tableValueW, 6, fmt.Sprintf("Warnings (%d)", len(warnings)), "", 0, "L", false, 0, "")
	y += 7

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for i, w := range warnings {
		if y > pageHeight-marginBottom-8 {
			pdf.SetXY(tableX, y)
			pdf.CellFormat(tableLabelW+tableValueW, 4, fmt.Sprintf("... and %d more", len(warnings)-i), "", 0, "L", false, 0, "")
			return
		}
		pdf.SetXY(tableX, y)
		pdf.MultiCell(tableLabelW+tableValueW, 4, tr("- "+w), "", "L", false)
		y = pdf.GetY()
	}
}

// toolChecks turns a report into the rows of the checks table.
func toolChecks(r engine.ToolReport) []checkRow {
	rows := []checkRow{{
		Label: "Cavities",
		Value: fmt.Sprintf("%d (lifters %d, sliders %d)", r.Totals.TotalCavities, r.Totals.TotalLifters, r.Totals.TotalSliders),
	}}

	if c := r.Clamping; c != nil {
		rows = append(rows, checkRow{Label: "Clamping force", Value: fmt.Sprintf("%.0f kN at %.0f bar (%s)", c.ForceKN, c.PressureBar, pressureSourceText(c.PressureSource))})
	} else {
		rows = append(rows, checkRow{Label: "Clamping force", Value: orDash(r.ClampingError), Level: levelWarn})
	}
	if s := r.MachineSize; s != nil {
		level := levelInfo
		if s.Special {
			level = levelWarn
		}
		rows = append(rows, checkRow{Label: "Machine size", Value: s.Label, Level: level})
	}
	if p := r.InjectionPressureBar; p != nil {
		rows = append(rows, checkRow{Label: "Injection pressure", Value: fmt.Sprintf("%.0f bar (estimated)", *p)})
	}

	if r.ShotVolume.TotalCM3 > 0 {
		rows = append(rows, checkRow{Label: "Shot volume", Value: fmt.Sprintf("%.1f cm³ (runner %.0f%%)", r.ShotVolume.TotalCM3, r.ShotVolume.RunnerPercent)})
	}
	if r.ShotWeight.TotalG > 0 {
		rows = append(rows, checkRow{Label: "Shot weight", Value: fmt.Sprintf("%.1f g", r.ShotWeight.TotalG)})
	}
	if b := r.Barrel; b != nil {
		level := levelOK
		switch {
		case b.IsCritical:
			level = levelFail
		case b.IsWarning:
			level = levelWarn
		}
		rows = append(rows, checkRow{Label: "Barrel usage", Value: fmt.Sprintf("%.0f%% %s", b.Percent, b.Status), Level: level})
	}
	if s := r.Screw; s != nil {
		level := levelWarn
		if s.IsOptimal || s.IsAcceptable {
			level = levelOK
		}
		rows = append(rows, checkRow{Label: "Screw ratio", Value: fmt.Sprintf("%.2f %s", s.Ratio, s.Status), Level: level})
	}

	if ct := r.CycleTimeS; ct != nil {
		rows = append(rows, checkRow{Label: "Cycle time", Value: fmt.Sprintf("%.1f s", *ct) + estimatedSuffix(r.CycleTimeEstimated)})
	}
	if d := r.Dimensions; d != nil {
		rows = append(rows, checkRow{Label: "Tool dimensions", Value: fmt.Sprintf("%.0f x %.0f x %.0f mm", d.WidthMM, d.HeightMM, d.LengthMM) + estimatedSuffix(r.DimensionsEstimated)})
	}

	if f := r.Fit; f != nil {
		if f.Fits {
			rows = append(rows, checkRow{Label: "Machine fit", Value: "Fits", Level: levelOK})
		} else {
			rows = append(rows, checkRow{Label: "Machine fit", Value: "Does not fit: " + strings.Join(f.Issues, "; "), Level: levelFail})
		}
	}

	if r.Imbalance.Checked {
		level := levelOK
		if !r.Imbalance.Balanced {
			level = levelWarn
		}
		rows = append(rows, checkRow{Label: "Cavity balance", Value: r.Imbalance.Message, Level: level})
	}

	for _, d := range r.Demand {
		row := checkRow{Label: "Demand " + d.PartName}
		if d.Check == nil {
			row.Value = fmt.Sprintf("%d pcs/year, not checked", d.AnnualDemand)
			row.Level = levelWarn
		} else {
			row.Value = fmt.Sprintf("%d pcs/year, %.1f%% utilization, %d cavities recommended",
				d.AnnualDemand, d.Check.UtilizationPercent, d.RecommendedCavities)
			row.Level = levelOK
			if !d.Check.Feasible {
				row.Level = levelFail
			}
		}
		rows = append(rows, row)
	}
	return rows
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

func estimatedSuffix(estimated bool) string {
	if estimated {
		return " (estimated)"
	}
	return ""
}

// renderSummaryPage draws the final page with one row per tool.
func renderSummaryPage(pdf *fpdf.Fpdf, tr func(string) string, p model.Project, evals []engine.ToolEvaluation) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, tr("Feasibility Summary: "+p.Name), "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	summaryItems := []struct {
		label string
		value string
	}{
		{"Customer", orDash(p.Customer)},
		{"Status", p.Status.String()},
		{"Parts", fmt.Sprintf("%d", len(p.Parts))},
		{"Tools", fmt.Sprintf("%d", len(evals))},
		{"Tools fitting their machine", fmt.Sprintf("%d", countFitting(evals))},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, tr(item.value), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	y += 5

	colWidths := []float64{55, 55, 28, 22, 28, 22, 20, 37}
	headers := []string{"Tool", "Machine", "Clamping", "Size", "Shot", "Barrel", "Fits", "Warnings"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for _, ev := range evals {
		row := summaryRow(ev)
		level := levelInfo
		switch {
		case ev.Report == nil || (ev.Report.Fit != nil && !ev.Report.Fit.Fits):
			level = levelFail
		case len(ev.Report.Warnings) > 0:
			level = levelWarn
		}
		c := levelColors[level]
		pdf.SetFillColor(c[0], c[1], c[2])

		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, tr(cell), "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
		if y > pageHeight-marginBottom-10 {
			break
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by MoldQuote - Tooling Feasibility & Sizing", "", 0, "C", false, 0, "")
}

// summaryRow returns the summary table cells of one evaluation.
func summaryRow(ev engine.ToolEvaluation) []string {
	machine := "-"
	if ev.Machine != nil {
		machine = ev.Machine.Name
	}
	row := []string{ev.Tool.Name, machine, "-", "-", "-", "-", "?", "-"}
	r := ev.Report
	if r == nil {
		row[7] = "not evaluated"
		return row
	}
	if r.Clamping != nil {
		row[2] = fmt.Sprintf("%.0f kN", r.Clamping.ForceKN)
	}
	if r.MachineSize != nil {
		row[3] = r.MachineSize.Label
	}
	if r.ShotVolume.TotalCM3 > 0 {
		row[4] = fmt.Sprintf("%.1f cm³", r.ShotVolume.TotalCM3)
	}
	if r.Barrel != nil {
		row[5] = fmt.Sprintf("%.0f%%", r.Barrel.Percent)
	}
	if r.Fit != nil {
		row[6] = "Yes"
		if !r.Fit.Fits {
			row[6] = "NO"
		}
	}
	row[7] = fmt.Sprintf("%d", len(r.Warnings))
	return row
}

func countFitting(evals []engine.ToolEvaluation) int {
	n := 0
	for _, ev := range evals {
		if ev.Report != nil && ev.Report.Fits() {
			n++
		}
	}
	return n
}
