// Package export writes RFQ results to Excel workbooks, PDF feasibility
// reports, QR-coded tool labels and DXF machine layouts.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

const (
	headerFill  = "4472C4"
	warningFill = "FFEB9C"
	errorFill   = "FFC7CE"
)

var (
	partHeaders = []string{
		"Part Name", "Part Number", "Material",
		"Weight (g)", "Volume (cm³)", "Proj. Area (cm²)", "Wall (mm)",
		"Demand Peak", "Lifetime Vol.", "Cycle Time (s)",
	}
	partWidths = []float64{25, 15, 12, 10, 12, 14, 10, 12, 12, 12}

	toolHeaders = []string{
		"Tool Name", "Type", "Cavities",
		"Injection System", "Surface", "Sliders", "Lifters",
		"Dimensions (LxWxH)", "Clamping (kN)", "Machine",
		"Fits?", "Complexity",
		"Supplier", "Country",
		"Price Enquiry", "Price Estimate", "Notes",
	}
	toolWidths = []float64{25, 10, 10, 15, 12, 8, 8, 18, 12, 15, 8, 10, 20, 12, 15, 15, 30}

	existingHeaders = []string{
		"Name", "Description", "Part Type",
		"Complexity", "Cavities", "Sliders", "Lifters",
		"Surface", "Injection System",
		"Dimensions (LxWxH)", "Steel Weight (kg)",
		"Supplier", "Country", "Price", "Date",
		"Issues", "Lessons Learned", "Tags",
	}
)

// workbook wraps an excelize file with the styles shared by every sheet.
type workbook struct {
	f       *excelize.File
	header  int
	border  int
	warning int
	failure int
	title   int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	wb := &workbook{f: f}

	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	styles := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&wb.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thin,
		}},
		{&wb.border, &excelize.Style{Border: thin}},
		{&wb.warning, &excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{warningFill}, Pattern: 1},
			Border: thin,
		}},
		{&wb.failure, &excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{errorFill}, Pattern: 1},
			Border: thin,
		}},
		{&wb.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
	}
	for _, s := range styles {
		id, err := f.NewStyle(s.style)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*s.dst = id
	}
	return wb, nil
}

// table writes a header row and data rows starting at A1. rowStyle picks the
// style of each data row; nil means plain borders.
func (wb *workbook) table(sheet string, headers []string, widths []float64, rows [][]interface{}, rowStyle func(i int) int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := wb.f.SetCellStyle(sheet, "A1", last+"1", wb.header); err != nil {
		return err
	}

	for i, row := range rows {
		start := fmt.Sprintf("A%d", i+2)
		if err := wb.f.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
		style := wb.border
		if rowStyle != nil {
			style = rowStyle(i)
		}
		if err := wb.f.SetCellStyle(sheet, start, fmt.Sprintf("%s%d", last, i+2), style); err != nil {
			return err
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := wb.f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// WriteExcel writes the RFQ workbook (Summary, Parts and Tools sheets) to w.
// evals are the tool evaluations from engine.EvaluateProject; tool rows are
// highlighted when their machine check failed or raised warnings.
func WriteExcel(w io.Writer, p model.Project, lib model.Library, evals []engine.ToolEvaluation) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.f.Close()

	if err := wb.f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	for _, name := range []string{"Parts", "Tools"} {
		if _, err := wb.f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	if err := wb.writeSummary(p); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := wb.writeParts(p, lib, evals); err != nil {
		return fmt.Errorf("failed to write parts sheet: %w", err)
	}
	if err := wb.writeTools(p, evals); err != nil {
		return fmt.Errorf("failed to write tools sheet: %w", err)
	}

	wb.f.SetActiveSheet(0)
	return wb.f.Write(w)
}

// ExportExcel writes the RFQ workbook to path.
func ExportExcel(path string, p model.Project, lib model.Library, evals []engine.ToolEvaluation) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteExcel(w, p, lib, evals)
	})
}

func (wb *workbook) writeSummary(p model.Project) error {
	const sheet = "Summary"
	f := wb.f

	totalPeak := 0
	for _, part := range p.Parts {
		if d, ok := part.YearlyDemand(); ok {
			totalPeak += d
		}
	}
	var investment float64
	for _, t := range p.Tools {
		investment += toolPrice(t)
	}

	sop, eaop := "-", "-"
	if s, e, ok := p.DemandWindow(); ok {
		sop, eaop = fmt.Sprint(s), fmt.Sprint(e)
	}

	cells := []struct {
		cell  string
		value interface{}
	}{
		{"A1", "RFQ Summary"},
		{"A3", "RFQ Name:"}, {"B3", p.Name},
		{"A4", "Customer:"}, {"B4", orDash(p.Customer)},
		{"A5", "Status:"}, {"B5", p.Status.String()},
		{"A6", "Created:"}, {"B6", p.CreatedAt.Format("2006-01-02")},
		{"A8", "Parts:"}, {"B8", len(p.Parts)},
		{"A9", "Tools:"}, {"B9", len(p.Tools)},
		{"A11", "Demand SOP / EAOP:"}, {"B11", sop + " / " + eaop},
		{"A12", "Total Demand (Peak):"}, {"B12", totalPeak},
		{"A13", "Total Tool Investment:"}, {"B13", formatEuro(investment)},
		{"A15", "Notes:"}, {"A16", orDash(p.Notes)},
	}
	for _, c := range cells {
		if err := f.SetCellValue(sheet, c.cell, c.value); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", wb.title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A16", "D20"); err != nil {
		return err
	}
	for col, w := range map[string]float64{"A": 20, "B": 30, "C": 15, "D": 15} {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) writeParts(p model.Project, lib model.Library, evals []engine.ToolEvaluation) error {
	rows := make([][]interface{}, 0, len(p.Parts))
	for _, part := range p.Parts {
		material := "-"
		if m := lib.FindMaterialByID(part.MaterialID); m != nil {
			material = m.ShortName
		}
		var area interface{} = "-"
		if a, err := engine.ResolveArea(part.Geometry); err == nil {
			area = a
		}
		var cycle interface{} = "-"
		if ev := engine.FindPartTool(evals, part.ID); ev != nil && ev.Report != nil && ev.Report.CycleTimeS != nil {
			cycle = *ev.Report.CycleTimeS
		}
		rows = append(rows, []interface{}{
			part.Name,
			orDash(part.PartNumber),
			material,
			floatCell(part.WeightG),
			floatCell(part.VolumeCM3),
			area,
			floatCell(part.WallThicknessMM),
			intCell(part.PeakDemand),
			intCell(part.LifetimeDemand),
			cycle,
		})
	}
	return wb.table("Parts", partHeaders, partWidths, rows, nil)
}

func (wb *workbook) writeTools(p model.Project, evals []engine.ToolEvaluation) error {
	byID := make(map[string]engine.ToolEvaluation, len(evals))
	for _, ev := range evals {
		byID[ev.Tool.ID] = ev
	}

	rows := make([][]interface{}, 0, len(p.Tools))
	styles := make([]int, 0, len(p.Tools))
	for _, t := range p.Tools {
		ev, evaluated := byID[t.ID]

		cavities := t.Cavities
		var clamp interface{} = "-"
		machine, fits := "-", "?"
		style := wb.border
		dims := dimensionsText(t.LengthMM, t.WidthMM, t.HeightMM)

		if evaluated && ev.Report != nil {
			r := ev.Report
			cavities = r.Totals.TotalCavities
			if r.Clamping != nil {
				clamp = r.Clamping.ForceKN
			}
			if dims == "-" && r.Dimensions != nil {
				dims = fmt.Sprintf("%.0f x %.0f x %.0f (est.)", r.Dimensions.LengthMM, r.Dimensions.WidthMM, r.Dimensions.HeightMM)
			}
			if len(r.Warnings) > 0 {
				style = wb.warning
			}
			if r.Fit != nil {
				fits = "Yes"
				if !r.Fit.Fits {
					fits = "NO"
					style = wb.failure
				}
			}
		} else if evaluated && ev.Err != nil {
			style = wb.failure
		}
		if evaluated && ev.Machine != nil {
			machine = ev.Machine.Name
		}

		complexity := "-"
		if t.Complexity != nil {
			complexity = fmt.Sprint(*t.Complexity)
		}

		rows = append(rows, []interface{}{
			t.Name,
			t.Type.String(),
			cavities,
			t.InjectionSystem.String(),
			orDash(t.SurfaceFinish.String()),
			t.SlidersCount,
			t.LiftersCount,
			dims,
			clamp,
			machine,
			fits,
			complexity,
			orDash(t.SupplierName),
			orDash(t.SupplierCountry),
			priceCell(t.PriceEnquiry),
			priceCell(t.PriceEstimated),
			t.Notes,
		})
		styles = append(styles, style)
	}
	return wb.table("Tools", toolHeaders, toolWidths, rows, func(i int) int { return styles[i] })
}

// WriteExistingTools writes the reference tool database as a single sheet.
func WriteExistingTools(w io.Writer, tools []model.ExistingTool) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.f.Close()

	const sheet = "Existing Tools"
	if err := wb.f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(tools))
	for _, t := range tools {
		complexity := "-"
		if t.Complexity != nil {
			complexity = fmt.Sprint(*t.Complexity)
		}
		price := "-"
		if v, ok := model.Positive(t.ActualPrice); ok {
			price = fmt.Sprintf("%s %s", t.Currency, formatThousands(v))
		}
		date := "-"
		if t.PriceDate != nil {
			date = t.PriceDate.Format("2006-01-02")
		}
		var steel interface{} = "-"
		if v, ok := model.Positive(t.SteelWeightKG); ok {
			steel = v
		}
		rows = append(rows, []interface{}{
			t.Name,
			orDash(t.Description),
			orDash(t.PartType),
			complexity,
			t.Cavities,
			t.SlidersCount,
			t.LiftersCount,
			orDash(t.SurfaceFinish.String()),
			orDash(string(t.InjectionSystem)),
			dimensionsText(t.LengthMM, t.WidthMM, t.HeightMM),
			steel,
			orDash(t.SupplierName),
			orDash(t.SupplierCountry),
			price,
			date,
			orDash(t.Issues),
			orDash(t.LessonsLearned),
			orDash(t.TagList),
		})
	}
	if err := wb.table(sheet, existingHeaders, nil, rows, nil); err != nil {
		return err
	}
	return wb.f.Write(w)
}

// ExportExistingTools writes the reference tool database to path.
func ExportExistingTools(path string, tools []model.ExistingTool) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteExistingTools(w, tools)
	})
}

// toolPrice returns the most advanced price known for t: final, else
// enquiry, else estimate.
func toolPrice(t model.Tool) float64 {
	for _, p := range []*float64{t.PriceFinal, t.PriceEnquiry, t.PriceEstimated} {
		if v, ok := model.Positive(p); ok {
			return v
		}
	}
	return 0
}

func dimensionsText(length, width, height *float64) string {
	var dims []string
	for _, d := range []*float64{length, width, height} {
		if v, ok := model.Positive(d); ok {
			dims = append(dims, fmt.Sprintf("%.0f", v))
		}
	}
	if len(dims) == 0 {
		return "-"
	}
	return strings.Join(dims, " x ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func floatCell(p *float64) interface{} {
	if p == nil {
		return "-"
	}
	return *p
}

func intCell(p *int) interface{} {
	if p == nil {
		return "-"
	}
	return *p
}

func priceCell(p *float64) string {
	if v, ok := model.Positive(p); ok {
		return formatEuro(v)
	}
	return "-"
}

func formatEuro(v float64) string {
	if v <= 0 {
		return "-"
	}
	return "€ " + formatThousands(v)
}

// formatThousands formats v with two decimals and comma thousands separators.
func formatThousands(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
