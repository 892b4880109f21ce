package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/MoldQuote/internal/model"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func fillColor(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	id, err := f.GetCellStyle(sheet, ref)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	if len(style.Fill.Color) == 0 {
		return ""
	}
	// ARGB values come back with their alpha byte
	c := strings.ToUpper(strings.TrimPrefix(style.Fill.Color[0], "#"))
	if len(c) == 8 {
		c = c[2:]
	}
	return c
}

func TestWriteExcel_Sheets(t *testing.T) {
	p, lib, evals := buildTestProject()

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, p, lib, evals))

	f := openWorkbook(t, buf.Bytes())
	assert.Equal(t, []string{"Summary", "Parts", "Tools"}, f.GetSheetList())
}

func TestWriteExcel_Summary(t *testing.T) {
	p, lib, evals := buildTestProject()

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, p, lib, evals))
	f := openWorkbook(t, buf.Bytes())

	assert.Equal(t, "RFQ Summary", cell(t, f, "Summary", "A1"))
	assert.Equal(t, "Bracket RFQ", cell(t, f, "Summary", "B3"))
	assert.Equal(t, "ACME", cell(t, f, "Summary", "B4"))
	assert.Equal(t, "Draft", cell(t, f, "Summary", "B5"))
	assert.Equal(t, "2", cell(t, f, "Summary", "B8"))
	assert.Equal(t, "3", cell(t, f, "Summary", "B9"))
	assert.Equal(t, "750000", cell(t, f, "Summary", "B12"))
	// enquiry 60,000 plus estimate 85,000
	assert.Equal(t, "€ 145,000.00", cell(t, f, "Summary", "B13"))
	assert.Equal(t, "-", cell(t, f, "Summary", "A16"))
}

func TestWriteExcel_Parts(t *testing.T) {
	p, lib, evals := buildTestProject()

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, p, lib, evals))
	f := openWorkbook(t, buf.Bytes())

	assert.Equal(t, "Part Name", cell(t, f, "Parts", "A1"))
	assert.Equal(t, headerFill, fillColor(t, f, "Parts", "A1"))

	assert.Equal(t, "Housing", cell(t, f, "Parts", "A2"))
	assert.Equal(t, "PN-100", cell(t, f, "Parts", "B2"))
	assert.Equal(t, "PP", cell(t, f, "Parts", "C2"))
	assert.Equal(t, "86.4", cell(t, f, "Parts", "F2"))
	assert.Equal(t, "20", cell(t, f, "Parts", "J2"))

	assert.Equal(t, "Cover", cell(t, f, "Parts", "A3"))
	assert.Equal(t, "-", cell(t, f, "Parts", "B3"))
	assert.Equal(t, "-", cell(t, f, "Parts", "D3"))
}

func TestWriteExcel_ToolsHighlighting(t *testing.T) {
	p, lib, evals := buildTestProject()

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, p, lib, evals))
	f := openWorkbook(t, buf.Bytes())

	assert.Equal(t, "Tool Name", cell(t, f, "Tools", "A1"))

	// Family tool fits but runs close to its clamping capacity
	assert.Equal(t, "Family tool", cell(t, f, "Tools", "A2"))
	assert.Equal(t, "Family", cell(t, f, "Tools", "B2"))
	assert.Equal(t, "4", cell(t, f, "Tools", "C2"))
	assert.Equal(t, "Engel victory 200", cell(t, f, "Tools", "J2"))
	assert.Equal(t, "Yes", cell(t, f, "Tools", "K2"))
	assert.Equal(t, warningFill, fillColor(t, f, "Tools", "A2"))
	assert.Equal(t, "€ 85,000.00", cell(t, f, "Tools", "P2"))

	assert.Equal(t, "NO", cell(t, f, "Tools", "K3"))
	assert.Equal(t, errorFill, fillColor(t, f, "Tools", "A3"))
	assert.Equal(t, errorFill, fillColor(t, f, "Tools", "Q3"))

	assert.Equal(t, "Empty", cell(t, f, "Tools", "A4"))
	assert.Equal(t, "?", cell(t, f, "Tools", "K4"))
	assert.Equal(t, errorFill, fillColor(t, f, "Tools", "A4"))
}

func TestExportExcel_File(t *testing.T) {
	p, lib, evals := buildTestProject()
	path := filepath.Join(t.TempDir(), "rfq.xlsx")

	require.NoError(t, ExportExcel(path, p, lib, evals))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestWriteExistingTools(t *testing.T) {
	tool := model.NewExistingTool("Clip 8-fold")
	tool.Cavities = 8
	tool.ActualPrice = model.Float(42_500)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tool.PriceDate = &date
	tool.SetTags([]string{"clip", "hot runner"})

	var buf bytes.Buffer
	require.NoError(t, WriteExistingTools(&buf, []model.ExistingTool{tool}))
	f := openWorkbook(t, buf.Bytes())

	const sheet = "Existing Tools"
	assert.Equal(t, []string{sheet}, f.GetSheetList())
	assert.Equal(t, "Name", cell(t, f, sheet, "A1"))
	assert.Equal(t, "Clip 8-fold", cell(t, f, sheet, "A2"))
	assert.Equal(t, "8", cell(t, f, sheet, "E2"))
	assert.Equal(t, "-", cell(t, f, sheet, "J2"))
	assert.Equal(t, "EUR 42,500.00", cell(t, f, sheet, "N2"))
	assert.Equal(t, "2024-03-01", cell(t, f, sheet, "O2"))
	assert.Equal(t, "clip, hot runner", cell(t, f, sheet, "R2"))
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{85000, "85,000.00"},
		{1234567.891, "1,234,567.89"},
		{-1234.5, "-1,234.50"},
	}
	for _, tt := range tests {
		if got := formatThousands(tt.in); got != tt.want {
			t.Errorf("formatThousands(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToolPrice(t *testing.T) {
	tool := model.NewTool("T")
	assert.Equal(t, 0.0, toolPrice(tool))

	tool.PriceEstimated = model.Float(50)
	assert.Equal(t, 50.0, toolPrice(tool))

	tool.PriceEnquiry = model.Float(60)
	assert.Equal(t, 60.0, toolPrice(tool))

	tool.PriceFinal = model.Float(55)
	assert.Equal(t, 55.0, toolPrice(tool))
}

func TestDimensionsText(t *testing.T) {
	assert.Equal(t, "-", dimensionsText(nil, nil, nil))
	assert.Equal(t, "400 x 300 x 350", dimensionsText(model.Float(400), model.Float(300), model.Float(350)))
	assert.Equal(t, "400 x 350", dimensionsText(model.Float(400), nil, model.Float(350)))
}
