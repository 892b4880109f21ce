package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

// LabelInfo holds the data encoded into each tool label's QR code.
type LabelInfo struct {
	RFQ      string   `json:"rfq"`
	ToolID   string   `json:"tool_id"`
	ToolName string   `json:"tool"`
	Cavities int      `json:"cavities"`
	Parts    []string `json:"parts"`
	Machine  string   `json:"machine,omitempty"`
	ClampKN  float64  `json:"clamping_kn,omitempty"`
	WidthMM  float64  `json:"width_mm,omitempty"`
	HeightMM float64  `json:"height_mm,omitempty"`
	LengthMM float64  `json:"length_mm,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos extracts one label per tool. Figures come from the
// evaluation when available, else from the tool itself.
func CollectLabelInfos(p model.Project, evals []engine.ToolEvaluation) []LabelInfo {
	labels := make([]LabelInfo, 0, len(evals))
	for _, ev := range evals {
		t := ev.Tool
		info := LabelInfo{
			RFQ:      p.Name,
			ToolID:   t.ID,
			ToolName: t.Name,
			Cavities: t.Cavities,
			WidthMM:  model.FloatOr(t.WidthMM, 0),
			HeightMM: model.FloatOr(t.HeightMM, 0),
			LengthMM: model.FloatOr(t.LengthMM, 0),
		}
		for _, c := range t.Configurations {
			if part := p.FindPart(c.PartID); part != nil {
				info.Parts = append(info.Parts, fmt.Sprintf("%dx %s", c.Cavities, part.Name))
			}
		}
		if len(t.Configurations) == 0 && t.LegacyPartID != "" {
			if part := p.FindPart(t.LegacyPartID); part != nil {
				info.Parts = append(info.Parts, fmt.Sprintf("%dx %s", t.Cavities, part.Name))
			}
		}
		if ev.Machine != nil {
			info.Machine = ev.Machine.Name
		}
		if r := ev.Report; r != nil {
			info.Cavities = r.Totals.TotalCavities
			if r.Clamping != nil {
				info.ClampKN = r.Clamping.ForceKN
			}
			if d := r.Dimensions; d != nil {
				info.WidthMM, info.HeightMM, info.LengthMM = d.WidthMM, d.HeightMM, d.LengthMM
			}
		}
		labels = append(labels, info)
	}
	return labels
}

// WriteLabels writes a PDF of QR-coded tool tags to w, laid out on a
// standard label sheet format (Avery 5160 / 3 columns x 10 rows on US Letter).
func WriteLabels(w io.Writer, p model.Project, evals []engine.ToolEvaluation) error {
	labels := CollectLabelInfos(p, evals)
	if len(labels) == 0 {
		return fmt.Errorf("no tools to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, tr, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ToolName, err)
		}
	}

	return pdf.Output(w)
}

// ExportLabels writes the tool tags PDF to path.
func ExportLabels(path string, p model.Project, evals []engine.ToolEvaluation) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteLabels(w, p, evals)
	})
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, idx int, info LabelInfo) error {
	// Light border as cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.ToolID, idx)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, tr(info.ToolName), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	summary := fmt.Sprintf("%d cav.", info.Cavities)
	if info.ClampKN > 0 {
		summary += fmt.Sprintf(" | %.0f kN", info.ClampKN)
	}
	pdf.CellFormat(textW, 3.5, summary, "", 1, "L", false, 0, "")

	if info.WidthMM > 0 {
		pdf.SetXY(textX, y+labelPadding+8.5)
		dims := fmt.Sprintf("%.0f x %.0f x %.0f mm", info.WidthMM, info.HeightMM, info.LengthMM)
		pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.CellFormat(textW, 3, truncate(pdf, tr(strings.Join(info.Parts, ", ")), textW), "", 1, "L", false, 0, "")

	if info.Machine != "" {
		pdf.SetXY(textX, y+labelPadding+16)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(0, 90, 160)
		pdf.CellFormat(textW, 3, truncate(pdf, tr(info.Machine), textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits width at the current font.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
