package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
)

// optFloatText formats an optional number for an entry; nil gives "".
func optFloatText(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// optIntText formats an optional count for an entry.
func optIntText(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// parseOptFloat reads an optional number. Blank input is nil; a decimal
// comma is accepted.
func parseOptFloat(field, text string) (*float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", field, text)
	}
	if v < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return &v, nil
}

// parseOptInt reads an optional count, ignoring thousands separators.
func parseOptInt(field, text string) (*int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	clean := strings.NewReplacer(" ", "", ",", "", ".", "", "'", "", "_", "").Replace(text)
	v, err := strconv.Atoi(clean)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a whole number", field, text)
	}
	if v < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return &v, nil
}

// parseCount reads a required count of at least min.
func parseCount(field, text string, min int) (int, error) {
	v, err := parseOptInt(field, text)
	if err != nil {
		return 0, err
	}
	if v == nil || *v < min {
		return 0, fmt.Errorf("%s must be at least %d", field, min)
	}
	return *v, nil
}

// fieldParser collects the first parse error of a form.
type fieldParser struct {
	err error
}

func (fp *fieldParser) float(field, text string) *float64 {
	v, err := parseOptFloat(field, text)
	if err != nil && fp.err == nil {
		fp.err = err
	}
	return v
}

func (fp *fieldParser) int(field, text string) *int {
	v, err := parseOptInt(field, text)
	if err != nil && fp.err == nil {
		fp.err = err
	}
	return v
}

func (fp *fieldParser) count(field, text string, min int) int {
	v, err := parseCount(field, text, min)
	if err != nil && fp.err == nil {
		fp.err = err
	}
	return v
}

const dateLayout = "2006-01-02"

// optDateText formats an optional date as YYYY-MM-DD.
func optDateText(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// parseOptDate reads an optional YYYY-MM-DD date.
func parseOptDate(field, text string) (*time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a date (YYYY-MM-DD)", field, text)
	}
	return &t, nil
}

func (fp *fieldParser) date(field, text string) *time.Time {
	v, err := parseOptDate(field, text)
	if err != nil && fp.err == nil {
		fp.err = err
	}
	return v
}

// areaText describes a part's projected area for the parts table.
func areaText(p model.Part, area float64, ok bool) string {
	if !ok {
		return "-"
	}
	if p.Geometry.Mode == model.GeometryBox {
		return fmt.Sprintf("%.1f cm² (est.)", area)
	}
	return fmt.Sprintf("%.1f cm²", area)
}

// valueText formats an optional value with a unit, or "-".
func valueText(p *float64, unit string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g %s", *p, unit)
}

// countText formats an optional piece count with thousands separators.
func countText(p *int) string {
	if p == nil {
		return "-"
	}
	s := strconv.Itoa(*p)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// optionLabels returns the display label of each option.
func optionLabels[T fmt.Stringer](options []T) []string {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.String()
	}
	return labels
}

// optionByLabel maps a select label back to its option, or def.
func optionByLabel[T fmt.Stringer](options []T, label string, def T) T {
	for _, o := range options {
		if o.String() == label {
			return o
		}
	}
	return def
}

// priceText shows the most advanced price of t with its stage.
func priceText(t model.Tool) string {
	stages := []struct {
		label string
		price *float64
	}{
		{"final", t.PriceFinal},
		{"enquiry", t.PriceEnquiry},
		{"estimate", t.PriceEstimated},
	}
	for _, s := range stages {
		if v, ok := model.Positive(s.price); ok {
			return fmt.Sprintf("%.0f (%s)", v, s.label)
		}
	}
	return "-"
}

// partChecksText summarises a part for the Checks column: missing quote data
// first, then a broken geometry, then the warning count.
func partChecksText(p model.Part, check engine.PartCheck) string {
	if missing := p.MissingFields(); len(missing) > 0 {
		return "Missing: " + strings.Join(missing, ", ")
	}
	if ok, msg := engine.ValidateGeometry(p.Geometry); !ok {
		return msg
	}
	if n := len(check.Warnings); n > 0 {
		return fmt.Sprintf("%d warning(s)", n)
	}
	return "OK"
}

// weightCheckText describes a weight consistency result.
func weightCheckText(c engine.WeightConsistency) string {
	if !c.Checked || c.ExpectedWeightG == 0 {
		return "Weight check: " + c.Message
	}
	status := "within tolerance"
	if !c.Consistent {
		status = "outside tolerance"
	}
	return fmt.Sprintf("Weight check: expected %gg from volume × density, deviation %.1f%% (%s)",
		c.ExpectedWeightG, c.DeviationPercent, status)
}
