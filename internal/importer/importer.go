// Package importer reads part lists from CSV and Excel files and part
// footprints from DXF drawings. It supports automatic delimiter detection
// and case-insensitive header recognition with common aliases.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Parts    []model.Part
	Errors   []string
	Warnings []string
}

// Column roles recognized in a part list header.
const (
	ColName           = "name"
	ColPartNumber     = "part_number"
	ColMaterial       = "material"
	ColWeight         = "weight"
	ColVolume         = "volume"
	ColArea           = "area"
	ColWall           = "wall"
	ColFlowLength     = "flow_length"
	ColDepth          = "depth"
	ColBoxLength      = "box_length"
	ColBoxWidth       = "box_width"
	ColEffective      = "effective"
	ColPeakDemand     = "peak_demand"
	ColLifetimeDemand = "lifetime_demand"
)

// ColumnMapping maps column roles to their indices in the data.
type ColumnMapping map[string]int

// Index returns the column of role, or -1 when the role is absent.
func (m ColumnMapping) Index(role string) int {
	if i, ok := m[role]; ok {
		return i
	}
	return -1
}

// headerAliases maps column roles to their accepted header names (lowercase,
// units and punctuation stripped).
var headerAliases = map[string][]string{
	ColName:           {"name", "part", "part name", "label", "description", "item"},
	ColPartNumber:     {"part number", "part no", "pn", "article", "article number", "drawing number"},
	ColMaterial:       {"material", "resin", "polymer", "grade"},
	ColWeight:         {"weight", "part weight", "mass", "weight g"},
	ColVolume:         {"volume", "part volume", "vol", "volume cm3"},
	ColArea:           {"projected area", "proj area", "area", "area cm2", "projected area cm2"},
	ColWall:           {"wall thickness", "wall", "thickness", "wt", "wall thickness mm"},
	ColFlowLength:     {"flow length", "flow", "flow path", "flow length mm"},
	ColDepth:          {"depth", "part depth", "part height", "depth mm"},
	ColBoxLength:      {"box length", "length", "l", "box length mm"},
	ColBoxWidth:       {"box width", "width", "w", "box width mm"},
	ColEffective:      {"effective", "effective percent", "effective surface", "effective area", "box effective percent", "fill"},
	ColPeakDemand:     {"peak demand", "demand peak", "peak", "annual demand", "demand", "eau"},
	ColLifetimeDemand: {"lifetime demand", "lifetime", "lifetime volume", "lifetime vol", "total demand", "parts over runtime"},
}

var (
	unitSuffix  = regexp.MustCompile(`\s*[\(\[].*?[\)\]]`)
	punctuation = strings.NewReplacer("_", " ", ".", "", ":", "", "%", " percent", "³", "3", "²", "2")
)

// normalizeHeader lowercases a header cell and strips bracketed units and
// punctuation, so "Weight (g)" and "weight_g" both read as "weight" or
// "weight g".
func normalizeHeader(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = unitSuffix.ReplaceAllString(s, "")
	s = punctuation.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns the column mapping. The
// first column matching a role wins. It reports false when no cell matches
// any known header.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{}
	for i, cell := range row {
		normalized := normalizeHeader(cell)
		if normalized == "" {
			continue
		}
		for role, aliases := range headerAliases {
			if _, taken := mapping[role]; taken {
				continue
			}
			for _, alias := range aliases {
				if normalized == alias {
					mapping[role] = i
					break
				}
			}
		}
	}
	return mapping, len(mapping) > 0
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber reads a decimal written with either convention: "1,250.5" and
// "1.250,5" both give 1250.5. When both separators appear the last one is the
// decimal mark. A separator repeated, or a single comma followed by exactly
// three digits ("1,250"), groups thousands; otherwise a lone comma is a
// decimal comma ("12,5").
func parseNumber(s string) (float64, error) {
	s = strings.NewReplacer(" ", "", "'", "").Replace(s)
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 || isThousandsGroup(s, comma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return strconv.ParseFloat(s, 64)
}

// isThousandsGroup reports whether the separator at idx is followed by
// exactly three digits and preceded by a non-zero integer part.
func isThousandsGroup(s string, idx int) bool {
	head, tail := strings.TrimLeft(s[:idx], "+-"), s[idx+1:]
	if len(tail) != 3 || head == "" || head == "0" {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCount reads a piece count, ignoring thousands separators.
func parseCount(s string) (int, error) {
	s = strings.NewReplacer(" ", "", ",", "", ".", "", "'", "", "_", "").Replace(s)
	return strconv.Atoi(s)
}

// rowParser converts data rows into parts.
type rowParser struct {
	mapping ColumnMapping
	lib     model.Library
}

// parseRow extracts a Part from a row. Returns the part, any error message,
// and any warning messages.
func (rp rowParser) parseRow(row []string, rowLabel string, partCount int) (model.Part, string, []string) {
	var warnings []string
	cell := func(role string) string { return getCell(row, rp.mapping.Index(role)) }

	name := cell(ColName)
	if name == "" {
		name = fmt.Sprintf("Part %d", partCount+1)
	}
	part := model.NewPart(name)
	part.PartNumber = cell(ColPartNumber)

	floats := []struct {
		role  string
		label string
		dst   **float64
	}{
		{ColWeight, "weight", &part.WeightG},
		{ColVolume, "volume", &part.VolumeCM3},
		{ColWall, "wall thickness", &part.WallThicknessMM},
		{ColFlowLength, "flow length", &part.FlowLengthMM},
		{ColDepth, "depth", &part.DepthMM},
	}
	for _, f := range floats {
		s := cell(f.role)
		if s == "" {
			continue
		}
		v, err := parseNumber(s)
		if err != nil {
			return model.Part{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, f.label, s), nil
		}
		if v <= 0 {
			return model.Part{}, fmt.Sprintf("%s: %s must be positive", rowLabel, strings.ToUpper(f.label[:1])+f.label[1:]), nil
		}
		*f.dst = model.Float(v)
	}

	counts := []struct {
		role  string
		label string
		dst   **int
	}{
		{ColPeakDemand, "peak demand", &part.PeakDemand},
		{ColLifetimeDemand, "lifetime demand", &part.LifetimeDemand},
	}
	for _, c := range counts {
		s := cell(c.role)
		if s == "" {
			continue
		}
		v, err := parseCount(s)
		if err != nil || v < 0 {
			return model.Part{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, c.label, s), nil
		}
		*c.dst = model.Int(v)
	}

	geometry, errMsg, warning := rp.parseGeometry(cell, rowLabel)
	if errMsg != "" {
		return model.Part{}, errMsg, nil
	}
	part.Geometry = geometry
	if warning != "" {
		warnings = append(warnings, warning)
	}

	if mat := cell(ColMaterial); mat != "" {
		if m := rp.lib.FindMaterialByName(mat); m != nil {
			part.MaterialID = m.ID
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown material '%s', left unassigned", rowLabel, mat))
		}
	}

	return part, "", warnings
}

// parseGeometry picks direct mode when a projected area is given, else box
// mode when box length and width are given.
func (rp rowParser) parseGeometry(cell func(string) string, rowLabel string) (model.Geometry, string, string) {
	if s := cell(ColArea); s != "" {
		area, err := parseNumber(s)
		if err != nil || area <= 0 {
			return model.Geometry{}, fmt.Sprintf("%s: Invalid projected area '%s'", rowLabel, s), ""
		}
		return model.DirectGeometry(area), "", ""
	}

	ls, ws := cell(ColBoxLength), cell(ColBoxWidth)
	if ls == "" && ws == "" {
		return model.Geometry{Mode: model.GeometryDirect}, "", fmt.Sprintf("%s: No projected area or box dimensions", rowLabel)
	}
	length, err := parseNumber(ls)
	if err != nil || length <= 0 {
		return model.Geometry{}, fmt.Sprintf("%s: Invalid box length '%s'", rowLabel, ls), ""
	}
	width, err := parseNumber(ws)
	if err != nil || width <= 0 {
		return model.Geometry{}, fmt.Sprintf("%s: Invalid box width '%s'", rowLabel, ws), ""
	}
	effective := 100.0
	if s := cell(ColEffective); s != "" {
		effective, err = parseNumber(strings.TrimSuffix(s, "%"))
		if err != nil || effective <= 0 || effective > 100 {
			return model.Geometry{}, fmt.Sprintf("%s: Effective surface must be between 0 and 100%%, got '%s'", rowLabel, s), ""
		}
	}
	return model.BoxGeometry(length, width, effective), "", ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports parts from a CSV file. Materials are matched by name or
// short name against lib.
func ImportCSV(path string, lib model.Library) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	result = ImportCSVFromReader(bytes.NewReader(data), delimiter, lib)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ImportCSVFromReader imports parts from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, lib model.Library) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", lib)
}

// ImportExcel imports parts from the first sheet of an Excel workbook.
func ImportExcel(path string, lib model.Library) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", lib)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// The first non-empty row must be a header naming at least the part name or
// one geometry column.
func importFromRows(rows [][]string, rowPrefix string, lib model.Library) ImportResult {
	result := ImportResult{}

	headerIdx := 0
	for headerIdx < len(rows) && isEmptyRow(rows[headerIdx]) {
		headerIdx++
	}
	if headerIdx == len(rows) {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, ok := DetectColumns(rows[headerIdx])
	if !ok {
		result.Errors = append(result.Errors, "No header row found: expected columns such as Name, Projected Area, Volume")
		return result
	}
	if mapping.Index(ColName) == -1 && mapping.Index(ColArea) == -1 && mapping.Index(ColBoxLength) == -1 {
		result.Errors = append(result.Errors, "Required columns not found in header: Name or Projected Area or Box Length")
		return result
	}

	parser := rowParser{mapping: mapping, lib: lib}
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		part, errMsg, warnings := parser.parseRow(row, rowLabel, len(result.Parts))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Parts = append(result.Parts, part)
	}

	if len(result.Parts) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
