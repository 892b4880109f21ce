package engine

import (
	"errors"
	"fmt"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// effectivePercent returns the box effective surface share, defaulting to 100
// and clamped to [0,100].
func effectivePercent(g model.Geometry) float64 {
	pct := model.FloatOr(g.BoxEffectivePercent, 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// BoxArea returns the projected area in cm² of a length × width mm box of
// which effectivePercent is actual part surface.
func BoxArea(lengthMM, widthMM, effectivePercent float64) float64 {
	return round(lengthMM*widthMM*(effectivePercent/100)/100, 2)
}

// ResolveArea returns the projected area in cm² described by g.
//
// Direct mode requires a positive area and fails with ErrMissingInput.
// Box mode requires positive length and width and an effective share in
// (0,100], and fails with ErrInvalidDimension naming the offending field.
func ResolveArea(g model.Geometry) (float64, error) {
	switch g.Mode {
	case model.GeometryBox:
		length := model.FloatOr(g.BoxLengthMM, 0)
		if length <= 0 {
			return 0, inputErr(ErrInvalidDimension, "box_length_mm", length)
		}
		width := model.FloatOr(g.BoxWidthMM, 0)
		if width <= 0 {
			return 0, inputErr(ErrInvalidDimension, "box_width_mm", width)
		}
		pct := effectivePercent(g)
		if pct <= 0 {
			return 0, inputErr(ErrInvalidDimension, "box_effective_percent", model.FloatOr(g.BoxEffectivePercent, 0))
		}
		return BoxArea(length, width, pct), nil
	case model.GeometryDirect, "":
		area := model.FloatOr(g.AreaCM2, 0)
		if area <= 0 {
			return 0, inputErr(ErrMissingInput, "area_cm2", area)
		}
		return area, nil
	default:
		return 0, fmt.Errorf("unknown geometry mode %q: %w", g.Mode, ErrMissingInput)
	}
}

// ValidateGeometry reports whether g resolves to an area, with a message
// describing the first problem found.
func ValidateGeometry(g model.Geometry) (bool, string) {
	if _, err := ResolveArea(g); err != nil {
		return false, geometryMessage(err)
	}
	return true, ""
}

func geometryMessage(err error) string {
	var ie *InputError
	if !errors.As(err, &ie) {
		return err.Error()
	}
	switch ie.Field {
	case "area_cm2":
		return "Projected area must be greater than 0"
	case "box_length_mm":
		return "Box length must be greater than 0"
	case "box_width_mm":
		return "Box width must be greater than 0"
	case "box_effective_percent":
		return "Effective surface must be between 0 and 100%"
	}
	return ie.Error()
}

// PartArea resolves the projected area of p, reporting false when the part
// has no usable geometry.
func PartArea(p model.Part) (float64, bool) {
	area, err := ResolveArea(p.Geometry)
	return area, err == nil
}
