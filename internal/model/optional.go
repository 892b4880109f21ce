package model

// Float returns a pointer to v, for filling optional numeric fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Positive returns the value of an optional field and whether it is present
// and strictly positive. Absent and non-positive values are both "no data".
func Positive(p *float64) (float64, bool) {
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}

// PositiveInt is Positive for integer fields.
func PositiveInt(p *int) (int, bool) {
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}

// FloatOr returns *p, or def when p is nil.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
