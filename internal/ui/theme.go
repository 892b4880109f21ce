// Package ui provides the MoldQuote desktop application: the RFQ, parts,
// tools and results tabs, the library editors and the settings dialogs.
package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// MoldQuoteTheme wraps the default Fyne theme with compact sizing overrides.
type MoldQuoteTheme struct {
	base    fyne.Theme
	variant fyne.ThemeVariant
	system  bool
}

// NewMoldQuoteTheme creates a theme following the variant named in the app
// config: "light", "dark" or "system".
func NewMoldQuoteTheme(name string) *MoldQuoteTheme {
	t := &MoldQuoteTheme{base: theme.DefaultTheme()}
	t.SetVariantName(name)
	return t
}

// SetVariantName switches between light, dark and the system variant.
func (t *MoldQuoteTheme) SetVariantName(name string) {
	switch name {
	case "light":
		t.variant, t.system = theme.VariantLight, false
	case "dark":
		t.variant, t.system = theme.VariantDark, false
	default:
		t.system = true
	}
}

// Color delegates to the base theme, forcing the configured variant.
func (t *MoldQuoteTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if !t.system {
		variant = t.variant
	}
	return t.base.Color(name, variant)
}

// Font delegates to the base theme.
func (t *MoldQuoteTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

// Icon delegates to the base theme.
func (t *MoldQuoteTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides.
func (t *MoldQuoteTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInlineIcon:
		return 16
	default:
		return t.base.Size(name)
	}
}
