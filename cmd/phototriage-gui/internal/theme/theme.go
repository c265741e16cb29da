package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"

	"phototriage/internal/asset"
)

// Palette defines the review surface colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Panel      color.NRGBA
	Primary    color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
	Keep       color.NRGBA
	Delete     color.NRGBA
	Unsure     color.NRGBA
	Selection  color.NRGBA
}

// Config defines the surface metrics.
type Config struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	FontTitle    unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with triage-specific styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a new theme based on the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{
		Theme: mtheme,
	}

	if runtime.GOOS == "darwin" {
		setupMacOSTheme(t)
	} else {
		setupDefaultTheme(t)
	}

	return t
}

// TagColor maps a disposition to its badge color.
func (t *Theme) TagColor(tag asset.Tag) color.NRGBA {
	switch tag {
	case asset.TagKeep:
		return t.Palette.Keep
	case asset.TagDelete:
		return t.Palette.Delete
	case asset.TagUnsure:
		return t.Palette.Unsure
	default:
		return t.Palette.TextMuted
	}
}

func setupDefaultTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x1A, G: 0x1A, B: 0x1A, A: 0xFF},
		Surface:    color.NRGBA{R: 0x26, G: 0x26, B: 0x26, A: 0xFF},
		Panel:      color.NRGBA{R: 0x32, G: 0x32, B: 0x32, A: 0xFF},
		Primary:    color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
		Text:       color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF7, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
		Border:     color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF},
		Keep:       color.NRGBA{R: 0x30, G: 0xD1, B: 0x58, A: 0xFF},
		Delete:     color.NRGBA{R: 0xE8, G: 0x11, B: 0x23, A: 0xFF},
		Unsure:     color.NRGBA{R: 0xFF, G: 0xB9, B: 0x00, A: 0xFF},
		Selection:  color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0x60},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(4),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		FontTitle:    unit.Sp(20),
		FontBody:     unit.Sp(14),
		FontCaption:  unit.Sp(12),
	}
}

func setupMacOSTheme(t *Theme) {
	setupDefaultTheme(t)
	t.Palette.Primary = color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF}
	t.Palette.Selection = color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0x60}
	t.Config.CornerRadius = unit.Dp(10)
	t.Config.Padding = unit.Dp(20)
	t.Config.FontBody = unit.Sp(13)
}
