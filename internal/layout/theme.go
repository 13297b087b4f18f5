package layout

import (
	"errors"
	"fmt"
)

// US Letter in points.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

type RGB struct {
	R, G, B int
}

type Spacing struct {
	XS, SM, MD, LG, XL float64
}

type FontSizes struct {
	H1, H2, Body, Small float64
}

type Palette struct {
	Text    RGB
	Muted   RGB
	Accent  RGB
	Danger  RGB
	Warning RGB
	Success RGB
	Panel   RGB
	Rule    RGB
	Inverse RGB
}

// Theme is the single source of page geometry, spacing, type scale and color
// for every renderer. Coordinates are bottom-origin: Y grows upward from the
// bottom edge of the page.
type Theme struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	BottomMargin float64
	Spacing      Spacing
	FontSizes    FontSizes
	// LineHeight is the line pitch as a multiple of the font size.
	LineHeight float64
	// CharWidth is the width of every glyph as a multiple of the font size.
	CharWidth float64
	Palette   Palette
}

func DefaultTheme() Theme {
	return Theme{
		PageWidth:    LetterWidth,
		PageHeight:   LetterHeight,
		Margin:       54,
		BottomMargin: 54,
		Spacing:      Spacing{XS: 4, SM: 8, MD: 14, LG: 22, XL: 34},
		FontSizes:    FontSizes{H1: 24, H2: 15, Body: 10, Small: 8},
		LineHeight:   1.4,
		CharWidth:    0.5,
		Palette: Palette{
			Text:    RGB{33, 37, 41},
			Muted:   RGB{108, 117, 125},
			Accent:  RGB{24, 78, 119},
			Danger:  RGB{176, 42, 55},
			Warning: RGB{191, 120, 0},
			Success: RGB{25, 135, 84},
			Panel:   RGB{241, 244, 248},
			Rule:    RGB{206, 212, 218},
			Inverse: RGB{255, 255, 255},
		},
	}
}

var ErrInvalidTheme = errors.New("invalid theme")

func (t Theme) Validate() error {
	switch {
	case t.PageWidth <= 0 || t.PageHeight <= 0:
		return fmt.Errorf("%w: page size %.0fx%.0f", ErrInvalidTheme, t.PageWidth, t.PageHeight)
	case t.Margin < 0 || t.BottomMargin < 0:
		return fmt.Errorf("%w: negative margin", ErrInvalidTheme)
	case t.ContentWidth() <= 0:
		return fmt.Errorf("%w: margins leave no content width", ErrInvalidTheme)
	case t.Top() <= t.BottomMargin:
		return fmt.Errorf("%w: margins leave no content height", ErrInvalidTheme)
	case t.LineHeight < 1:
		return fmt.Errorf("%w: line height %.2f < 1", ErrInvalidTheme, t.LineHeight)
	case t.CharWidth <= 0:
		return fmt.Errorf("%w: char width must be positive", ErrInvalidTheme)
	case t.FontSizes.Body <= 0 || t.FontSizes.Small <= 0 || t.FontSizes.H1 <= 0 || t.FontSizes.H2 <= 0:
		return fmt.Errorf("%w: font sizes must be positive", ErrInvalidTheme)
	}
	return nil
}

func (t Theme) ContentWidth() float64 { return t.PageWidth - 2*t.Margin }

// Top is the Y of the first writable line on a fresh page.
func (t Theme) Top() float64 { return t.PageHeight - t.Margin }

// ContentHeight is the writable height of one page.
func (t Theme) ContentHeight() float64 { return t.Top() - t.BottomMargin }

func (t Theme) Left() float64 { return t.Margin }

func (t Theme) LinePitch(size float64) float64 { return size * t.LineHeight }
