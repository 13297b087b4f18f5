package layout

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingFont = errors.New("missing font")

// Fonts names the family and the regular/bold style codes the renderers use.
// Only the PDF core families are available; there is no font embedding.
type Fonts struct {
	Family  string
	Regular string
	Bold    string
}

func DefaultFonts() Fonts {
	return Fonts{Family: "Helvetica", Regular: "", Bold: "B"}
}

var coreFamilies = map[string]bool{
	"helvetica": true,
	"arial":     true,
	"times":     true,
	"courier":   true,
}

func (f Fonts) Validate() error {
	if strings.TrimSpace(f.Family) == "" {
		return fmt.Errorf("%w: empty family", ErrMissingFont)
	}
	if !coreFamilies[strings.ToLower(f.Family)] {
		return fmt.Errorf("%w: %q is not a core font family", ErrMissingFont, f.Family)
	}
	for _, style := range []string{f.Regular, f.Bold} {
		if strings.Trim(strings.ToUpper(style), "BI") != "" {
			return fmt.Errorf("%w: unknown style %q", ErrMissingFont, style)
		}
	}
	return nil
}

func (f Fonts) style(bold bool) string {
	if bold {
		return f.Bold
	}
	return f.Regular
}
