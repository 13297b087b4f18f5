package layout

import "fmt"

// Cursor is the write position: a 1-based page number and a bottom-origin Y.
// It is a value; every drawing call returns the next cursor rather than
// mutating one in place.
type Cursor struct {
	Page int
	Y    float64
}

// Down returns the cursor moved h points toward the bottom of the page.
func (c Cursor) Down(h float64) Cursor {
	return Cursor{Page: c.Page, Y: c.Y - h}
}

// Fits reports whether h points fit above the bottom margin.
func (c Cursor) Fits(h float64, t Theme) bool {
	return c.Y-h >= t.BottomMargin
}

// Remaining is the space left above the bottom margin.
func (c Cursor) Remaining(t Theme) float64 {
	if r := c.Y - t.BottomMargin; r > 0 {
		return r
	}
	return 0
}

func (c Cursor) String() string {
	return fmt.Sprintf("p%d@%.2f", c.Page, c.Y)
}
