package report

import (
	"math"

	"github.com/joelkehle/lease-audit/internal/layout"
)

type Column struct {
	Header string
	// Width is the share of the content width, 0..1.
	Width float64
	Align layout.Align
}

// SummaryTable is a titled table. Rows break across pages with the header
// repeated and every second row shaded; Footer, when set, is drawn bold under
// a rule.
type SummaryTable struct {
	Title   string
	Columns []Column
	Rows    [][]string
	Footer  []string
}

func (tb SummaryTable) widths(t layout.Theme) []float64 {
	var sum float64
	for _, col := range tb.Columns {
		sum += col.Width
	}
	out := make([]float64, len(tb.Columns))
	for i, col := range tb.Columns {
		share := col.Width
		if sum <= 0 {
			share = 1
			sum = float64(len(tb.Columns))
		}
		out[i] = t.ContentWidth() * share / sum
	}
	return out
}

func (tb SummaryTable) titleHeight(t layout.Theme) float64 {
	if tb.Title == "" {
		return 0
	}
	return t.LinePitch(t.FontSizes.H2) + t.Spacing.XS
}

func (tb SummaryTable) rowHeight(t layout.Theme, cells []string, size float64) float64 {
	pad := t.Spacing.XS
	lines := 1
	for i, w := range tb.widths(t) {
		if i >= len(cells) {
			break
		}
		if n := layout.EstimateLines(cells[i], size, w-2*pad, t); n > lines {
			lines = n
		}
	}
	return float64(lines)*t.LinePitch(size) + 2*pad
}

func (tb SummaryTable) headers() []string {
	out := make([]string, len(tb.Columns))
	for i, col := range tb.Columns {
		out[i] = col.Header
	}
	return out
}

func MeasureSummaryTable(t layout.Theme, tb SummaryTable) float64 {
	h := tb.titleHeight(t) + tb.rowHeight(t, tb.headers(), t.FontSizes.Small)
	for _, row := range tb.Rows {
		h += tb.rowHeight(t, row, t.FontSizes.Body)
	}
	if len(tb.Footer) > 0 {
		h += tb.rowHeight(t, tb.Footer, t.FontSizes.Body)
	}
	return h
}

// minimumStart is the space needed to place the title, header and first row
// together.
func (tb SummaryTable) minimumStart(t layout.Theme) float64 {
	h := tb.titleHeight(t) + tb.rowHeight(t, tb.headers(), t.FontSizes.Small)
	switch {
	case len(tb.Rows) > 0:
		h += tb.rowHeight(t, tb.Rows[0], t.FontSizes.Body)
	case len(tb.Footer) > 0:
		h += tb.rowHeight(t, tb.Footer, t.FontSizes.Body)
	}
	return h
}

func DrawSummaryTable(doc *layout.Document, c layout.Cursor, tb SummaryTable) (layout.Cursor, error) {
	t := doc.Theme()
	fs := t.FontSizes
	start := tb.minimumStart(t)
	if whole := MeasureSummaryTable(t, tb); whole <= t.ContentHeight() {
		start = whole
	}
	c, err := doc.EnsureSpace(c, start)
	if err != nil {
		return c, err
	}
	if tb.Title != "" {
		if err := doc.Text(c, t.Left(), tb.Title, layout.Style{Size: fs.H2, Bold: true, Color: t.Palette.Accent}); err != nil {
			return c, err
		}
		c = c.Down(tb.titleHeight(t))
	}
	if c, err = tb.drawHeader(doc, c); err != nil {
		return c, err
	}
	body := layout.Style{Size: fs.Body, Color: t.Palette.Text}
	for i, row := range tb.Rows {
		h := tb.rowHeight(t, row, fs.Body)
		if !c.Fits(h, t) {
			if c, err = doc.AddPage(); err != nil {
				return c, err
			}
			if c, err = tb.drawHeader(doc, c); err != nil {
				return c, err
			}
		}
		if shaded(i) {
			if err := doc.FillRect(c, t.Left(), t.ContentWidth(), h, t.Palette.Panel); err != nil {
				return c, err
			}
		}
		if c, err = tb.drawRow(doc, c, row, body, h); err != nil {
			return c, err
		}
		if err := doc.Line(c, t.Left(), t.Left()+t.ContentWidth(), t.Palette.Rule, 0.5); err != nil {
			return c, err
		}
	}
	if len(tb.Footer) > 0 {
		h := tb.rowHeight(t, tb.Footer, fs.Body)
		if c, err = doc.EnsureSpace(c, h); err != nil {
			return c, err
		}
		if err := doc.Line(c, t.Left(), t.Left()+t.ContentWidth(), t.Palette.Text, 1); err != nil {
			return c, err
		}
		if c, err = tb.drawRow(doc, c, tb.Footer, layout.Style{Size: fs.Body, Bold: true, Color: t.Palette.Text}, h); err != nil {
			return c, err
		}
	}
	return c, nil
}

// shaded reports whether body row i gets the panel background. The header is
// already shaded, so the first row is left plain.
func shaded(i int) bool { return i%2 == 1 }

func (tb SummaryTable) drawHeader(doc *layout.Document, c layout.Cursor) (layout.Cursor, error) {
	t := doc.Theme()
	headers := tb.headers()
	h := tb.rowHeight(t, headers, t.FontSizes.Small)
	if err := doc.FillRect(c, t.Left(), t.ContentWidth(), h, t.Palette.Panel); err != nil {
		return c, err
	}
	return tb.drawRow(doc, c, headers, layout.Style{Size: t.FontSizes.Small, Bold: true, Color: t.Palette.Muted}, h)
}

func (tb SummaryTable) drawRow(doc *layout.Document, c layout.Cursor, cells []string, st layout.Style, h float64) (layout.Cursor, error) {
	t := doc.Theme()
	pad := t.Spacing.XS
	pitch := t.LinePitch(st.Size)
	x := t.Left()
	for i, w := range tb.widths(t) {
		if i < len(cells) {
			inner := math.Max(w-2*pad, 0)
			for j, line := range layout.WrapLines(cells[i], st.Size, inner, t) {
				at := c.Down(pad + float64(j)*pitch)
				if err := doc.TextAligned(at, x+pad, inner, line, st, tb.Columns[i].Align); err != nil {
					return c, err
				}
			}
		}
		x += w
	}
	return c.Down(h), nil
}
