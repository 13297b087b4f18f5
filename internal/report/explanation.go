package report

import (
	"github.com/joelkehle/lease-audit/internal/layout"
)

// ExplanationBox fills the rest of the page with its paragraphs, leaving
// Reserve points free at the bottom for the block that follows.
type ExplanationBox struct {
	Title      string
	Paragraphs []string
	Reserve    float64
}

func (e ExplanationBox) innerWidth(t layout.Theme) float64 {
	return t.ContentWidth() - 2*t.Spacing.MD
}

// MeasureExplanation is the height of the content alone.
func MeasureExplanation(t layout.Theme, e ExplanationBox) float64 {
	fs := t.FontSizes
	h := 2*t.Spacing.MD + t.LinePitch(fs.H2)
	for i, p := range e.Paragraphs {
		if i > 0 {
			h += t.Spacing.SM
		}
		h += layout.ParagraphHeight(p, fs.Body, e.innerWidth(t), t)
	}
	return h
}

// HeightAt is the height the box occupies when started at c, and whether it
// must move to a fresh page first. A box that cannot fit even a fresh page
// reports its content height and flows.
func (e ExplanationBox) HeightAt(c layout.Cursor, t layout.Theme) (float64, bool) {
	content := MeasureExplanation(t, e)
	avail := c.Remaining(t) - e.Reserve
	if content <= avail {
		return avail, false
	}
	fresh := t.ContentHeight() - e.Reserve
	if content <= fresh && c.Y < t.Top() {
		return fresh, true
	}
	return content, false
}

func DrawExplanation(doc *layout.Document, c layout.Cursor, e ExplanationBox) (layout.Cursor, error) {
	t := doc.Theme()
	fs := t.FontSizes
	height, brk := e.HeightAt(c, t)
	var err error
	if brk {
		if c, err = doc.AddPage(); err != nil {
			return c, err
		}
		height, _ = e.HeightAt(c, t)
	}
	content := MeasureExplanation(t, e)
	panel := content <= c.Remaining(t)
	if panel {
		if err := doc.FillRect(c, t.Left(), t.ContentWidth(), height, t.Palette.Panel); err != nil {
			return c, err
		}
	}
	x := t.Left() + t.Spacing.MD
	y := c.Down(t.Spacing.MD)
	if !panel {
		if y, err = doc.EnsureSpace(y, t.LinePitch(fs.H2)); err != nil {
			return c, err
		}
	}
	if err := doc.Text(y, x, e.Title, layout.Style{Size: fs.H2, Bold: true, Color: t.Palette.Accent}); err != nil {
		return c, err
	}
	y = y.Down(t.LinePitch(fs.H2))
	body := layout.Style{Size: fs.Body, Color: t.Palette.Text}
	for i, p := range e.Paragraphs {
		if i > 0 {
			y = y.Down(t.Spacing.SM)
		}
		if y, err = doc.Paragraph(y, x, e.innerWidth(t), p, body); err != nil {
			return c, err
		}
	}
	if panel {
		return c.Down(height), nil
	}
	return y.Down(t.Spacing.MD), nil
}
