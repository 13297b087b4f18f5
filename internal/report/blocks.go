package report

import (
	"github.com/joelkehle/lease-audit/internal/layout"
)

type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneDanger
)

func toneColor(t layout.Theme, tone Tone) layout.RGB {
	switch tone {
	case ToneSuccess:
		return t.Palette.Success
	case ToneWarning:
		return t.Palette.Warning
	case ToneDanger:
		return t.Palette.Danger
	default:
		return t.Palette.Accent
	}
}

// Hero is the banner at the top of the first page: title, headline range,
// a divider rule and a caption.
type Hero struct {
	Title    string
	Subtitle string
	Headline string
	Caption  string
	Badge    string
	Tone     Tone
}

func (h Hero) innerWidth(t layout.Theme) float64 {
	return t.ContentWidth() - 2*t.Spacing.LG
}

func MeasureHero(t layout.Theme, h Hero) float64 {
	fs := t.FontSizes
	height := 2*t.Spacing.LG + t.LinePitch(fs.H1)
	if h.Subtitle != "" {
		height += t.Spacing.SM + layout.ParagraphHeight(h.Subtitle, fs.Body, h.innerWidth(t), t)
	}
	height += t.Spacing.SM + t.LinePitch(fs.H2)
	height += 2 * t.Spacing.SM
	if h.Caption != "" {
		height += layout.ParagraphHeight(h.Caption, fs.Small, h.innerWidth(t), t)
	}
	if h.Badge != "" {
		height += t.Spacing.XS + t.LinePitch(fs.Small)
	}
	return height
}

func DrawHero(doc *layout.Document, c layout.Cursor, h Hero) (layout.Cursor, error) {
	t := doc.Theme()
	fs := t.FontSizes
	height := MeasureHero(t, h)
	c, err := doc.EnsureSpace(c, height)
	if err != nil {
		return c, err
	}
	if err := doc.FillRect(c, t.Left(), t.ContentWidth(), height, t.Palette.Accent); err != nil {
		return c, err
	}
	x := t.Left() + t.Spacing.LG
	y := c.Down(t.Spacing.LG)
	if err := doc.Text(y, x, h.Title, layout.Style{Size: fs.H1, Bold: true, Color: t.Palette.Inverse}); err != nil {
		return c, err
	}
	y = y.Down(t.LinePitch(fs.H1))
	if h.Subtitle != "" {
		y = y.Down(t.Spacing.SM)
		if y, err = doc.Paragraph(y, x, h.innerWidth(t), h.Subtitle, layout.Style{Size: fs.Body, Color: t.Palette.Inverse}); err != nil {
			return c, err
		}
	}
	y = y.Down(t.Spacing.SM)
	if err := doc.Text(y, x, h.Headline, layout.Style{Size: fs.H2, Bold: true, Color: t.Palette.Inverse}); err != nil {
		return c, err
	}
	y = y.Down(t.LinePitch(fs.H2) + t.Spacing.SM)
	if err := doc.Line(y, x, x+h.innerWidth(t), t.Palette.Inverse, 0.75); err != nil {
		return c, err
	}
	y = y.Down(t.Spacing.SM)
	if h.Caption != "" {
		if y, err = doc.Paragraph(y, x, h.innerWidth(t), h.Caption, layout.Style{Size: fs.Small, Color: t.Palette.Inverse}); err != nil {
			return c, err
		}
	}
	if h.Badge != "" {
		y = y.Down(t.Spacing.XS)
		badge := layout.Style{Size: fs.Small, Bold: true, Color: t.Palette.Inverse}
		if err := doc.FillRect(y.Down(-2), x-2, layout.TextWidth(h.Badge, fs.Small, t)+4, t.LinePitch(fs.Small), toneColor(t, h.Tone)); err != nil {
			return c, err
		}
		if err := doc.Text(y, x, h.Badge, badge); err != nil {
			return c, err
		}
	}
	return c.Down(height), nil
}

// Callout is a titled panel with an optional body paragraph and bullets.
type Callout struct {
	Title   string
	Body    string
	Bullets []string
	Tone    Tone
}

const accentBar = 4.0

func (cl Callout) innerWidth(t layout.Theme) float64 {
	return t.ContentWidth() - 2*t.Spacing.MD - accentBar
}

func (cl Callout) bullets() []string {
	out := make([]string, len(cl.Bullets))
	for i, b := range cl.Bullets {
		out[i] = "• " + b
	}
	return out
}

func MeasureCallout(t layout.Theme, cl Callout) float64 {
	fs := t.FontSizes
	w := cl.innerWidth(t)
	h := 2*t.Spacing.MD + t.LinePitch(fs.H2)
	if cl.Body != "" {
		h += t.Spacing.XS + layout.ParagraphHeight(cl.Body, fs.Body, w, t)
	}
	if len(cl.Bullets) > 0 {
		h += t.Spacing.XS
		for _, b := range cl.bullets() {
			h += layout.ParagraphHeight(b, fs.Body, w, t)
		}
	}
	return h
}

// DrawCallout draws the panel on one page when it fits a page; a callout
// taller than a page flows across pages without a background.
func DrawCallout(doc *layout.Document, c layout.Cursor, cl Callout) (layout.Cursor, error) {
	t := doc.Theme()
	fs := t.FontSizes
	height := MeasureCallout(t, cl)
	panel := height <= t.ContentHeight()
	var err error
	if panel {
		if c, err = doc.EnsureSpace(c, height); err != nil {
			return c, err
		}
		if err := doc.FillRect(c, t.Left(), t.ContentWidth(), height, t.Palette.Panel); err != nil {
			return c, err
		}
		if err := doc.FillRect(c, t.Left(), accentBar, height, toneColor(t, cl.Tone)); err != nil {
			return c, err
		}
	}

	x := t.Left() + accentBar + t.Spacing.MD
	w := cl.innerWidth(t)
	y := c.Down(t.Spacing.MD)
	if y, err = doc.EnsureSpace(y, t.LinePitch(fs.H2)); err != nil {
		return c, err
	}
	if err := doc.Text(y, x, cl.Title, layout.Style{Size: fs.H2, Bold: true, Color: toneColor(t, cl.Tone)}); err != nil {
		return c, err
	}
	y = y.Down(t.LinePitch(fs.H2))
	body := layout.Style{Size: fs.Body, Color: t.Palette.Text}
	if cl.Body != "" {
		if y, err = doc.Paragraph(y.Down(t.Spacing.XS), x, w, cl.Body, body); err != nil {
			return c, err
		}
	}
	if len(cl.Bullets) > 0 {
		y = y.Down(t.Spacing.XS)
		for _, b := range cl.bullets() {
			if y, err = doc.Paragraph(y, x, w, b, body); err != nil {
				return c, err
			}
		}
	}
	if panel {
		return c.Down(height), nil
	}
	return y.Down(t.Spacing.MD), nil
}

// BottomLine is the closing band of the report. Range, when set, is printed
// large under the headline.
type BottomLine struct {
	Headline string
	Range    string
	Body     string
}

func (b BottomLine) innerWidth(t layout.Theme) float64 {
	return t.ContentWidth() - 2*t.Spacing.LG
}

func MeasureBottomLine(t layout.Theme, b BottomLine) float64 {
	fs := t.FontSizes
	h := 2*t.Spacing.LG + t.LinePitch(fs.H2)
	if b.Range != "" {
		h += t.Spacing.SM + t.LinePitch(fs.H1)
	}
	if b.Body != "" {
		h += t.Spacing.SM + layout.ParagraphHeight(b.Body, fs.Body, b.innerWidth(t), t)
	}
	return h
}

func DrawBottomLine(doc *layout.Document, c layout.Cursor, b BottomLine) (layout.Cursor, error) {
	t := doc.Theme()
	fs := t.FontSizes
	height := MeasureBottomLine(t, b)
	c, err := doc.EnsureSpace(c, height)
	if err != nil {
		return c, err
	}
	if err := doc.FillRect(c, t.Left(), t.ContentWidth(), height, t.Palette.Text); err != nil {
		return c, err
	}
	x := t.Left() + t.Spacing.LG
	y := c.Down(t.Spacing.LG)
	if err := doc.Text(y, x, b.Headline, layout.Style{Size: fs.H2, Bold: true, Color: t.Palette.Inverse}); err != nil {
		return c, err
	}
	y = y.Down(t.LinePitch(fs.H2))
	if b.Range != "" {
		y = y.Down(t.Spacing.SM)
		if err := doc.Text(y, x, b.Range, layout.Style{Size: fs.H1, Bold: true, Color: t.Palette.Inverse}); err != nil {
			return c, err
		}
		y = y.Down(t.LinePitch(fs.H1))
	}
	if b.Body != "" {
		if _, err := doc.Paragraph(y.Down(t.Spacing.SM), x, b.innerWidth(t), b.Body, layout.Style{Size: fs.Body, Color: t.Palette.Inverse}); err != nil {
			return c, err
		}
	}
	return c.Down(height), nil
}
