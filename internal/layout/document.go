package layout

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

var (
	ErrFinalized = errors.New("document already finalized")
	ErrBadCursor = errors.New("cursor outside document")
)

// Epoch stamped into every document so identical input yields identical bytes.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

type Style struct {
	Size  float64
	Bold  bool
	Color RGB
}

type OpKind string

const (
	OpText OpKind = "text"
	OpFill OpKind = "fill"
	OpLine OpKind = "line"
)

// Op is one drawing call as issued by a renderer, kept for inspection.
type Op struct {
	Kind  OpKind
	Page  int
	Y     float64
	H     float64
	Text  string
	Size  float64
	Color RGB
}

// Document is a paginated PDF under construction. It is not safe for
// concurrent use; each render owns its own Document.
type Document struct {
	pdf       *fpdf.Fpdf
	theme     Theme
	fonts     Fonts
	tr        func(string) string
	footer    string
	finalized bool
	stamping  bool
	trace     []Cursor
	ops       []Op
}

func New(theme Theme, fonts Fonts) (*Document, error) {
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	if err := fonts.Validate(); err != nil {
		return nil, err
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: theme.PageWidth, Ht: theme.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(theme.Margin, theme.Margin, theme.Margin)
	pdf.SetCreationDate(Epoch)
	pdf.SetModificationDate(Epoch)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("lease-audit", true)
	return &Document{
		pdf:   pdf,
		theme: theme,
		fonts: fonts,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}, nil
}

func (d *Document) Theme() Theme { return d.theme }

func (d *Document) SetTitle(title string) {
	d.pdf.SetTitle(title, true)
}

// SetFooter sets text drawn at the bottom of every page next to the page
// number when the document is finalized.
func (d *Document) SetFooter(s string) { d.footer = s }

// Start adds the first page and returns the top cursor.
func (d *Document) Start() (Cursor, error) {
	return d.AddPage()
}

// AddPage appends a page and returns a cursor at its top margin.
func (d *Document) AddPage() (Cursor, error) {
	if d.finalized {
		return Cursor{}, ErrFinalized
	}
	if n := d.pdf.PageCount(); n > 0 && d.pdf.PageNo() != n {
		d.pdf.SetPage(n)
	}
	d.pdf.AddPage()
	c := Cursor{Page: d.pdf.PageCount(), Y: d.theme.Top()}
	d.mark(c)
	return c, nil
}

// EnsureSpace returns c unchanged when h fits above the bottom margin and a
// cursor at the top of a new page otherwise. A block taller than a whole page
// is started at the top of a page and allowed to run on.
func (d *Document) EnsureSpace(c Cursor, h float64) (Cursor, error) {
	if d.finalized {
		return c, ErrFinalized
	}
	if c.Fits(h, d.theme) || c.Y >= d.theme.Top() {
		return c, nil
	}
	return d.AddPage()
}

func (d *Document) PageCount() int { return d.pdf.PageCount() }

// Trace returns every cursor recorded so far: page starts and block ends.
func (d *Document) Trace() []Cursor {
	out := make([]Cursor, len(d.trace))
	copy(out, d.trace)
	return out
}

// Mark records c in the trace. Renderers call it at the end of each block.
func (d *Document) Mark(c Cursor) { d.mark(c) }

func (d *Document) mark(c Cursor) { d.trace = append(d.trace, c) }

// Ops returns the drawing calls issued so far, in order. Page footers are not
// included.
func (d *Document) Ops() []Op {
	out := make([]Op, len(d.ops))
	copy(out, d.ops)
	return out
}

func (d *Document) use(c Cursor, st Style) error {
	if d.finalized {
		return ErrFinalized
	}
	if c.Page < 1 || c.Page > d.pdf.PageCount() {
		return fmt.Errorf("%w: page %d of %d", ErrBadCursor, c.Page, d.pdf.PageCount())
	}
	if d.pdf.PageNo() != c.Page {
		d.pdf.SetPage(c.Page)
	}
	if st.Size > 0 {
		d.pdf.SetFont(d.fonts.Family, d.fonts.style(st.Bold), st.Size)
		d.pdf.SetTextColor(st.Color.R, st.Color.G, st.Color.B)
	}
	return nil
}

// pdfY converts a bottom-origin Y to the backend's top-origin Y.
func (d *Document) pdfY(y float64) float64 { return d.theme.PageHeight - y }

// Text draws one line whose box top is at c.Y.
func (d *Document) Text(c Cursor, x float64, s string, st Style) error {
	if err := d.use(c, st); err != nil {
		return err
	}
	d.pdf.Text(x, d.pdfY(c.Y-st.Size), d.tr(s))
	if !d.stamping {
		d.ops = append(d.ops, Op{Kind: OpText, Page: c.Page, Y: c.Y, Text: s, Size: st.Size, Color: st.Color})
	}
	return nil
}

// TextAligned draws one line within [x, x+width] using the fixed-width model
// for alignment.
func (d *Document) TextAligned(c Cursor, x, width float64, s string, st Style, a Align) error {
	w := TextWidth(s, st.Size, d.theme)
	switch a {
	case AlignRight:
		x = x + width - w
	case AlignCenter:
		x = x + (width-w)/2
	}
	return d.Text(c, x, s, st)
}

// Paragraph wraps text to width and draws it line by line, breaking pages
// between lines. The returned cursor sits below the last line.
func (d *Document) Paragraph(c Cursor, x, width float64, text string, st Style) (Cursor, error) {
	pitch := d.theme.LinePitch(st.Size)
	for _, line := range WrapLines(text, st.Size, width, d.theme) {
		var err error
		if c, err = d.EnsureSpace(c, pitch); err != nil {
			return c, err
		}
		if line != "" {
			if err := d.Text(c, x, line, st); err != nil {
				return c, err
			}
		}
		c = c.Down(pitch)
	}
	return c, nil
}

// FillRect fills a rectangle whose top edge is at c.Y.
func (d *Document) FillRect(c Cursor, x, w, h float64, color RGB) error {
	if err := d.use(c, Style{}); err != nil {
		return err
	}
	d.pdf.SetFillColor(color.R, color.G, color.B)
	d.pdf.Rect(x, d.pdfY(c.Y), w, h, "F")
	d.ops = append(d.ops, Op{Kind: OpFill, Page: c.Page, Y: c.Y, H: h, Color: color})
	return nil
}

// Line draws a horizontal rule at c.Y from x1 to x2.
func (d *Document) Line(c Cursor, x1, x2 float64, color RGB, width float64) error {
	if err := d.use(c, Style{}); err != nil {
		return err
	}
	d.pdf.SetDrawColor(color.R, color.G, color.B)
	d.pdf.SetLineWidth(width)
	y := d.pdfY(c.Y)
	d.pdf.Line(x1, y, x2, y)
	d.ops = append(d.ops, Op{Kind: OpLine, Page: c.Page, Y: c.Y, Color: color})
	return nil
}

// Finalize stamps page footers and serializes the document. The document
// cannot be used afterwards.
func (d *Document) Finalize() ([]byte, error) {
	if d.finalized {
		return nil, ErrFinalized
	}
	n := d.pdf.PageCount()
	st := Style{Size: d.theme.FontSizes.Small, Color: d.theme.Palette.Muted}
	d.stamping = true
	for p := 1; p <= n; p++ {
		c := Cursor{Page: p, Y: d.theme.BottomMargin / 2}
		label := fmt.Sprintf("Page %d of %d", p, n)
		if err := d.TextAligned(c, d.theme.Left(), d.theme.ContentWidth(), label, st, AlignRight); err != nil {
			return nil, err
		}
		if d.footer != "" {
			if err := d.Text(c, d.theme.Left(), d.footer, st); err != nil {
				return nil, err
			}
		}
	}
	d.finalized = true
	if err := d.pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
