package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/mbolis/launchalot/log"
)

const (
	marginTop    = 32.0
	marginSide   = 32.0
	marginBottom = 64.0
	reserve      = 56.0

	logoSize    = 80.0
	logoSpacing = 20.0
	logoTop     = 18.0

	headerRowHeight = 22.0
	rowPad          = 6.0
	minRowHeight    = 16.0
	minAnswerHeight = 12.0
	answerGap       = 4.0
	riskBarW        = 24.0
	riskBarH        = 9.0

	bodyFontSize = 10.0
	lineFactor   = 1.2
)

// Columns holds the widths of the question, answer and risk columns.
type Columns struct {
	Question float64
	Answer   float64
	Risk     float64
}

func (c Columns) total() float64 { return c.Question + c.Answer + c.Risk }

var DefaultColumns = Columns{Question: 290, Answer: 180, Risk: 80}

type Renderer struct {
	Columns Columns
	Logos   *LogoLoader
	// LogoFailed, when set, is called for every logo that could not be drawn.
	LogoFailed func(src string, err error)
}

func NewRenderer(logos *LogoLoader) *Renderer {
	return &Renderer{Columns: DefaultColumns, Logos: logos}
}

// Render writes the whole PDF to w. Nothing is written when building the document fails.
func (rn *Renderer) Render(ctx context.Context, req Request, w io.Writer) error {
	pdf, err := rn.build(ctx, req)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("report.output: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

type document struct {
	*fpdf.Fpdf
	cols  Columns
	tr    func(string) string
	pageH float64
}

func (rn *Renderer) build(ctx context.Context, req Request) (*fpdf.Fpdf, error) {
	cols := rn.Columns
	if cols.total() <= 0 {
		cols = DefaultColumns
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetCellMargin(0)
	_, pageH := pdf.GetPageSize()

	doc := &document{
		Fpdf:  pdf,
		cols:  cols,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		pageH: pageH,
	}

	logos := rn.registerLogos(ctx, doc, req.Logos())
	pdf.SetHeaderFunc(func() { doc.drawHeader(logos, req.CompanyName) })
	pdf.AddPage()

	for i, sec := range NormalizeCheckboxRisks(req.Sections) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		title := sec.Title
		if title == "" {
			title = fmt.Sprintf("Segment %d", i+1)
		}
		doc.drawSection(title, sec.Rows)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("report.build: %w", pdf.Error())
	}
	return pdf, nil
}

type registeredLogo struct {
	name string
	w, h float64
}

func (rn *Renderer) registerLogos(ctx context.Context, doc *document, srcs []string) []registeredLogo {
	var logos []registeredLogo
	for i, src := range srcs {
		err := rn.registerLogo(ctx, doc, src, i, &logos)
		if err == nil {
			continue
		}
		log.Warnf("report.logo: failed to load %.80q: %s", src, err)
		if rn.LogoFailed != nil {
			rn.LogoFailed(src, err)
		}
	}
	return logos
}

func (rn *Renderer) registerLogo(ctx context.Context, doc *document, src string, i int, logos *[]registeredLogo) error {
	if rn.Logos == nil {
		return ErrUnsupportedLogo
	}
	l, err := rn.Logos.load(ctx, src)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("logo-%d", i)
	info := doc.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: l.imageType}, bytes.NewReader(l.data))
	if !doc.Ok() {
		err := doc.Error()
		doc.ClearError()
		return err
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return errors.New("empty image")
	}
	*logos = append(*logos, registeredLogo{name: name, w: info.Width(), h: info.Height()})
	return nil
}

func (d *document) lineHeight(size float64) float64 {
	return size * lineFactor
}

func (d *document) textHeight(txt string, w, size float64) float64 {
	lines := len(d.SplitLines([]byte(d.tr(txt)), w))
	if lines < 1 {
		lines = 1
	}
	return float64(lines) * d.lineHeight(size)
}

func (d *document) writeText(x, y, w, size float64, txt string) {
	d.SetXY(x, y)
	d.MultiCell(w, d.lineHeight(size), d.tr(txt), "", "L", false)
}

func (d *document) setColor(c color) {
	d.SetFillColor(c.r, c.g, c.b)
}

func (d *document) drawHeader(logos []registeredLogo, companyName string) {
	pageW, _ := d.GetPageSize()

	if n := float64(len(logos)); n > 0 {
		x := (pageW - (n*logoSize + (n-1)*logoSpacing)) / 2
		for _, l := range logos {
			scale := math.Min(logoSize/l.w, logoSize/l.h)
			w, h := l.w*scale, l.h*scale
			d.ImageOptions(l.name, x+(logoSize-w)/2, logoTop+(logoSize-h)/2, w, h, false, fpdf.ImageOptions{}, 0, "")
			x += logoSize + logoSpacing
		}
	}

	y := logoTop + logoSize + 10
	if companyName != "" {
		d.SetFont("Helvetica", "B", 14)
		d.SetTextColor(colorText.r, colorText.g, colorText.b)
		d.writeText(marginSide, y, pageW-2*marginSide, 14, companyName)
		y = d.GetY()
	}
	d.SetY(y + 2*d.lineHeight(14))
}

// ensureSpace starts a new page unless needed fits above the bottom margin with the reserve.
func (d *document) ensureSpace(needed float64) {
	if d.GetY()+needed+reserve > d.pageH-marginBottom {
		d.AddPage()
	}
}

func (d *document) drawSection(title string, rows []Row) {
	d.SetFont("Helvetica", "B", 11)
	var first *Row
	if len(rows) > 0 {
		first = &rows[0]
	}
	d.ensureSpace(d.segmentMinHeight(title, first))

	d.SetFont("Helvetica", "B", 11)
	d.SetTextColor(colorText.r, colorText.g, colorText.b)
	d.writeText(marginSide, d.GetY(), d.cols.total(), 11, title)
	d.SetY(d.GetY() + 0.4*d.lineHeight(11))

	top := d.GetY()
	d.drawTableHeader()
	for _, row := range rows {
		top = d.drawRow(row, top)
	}
	d.strokeTable(top, d.GetY())

	d.SetY(d.GetY() + 0.5*d.lineHeight(bodyFontSize))
}

func (d *document) segmentMinHeight(title string, first *Row) float64 {
	h := d.textHeight(title, d.cols.total(), 11) + 8
	h += headerRowHeight
	if first == nil {
		return h + 28 + 12
	}

	d.SetFont("Helvetica", "", bodyFontSize)
	qH := d.textHeight(dash(first.Question), d.cols.Question-2*rowPad, bodyFontSize)
	answers, _ := first.answerLines()
	aH := d.textHeight(dash(answers[0]), d.cols.Answer-2*rowPad, bodyFontSize)
	return h + math.Max(math.Max(qH, aH), minRowHeight) + 2*rowPad + 12
}

func (d *document) drawTableHeader() {
	x, y := marginSide, d.GetY()

	d.SetLineWidth(1)
	d.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	d.setColor(colorHeaderFill)
	d.Rect(x, y, d.cols.total(), headerRowHeight, "FD")
	d.Line(x+d.cols.Question, y, x+d.cols.Question, y+headerRowHeight)
	d.Line(x+d.cols.Question+d.cols.Answer, y, x+d.cols.Question+d.cols.Answer, y+headerRowHeight)

	d.SetFont("Helvetica", "B", 10.5)
	d.SetTextColor(colorText.r, colorText.g, colorText.b)
	d.writeText(x+rowPad, y+5, d.cols.Question-2*rowPad, 10.5, "Question")
	d.writeText(x+d.cols.Question+rowPad, y+5, d.cols.Answer-2*rowPad, 10.5, "Answer")
	d.writeText(x+d.cols.Question+d.cols.Answer+rowPad, y+5, d.cols.Risk-2*rowPad, 10.5, "Risk Level")

	d.SetY(y + headerRowHeight)
}

func (d *document) answerHeights(answers []string) []float64 {
	heights := make([]float64, len(answers))
	for i, a := range answers {
		heights[i] = math.Max(d.textHeight(dash(a), d.cols.Answer-2*rowPad, bodyFontSize), minAnswerHeight)
	}
	return heights
}

func (d *document) rowHeight(row Row) float64 {
	d.SetFont("Helvetica", "", bodyFontSize)
	answers, _ := row.answerLines()
	block := float64(len(answers)-1) * answerGap
	for _, h := range d.answerHeights(answers) {
		block += h
	}
	qH := d.textHeight(dash(row.Question), d.cols.Question-2*rowPad, bodyFontSize)
	return math.Max(math.Max(qH, block), minRowHeight) + 2*rowPad
}

// drawRow draws a table row and returns the top of the table it belongs to. When the
// row moves to a new page, the table box is closed on the previous page and the header is repeated.
func (d *document) drawRow(row Row, tableTop float64) float64 {
	rowH := d.rowHeight(row)

	if d.GetY()+rowH+6+reserve > d.pageH-marginBottom {
		d.strokeTable(tableTop, d.GetY())
		d.AddPage()
		tableTop = d.GetY()
		d.drawTableHeader()
	}

	x, y := marginSide, d.GetY()
	d.SetLineWidth(1)
	d.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	d.Rect(x, y, d.cols.Question, rowH, "D")
	d.Rect(x+d.cols.Question, y, d.cols.Answer, rowH, "D")
	d.Rect(x+d.cols.Question+d.cols.Answer, y, d.cols.Risk, rowH, "D")

	d.SetFont("Helvetica", "", bodyFontSize)
	d.SetTextColor(colorText.r, colorText.g, colorText.b)
	d.writeText(x+rowPad, y+rowPad, d.cols.Question-2*rowPad, bodyFontSize, dash(row.Question))

	answers, risks := row.answerLines()
	heights := d.answerHeights(answers)
	ay := y + rowPad
	for i, a := range answers {
		d.writeText(x+d.cols.Question+rowPad, ay, d.cols.Answer-2*rowPad, bodyFontSize, dash(a))

		r, g, b := RiskColor(risks[i])
		d.SetFillColor(r, g, b)
		rx := x + d.cols.Question + d.cols.Answer + (d.cols.Risk-riskBarW)/2
		d.Rect(rx, ay+(heights[i]-riskBarH)/2, riskBarW, riskBarH, "F")

		ay += heights[i] + answerGap
	}

	d.SetY(y + rowH)
	return tableTop
}

func (d *document) strokeTable(top, bottom float64) {
	if bottom <= top {
		return
	}
	d.SetLineWidth(1.5)
	d.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	d.Rect(marginSide, top, d.cols.total(), bottom-top, "D")
	d.SetLineWidth(1)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
