package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const ContentTypePDF = "application/pdf"

const (
	pdfMargin     = 10.0
	pdfRowHeight  = 6.0
	pdfFontSize   = 8.0
	pdfTitleSize  = 14.0
	pdfCellInsets = 1.0
)

// PDF renders the table on landscape A4 pages, repeating the header row on
// every page. Cell text that does not fit its column is truncated.
func PDF[T any](t Table[T]) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	widths := scaleWidths(t.widths(), pageW-2*pdfMargin)
	headers := t.headers()

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Halaman %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(217, 225, 242)
		for i, h := range headers {
			pdf.CellFormat(widths[i], pdfRowHeight+1, tr(fit(pdf, h, widths[i])), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}

	pdf.AddPage()
	if t.Title != "" {
		pdf.SetFont("Helvetica", "B", pdfTitleSize)
		pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
	}
	if t.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr(t.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	drawHeader()

	for _, cells := range t.cells() {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin-5 {
			pdf.AddPage()
			drawHeader()
		}
		for i, c := range cells {
			align := "L"
			if i == 0 {
				align = "C"
			}
			pdf.CellFormat(widths[i], pdfRowHeight, tr(fit(pdf, c, widths[i])), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(t.Rows) == 0 {
		pdf.CellFormat(sum(widths), pdfRowHeight, "Tidak ada data", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleWidths stretches relative widths to fill the printable width
func scaleWidths(rel []float64, total float64) []float64 {
	s := sum(rel)
	out := make([]float64, len(rel))
	for i, w := range rel {
		out[i] = w / s * total
	}
	return out
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// fit truncates s with "..." until it fits inside a cell of width w
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdfCellInsets
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
