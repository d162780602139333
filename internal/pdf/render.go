// Package pdf renders the printable export of a memorial.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/stine-ri/wings-of-memory/internal/model"
)

const (
	pageWidth = 210.0
	margin    = 18.0
	bodyWidth = pageWidth - 2*margin
	lineH     = 6.0
)

// Render writes data as an A4 document: name and dates, biography, timeline
// and tributes. Text outside cp1252 is transliterated by fpdf's translator.
func Render(w io.Writer, data *model.PDFData) error {
	if data == nil || data.Memorial == nil {
		return fmt.Errorf("pdf: memorial is required")
	}
	m := data.Memorial

	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin)
	doc.SetTitle(m.FullName, true)
	doc.SetCreator("Wings of Memory", true)
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 8, fmt.Sprintf("Generated %s  -  page %d", data.GeneratedAt.Format("January 2, 2006"), doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 24)
	doc.SetTextColor(40, 40, 40)
	doc.MultiCell(bodyWidth, 11, tr(m.FullName), "", "C", false)

	if span := lifespan(m); span != "" {
		doc.SetFont("Helvetica", "", 13)
		doc.SetTextColor(90, 90, 90)
		doc.CellFormat(bodyWidth, 8, tr(span), "", 1, "C", false, 0, "")
	}
	if m.Location != "" {
		doc.SetFont("Helvetica", "I", 11)
		doc.CellFormat(bodyWidth, 7, tr(m.Location), "", 1, "C", false, 0, "")
	}
	doc.Ln(6)

	if strings.TrimSpace(m.Biography) != "" {
		heading(doc, "Life Story")
		doc.SetFont("Times", "", 12)
		doc.SetTextColor(30, 30, 30)
		doc.MultiCell(bodyWidth, lineH, tr(m.Biography), "", "J", false)
		doc.Ln(4)
	}

	if len(m.Timeline) > 0 {
		heading(doc, "Timeline")
		for _, ev := range m.Timeline {
			doc.SetFont("Helvetica", "B", 11)
			label := ev.Title
			if ev.Date != "" {
				label = ev.Date + "  " + ev.Title
			}
			doc.MultiCell(bodyWidth, lineH, tr(label), "", "L", false)
			if ev.Description != "" {
				doc.SetFont("Times", "", 11)
				doc.MultiCell(bodyWidth, lineH, tr(ev.Description), "", "L", false)
			}
			doc.Ln(2)
		}
		doc.Ln(2)
	}

	if len(data.Tributes) > 0 {
		heading(doc, fmt.Sprintf("Tributes (%d)", len(data.Tributes)))
		for _, t := range data.Tributes {
			doc.SetFont("Times", "I", 12)
			doc.MultiCell(bodyWidth, lineH, tr(t.Message), "", "L", false)
			doc.SetFont("Helvetica", "", 9)
			doc.SetTextColor(110, 110, 110)
			doc.CellFormat(bodyWidth, 5, tr("- "+t.AuthorName+", "+t.CreationTime.Format("January 2, 2006")), "", 1, "R", false, 0, "")
			doc.SetTextColor(30, 30, 30)
			doc.Ln(3)
		}
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return doc.Output(w)
}

func heading(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 14)
	doc.SetTextColor(60, 60, 90)
	doc.CellFormat(bodyWidth, 9, title, "B", 1, "L", false, 0, "")
	doc.Ln(2)
}

func lifespan(m *model.Memorial) string {
	switch {
	case m.BirthDate != "" && m.DeathDate != "":
		return m.BirthDate + " - " + m.DeathDate
	case m.BirthDate != "":
		return "Born " + m.BirthDate
	case m.DeathDate != "":
		return "Died " + m.DeathDate
	}
	return ""
}
