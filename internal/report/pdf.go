package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ternarybob/chatprobe/internal/models"
)

// Core PDF fonts are Latin-1 only, so the PDF uses plain-text markers
var pdfMarks = map[string]string{
	MarkPass:    "PASS",
	MarkFail:    "FAIL",
	MarkAborted: "ABORTED",
	MarkNotRun:  "NOT RUN",
}

// PDF renders the report as an A4 document
func PDF(report *models.SessionReport, opts Options) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle(opts.title(), true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(opts.title()), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	meta := []string{"Status: " + strings.ToUpper(report.Status())}
	if report.BaseURL != "" {
		meta = append(meta, "Target: "+report.BaseURL)
	}
	if report.RunID != "" {
		meta = append(meta, "Run: "+report.RunID)
	}
	meta = append(meta, fmt.Sprintf("Passed: %d  Failed: %d", report.PassedCount(), report.FailedCount()))
	for _, line := range meta {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Scenario table
	widths := []float64{10, 70, 22, 88}
	headers := []string{"#", "Scenario", "Result", "Detail"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 6, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	pdf.SetFillColor(255, 255, 255)
	for _, line := range Lines(report) {
		cells := []string{
			fmt.Sprintf("%d", line.Ordinal),
			lineTitle(line),
			pdfMarks[line.Mark],
			line.Detail,
		}
		for i, value := range cells {
			pdf.CellFormat(widths[i], 6, tr(truncate(pdf, value, widths[i]-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Console", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("%d messages, %d errors", report.ConsoleTotal, report.ConsoleErrorCount), "", 1, "L", false, 0, "")
	if report.ConsoleExceptions > 0 {
		pdf.CellFormat(0, 5, fmt.Sprintf("%d uncaught exceptions, counted among the errors", report.ConsoleExceptions), "", 1, "L", false, 0, "")
	}
	if len(report.ConsoleErrors) > 0 {
		pdf.SetFont("Courier", "", 8)
		pdf.SetFillColor(245, 245, 245)
		for _, entry := range report.ConsoleErrors {
			pdf.MultiCell(0, 4, tr(entry.String()), "", "L", true)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF report: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate shortens text to fit width at the current font
func truncate(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
