package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays the review out as a landscape table, one page section per
// run, for compliance sign-off.
func RenderPDF(review Review) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "User Access Review")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", review.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Active users: %d", review.UserCount))
	pdf.Ln(10)

	widths := []float64{60, 45, 50, 45, 15, 15, 15, 15}
	headers := []string{"Email", "Name", "Roles", "Dashboard", "C", "R", "U", "D"}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()

	for _, row := range review.Rows {
		if pdf.GetY() > 180 {
			pdf.AddPage()
			writeHeader()
		}
		cells := []string{
			row.Email,
			row.FullName,
			row.Roles,
			row.Dashboard,
			mark(row.CanCreate),
			mark(row.CanRead),
			mark(row.CanUpdate),
			mark(row.CanDelete),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mark(granted bool) string {
	if granted {
		return "yes"
	}
	return "-"
}
