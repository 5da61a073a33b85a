package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/engine"
	"example.com/segygate/internal/rules"
)

// SaveBatchPDF renders the batch report into a PDF document. When
// changelogPath names an existing changelog, its SHA-256 is stamped into the
// footer together with a QR code of the hash so the printed report can be
// matched to the audit trail.
func SaveBatchPDF(rep *BatchReport, changelogPath, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Batch Edit Report", false)
	pdf.SetAuthor("segyctl", false)
	pdf.SetCreator("segyctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Batch Edit Report")
	addSummarySection(pdf, rep)
	addResultsSection(pdf, rep.Results)
	addValidationSection(pdf, rep.Results)
	if changelogPath != "" {
		addChangelogStamp(pdf, changelogPath)
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

// SaveValidationPDF renders a single-file validation result as a PDF.
func SaveValidationPDF(res *rules.Result, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Validation Report", false)
	pdf.SetAuthor("segyctl", false)
	pdf.SetCreator("segyctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Validation Report")

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "File", value: res.Filename},
		{label: "Overall", value: severityLabel(res)},
		{label: "Checks", value: strconv.Itoa(len(res.Checks))},
		{label: "Warnings", value: strconv.Itoa(res.Count(rules.Warning))},
		{label: "Failures", value: strconv.Itoa(res.Count(rules.Fail))},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	addChecksSection(pdf, res.Checks)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addChecksSection(pdf *gofpdf.Fpdf, checks []rules.Check) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Checks")
	pdf.Ln(9)

	headers := []string{"Check", "Status", "Message"}
	widths := []float64{62, 24, 84}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, c := range checks {
		msg := c.Message
		if c.Details != "" {
			msg += " (" + c.Details + ")"
		}
		renderTableRow(pdf, widths, []string{c.Name, string(c.Status), msg}, 5.0)
	}
	pdf.Ln(4)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep *BatchReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Files", value: strconv.Itoa(rep.Summary.Total)},
		{label: "Succeeded", value: strconv.Itoa(rep.Summary.Success)},
		{label: "Failed", value: strconv.Itoa(rep.Summary.Failure)},
		{label: "Skipped", value: strconv.Itoa(rep.Summary.Skipped)},
		{label: "Recorded Changes", value: strconv.Itoa(rep.Summary.Changes)},
		{label: "Generated At", value: rep.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addResultsSection(pdf *gofpdf.Fpdf, results []engine.BatchResult) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Per-File Results")
	pdf.Ln(9)

	headers := []string{"File", "Status", "Changes", "Pre", "Post", "Duration"}
	widths := []float64{58, 22, 20, 22, 22, 26}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, r := range results {
		values := []string{
			r.Filename,
			string(r.Status),
			strconv.Itoa(len(r.Records)),
			severityLabel(r.ValidationBefore),
			severityLabel(r.ValidationAfter),
			r.Duration.Round(time.Millisecond).String(),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addValidationSection(pdf *gofpdf.Fpdf, results []engine.BatchResult) {
	var flagged []string
	for _, r := range results {
		for _, res := range []*rules.Result{r.ValidationBefore, r.ValidationAfter} {
			if res == nil {
				continue
			}
			for _, c := range res.Checks {
				if c.Status == rules.Pass {
					continue
				}
				flagged = append(flagged, fmt.Sprintf("%s: [%s] %s: %s",
					r.Filename, c.Status, c.Name, c.Message))
			}
		}
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	if len(flagged) == 0 {
		pdf.MultiCell(0, 5, "No warnings or failures recorded.", "", "L", false)
		return
	}
	for _, line := range flagged {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.Ln(2)
}

// addChangelogStamp hashes the changelog and embeds the hash plus a QR code
// so the paper trail can be verified against the JSONL file.
func addChangelogStamp(pdf *gofpdf.Fpdf, changelogPath string) {
	hash, size, err := common.Sha256OfFile(changelogPath)
	if err != nil {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(0, 4, "Changelog not hashed: "+err.Error(), "", "L", false)
		return
	}
	png, err := ChangelogHashToQR(hash, 128)
	if err != nil {
		return
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, "Changelog Integrity")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 4, fmt.Sprintf("SHA-256: %s (%d bytes)", strings.ToLower(hash), size), "", "L", false)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("changelog-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("changelog-qr", pdf.GetX(), pdf.GetY()+2, 24, 24, false, opts, 0, "")
	pdf.Ln(28)
}

func severityLabel(res *rules.Result) string {
	if res == nil {
		return "-"
	}
	if s := strings.TrimSpace(string(res.Overall)); s != "" {
		return s
	}
	return "-"
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}
