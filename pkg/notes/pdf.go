package notes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/database"
)

const (
	borderMargin = 5.0
	innerMargin  = 3.0
	lineHeight   = 6.0
)

// Generator writes the bordered tabular note PDF for a single property.
type Generator struct {
	runner    database.SelectRunner
	outputDir string
	logger    *zap.Logger
}

func NewGenerator(runner database.SelectRunner, outputDir string, logger *zap.Logger) *Generator {
	return &Generator{
		runner:    runner,
		outputDir: outputDir,
		logger:    logger.Named("notes"),
	}
}

// GeneratePropertyNote builds the note PDF for one PRA and returns its
// path along with the current-owner and history rows it was built from.
func (g *Generator) GeneratePropertyNote(ctx context.Context, pra string) (string, []map[string]any, []map[string]any, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", nil, nil, fmt.Errorf("creating output dir: %w", err)
	}

	rec, err := loadPropertyRecord(ctx, g.runner, pra)
	if err != nil {
		return "", nil, nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 10)

	// Outer border on every page, including auto page breaks.
	pdf.SetHeaderFunc(func() {
		pageW, pageH := pdf.GetPageSize()
		pdf.SetLineWidth(0.3)
		pdf.Rect(borderMargin, borderMargin, pageW-2*borderMargin, pageH-2*borderMargin, "D")
		left, top, _, _ := pdf.GetMargins()
		pdf.SetXY(left, top)
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	tableWidth := pageW - left - right - 2*innerMargin

	writeTitle(pdf, rec)
	writeTransactions(pdf, rec.History, tableWidth)
	writeOwners(pdf, rec.CurrentOwners, tableWidth)
	writeShareCertificates(pdf, rec.ShareRows, tableWidth)
	writeClubMemberships(pdf, rec.ClubRows, tableWidth)

	fileName := fmt.Sprintf("property_note_%s.pdf", sanitizeFileName(pra))
	path := filepath.Join(g.outputDir, fileName)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", nil, nil, fmt.Errorf("writing note pdf: %w", err)
	}

	g.logger.Info("note summary generated",
		zap.String("pra", pra),
		zap.String("path", path),
		zap.Int("transactions", len(rec.History)),
		zap.Int("current_owners", len(rec.CurrentOwners)))
	return path, rec.CurrentOwners, rec.History, nil
}

func writeTitle(pdf *fpdf.Fpdf, rec *propertyRecord) {
	pdf.SetFont("Arial", "BU", 14)
	pdf.CellFormat(0, 10, NoteTitle(rec.PRA), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	if rec.InitialPlotSize != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8,
			fmt.Sprintf("Initial plot size of the property: %s sq. yards", rec.InitialPlotSize),
			"", 1, "", false, 0, "")
		pdf.Ln(3)
	}

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "All the transaction that has happened is listed below:", "", 1, "", false, 0, "")
	pdf.Ln(3)
}

// NoteTitle renders the PRA "plot|road|Punjabi Bagh East" as
// "Plot no. 28 Road no. 6 East Punjabi Bagh". A PRA in any other shape
// is used as-is.
func NoteTitle(pra string) string {
	parts := strings.Split(pra, "|")
	if len(parts) != 3 {
		return pra
	}
	plot := strings.TrimSpace(parts[0])
	road := strings.TrimSpace(parts[1])
	area := strings.TrimSpace(parts[2])

	words := strings.Fields(area)
	if len(words) == 3 &&
		strings.EqualFold(words[0], "punjabi") &&
		strings.EqualFold(words[1], "bagh") {
		area = words[2] + " Punjabi Bagh"
	}
	return fmt.Sprintf("Plot no. %s Road no. %s %s", plot, road, area)
}

func writeTransactions(pdf *fpdf.Fpdf, history []map[string]any, tableWidth float64) {
	widths := []float64{10, 20, 38, 38, 18, 25}
	noteWidth := tableWidth
	for _, w := range widths {
		noteWidth -= w
	}
	widths = append(widths, noteWidth)
	headers := []string{"S.No.", "Date", "Buyer", "Seller", "Portion", "Transfer Type", "Note"}
	aligns := []string{"L", "L", "L", "L", "R", "L", "L"}

	left, _, _, bottom := pdf.GetMargins()
	_, pageH := pdf.GetPageSize()

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetX(left + innerMargin)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
	}
	drawHeader()

	for idx, row := range history {
		cells := [][]string{
			{fmt.Sprintf("%d.", idx + 1)},
			{truncate(stringField(row, "signing_date"), 10)},
			wrapToWidth(pdf, stringField(row, "buyer_name"), widths[2]-2),
			wrapToWidth(pdf, stringField(row, "seller_name"), widths[3]-2),
			{portionField(row)},
			wrapToWidth(pdf, stringField(row, "transfer_type"), widths[5]-2),
			wrapToWidth(pdf, stringField(row, "notes"), widths[6]-2),
		}

		numLines := 1
		for _, lines := range cells {
			if len(lines) > numLines {
				numLines = len(lines)
			}
		}
		rowHeight := float64(numLines) * lineHeight

		// Start a new page (the header func redraws the border) when
		// this row would cross the bottom margin.
		if pdf.GetY()+rowHeight > pageH-bottom-innerMargin {
			pdf.AddPage()
			drawHeader()
		}

		pdf.SetX(left + innerMargin)
		xStart := pdf.GetX()
		yStart := pdf.GetY()

		x := xStart
		for _, w := range widths {
			pdf.Rect(x, yStart, w, rowHeight, "D")
			x += w
		}

		for col, lines := range cells {
			xCol := xStart
			for i := 0; i < col; i++ {
				xCol += widths[i]
			}
			for i, line := range lines {
				pdf.SetXY(xCol+1, yStart+1+float64(i)*lineHeight)
				pdf.CellFormat(widths[col]-2, lineHeight, cleanText(line), "", 0, aligns[col], false, 0, "")
			}
		}
		pdf.SetXY(xStart, yStart+rowHeight)
	}
}

func writeOwners(pdf *fpdf.Fpdf, owners []map[string]any, tableWidth float64) {
	left, _, _, _ := pdf.GetMargins()

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Present owners of the property are :", "", 1, "", false, 0, "")
	pdf.Ln(3)

	widths := []float64{15, tableWidth - 15 - 25, 25}
	headers := []string{"S.No.", "Name", "Portion"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetX(left + innerMargin)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for idx, row := range owners {
		name := stringField(row, "owner_name")
		if name == "" {
			name = stringField(row, "name")
		}
		pdf.SetX(left + innerMargin)
		pdf.CellFormat(widths[0], 8, fmt.Sprintf("%d.", idx+1), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 8, cleanText(name), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 8, portionField(row), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}
}

func writeShareCertificates(pdf *fpdf.Fpdf, shareRows []map[string]any, tableWidth float64) {
	left, _, _, _ := pdf.GetMargins()

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Society membership details:", "", 1, "", false, 0, "")
	pdf.Ln(3)

	if len(shareRows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "No share certificate records found for this property.", "", 1, "", false, 0, "")
		return
	}

	widths := []float64{10, 30, 60, tableWidth - 100}
	headers := []string{"S.No.", "Certificate No.", "Member Name", "Date of Transfer"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetX(left + innerMargin)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for idx, row := range shareRows {
		pdf.SetX(left + innerMargin)
		pdf.CellFormat(widths[0], 8, fmt.Sprintf("%d.", idx+1), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 8, cleanText(stringField(row, "certificate_number")), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 8, cleanText(stringField(row, "member_name")), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[3], 8, truncate(stringField(row, "date_of_transfer"), 10), "1", 0, "", false, 0, "")
		pdf.Ln(8)
	}
}

func writeClubMemberships(pdf *fpdf.Fpdf, clubRows []map[string]any, tableWidth float64) {
	left, _, _, _ := pdf.GetMargins()

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Club membership details:", "", 1, "", false, 0, "")
	pdf.Ln(3)

	if len(clubRows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "No club membership records found for this property.", "", 1, "", false, 0, "")
		return
	}

	widths := []float64{10, 30, 60, tableWidth - 100}
	headers := []string{"S.No.", "Membership No.", "Member Name", "Allocation Date"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetX(left + innerMargin)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for idx, row := range clubRows {
		pdf.SetX(left + innerMargin)
		pdf.CellFormat(widths[0], 8, fmt.Sprintf("%d.", idx+1), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 8, cleanText(stringField(row, "membership_number")), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 8, cleanText(stringField(row, "member_name")), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[3], 8, truncate(stringField(row, "allocation_date"), 10), "1", 0, "", false, 0, "")
		pdf.Ln(8)
	}
}

// wrapToWidth word-wraps text so each line fits the column for the
// current font.
func wrapToWidth(pdf *fpdf.Fpdf, text string, maxWidth float64) []string {
	words := strings.Fields(cleanText(text))
	if len(words) == 0 {
		return []string{""}
	}

	lines := []string{}
	current := words[0]
	for _, word := range words[1:] {
		test := current + " " + word
		if pdf.GetStringWidth(test) <= maxWidth {
			current = test
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}

// cleanText keeps the core-font encoding happy: tabs and newlines
// become spaces, control chars and non-latin1 runes are replaced.
func cleanText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 32:
			b.WriteRune(' ')
		case r > 255:
			b.WriteRune('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func portionField(row map[string]any) string {
	switch v := row["buyer_portion"].(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func sanitizeFileName(pra string) string {
	s := strings.ReplaceAll(pra, "|", "_")
	return strings.ReplaceAll(s, " ", "_")
}
