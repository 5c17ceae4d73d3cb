package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/repairdesk/internal/model"
)

const fontName = "Helvetica"

type Generator struct {
	shopName string
}

func NewGenerator(shopName string) *Generator {
	return &Generator{shopName: shopName}
}

// Render lays out the service order sheet handed to the customer at intake.
func (g *Generator) Render(sheet model.OrderSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	// core fonts are cp1252; accents go through the translator
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if g.shopName != "" {
		pdf.SetFont(fontName, "", 10)
		pdf.CellFormat(0, 6, tr(g.shopName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, "ORDEN DE SERVICIO", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	rows := [][4]string{
		{"N°", formatID(sheet.ID), "Estado", sheet.Status},
		{"Fecha ingreso", model.DateOnly(sheet.IntakeDate), "Hora ingreso", model.ClockTime(sheet.IntakeTime)},
		{"Cliente / Contacto", sheet.Contact, "Teléfono", sheet.Phone},
		{"Equipo", sheet.Equipment, "S/N", sheet.Serial},
		{"Fecha salida", model.DateOnly(sheet.DepartureDate), "Hora salida", model.ClockTime(sheet.DepartureTime)},
		{"Fecha regreso", model.DateOnly(sheet.ReturnDate), "Hora regreso", model.ClockTime(sheet.ReturnTime)},
		{"Importe", sheet.Amount, "Accesorios", sheet.Accessories},
	}
	colWidths := []float64{35, 50, 30, 55}
	for _, row := range rows {
		drawTableRow(pdf, tr, row, colWidths)
	}
	pdf.Ln(4)

	section(pdf, tr, "Falla", sheet.Fault)
	section(pdf, tr, "Reparación", sheet.Repair)
	section(pdf, tr, "Repuestos", sheet.SpareParts)
	section(pdf, tr, "Observaciones", sheet.Observations)
	if pickup := strings.TrimSpace(model.DateOnly(sheet.WithdrawalDate) + " " + model.ClockTime(sheet.WithdrawalTime)); pickup != "" {
		section(pdf, tr, "Retiro", pickup)
	}

	pdf.Ln(6)
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 7, tr("Firma / Aclaración: ________________________________"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "DNI: ______________________   Fecha: ____/____/______", "", 1, "L", false, 0, "")

	if !sheet.GeneratedAt.IsZero() {
		pdf.Ln(4)
		pdf.SetFont(fontName, "I", 9)
		pdf.CellFormat(0, 5, "Generado: "+sheet.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols [4]string, widths []float64) {
	for i, col := range cols {
		style := ""
		if i%2 == 0 {
			style = "B"
		}
		pdf.SetFont(fontName, style, 10)
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title, content string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.MultiCell(0, 6, tr(safeValue(content)), "", "L", false)
	pdf.Ln(1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprint(id)
}

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

func safeName(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "")
	s = spaceRuns.ReplaceAllString(s, "_")
	if len(s) > 120 {
		s = s[:120]
	}
	if s == "" {
		return "orden"
	}
	return s
}

// FileName builds "Orden_<id>_<contact>_<equipment>.pdf".
func FileName(sheet model.OrderSheet) string {
	return fmt.Sprintf("Orden_%s_%s_%s.pdf", formatID(sheet.ID), safeName(sheet.Contact), safeName(sheet.Equipment))
}
