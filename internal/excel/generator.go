package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/repairdesk/internal/model"
)

// groupOrder is the sheet order of the export.
var groupOrder = []model.StatusGroup{
	model.GroupInProgress,
	model.GroupFinished,
	model.GroupWithdrawn,
	model.GroupSuspended,
	model.GroupOther,
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes the order list: a summary sheet with counts and totals per
// status group, then one sheet per non-empty group.
func (g *Generator) Generate(orders []model.Order, generatedAt time.Time) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	groups := make(map[model.StatusGroup][]model.Order)
	for _, o := range orders {
		grp := model.GroupOf(o.Status)
		groups[grp] = append(groups[grp], o)
	}

	summarySheet := "Resumen"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, groups, len(orders), generatedAt)

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, grp := range groupOrder {
		rows := groups[grp]
		if len(rows) == 0 {
			continue
		}
		sheetName := buildSheetName(string(grp), usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		g.writeDetail(file, sheetName, rows)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, groups map[model.StatusGroup][]model.Order, total int, generatedAt time.Time) {
	set := func(cell string, value any) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Listado de órdenes")
	set("A2", "Generado")
	set("B2", formatDateTime(generatedAt))
	set("A3", "Cantidad de órdenes")
	set("B3", total)

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Estado")
	set(fmt.Sprintf("B%d", tableRow), "Órdenes")
	set(fmt.Sprintf("C%d", tableRow), "Importe total")

	for i, grp := range groupOrder {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(grp))
		set(fmt.Sprintf("B%d", row), len(groups[grp]))
		set(fmt.Sprintf("C%d", row), formatAmount(sumAmounts(groups[grp])))
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "C", 16)
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, orders []model.Order) {
	set := func(cell string, value any) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Nro",
		"Fecha",
		"Hora",
		"Contacto",
		"Teléfono",
		"Equipo",
		"Serie",
		"Estado",
		"Falla",
		"Reparación",
		"Repuestos",
		"Importe",
		"Salida",
		"Regreso",
		"Retiro",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, o := range orders {
		row := 2 + i
		values := []any{
			o.ID,
			model.DateOnly(o.IntakeDate),
			model.ClockTime(o.IntakeTime),
			o.ContactName,
			o.ContactPhone,
			o.EquipmentText,
			o.SerialText,
			o.Status,
			o.Fault,
			o.Repair,
			o.SpareParts,
			formatAmount(model.ParseDecimal(o.Amount.String())),
			joinStamp(o.DepartureDate, o.DepartureTime),
			joinStamp(o.ReturnDate, o.ReturnTime),
			joinStamp(o.WithdrawalDate, o.WithdrawalTime),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, v)
		}
	}

	_ = file.SetColWidth(sheet, "A", "C", 10)
	_ = file.SetColWidth(sheet, "D", "G", 22)
	_ = file.SetColWidth(sheet, "H", "H", 16)
	_ = file.SetColWidth(sheet, "I", "K", 36)
	_ = file.SetColWidth(sheet, "L", "O", 16)
}

const maxSheetName = 31

func buildSheetName(name string, used map[string]struct{}) string {
	base := truncateRunes(sanitizeSheetName(name), maxSheetName)

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		nameCandidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	// a name made only of forbidden characters counts as blank
	value = strings.Trim(replacer.Replace(value), " -")
	if value == "" {
		return "Hoja"
	}
	return value
}

// truncateRunes cuts s to at most n characters; Excel counts characters, not bytes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func joinStamp(date, clock string) string {
	return strings.TrimSpace(model.DateOnly(date) + " " + model.ClockTime(clock))
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func sumAmounts(orders []model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(model.ParseDecimal(o.Amount.String()))
	}
	return total
}
