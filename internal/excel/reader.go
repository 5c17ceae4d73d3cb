package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/repairdesk/internal/model"
)

// Column positions of the legacy stock-system exports. The sheets carry no
// header row.
const (
	partCode = iota
	partDescription
	partUnit
	partCost
	partCost1
	partCost2
	partStock
	partStockMin
	partBrandCode
	partBrandAbbr
	partPurchaseDate
	partVAT
	partBarcode
	partSupplierCode
	partTick
	partOrder
	partCanSelect
	partNotes
	partInternalTax
	partMargin
	partModifiedDate
	partBarcodeAlt
)

const (
	clientCode = iota
	clientName
	clientCategory
	clientStreet
	clientNumber
	clientLocality
	clientPostalCode
	clientProvince
	clientTaxID
	clientVATCode
	clientRateCode
	clientGrossIncome
	clientPhone
	clientDocument
	clientNotes
	clientBirthDate
	clientEmail
)

// RowIssue is a row that could not be turned into a catalog item.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type row []string

func (r row) at(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

func (r row) first(cols ...int) string {
	for _, c := range cols {
		if v := r.at(c); v != "" {
			return v
		}
	}
	return ""
}

func (r row) blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseCode reads integer codes that spreadsheets often store as "12.0".
func parseCode(v string) (int64, bool) {
	if v == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func firstSheetRows(r io.Reader) ([]row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	rows := make([]row, len(raw))
	for i := range raw {
		rows[i] = raw[i]
	}
	return rows, nil
}

type notes []string

func (n *notes) add(label, value string) {
	if value != "" {
		*n = append(*n, label+": "+value)
	}
}

func (n notes) String() string {
	return strings.Join(n, " | ")
}

// ReadSpareParts maps the article export to spare parts. DESCRIP is the name
// and COSTO the cost; the remaining columns are folded into the description.
func ReadSpareParts(r io.Reader) ([]model.SparePartInput, []RowIssue, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		parts  []model.SparePartInput
		issues []RowIssue
	)
	for i, rw := range rows {
		if rw.blank() {
			continue
		}
		name := rw.at(partDescription)
		if name == "" {
			issues = append(issues, RowIssue{Row: i + 1, Reason: "missing DESCRIP"})
			continue
		}

		var desc notes
		desc.add("Unidad", rw.at(partUnit))
		desc.add("Marca", rw.first(partBrandAbbr, partBrandCode))
		desc.add("Código de barras", rw.first(partBarcode, partBarcodeAlt))
		desc.add("Cód. proveedor", rw.at(partSupplierCode))
		if stock, minimum := rw.at(partStock), rw.at(partStockMin); stock != "" || minimum != "" {
			desc = append(desc, fmt.Sprintf("Stock: %s / Mínimo: %s", orDash(stock), orDash(minimum)))
		}
		desc.add("IVA", rw.at(partVAT))
		desc.add("Imp. interno", rw.at(partInternalTax))
		if margin := rw.at(partMargin); margin != "" {
			desc = append(desc, "Ganancia: "+margin+"%")
		}
		desc.add("Obs", rw.at(partNotes))
		desc.add("Última compra", rw.at(partPurchaseDate))
		desc.add("Última modificación", rw.at(partModifiedDate))

		id, _ := parseCode(rw.at(partCode))
		parts = append(parts, model.SparePartInput{
			ID:          id,
			Name:        name,
			Description: desc.String(),
			Cost:        model.NewCost(model.ParseDecimal(rw.at(partCost))),
		})
	}
	return parts, issues, nil
}

// ReadClients maps the customer export to clients. Rows without CODIGO are
// reported and skipped.
func ReadClients(r io.Reader) ([]model.Client, []RowIssue, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		clients []model.Client
		issues  []RowIssue
	)
	for i, rw := range rows {
		if rw.blank() {
			continue
		}
		id, ok := parseCode(rw.at(clientCode))
		if !ok {
			issues = append(issues, RowIssue{Row: i + 1, Reason: "missing CODIGO"})
			continue
		}

		address := strings.TrimSpace(rw.at(clientStreet) + " " + rw.at(clientNumber))

		var obs notes
		obs.add("Categoría", rw.at(clientCategory))
		obs.add("IVA", rw.at(clientVATCode))
		obs.add("Tasa", rw.at(clientRateCode))
		obs.add("Ingresos Brutos", rw.at(clientGrossIncome))
		obs.add("Obs", rw.at(clientNotes))
		obs.add("Fec. Nac", rw.at(clientBirthDate))

		clients = append(clients, model.Client{
			ID:           id,
			Name:         rw.at(clientName),
			Phone:        rw.at(clientPhone),
			Address:      address,
			Locality:     rw.at(clientLocality),
			Province:     rw.at(clientProvince),
			PostalCode:   rw.at(clientPostalCode),
			Email:        rw.at(clientEmail),
			TaxID:        rw.at(clientTaxID),
			Contact:      rw.at(clientDocument),
			Observations: obs.String(),
			Business:     rw.at(clientCategory),
		})
	}
	return clients, issues, nil
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
