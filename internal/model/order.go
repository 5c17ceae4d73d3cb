package model

import "strings"

// Order is a repair ticket as served by the shop backend.
type Order struct {
	ID             int64       `json:"id,omitempty"`
	ClientID       *int64      `json:"cliente_id"`
	EquipmentID    *int64      `json:"equipo_id"`
	IntakeDate     string      `json:"fecha"`
	IntakeTime     string      `json:"hora_ingreso"`
	DepartureDate  string      `json:"fecha_salida"`
	DepartureTime  string      `json:"hora_salida"`
	ReturnDate     string      `json:"fecha_regreso"`
	ReturnTime     string      `json:"hora_regreso"`
	WithdrawalDate string      `json:"fecha_retiro"`
	WithdrawalTime string      `json:"hora_retiro"`
	ContactName    string      `json:"nombre_contacto,omitempty"`
	ContactPhone   string      `json:"telefono_contacto"`
	EquipmentText  string      `json:"equipo_texto,omitempty"`
	SerialText     string      `json:"serie_texto,omitempty"`
	Observations   string      `json:"observaciones"`
	Accessories    string      `json:"accesorios"`
	Fault          string      `json:"falla"`
	Repair         string      `json:"reparacion"`
	SpareParts     string      `json:"repuestos"`
	Amount         LooseString `json:"importe"`
	Status         string      `json:"estado"`
}

// OrderPayload is the body submitted on create and update.
type OrderPayload struct {
	ClientID       *int64 `json:"cliente_id"`
	EquipmentID    *int64 `json:"equipo_id"`
	IntakeDate     string `json:"fecha"`
	IntakeTime     string `json:"hora_ingreso"`
	DepartureDate  string `json:"fecha_salida"`
	DepartureTime  string `json:"hora_salida"`
	ReturnDate     string `json:"fecha_regreso"`
	ReturnTime     string `json:"hora_regreso"`
	ContactPhone   string `json:"telefono_contacto"`
	Observations   string `json:"observaciones"`
	Accessories    string `json:"accesorios"`
	Fault          string `json:"falla"`
	Repair         string `json:"reparacion"`
	SpareParts     string `json:"repuestos"`
	Amount         string `json:"importe"`
	Status         string `json:"estado"`
	WithdrawalDate string `json:"fecha_retiro"`
	WithdrawalTime string `json:"hora_retiro"`
}

// SearchText joins the columns the order list filter looks at.
func (o Order) SearchText() string {
	return strings.Join([]string{
		formatID(o.ID),
		o.IntakeDate, o.IntakeTime,
		o.ContactName, o.ContactPhone,
		o.EquipmentText, o.SerialText,
		o.Status,
		o.Fault, o.Repair, o.SpareParts,
		o.Observations, o.Accessories,
		o.Amount.String(),
		o.DepartureDate, o.DepartureTime,
		o.ReturnDate, o.ReturnTime,
	}, " | ")
}

// DateOnly cuts a backend date or datetime down to YYYY-MM-DD.
func DateOnly(s string) string {
	return prefix(strings.TrimSpace(s), 10)
}

// ClockTime cuts HH:MM:SS down to HH:MM.
func ClockTime(s string) string {
	return prefix(strings.TrimSpace(s), 5)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
