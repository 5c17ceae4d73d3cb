package session

import (
	"strings"

	"github.com/nurpe/repairdesk/internal/compose"
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/textnorm"
)

// Draft is the order being edited. Fault and repair keep their catalog
// selection apart from the free-text comment; spare parts stay as the typed
// text the amount is priced from.
type Draft struct {
	ID             int64         `json:"id,omitempty"`
	ClientID       *int64        `json:"client_id"`
	EquipmentID    *int64        `json:"equipment_id"`
	IntakeDate     string        `json:"intake_date"`
	IntakeTime     string        `json:"intake_time"`
	DepartureDate  string        `json:"departure_date"`
	DepartureTime  string        `json:"departure_time"`
	ReturnDate     string        `json:"return_date"`
	ReturnTime     string        `json:"return_time"`
	ContactPhone   string        `json:"contact_phone"`
	Serial         string        `json:"serial"`
	Observations   string        `json:"observations"`
	Accessories    string        `json:"accessories"`
	Fault          compose.Field `json:"fault"`
	Repair         compose.Field `json:"repair"`
	SpareParts     string        `json:"spare_parts"`
	Amount         string        `json:"amount"`
	Status         string        `json:"status"`
	WithdrawalDate string        `json:"withdrawal_date"`
	WithdrawalTime string        `json:"withdrawal_time"`
}

// Exists reports whether the draft is bound to a backend order.
func (d Draft) Exists() bool {
	return d.ID != 0
}

// SingleSelect picks which compound fields are single-select in the form.
type SingleSelect struct {
	Fault  bool
	Repair bool
}

func (s SingleSelect) decompose(single bool, value string) compose.Field {
	if single {
		return compose.DecomposeSingle(value)
	}
	return compose.Decompose(value)
}

func draftFromOrder(o model.Order, single SingleSelect, defaultStatus string) Draft {
	status := strings.TrimSpace(o.Status)
	if status == "" {
		status = defaultStatus
	}
	return Draft{
		ID:             o.ID,
		ClientID:       o.ClientID,
		EquipmentID:    o.EquipmentID,
		IntakeDate:     model.DateOnly(o.IntakeDate),
		IntakeTime:     model.ClockTime(o.IntakeTime),
		DepartureDate:  model.DateOnly(o.DepartureDate),
		DepartureTime:  model.ClockTime(o.DepartureTime),
		ReturnDate:     model.DateOnly(o.ReturnDate),
		ReturnTime:     model.ClockTime(o.ReturnTime),
		ContactPhone:   o.ContactPhone,
		Serial:         o.SerialText,
		Observations:   o.Observations,
		Accessories:    o.Accessories,
		Fault:          single.decompose(single.Fault, o.Fault),
		Repair:         single.decompose(single.Repair, o.Repair),
		SpareParts:     o.SpareParts,
		Amount:         o.Amount.String(),
		Status:         status,
		WithdrawalDate: model.DateOnly(o.WithdrawalDate),
		WithdrawalTime: model.ClockTime(o.WithdrawalTime),
	}
}

// DraftPatch carries partial form edits; nil fields are left alone. Amount
// and spare parts have their own entry points because they drive pricing.
type DraftPatch struct {
	ClientID      *int64         `json:"client_id"`
	IntakeDate    *string        `json:"intake_date"`
	IntakeTime    *string        `json:"intake_time"`
	DepartureDate *string        `json:"departure_date"`
	DepartureTime *string        `json:"departure_time"`
	ReturnDate    *string        `json:"return_date"`
	ReturnTime    *string        `json:"return_time"`
	Observations  *string        `json:"observations"`
	Accessories   *string        `json:"accessories"`
	Fault         *compose.Field `json:"fault"`
	Repair        *compose.Field `json:"repair"`
	Status        *string        `json:"status"`
}

func (d *Draft) apply(p DraftPatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&d.IntakeDate, p.IntakeDate)
	setString(&d.IntakeTime, p.IntakeTime)
	setString(&d.DepartureDate, p.DepartureDate)
	setString(&d.DepartureTime, p.DepartureTime)
	setString(&d.ReturnDate, p.ReturnDate)
	setString(&d.ReturnTime, p.ReturnTime)
	setString(&d.Status, p.Status)
	if p.Observations != nil {
		d.Observations = *p.Observations
	}
	if p.Accessories != nil {
		d.Accessories = *p.Accessories
	}
	if p.Fault != nil {
		d.Fault = *p.Fault
	}
	if p.Repair != nil {
		d.Repair = *p.Repair
	}
}

// timeMemo holds the "now" captured for each stamped hour so repeated stamps
// within one editing session agree.
type timeMemo struct {
	Intake    string
	Departure string
	Return    string
}

func memoFromDraft(d Draft) timeMemo {
	return timeMemo{Intake: d.IntakeTime, Departure: d.DepartureTime, Return: d.ReturnTime}
}

func orEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func (d Draft) payload(memo timeMemo) model.OrderPayload {
	return model.OrderPayload{
		ClientID:       d.ClientID,
		EquipmentID:    d.EquipmentID,
		IntakeDate:     d.IntakeDate,
		IntakeTime:     orEmpty(d.IntakeTime, memo.Intake),
		DepartureDate:  d.DepartureDate,
		DepartureTime:  orEmpty(d.DepartureTime, memo.Departure),
		ReturnDate:     d.ReturnDate,
		ReturnTime:     orEmpty(d.ReturnTime, memo.Return),
		ContactPhone:   d.ContactPhone,
		Observations:   d.Observations,
		Accessories:    d.Accessories,
		Fault:          d.Fault.String(),
		Repair:         d.Repair.String(),
		SpareParts:     d.SpareParts,
		Amount:         d.Amount,
		Status:         orEmpty(d.Status, model.StatusRepairing),
		WithdrawalDate: d.WithdrawalDate,
		WithdrawalTime: d.WithdrawalTime,
	}
}

// WithdrawalText renders the pickup stamp for withdrawn orders and "" for
// any other status.
func WithdrawalText(status, date, clock string) string {
	if textnorm.Status(status) != model.StatusWithdrawn {
		return ""
	}
	date, clock = model.DateOnly(date), model.ClockTime(clock)
	if date == "" && clock == "" {
		return "—"
	}
	return orEmpty(date, "---- -- --") + " " + orEmpty(clock, "--:--")
}
