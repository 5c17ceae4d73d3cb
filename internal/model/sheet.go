package model

import "time"

// OrderSheet is the printable form of one order.
type OrderSheet struct {
	ID             int64
	Status         string
	IntakeDate     string
	IntakeTime     string
	Contact        string
	Phone          string
	Equipment      string
	Serial         string
	DepartureDate  string
	DepartureTime  string
	ReturnDate     string
	ReturnTime     string
	Amount         string
	Accessories    string
	Fault          string
	Repair         string
	SpareParts     string
	Observations   string
	WithdrawalDate string
	WithdrawalTime string
	GeneratedAt    time.Time
}
