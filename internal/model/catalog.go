package model

import (
	"strconv"
	"strings"
)

type CatalogKind string

const (
	CatalogFaults     CatalogKind = "faults"
	CatalogRepairs    CatalogKind = "repairs"
	CatalogSpareParts CatalogKind = "spare-parts"
)

func ParseCatalogKind(raw string) (CatalogKind, bool) {
	switch CatalogKind(strings.ToLower(strings.TrimSpace(raw))) {
	case CatalogFaults:
		return CatalogFaults, true
	case CatalogRepairs:
		return CatalogRepairs, true
	case CatalogSpareParts:
		return CatalogSpareParts, true
	}
	return "", false
}

// CatalogEntry is a known fault or repair.
type CatalogEntry struct {
	ID          int64  `json:"id"`
	Description string `json:"descripcion"`
	Name        string `json:"nombre,omitempty"`
}

// Value is the token stored in compound order fields.
func (e CatalogEntry) Value() string {
	if v := strings.TrimSpace(e.Description); v != "" {
		return v
	}
	return strings.TrimSpace(e.Name)
}

type SparePart struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Detail      string `json:"detalle,omitempty"`
	Description string `json:"descripcion,omitempty"`
	Cost        Cost   `json:"costo"`
}

func (p SparePart) DetailText() string {
	if d := strings.TrimSpace(p.Detail); d != "" {
		return d
	}
	return strings.TrimSpace(p.Description)
}

func (p SparePart) Label() string {
	name := strings.TrimSpace(p.Name)
	if d := p.DetailText(); d != "" {
		return name + " — " + d
	}
	return name
}

// SparePartInput is the body for creating a spare part. The backend reads
// descripcion; the browser form historically sent detalle, so both go out.
type SparePartInput struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"nombre" validate:"required"`
	Detail      string `json:"detalle"`
	Description string `json:"descripcion"`
	Cost        Cost   `json:"costo"`
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
