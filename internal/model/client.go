package model

import (
	"fmt"
	"strings"
)

type Client struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"nombre"`
	Phone        string `json:"telefono"`
	Mobile       string `json:"celular,omitempty"`
	Address      string `json:"direccion"`
	Locality     string `json:"localidad"`
	Province     string `json:"provincia"`
	PostalCode   string `json:"cp"`
	Email        string `json:"email"`
	TaxID        string `json:"cuit"`
	Contact      string `json:"contacto"`
	Observations string `json:"observaciones"`
	Business     string `json:"giro_empresa"`
	Warranty     Flag   `json:"cliente_garantia"`
	Contract     Flag   `json:"cliente_con_contrato"`
}

func (c Client) PhoneOrMobile() string {
	if c.Phone != "" {
		return c.Phone
	}
	return c.Mobile
}

func (c Client) Label() string {
	if tel := c.PhoneOrMobile(); tel != "" {
		return fmt.Sprintf("%s (%s)", c.Name, tel)
	}
	return c.Name
}

type Equipment struct {
	ID          int64  `json:"id,omitempty"`
	Description string `json:"descripcion"`
	Serial      string `json:"serie"`
	Type        string `json:"tipo"`
	Brand       string `json:"marca"`
	Model       string `json:"modelo"`
	ClientID    *int64 `json:"cliente_id"`
	Clients     string `json:"clientes,omitempty"`
}

// OwnedBy reports whether the equipment belongs to the given client.
func (e Equipment) OwnedBy(clientID int64) bool {
	return e.ClientID != nil && *e.ClientID == clientID
}

func (e Equipment) Label() string {
	label := strings.TrimSpace(strings.Join([]string{e.Description, e.Brand, e.Model}, " "))
	if e.Serial != "" {
		return fmt.Sprintf("%s (%s)", label, e.Serial)
	}
	return label
}
