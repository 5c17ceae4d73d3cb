package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nurpe/repairdesk/internal/model"
)

func catalogPath(kind model.CatalogKind) (string, error) {
	switch kind {
	case model.CatalogFaults:
		return faultsPath, nil
	case model.CatalogRepairs:
		return repairsPath, nil
	case model.CatalogSpareParts:
		return sparePartsPath, nil
	}
	return "", fmt.Errorf("unknown catalog %q", kind)
}

// ListEntries lists faults or repairs.
func (c *Client) ListEntries(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntry, error) {
	path, err := catalogPath(kind)
	if err != nil {
		return nil, err
	}
	return getList[model.CatalogEntry](ctx, c, path)
}

type entryRequest struct {
	Description string `json:"descripcion"`
}

func (c *Client) CreateEntry(ctx context.Context, kind model.CatalogKind, description string) (int64, error) {
	path, err := catalogPath(kind)
	if err != nil {
		return 0, err
	}
	res, err := c.do(ctx, http.MethodPost, path, entryRequest{Description: description})
	if err != nil {
		return 0, err
	}
	return res.id(), nil
}

func (c *Client) DeleteCatalogItem(ctx context.Context, kind model.CatalogKind, id int64) error {
	path, err := catalogPath(kind)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", path, id), nil)
	return err
}

func (c *Client) ListSpareParts(ctx context.Context) ([]model.SparePart, error) {
	return getList[model.SparePart](ctx, c, sparePartsPath)
}

func (c *Client) CreateSparePart(ctx context.Context, input model.SparePartInput) (int64, error) {
	res, err := c.do(ctx, http.MethodPost, sparePartsPath, input)
	if err != nil {
		return 0, err
	}
	return res.id(), nil
}

func (c *Client) ListClients(ctx context.Context) ([]model.Client, error) {
	return getList[model.Client](ctx, c, clientsPath)
}

func (c *Client) CreateClient(ctx context.Context, client model.Client) (int64, error) {
	res, err := c.do(ctx, http.MethodPost, clientsPath, client)
	if err != nil {
		return 0, err
	}
	return res.id(), nil
}

func (c *Client) UpdateClient(ctx context.Context, id int64, client model.Client) error {
	client.ID = 0
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", clientsPath, id), client)
	return err
}

func (c *Client) ListEquipment(ctx context.Context) ([]model.Equipment, error) {
	return getList[model.Equipment](ctx, c, equipmentPath)
}

// CreateEquipment registers an equipment and links it to its owning client.
func (c *Client) CreateEquipment(ctx context.Context, eq model.Equipment) (int64, error) {
	eq.ID = 0
	res, err := c.do(ctx, http.MethodPost, equipmentPath, eq)
	if err != nil {
		return 0, err
	}
	return res.id(), nil
}

// UpdateEquipment rewrites the equipment fields. A non-nil ClientID adds an
// owner link; existing links are kept by the backend.
func (c *Client) UpdateEquipment(ctx context.Context, id int64, eq model.Equipment) error {
	eq.ID = 0
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", equipmentPath, id), eq)
	return err
}
