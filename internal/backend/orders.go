package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nurpe/repairdesk/internal/model"
)

func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	return getList[model.Order](ctx, c, ordersPath)
}

func (c *Client) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	res, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", ordersPath, id), nil)
	if err != nil {
		return model.Order{}, err
	}
	var order model.Order
	if err := res.decode(&order); err != nil {
		return model.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return order, nil
}

// CreateOrder returns the id assigned by the backend.
func (c *Client) CreateOrder(ctx context.Context, payload model.OrderPayload) (int64, error) {
	res, err := c.do(ctx, http.MethodPost, ordersPath, payload)
	if err != nil {
		return 0, err
	}
	return res.id(), nil
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, payload model.OrderPayload) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", ordersPath, id), payload)
	return err
}

// DuplicateOrder asks the backend to clone an order and returns the new id.
func (c *Client) DuplicateOrder(ctx context.Context, id int64) (int64, error) {
	res, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/duplicar", ordersPath, id), nil)
	if err != nil {
		return 0, err
	}
	return res.id(), nil
}

type reopenRequest struct {
	Reason string `json:"motivo"`
}

func (c *Client) ReopenOrder(ctx context.Context, id int64, reason string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/reabrir", ordersPath, id), reopenRequest{Reason: reason})
	return err
}
