package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/repairdesk/internal/backend"
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/session"
	"github.com/nurpe/repairdesk/internal/workflow"
)

// Backend is the part of the shop backend the workbench drives.
type Backend interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (model.Order, error)
	CreateOrder(ctx context.Context, payload model.OrderPayload) (int64, error)
	UpdateOrder(ctx context.Context, id int64, payload model.OrderPayload) error
	DuplicateOrder(ctx context.Context, id int64) (int64, error)
	ReopenOrder(ctx context.Context, id int64, reason string) error

	ListClients(ctx context.Context) ([]model.Client, error)
	CreateClient(ctx context.Context, client model.Client) (int64, error)
	UpdateClient(ctx context.Context, id int64, client model.Client) error
	ListEquipment(ctx context.Context) ([]model.Equipment, error)
	CreateEquipment(ctx context.Context, eq model.Equipment) (int64, error)
	UpdateEquipment(ctx context.Context, id int64, eq model.Equipment) error
	ListEntries(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntry, error)
	ListSpareParts(ctx context.Context) ([]model.SparePart, error)
	CreateEntry(ctx context.Context, kind model.CatalogKind, description string) (int64, error)
	CreateSparePart(ctx context.Context, input model.SparePartInput) (int64, error)
	DeleteCatalogItem(ctx context.Context, kind model.CatalogKind, id int64) error
}

// OrderService runs order lifecycle operations against one session at a
// time. Every mutation is sent first; the session's order list is only
// re-fetched once the backend confirmed it.
type OrderService struct {
	backend  Backend
	validate *validator.Validate
	log      zerolog.Logger
}

func NewOrderService(b Backend, log zerolog.Logger) *OrderService {
	return &OrderService{
		backend:  b,
		validate: newValidator(),
		log:      log.With().Str("component", "orders").Logger(),
	}
}

// Bootstrap fills a fresh session with the order list and every catalog.
func (s *OrderService) Bootstrap(ctx context.Context, sess *session.Session) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshOrders(ctx, sess) })
	g.Go(func() error { return s.ReloadClients(ctx, sess) })
	g.Go(func() error { return s.ReloadEquipment(ctx, sess) })
	for _, kind := range []model.CatalogKind{model.CatalogFaults, model.CatalogRepairs, model.CatalogSpareParts} {
		g.Go(func() error { return s.ReloadCatalog(ctx, sess, kind) })
	}
	return g.Wait()
}

func (s *OrderService) RefreshOrders(ctx context.Context, sess *session.Session) error {
	orders, err := s.backend.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	sess.ReplaceOrders(orders)
	return nil
}

// LoadOrder binds the session draft to an order, taken from the list
// snapshot when present.
func (s *OrderService) LoadOrder(ctx context.Context, sess *session.Session, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid order number", ErrValidation)
	}
	order, ok := sess.FindOrder(id)
	if !ok {
		var err error
		order, err = s.backend.GetOrder(ctx, id)
		if err != nil {
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
				return fmt.Errorf("%w: order %d", ErrNotFound, id)
			}
			return err
		}
	}
	sess.Load(order)
	return nil
}

func (s *OrderService) CreateOrder(ctx context.Context, sess *session.Session) (int64, error) {
	tr, err := s.persist(ctx, sess, session.ChangeCreate)
	if err != nil {
		return 0, err
	}
	return tr.OrderID, nil
}

func (s *OrderService) UpdateOrder(ctx context.Context, sess *session.Session) error {
	_, err := s.persist(ctx, sess, session.ChangeUpdate)
	return err
}

func (s *OrderService) RegisterDeparture(ctx context.Context, sess *session.Session) error {
	_, err := s.persist(ctx, sess, session.ChangeDeparture)
	return err
}

func (s *OrderService) MarkFinished(ctx context.Context, sess *session.Session) error {
	_, err := s.persist(ctx, sess, session.ChangeFinish)
	return err
}

func (s *OrderService) MarkWithdrawn(ctx context.Context, sess *session.Session) error {
	_, err := s.persist(ctx, sess, session.ChangeWithdraw)
	return err
}

func (s *OrderService) persist(ctx context.Context, sess *session.Session, change session.Change) (session.Transition, error) {
	tr, err := sess.Prepare(change)
	if err != nil {
		return tr, err
	}
	if change == session.ChangeCreate || change == session.ChangeUpdate {
		if err := s.validateRefs(sess, tr.Payload.ClientID, tr.Payload.EquipmentID); err != nil {
			return tr, err
		}
	}

	if change == session.ChangeCreate {
		var id int64
		id, err = s.backend.CreateOrder(ctx, tr.Payload)
		if err == nil {
			tr.Assign(id)
		}
	} else {
		err = s.backend.UpdateOrder(ctx, tr.OrderID, tr.Payload)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("change", change.String()).Int64("order_id", tr.OrderID).Msg("order change rejected")
		return tr, err
	}

	if !sess.Commit(tr) {
		s.log.Debug().Str("session", sess.ID).Int64("order_id", tr.OrderID).Msg("draft moved on, stamp not applied")
	}
	if err := s.RefreshOrders(ctx, sess); err != nil {
		return tr, fmt.Errorf("order %d saved: %w: %w", tr.OrderID, ErrListNotRefreshed, err)
	}
	return tr, nil
}

// Duplicate clones a listed order on the backend and returns the new id.
func (s *OrderService) Duplicate(ctx context.Context, sess *session.Session, orderID int64) (int64, error) {
	if orderID <= 0 {
		return 0, fmt.Errorf("%w: invalid order number", ErrValidation)
	}
	sess.SelectRow(orderID)

	newID, err := s.backend.DuplicateOrder(ctx, orderID)
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("duplicate rejected")
		return 0, err
	}
	if err := s.RefreshOrders(ctx, sess); err != nil {
		return newID, fmt.Errorf("order %d duplicated as %d: %w: %w", orderID, newID, ErrListNotRefreshed, err)
	}
	return newID, nil
}

// Reopen asks the backend to reopen a finished or withdrawn order. The
// status check uses the listed order, not the draft.
func (s *OrderService) Reopen(ctx context.Context, sess *session.Session, orderID int64, reason string) error {
	order, ok := sess.FindOrder(orderID)
	if !ok {
		return fmt.Errorf("%w: order %d is not listed", ErrNotFound, orderID)
	}
	sess.SelectRow(orderID)
	if !workflow.CanReopen(order.Status) {
		return ErrNotReopenable
	}

	if err := s.backend.ReopenOrder(ctx, orderID, strings.TrimSpace(reason)); err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("reopen rejected")
		return err
	}
	if err := s.RefreshOrders(ctx, sess); err != nil {
		return fmt.Errorf("order %d reopened: %w: %w", orderID, ErrListNotRefreshed, err)
	}
	return nil
}
