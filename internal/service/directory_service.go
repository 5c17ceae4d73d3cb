package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/session"
)

type clientInput struct {
	Name string `json:"nombre" validate:"notblank"`
}

type equipmentInput struct {
	Description string `json:"descripcion" validate:"required_without=Serial"`
	Serial      string `json:"serie"`
}

type ownerRef struct {
	ClientID int64 `json:"cliente_id" validate:"required"`
}

func (s *OrderService) ReloadClients(ctx context.Context, sess *session.Session) error {
	clients, err := s.backend.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}
	sess.ReplaceClients(clients)
	return nil
}

func (s *OrderService) ReloadEquipment(ctx context.Context, sess *session.Session) error {
	equipment, err := s.backend.ListEquipment(ctx)
	if err != nil {
		return fmt.Errorf("load equipment: %w", err)
	}
	sess.ReplaceEquipment(equipment)
	return nil
}

// CreateClient registers a client and reloads the client snapshot.
func (s *OrderService) CreateClient(ctx context.Context, sess *session.Session, client model.Client) (int64, error) {
	client = trimClient(client)
	if err := s.validate.Struct(clientInput{Name: client.Name}); err != nil {
		return 0, validationError(err)
	}

	id, err := s.backend.CreateClient(ctx, client)
	if err != nil {
		s.log.Warn().Err(err).Str("name", client.Name).Msg("create client rejected")
		return 0, err
	}
	if err := s.ReloadClients(ctx, sess); err != nil {
		return id, fmt.Errorf("client %d saved: %w: %w", id, ErrListNotRefreshed, err)
	}
	return id, nil
}

func (s *OrderService) UpdateClient(ctx context.Context, sess *session.Session, id int64, client model.Client) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid client id", ErrValidation)
	}
	client = trimClient(client)
	if err := s.validate.Struct(clientInput{Name: client.Name}); err != nil {
		return validationError(err)
	}

	if err := s.backend.UpdateClient(ctx, id, client); err != nil {
		s.log.Warn().Err(err).Int64("client_id", id).Msg("update client rejected")
		return err
	}
	if err := s.ReloadClients(ctx, sess); err != nil {
		return fmt.Errorf("client %d saved: %w: %w", id, ErrListNotRefreshed, err)
	}
	return nil
}

// CreateEquipment registers an equipment owned by an existing client. It
// needs a description or a serial.
func (s *OrderService) CreateEquipment(ctx context.Context, sess *session.Session, eq model.Equipment) (int64, error) {
	eq = trimEquipment(eq)
	if err := s.validateEquipment(sess, eq, true); err != nil {
		return 0, err
	}

	id, err := s.backend.CreateEquipment(ctx, eq)
	if err != nil {
		s.log.Warn().Err(err).Str("serial", eq.Serial).Msg("create equipment rejected")
		return 0, err
	}
	if err := s.ReloadEquipment(ctx, sess); err != nil {
		return id, fmt.Errorf("equipment %d saved: %w: %w", id, ErrListNotRefreshed, err)
	}
	return id, nil
}

// UpdateEquipment rewrites an equipment. The owner is optional here; when
// given it must be a known client.
func (s *OrderService) UpdateEquipment(ctx context.Context, sess *session.Session, id int64, eq model.Equipment) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid equipment id", ErrValidation)
	}
	eq = trimEquipment(eq)
	if err := s.validateEquipment(sess, eq, false); err != nil {
		return err
	}

	if err := s.backend.UpdateEquipment(ctx, id, eq); err != nil {
		s.log.Warn().Err(err).Int64("equipment_id", id).Msg("update equipment rejected")
		return err
	}
	if err := s.ReloadEquipment(ctx, sess); err != nil {
		return fmt.Errorf("equipment %d saved: %w: %w", id, ErrListNotRefreshed, err)
	}
	return nil
}

func (s *OrderService) validateEquipment(sess *session.Session, eq model.Equipment, ownerRequired bool) error {
	if err := s.validate.Struct(equipmentInput{Description: eq.Description, Serial: eq.Serial}); err != nil {
		return validationError(err)
	}
	if eq.ClientID == nil && !ownerRequired {
		return nil
	}
	owner := ownerRef{ClientID: deref(eq.ClientID)}
	if err := s.validate.Struct(owner); err != nil {
		return validationError(err)
	}
	if _, ok := sess.FindClient(owner.ClientID); !ok {
		return fmt.Errorf("%w: client %d does not exist", ErrValidation, owner.ClientID)
	}
	return nil
}

func trimClient(c model.Client) model.Client {
	c.ID = 0
	for _, f := range []*string{
		&c.Name, &c.Phone, &c.Mobile, &c.Address, &c.Locality, &c.Province, &c.PostalCode,
		&c.Email, &c.TaxID, &c.Contact, &c.Observations, &c.Business,
	} {
		*f = strings.TrimSpace(*f)
	}
	return c
}

func trimEquipment(eq model.Equipment) model.Equipment {
	eq.ID = 0
	eq.Clients = ""
	for _, f := range []*string{&eq.Description, &eq.Serial, &eq.Type, &eq.Brand, &eq.Model} {
		*f = strings.TrimSpace(*f)
	}
	return eq
}
