package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/session"
)

// ReloadCatalog re-fetches one catalog into the session. Reloading spare
// parts also rebuilds the price list.
func (s *OrderService) ReloadCatalog(ctx context.Context, sess *session.Session, kind model.CatalogKind) error {
	switch kind {
	case model.CatalogFaults, model.CatalogRepairs:
		entries, err := s.backend.ListEntries(ctx, kind)
		if err != nil {
			return fmt.Errorf("load %s: %w", kind, err)
		}
		sess.ReplaceEntries(kind, entries)
	case model.CatalogSpareParts:
		parts, err := s.backend.ListSpareParts(ctx)
		if err != nil {
			return fmt.Errorf("load %s: %w", kind, err)
		}
		sess.ReplaceSpareParts(parts)
	default:
		return fmt.Errorf("%w: unknown catalog %q", ErrValidation, kind)
	}
	return nil
}

// CreateEntry adds a fault or repair description.
func (s *OrderService) CreateEntry(ctx context.Context, sess *session.Session, kind model.CatalogKind, description string) (int64, error) {
	if kind != model.CatalogFaults && kind != model.CatalogRepairs {
		return 0, fmt.Errorf("%w: %s entries are created with their own form", ErrValidation, kind)
	}
	input := entryInput{Description: strings.TrimSpace(description)}
	if err := s.validate.Struct(input); err != nil {
		return 0, validationError(err)
	}

	id, err := s.backend.CreateEntry(ctx, kind, input.Description)
	if err != nil {
		s.log.Warn().Err(err).Str("catalog", string(kind)).Msg("create entry rejected")
		return 0, err
	}
	return id, s.reloadAfter(ctx, sess, kind, "entry", id)
}

func (s *OrderService) CreateSparePart(ctx context.Context, sess *session.Session, input model.SparePartInput) (int64, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Detail = strings.TrimSpace(input.Detail)
	if input.Description == "" {
		input.Description = input.Detail
	}
	if err := s.validate.Struct(input); err != nil {
		return 0, validationError(err)
	}

	id, err := s.backend.CreateSparePart(ctx, input)
	if err != nil {
		s.log.Warn().Err(err).Str("name", input.Name).Msg("create spare part rejected")
		return 0, err
	}
	return id, s.reloadAfter(ctx, sess, model.CatalogSpareParts, "spare part", id)
}

func (s *OrderService) DeleteCatalogItem(ctx context.Context, sess *session.Session, kind model.CatalogKind, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid id", ErrValidation)
	}
	if err := s.backend.DeleteCatalogItem(ctx, kind, id); err != nil {
		s.log.Warn().Err(err).Str("catalog", string(kind)).Int64("id", id).Msg("delete rejected")
		return err
	}
	if err := s.ReloadCatalog(ctx, sess, kind); err != nil {
		return fmt.Errorf("%s %d deleted: %w: %w", kind, id, ErrListNotRefreshed, err)
	}
	return nil
}

func (s *OrderService) reloadAfter(ctx context.Context, sess *session.Session, kind model.CatalogKind, what string, id int64) error {
	if err := s.ReloadCatalog(ctx, sess, kind); err != nil {
		return fmt.Errorf("%s %d saved: %w: %w", what, id, ErrListNotRefreshed, err)
	}
	return nil
}
