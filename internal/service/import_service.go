package service

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/repairdesk/internal/model"
)

const importConcurrency = 4

// Importer creates catalog rows read from spreadsheets.
type Importer interface {
	CreateSparePart(ctx context.Context, input model.SparePartInput) (int64, error)
	CreateClient(ctx context.Context, client model.Client) (int64, error)
}

type ImportFailure struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type ImportResult struct {
	Created int             `json:"created"`
	Failed  []ImportFailure `json:"failed,omitempty"`
}

type ImportService struct {
	backend Importer
	log     zerolog.Logger
}

func NewImportService(b Importer, log zerolog.Logger) *ImportService {
	return &ImportService{backend: b, log: log.With().Str("component", "import").Logger()}
}

// ImportSpareParts posts every row; a rejected row is reported and the rest
// still go through. Rows are numbered from 1.
func (s *ImportService) ImportSpareParts(ctx context.Context, parts []model.SparePartInput) (ImportResult, error) {
	return importRows(ctx, s, parts,
		func(p model.SparePartInput) string { return p.Name },
		func(ctx context.Context, p model.SparePartInput) error {
			_, err := s.backend.CreateSparePart(ctx, p)
			return err
		})
}

func (s *ImportService) ImportClients(ctx context.Context, clients []model.Client) (ImportResult, error) {
	return importRows(ctx, s, clients,
		func(c model.Client) string { return c.Name },
		func(ctx context.Context, c model.Client) error {
			_, err := s.backend.CreateClient(ctx, c)
			return err
		})
}

func importRows[T any](ctx context.Context, s *ImportService, rows []T, name func(T) string, create func(context.Context, T) error) (ImportResult, error) {
	var (
		mu  sync.Mutex
		res ImportResult
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := create(ctx, row)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn().Err(err).Int("row", i+1).Str("name", name(row)).Msg("import row rejected")
				res.Failed = append(res.Failed, ImportFailure{Row: i + 1, Name: name(row), Error: err.Error()})
				return nil
			}
			res.Created++
			return nil
		})
	}
	err := g.Wait()
	slices.SortFunc(res.Failed, func(a, b ImportFailure) int { return cmp.Compare(a.Row, b.Row) })
	return res, err
}
