// Package costing computes the estimated cost of a work order from the
// rubro's bill-of-materials formula.
package costing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gestion-obras/internal/storage"
)

type CostingStorage interface {
	GetRubro(ctx context.Context, id int64) (*storage.Rubro, error)
	GetFormulaEntries(ctx context.Context, rubroID int64) ([]*storage.FormulaEntry, error)
}

type Service struct {
	storage CostingStorage
}

func NewService(storage CostingStorage) *Service {
	return &Service{storage: storage}
}

type Estimate struct {
	Lineas []*storage.EstimatedSupplyLine
	Total  float64
}

// Compute expands the formula entries for a given cantidad. A rubro without
// formula entries yields an empty estimate with total 0.
func Compute(entries []*storage.FormulaEntry, cantidad float64) *Estimate {
	est := &Estimate{Lineas: make([]*storage.EstimatedSupplyLine, 0, len(entries))}
	for _, e := range entries {
		qty := e.Coeficiente * cantidad
		costo := qty * e.Precio()
		est.Lineas = append(est.Lineas, &storage.EstimatedSupplyLine{
			InsumoID: e.InsumoID,
			Cantidad: qty,
			Costo:    costo,
		})
		est.Total += costo
	}
	return est
}

// Estimate fetches the rubro and its formula concurrently and expands the
// estimate for cantidad. The rubro fetch doubles as an existence check.
func (s *Service) Estimate(ctx context.Context, rubroID int64, cantidad float64) (*Estimate, error) {
	const op = "service.costing.Estimate"

	var entries []*storage.FormulaEntry

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.storage.GetRubro(gCtx, rubroID)
		if err != nil {
			return fmt.Errorf("rubro: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.storage.GetFormulaEntries(gCtx, rubroID)
		if err != nil {
			return fmt.Errorf("formula: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return Compute(entries, cantidad), nil
}
