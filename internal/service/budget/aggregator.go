// Package budget exposes the read-only spend rollup for a rubro, used as a
// pre-check by the order form and as a standalone query.
package budget

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gestion-obras/internal/storage"
)

type BudgetStorage interface {
	GetRubro(ctx context.Context, id int64) (*storage.Rubro, error)
	// SumSpentByRubro sums costo_estimado (costo_real for closed orders that
	// have one) across the rubro's non-deleted orders in committed states.
	SumSpentByRubro(ctx context.Context, rubroID int64) (float64, error)
}

type Service struct {
	storage BudgetStorage
}

func NewService(storage BudgetStorage) *Service {
	return &Service{storage: storage}
}

type Status struct {
	Presupuesto     float64 `json:"presupuesto"`
	Gastado         float64 `json:"gastado"`
	Disponible      float64 `json:"disponible"`
	PorcentajeUsado float64 `json:"porcentaje_usado"`
}

// Status computes the rollup. PorcentajeUsado is 0 when presupuesto is 0.
func (s *Service) Status(ctx context.Context, rubroID int64) (*Status, error) {
	const op = "service.budget.Status"

	var (
		rubro   *storage.Rubro
		gastado float64
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rubro, err = s.storage.GetRubro(gCtx, rubroID)
		if err != nil {
			return fmt.Errorf("rubro: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		gastado, err = s.storage.SumSpentByRubro(gCtx, rubroID)
		if err != nil {
			return fmt.Errorf("gastado: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := &Status{
		Presupuesto: rubro.Presupuesto,
		Gastado:     gastado,
		Disponible:  rubro.Presupuesto - gastado,
	}
	if rubro.Presupuesto != 0 {
		status.PorcentajeUsado = gastado / rubro.Presupuesto * 100
	}
	return status, nil
}
