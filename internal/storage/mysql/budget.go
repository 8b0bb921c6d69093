package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gestion-obras/internal/storage"
)

func (s *Storage) GetObra(ctx context.Context, id int64) (*storage.Obra, error) {
	const op = "storage.mysql.GetObra"

	var obra storage.Obra
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nombre FROM obras WHERE id = ?`, id).Scan(&obra.ID, &obra.Nombre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrObraNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &obra, nil
}

func (s *Storage) GetRubro(ctx context.Context, id int64) (*storage.Rubro, error) {
	const op = "storage.mysql.GetRubro"

	var (
		rubro         storage.Rubro
		presupuestoUR sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, obra_id, nombre, unidad, presupuesto, presupuesto_ur
		FROM rubros WHERE id = ?`, id).
		Scan(&rubro.ID, &rubro.ObraID, &rubro.Nombre, &rubro.Unidad, &rubro.Presupuesto, &presupuestoUR)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRubroNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if presupuestoUR.Valid {
		rubro.PresupuestoUR = &presupuestoUR.Float64
	}
	return &rubro, nil
}

func (s *Storage) GetRubrosByObra(ctx context.Context, obraID int64) ([]*storage.Rubro, error) {
	const op = "storage.mysql.GetRubrosByObra"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, obra_id, nombre, unidad, presupuesto, presupuesto_ur
		FROM rubros WHERE obra_id = ? ORDER BY nombre`, obraID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var rubros []*storage.Rubro
	for rows.Next() {
		var (
			rubro         storage.Rubro
			presupuestoUR sql.NullFloat64
		)
		err := rows.Scan(&rubro.ID, &rubro.ObraID, &rubro.Nombre, &rubro.Unidad, &rubro.Presupuesto, &presupuestoUR)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if presupuestoUR.Valid {
			rubro.PresupuestoUR = &presupuestoUR.Float64
		}
		rubros = append(rubros, &rubro)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rubros, nil
}

// GetFormulaEntries returns the rubro's bill of materials joined with the
// insumo price columns. Both prices can be NULL; resolution to a concrete
// price happens in storage.FormulaEntry.Precio.
func (s *Storage) GetFormulaEntries(ctx context.Context, rubroID int64) ([]*storage.FormulaEntry, error) {
	const op = "storage.mysql.GetFormulaEntries"

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.insumo_id, f.coeficiente, i.precio_referencia, i.precio_unitario
		FROM rubro_formulas f
		JOIN insumos i ON i.id = f.insumo_id
		WHERE f.rubro_id = ?
		ORDER BY f.insumo_id`, rubroID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []*storage.FormulaEntry
	for rows.Next() {
		var (
			entry     storage.FormulaEntry
			refPrice  sql.NullFloat64
			unitPrice sql.NullFloat64
		)
		err := rows.Scan(&entry.InsumoID, &entry.Coeficiente, &refPrice, &unitPrice)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if refPrice.Valid {
			entry.PrecioReferencia = &refPrice.Float64
		}
		if unitPrice.Valid {
			entry.PrecioUnitario = &unitPrice.Float64
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

// SumSpentByRubro is the aggregate behind the budget rollup: closed orders
// count their costo_real when recorded, everything else its estimate.
func (s *Storage) SumSpentByRubro(ctx context.Context, rubroID int64) (float64, error) {
	const op = "storage.mysql.SumSpentByRubro"

	var gastado float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN estado = ? AND costo_real IS NOT NULL THEN costo_real ELSE costo_estimado END
		), 0)
		FROM ordenes_trabajo
		WHERE rubro_id = ? AND deleted_at IS NULL
		  AND estado IN (`+estadosComprometidosIn+`)`,
		storage.EstadoCerrada, rubroID).Scan(&gastado)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return gastado, nil
}
