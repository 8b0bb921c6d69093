package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"gestion-obras/internal/storage"
)

func insertSupplyLines(ctx context.Context, tx *sql.Tx, ordenID int64, lineas []*storage.EstimatedSupplyLine) error {
	const op = "storage.mysql.insertSupplyLines"

	if len(lineas) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ot_insumos_estimados (orden_id, insumo_id, cantidad, costo)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%s: prepare statement: %w", op, err)
	}
	defer stmt.Close()

	for _, linea := range lineas {
		_, err := stmt.ExecContext(ctx, ordenID, linea.InsumoID, linea.Cantidad, linea.Costo)
		if err != nil {
			return fmt.Errorf("%s: insumo %d: %w", op, linea.InsumoID, err)
		}
	}

	return nil
}

func (s *Storage) listSupplyLines(ctx context.Context, ordenID int64) ([]*storage.EstimatedSupplyLine, error) {
	const op = "storage.mysql.listSupplyLines"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, orden_id, insumo_id, cantidad, costo
		FROM ot_insumos_estimados
		WHERE orden_id = ?
		ORDER BY id`, ordenID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lineas []*storage.EstimatedSupplyLine
	for rows.Next() {
		var linea storage.EstimatedSupplyLine
		err := rows.Scan(&linea.ID, &linea.OrdenID, &linea.InsumoID, &linea.Cantidad, &linea.Costo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		lineas = append(lineas, &linea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return lineas, nil
}
