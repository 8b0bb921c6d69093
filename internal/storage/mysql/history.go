package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gestion-obras/internal/storage"
)

// insertHistory appends one audit row inside the caller's transaction.
// Entries are never updated or deleted afterwards.
func insertHistory(ctx context.Context, tx *sql.Tx, entry *storage.HistoryEntry) error {
	const op = "storage.mysql.insertHistory"

	var reconocidoAt *time.Time
	if entry.ReconocidoPor != nil {
		now := time.Now()
		reconocidoAt = &now
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO ot_historial
			(orden_id, estado_anterior, estado_nuevo, usuario_id, notas, reconocido_por, reconocido_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`,
		entry.OrdenID, entry.EstadoAnterior, entry.EstadoNuevo,
		entry.UsuarioID, entry.Notas, entry.ReconocidoPor, reconocidoAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) listHistory(ctx context.Context, ordenID int64) ([]*storage.HistoryEntry, error) {
	const op = "storage.mysql.listHistory"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, orden_id, estado_anterior, estado_nuevo, usuario_id, notas, reconocido_por, reconocido_at, created_at
		FROM ot_historial
		WHERE orden_id = ?
		ORDER BY id`, ordenID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var historial []*storage.HistoryEntry
	for rows.Next() {
		var (
			entry          storage.HistoryEntry
			estadoAnterior sql.NullString
			reconocidoPor  sql.NullInt64
			reconocidoAt   sql.NullTime
		)
		err := rows.Scan(&entry.ID, &entry.OrdenID, &estadoAnterior, &entry.EstadoNuevo,
			&entry.UsuarioID, &entry.Notas, &reconocidoPor, &reconocidoAt, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if estadoAnterior.Valid {
			entry.EstadoAnterior = &estadoAnterior.String
		}
		if reconocidoPor.Valid {
			entry.ReconocidoPor = &reconocidoPor.Int64
		}
		if reconocidoAt.Valid {
			entry.ReconocidoAt = &reconocidoAt.Time
		}
		historial = append(historial, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return historial, nil
}
