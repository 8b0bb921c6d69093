package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gestion-obras/internal/storage"
)

// GetUserByToken resolves an issued API token to its active user. Token
// issuance itself belongs to the identity provider, not this service.
func (s *Storage) GetUserByToken(ctx context.Context, token string) (*storage.Actor, error) {
	const op = "storage.mysql.GetUserByToken"

	var (
		actor  storage.Actor
		obraID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, rol, obra_id
		FROM usuarios
		WHERE api_token = ? AND activo = 1`, token).
		Scan(&actor.ID, &actor.Nombre, &actor.Rol, &obraID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if obraID.Valid {
		actor.ObraID = &obraID.Int64
	}

	return &actor, nil
}
