package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gestion-obras/internal/policy"
	"gestion-obras/internal/storage"
)

const woColumns = `id, numero, obra_id, rubro_id, descripcion, cantidad, costo_estimado,
	costo_real, estado, fecha_inicio, fecha_fin, creado_por, created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkOrder(row rowScanner) (*storage.WorkOrder, error) {
	var (
		orden       storage.WorkOrder
		costoReal   sql.NullFloat64
		fechaInicio sql.NullTime
		fechaFin    sql.NullTime
		deletedAt   sql.NullTime
	)

	err := row.Scan(&orden.ID, &orden.Numero, &orden.ObraID, &orden.RubroID,
		&orden.Descripcion, &orden.Cantidad, &orden.CostoEstimado,
		&costoReal, &orden.Estado, &fechaInicio, &fechaFin,
		&orden.CreadoPor, &orden.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if costoReal.Valid {
		orden.CostoReal = &costoReal.Float64
	}
	if fechaInicio.Valid {
		orden.FechaInicio = &fechaInicio.Time
	}
	if fechaFin.Valid {
		orden.FechaFin = &fechaFin.Time
	}
	if deletedAt.Valid {
		orden.DeletedAt = &deletedAt.Time
	}

	return &orden, nil
}

func (s *Storage) GetWorkOrder(ctx context.Context, id int64) (*storage.WorkOrder, error) {
	const op = "storage.mysql.GetWorkOrder"

	stmt := `SELECT ` + woColumns + ` FROM ordenes_trabajo WHERE id = ? AND deleted_at IS NULL`

	orden, err := scanWorkOrder(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrWorkOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orden, nil
}

func (s *Storage) GetWorkOrderDetail(ctx context.Context, id int64) (*storage.WorkOrderDetail, error) {
	const op = "storage.mysql.GetWorkOrderDetail"

	orden, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	insumos, err := s.listSupplyLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	historial, err := s.listHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.WorkOrderDetail{Orden: orden, Insumos: insumos, Historial: historial}, nil
}

func (s *Storage) ListWorkOrders(ctx context.Context, filter storage.WorkOrderFilter) ([]*storage.WorkOrder, error) {
	const op = "storage.mysql.ListWorkOrders"

	stmt := `SELECT ` + woColumns + ` FROM ordenes_trabajo WHERE obra_id = ? AND deleted_at IS NULL`
	args := []interface{}{filter.ObraID}

	if filter.Estado != "" {
		stmt += ` AND estado = ?`
		args = append(args, filter.Estado)
	}
	stmt += ` ORDER BY numero`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ordenes []*storage.WorkOrder
	for rows.Next() {
		orden, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ordenes = append(ordenes, orden)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ordenes, nil
}

// CreateWorkOrder inserts the order, its supply-line set and the creation
// history row in one transaction. The numero is allocated per obra under the
// same lock.
func (s *Storage) CreateWorkOrder(ctx context.Context, orden *storage.WorkOrder, lineas []*storage.EstimatedSupplyLine) (*storage.WorkOrder, error) {
	const op = "storage.mysql.CreateWorkOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	var numero int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(numero), 0) + 1 FROM ordenes_trabajo WHERE obra_id = ? FOR UPDATE`,
		orden.ObraID).Scan(&numero)
	if err != nil {
		return nil, fmt.Errorf("%s: numero: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ordenes_trabajo
			(numero, obra_id, rubro_id, descripcion, cantidad, costo_estimado, estado, creado_por, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		numero, orden.ObraID, orden.RubroID, orden.Descripcion, orden.Cantidad,
		orden.CostoEstimado, storage.EstadoBorrador, orden.CreadoPor)
	if err != nil {
		return nil, fmt.Errorf("%s: insert orden: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := insertSupplyLines(ctx, tx, id, lineas); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = insertHistory(ctx, tx, &storage.HistoryEntry{
		OrdenID:     id,
		EstadoNuevo: storage.EstadoBorrador,
		UsuarioID:   orden.CreadoPor,
		Notas:       "creación de la orden",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetWorkOrder(ctx, id)
}

// UpdateWorkOrderDraft patches a draft order. When NuevasLineas is set the
// supply-line set is deleted and re-inserted inside the same transaction so
// the order never sits without lines.
func (s *Storage) UpdateWorkOrderDraft(ctx context.Context, params storage.UpdateParams) (*storage.WorkOrder, error) {
	const op = "storage.mysql.UpdateWorkOrderDraft"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	orden, err := lockWorkOrder(ctx, tx, params.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if orden.Estado != storage.EstadoBorrador {
		return nil, fmt.Errorf("%s: %w", op,
			&storage.WrongStateError{Actual: orden.Estado, Requerido: storage.EstadoBorrador})
	}

	descripcion := orden.Descripcion
	if params.Descripcion != nil {
		descripcion = *params.Descripcion
	}
	cantidad := orden.Cantidad
	if params.Cantidad != nil {
		cantidad = *params.Cantidad
	}
	rubroID := orden.RubroID
	if params.RubroID != nil {
		rubroID = *params.RubroID
	}
	costo := orden.CostoEstimado
	if params.NuevoCosto != nil {
		costo = *params.NuevoCosto
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ordenes_trabajo
		SET descripcion = ?, cantidad = ?, rubro_id = ?, costo_estimado = ?
		WHERE id = ? AND estado = ?`,
		descripcion, cantidad, rubroID, costo, params.ID, storage.EstadoBorrador)
	if err != nil {
		return nil, fmt.Errorf("%s: update orden: %w", op, err)
	}

	if params.NuevasLineas != nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM ot_insumos_estimados WHERE orden_id = ?`, params.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: delete lineas: %w", op, err)
		}
		if err := insertSupplyLines(ctx, tx, params.ID, params.NuevasLineas); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetWorkOrder(ctx, params.ID)
}

// ApproveWorkOrder runs the budget gate and the borrador -> aprobada step as
// one check-and-set: the order row and the rubro row are locked, the
// committed aggregate is recomputed under those locks, and the state change
// only commits if the gate passes or the excess is acknowledged.
func (s *Storage) ApproveWorkOrder(ctx context.Context, params storage.ApproveParams) (*storage.WorkOrder, error) {
	const op = "storage.mysql.ApproveWorkOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	orden, err := lockWorkOrder(ctx, tx, params.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireTransition(orden, storage.EstadoAprobada); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var presupuesto float64
	err = tx.QueryRowContext(ctx,
		`SELECT presupuesto FROM rubros WHERE id = ? FOR UPDATE`, orden.RubroID).Scan(&presupuesto)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRubroNotFound)
		}
		return nil, fmt.Errorf("%s: rubro: %w", op, err)
	}

	var comprometido float64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(costo_estimado), 0)
		FROM ordenes_trabajo
		WHERE rubro_id = ? AND id <> ? AND deleted_at IS NULL
		  AND estado IN (`+estadosComprometidosIn+`)`,
		orden.RubroID, orden.ID).Scan(&comprometido)
	if err != nil {
		return nil, fmt.Errorf("%s: comprometido: %w", op, err)
	}

	check := policy.EvaluateApproval(presupuesto, comprometido, orden.CostoEstimado)
	if check.Excedido() && !params.ReconocerExceso {
		return nil, fmt.Errorf("%s: %w", op, &storage.BudgetExceededError{
			Presupuesto:  check.Presupuesto,
			Comprometido: check.Comprometido,
			Excedente:    check.Excedente,
		})
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ordenes_trabajo SET estado = ? WHERE id = ?`,
		storage.EstadoAprobada, orden.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: update estado: %w", op, err)
	}

	hist := &storage.HistoryEntry{
		OrdenID:        orden.ID,
		EstadoAnterior: &orden.Estado,
		EstadoNuevo:    storage.EstadoAprobada,
		UsuarioID:      params.UsuarioID,
		Notas:          params.Notas,
	}
	if check.Excedido() {
		hist.Notas = appendNota(hist.Notas,
			fmt.Sprintf("presupuesto excedido en $%.2f", check.Excedente))
		hist.ReconocidoPor = &params.UsuarioID
	}
	if err := insertHistory(ctx, tx, hist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetWorkOrder(ctx, params.ID)
}

// StartWorkOrder moves aprobada -> en_ejecucion and stamps fecha_inicio.
func (s *Storage) StartWorkOrder(ctx context.Context, params storage.TransitionParams) (*storage.WorkOrder, error) {
	const op = "storage.mysql.StartWorkOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	orden, err := lockWorkOrder(ctx, tx, params.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireTransition(orden, storage.EstadoEnEjecucion); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ordenes_trabajo SET estado = ?, fecha_inicio = NOW() WHERE id = ?`,
		storage.EstadoEnEjecucion, orden.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: update estado: %w", op, err)
	}

	err = insertHistory(ctx, tx, &storage.HistoryEntry{
		OrdenID:        orden.ID,
		EstadoAnterior: &orden.Estado,
		EstadoNuevo:    storage.EstadoEnEjecucion,
		UsuarioID:      params.UsuarioID,
		Notas:          params.Notas,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetWorkOrder(ctx, params.ID)
}

// CloseWorkOrder runs the deviation gate and the en_ejecucion -> cerrada step
// in one transaction. The real cost falls back to the estimate when nothing
// was ever recorded.
func (s *Storage) CloseWorkOrder(ctx context.Context, params storage.CloseParams) (*storage.WorkOrder, error) {
	const op = "storage.mysql.CloseWorkOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	orden, err := lockWorkOrder(ctx, tx, params.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireTransition(orden, storage.EstadoCerrada); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	real := params.CostoReal
	if real == nil {
		real = orden.CostoReal
	}
	check := policy.EvaluateClose(orden.CostoEstimado, real)
	if check.Desviado() && !params.ReconocerDesvio {
		return nil, fmt.Errorf("%s: %w", op, &storage.DeviationError{
			CostoEstimado: check.CostoEstimado,
			CostoReal:     check.CostoReal,
			Desvio:        check.Desvio,
			Porcentaje:    check.Porcentaje,
		})
	}

	var pendientes int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ot_tareas WHERE orden_id = ? AND completada = 0`,
		orden.ID).Scan(&pendientes)
	if err != nil {
		return nil, fmt.Errorf("%s: tareas: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ordenes_trabajo SET estado = ?, costo_real = ?, fecha_fin = NOW() WHERE id = ?`,
		storage.EstadoCerrada, check.CostoReal, orden.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: update estado: %w", op, err)
	}

	hist := &storage.HistoryEntry{
		OrdenID:        orden.ID,
		EstadoAnterior: &orden.Estado,
		EstadoNuevo:    storage.EstadoCerrada,
		UsuarioID:      params.UsuarioID,
		Notas:          params.Notas,
	}
	if check.Desviado() {
		hist.Notas = appendNota(hist.Notas,
			fmt.Sprintf("desvío de $%.2f (%.1f%%)", check.Desvio, check.Porcentaje))
		hist.ReconocidoPor = &params.UsuarioID
	}
	if pendientes > 0 {
		hist.Notas = appendNota(hist.Notas, fmt.Sprintf("%d tareas incompletas", pendientes))
	}
	if err := insertHistory(ctx, tx, hist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetWorkOrder(ctx, params.ID)
}

// SoftDeleteWorkOrder stamps deleted_at without touching the estado. The row
// stays in storage and drops out of every normal query.
func (s *Storage) SoftDeleteWorkOrder(ctx context.Context, id, usuarioID int64) error {
	const op = "storage.mysql.SoftDeleteWorkOrder"

	res, err := s.db.ExecContext(ctx,
		`UPDATE ordenes_trabajo SET deleted_at = NOW(), deleted_by = ? WHERE id = ? AND deleted_at IS NULL`,
		usuarioID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrWorkOrderNotFound)
	}

	return nil
}

var estadosComprometidosIn = "'" + strings.Join(storage.EstadosComprometidos, "', '") + "'"

// requireTransition checks the transition graph for the step into `to`.
func requireTransition(orden *storage.WorkOrder, to string) error {
	if !storage.CanTransition(orden.Estado, to) {
		return &storage.WrongStateError{Actual: orden.Estado, Requerido: storage.PriorEstado(to)}
	}
	return nil
}

// lockWorkOrder reads the row FOR UPDATE inside tx, excluding soft-deleted
// rows.
func lockWorkOrder(ctx context.Context, tx *sql.Tx, id int64) (*storage.WorkOrder, error) {
	stmt := `SELECT ` + woColumns + ` FROM ordenes_trabajo WHERE id = ? AND deleted_at IS NULL FOR UPDATE`

	orden, err := scanWorkOrder(tx.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrWorkOrderNotFound
		}
		return nil, err
	}
	return orden, nil
}

func appendNota(base, extra string) string {
	if base == "" {
		return extra
	}
	return base + "; " + extra
}
