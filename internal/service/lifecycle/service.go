// Package lifecycle owns the work-order state machine: creation with cost
// estimation, the linear borrador -> aprobada -> en_ejecucion -> cerrada
// transitions with their gates, and the orthogonal soft delete.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"gestion-obras/internal/policy"
	"gestion-obras/internal/revalidate"
	"gestion-obras/internal/service/costing"
	"gestion-obras/internal/storage"
)

// Storage is the slice of the store this service mutates. Every transition
// method is atomic: the implementation re-checks the current state and the
// gate inside one transaction.
type Storage interface {
	GetWorkOrder(ctx context.Context, id int64) (*storage.WorkOrder, error)
	GetWorkOrderDetail(ctx context.Context, id int64) (*storage.WorkOrderDetail, error)
	ListWorkOrders(ctx context.Context, filter storage.WorkOrderFilter) ([]*storage.WorkOrder, error)
	GetObra(ctx context.Context, id int64) (*storage.Obra, error)
	GetRubro(ctx context.Context, id int64) (*storage.Rubro, error)

	CreateWorkOrder(ctx context.Context, orden *storage.WorkOrder, lineas []*storage.EstimatedSupplyLine) (*storage.WorkOrder, error)
	UpdateWorkOrderDraft(ctx context.Context, params storage.UpdateParams) (*storage.WorkOrder, error)
	ApproveWorkOrder(ctx context.Context, params storage.ApproveParams) (*storage.WorkOrder, error)
	StartWorkOrder(ctx context.Context, params storage.TransitionParams) (*storage.WorkOrder, error)
	CloseWorkOrder(ctx context.Context, params storage.CloseParams) (*storage.WorkOrder, error)
	SoftDeleteWorkOrder(ctx context.Context, id, usuarioID int64) error
}

type Estimator interface {
	Estimate(ctx context.Context, rubroID int64, cantidad float64) (*costing.Estimate, error)
}

type Service struct {
	storage  Storage
	costing  Estimator
	notifier revalidate.Notifier
	log      *slog.Logger
}

func NewService(st Storage, est Estimator, notifier revalidate.Notifier, log *slog.Logger) *Service {
	return &Service{storage: st, costing: est, notifier: notifier, log: log}
}

type CreateInput struct {
	ObraID      int64   `json:"obra_id" validate:"required,gt=0"`
	RubroID     int64   `json:"rubro_id" validate:"required,gt=0"`
	Descripcion string  `json:"descripcion" validate:"required"`
	Cantidad    float64 `json:"cantidad" validate:"required,gt=0"`
}

type UpdateInput struct {
	ID          int64
	Descripcion *string  `json:"descripcion"`
	Cantidad    *float64 `json:"cantidad" validate:"omitempty,gt=0"`
	RubroID     *int64   `json:"rubro_id" validate:"omitempty,gt=0"`
}

type ApproveInput struct {
	ID              int64
	Notas           string `json:"notas"`
	ReconocerExceso bool   `json:"reconocer_exceso"`
}

type StartInput struct {
	ID    int64
	Notas string `json:"notas"`
}

type CloseInput struct {
	ID              int64
	Notas           string   `json:"notas"`
	CostoReal       *float64 `json:"costo_real" validate:"omitempty,gte=0"`
	ReconocerDesvio bool     `json:"reconocer_desvio"`
}

// Create runs the cost estimation and inserts the order in borrador.
func (s *Service) Create(ctx context.Context, actor *storage.Actor, in CreateInput) Result[*storage.WorkOrder] {
	const op = "lifecycle.Create"

	if strings.TrimSpace(in.Descripcion) == "" {
		return Fail[*storage.WorkOrder](FaultValidation, "la descripción es obligatoria")
	}
	if in.Cantidad <= 0 {
		return Fail[*storage.WorkOrder](FaultValidation, "la cantidad debe ser mayor a cero")
	}
	if f := authzFault(actor, policy.ActionCrear, in.ObraID); f != nil {
		return FailWith[*storage.WorkOrder](f)
	}

	var (
		rubro *storage.Rubro
		est   *costing.Estimate
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.storage.GetObra(gCtx, in.ObraID)
		return err
	})
	g.Go(func() error {
		var err error
		rubro, err = s.storage.GetRubro(gCtx, in.RubroID)
		return err
	})
	g.Go(func() error {
		var err error
		est, err = s.costing.Estimate(gCtx, in.RubroID, in.Cantidad)
		return err
	})
	if err := g.Wait(); err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error creando la orden de trabajo"))
	}
	if rubro.ObraID != in.ObraID {
		return Fail[*storage.WorkOrder](FaultValidation, "el rubro pertenece a otra obra")
	}

	orden := &storage.WorkOrder{
		ObraID:        in.ObraID,
		RubroID:       in.RubroID,
		Descripcion:   strings.TrimSpace(in.Descripcion),
		Cantidad:      in.Cantidad,
		CostoEstimado: est.Total,
		Estado:        storage.EstadoBorrador,
		CreadoPor:     actor.ID,
	}

	creada, err := s.storage.CreateWorkOrder(ctx, orden, est.Lineas)
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error creando la orden de trabajo"))
	}

	s.invalidate(creada)
	return OK(creada)
}

// Update patches a draft order. Changing cantidad or rubro reruns the
// estimate and replaces the supply-line set whole.
func (s *Service) Update(ctx context.Context, actor *storage.Actor, in UpdateInput) Result[*storage.WorkOrder] {
	const op = "lifecycle.Update"

	if in.Cantidad != nil && *in.Cantidad <= 0 {
		return Fail[*storage.WorkOrder](FaultValidation, "la cantidad debe ser mayor a cero")
	}
	if in.Descripcion != nil && strings.TrimSpace(*in.Descripcion) == "" {
		return Fail[*storage.WorkOrder](FaultValidation, "la descripción es obligatoria")
	}

	orden, err := s.storage.GetWorkOrder(ctx, in.ID)
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error actualizando la orden de trabajo"))
	}
	if f := authzFault(actor, policy.ActionEditar, orden.ObraID); f != nil {
		return FailWith[*storage.WorkOrder](f)
	}
	if orden.Estado != storage.EstadoBorrador {
		return Fail[*storage.WorkOrder](FaultState, "solo las órdenes en borrador pueden editarse")
	}

	params := storage.UpdateParams{
		ID:          in.ID,
		UsuarioID:   actor.ID,
		Descripcion: in.Descripcion,
		Cantidad:    in.Cantidad,
		RubroID:     in.RubroID,
	}

	cantidadCambia := in.Cantidad != nil && *in.Cantidad != orden.Cantidad
	rubroCambia := in.RubroID != nil && *in.RubroID != orden.RubroID
	if rubroCambia {
		rubro, err := s.storage.GetRubro(ctx, *in.RubroID)
		if err != nil {
			return FailWith[*storage.WorkOrder](s.fault(op, err, "error actualizando la orden de trabajo"))
		}
		if rubro.ObraID != orden.ObraID {
			return Fail[*storage.WorkOrder](FaultValidation, "el rubro pertenece a otra obra")
		}
	}
	if cantidadCambia || rubroCambia {
		rubroID := orden.RubroID
		if in.RubroID != nil {
			rubroID = *in.RubroID
		}
		cantidad := orden.Cantidad
		if in.Cantidad != nil {
			cantidad = *in.Cantidad
		}
		est, err := s.costing.Estimate(ctx, rubroID, cantidad)
		if err != nil {
			return FailWith[*storage.WorkOrder](s.fault(op, err, "error actualizando la orden de trabajo"))
		}
		params.NuevoCosto = &est.Total
		params.NuevasLineas = est.Lineas
	}

	actualizada, err := s.storage.UpdateWorkOrderDraft(ctx, params)
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error actualizando la orden de trabajo"))
	}

	s.invalidate(actualizada)
	return OK(actualizada)
}

// Approve moves borrador -> aprobada behind the budget gate. The aggregate
// spend check and the state change run in one storage transaction.
func (s *Service) Approve(ctx context.Context, actor *storage.Actor, in ApproveInput) Result[*storage.WorkOrder] {
	const op = "lifecycle.Approve"

	orden, err := s.storage.GetWorkOrder(ctx, in.ID)
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error aprobando la orden de trabajo"))
	}
	if f := authzFault(actor, policy.ActionAprobar, orden.ObraID); f != nil {
		return FailWith[*storage.WorkOrder](f)
	}

	aprobada, err := s.storage.ApproveWorkOrder(ctx, storage.ApproveParams{
		ID:              in.ID,
		UsuarioID:       actor.ID,
		Notas:           in.Notas,
		ReconocerExceso: in.ReconocerExceso,
	})
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error aprobando la orden de trabajo"))
	}

	s.invalidate(aprobada)
	return OK(aprobada)
}

// Start moves aprobada -> en_ejecucion and stamps the start date.
func (s *Service) Start(ctx context.Context, actor *storage.Actor, in StartInput) Result[*storage.WorkOrder] {
	const op = "lifecycle.Start"

	orden, err := s.storage.GetWorkOrder(ctx, in.ID)
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error iniciando la orden de trabajo"))
	}
	if f := authzFault(actor, policy.ActionIniciar, orden.ObraID); f != nil {
		return FailWith[*storage.WorkOrder](f)
	}

	iniciada, err := s.storage.StartWorkOrder(ctx, storage.TransitionParams{
		ID:        in.ID,
		UsuarioID: actor.ID,
		Notas:     in.Notas,
	})
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error iniciando la orden de trabajo"))
	}

	s.invalidate(iniciada)
	return OK(iniciada)
}

// Close moves en_ejecucion -> cerrada behind the deviation gate.
func (s *Service) Close(ctx context.Context, actor *storage.Actor, in CloseInput) Result[*storage.WorkOrder] {
	const op = "lifecycle.Close"

	if in.CostoReal != nil && *in.CostoReal < 0 {
		return Fail[*storage.WorkOrder](FaultValidation, "el costo real no puede ser negativo")
	}

	orden, err := s.storage.GetWorkOrder(ctx, in.ID)
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error cerrando la orden de trabajo"))
	}
	if f := authzFault(actor, policy.ActionCerrar, orden.ObraID); f != nil {
		return FailWith[*storage.WorkOrder](f)
	}

	cerrada, err := s.storage.CloseWorkOrder(ctx, storage.CloseParams{
		ID:              in.ID,
		UsuarioID:       actor.ID,
		Notas:           in.Notas,
		CostoReal:       in.CostoReal,
		ReconocerDesvio: in.ReconocerDesvio,
	})
	if err != nil {
		return FailWith[*storage.WorkOrder](s.fault(op, err, "error cerrando la orden de trabajo"))
	}

	s.invalidate(cerrada)
	return OK(cerrada)
}

// Delete soft-deletes from any state; the estado stays as it was.
func (s *Service) Delete(ctx context.Context, actor *storage.Actor, id int64) Result[bool] {
	const op = "lifecycle.Delete"

	orden, err := s.storage.GetWorkOrder(ctx, id)
	if err != nil {
		return FailWith[bool](s.fault(op, err, "error eliminando la orden de trabajo"))
	}
	if f := authzFault(actor, policy.ActionEliminar, orden.ObraID); f != nil {
		return FailWith[bool](f)
	}

	if err := s.storage.SoftDeleteWorkOrder(ctx, id, actor.ID); err != nil {
		return FailWith[bool](s.fault(op, err, "error eliminando la orden de trabajo"))
	}

	s.invalidate(orden)
	return OK(true)
}

// Get returns one order with its supply lines and history.
func (s *Service) Get(ctx context.Context, actor *storage.Actor, id int64) Result[*storage.WorkOrderDetail] {
	const op = "lifecycle.Get"

	detail, err := s.storage.GetWorkOrderDetail(ctx, id)
	if err != nil {
		return FailWith[*storage.WorkOrderDetail](s.fault(op, err, "error consultando la orden de trabajo"))
	}
	if f := authzFault(actor, policy.ActionVer, detail.Orden.ObraID); f != nil {
		return FailWith[*storage.WorkOrderDetail](f)
	}
	return OK(detail)
}

// List returns the non-deleted orders of an obra, optionally by estado.
func (s *Service) List(ctx context.Context, actor *storage.Actor, filter storage.WorkOrderFilter) Result[[]*storage.WorkOrder] {
	const op = "lifecycle.List"

	if filter.Estado != "" && !storage.ValidEstado(filter.Estado) {
		return Fail[[]*storage.WorkOrder](FaultValidation, "estado desconocido: %q", filter.Estado)
	}
	if f := authzFault(actor, policy.ActionVer, filter.ObraID); f != nil {
		return FailWith[[]*storage.WorkOrder](f)
	}

	ordenes, err := s.storage.ListWorkOrders(ctx, filter)
	if err != nil {
		return FailWith[[]*storage.WorkOrder](s.fault(op, err, "error consultando las órdenes de trabajo"))
	}
	return OK(ordenes)
}

func authzFault(actor *storage.Actor, action policy.Action, obraID int64) *Fault {
	if actor == nil {
		return &Fault{Kind: FaultNoAuth, Message: "usuario no autenticado"}
	}
	if err := policy.Can(actor, action, obraID); err != nil {
		return &Fault{Kind: FaultForbidden, Message: err.Error()}
	}
	return nil
}

// fault translates storage errors into the result taxonomy. Business
// rejections keep their message; anything unexpected is logged with detail
// and surfaced as the generic message only.
func (s *Service) fault(op string, err error, generic string) *Fault {
	switch {
	case errors.Is(err, storage.ErrWorkOrderNotFound),
		errors.Is(err, storage.ErrRubroNotFound),
		errors.Is(err, storage.ErrObraNotFound):
		return &Fault{Kind: FaultNotFound, Message: unwrapMsg(err)}
	}

	var wrongState *storage.WrongStateError
	if errors.As(err, &wrongState) {
		return &Fault{Kind: FaultState, Message: wrongState.Error()}
	}
	var exceso *storage.BudgetExceededError
	if errors.As(err, &exceso) {
		return &Fault{Kind: FaultBudget, Message: exceso.Error()}
	}
	var desvio *storage.DeviationError
	if errors.As(err, &desvio) {
		return &Fault{Kind: FaultDeviation, Message: desvio.Error()}
	}

	s.log.Error("storage operation failed", slog.String("op", op), slog.String("error", err.Error()))
	return &Fault{Kind: FaultInternal, Message: generic}
}

// unwrapMsg strips the op-wrapping prefixes so the caller sees only the
// sentinel's message.
func unwrapMsg(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

func (s *Service) invalidate(orden *storage.WorkOrder) {
	s.notifier.Invalidate(
		fmt.Sprintf("/obras/%d/ordenes", orden.ObraID),
		fmt.Sprintf("/ordenes/%d", orden.ID),
		fmt.Sprintf("/rubros/%d/presupuesto", orden.RubroID),
	)
}
