package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gestion-obras/http-server/api"
	"gestion-obras/internal/middleware/auth"
	"gestion-obras/internal/service/lifecycle"
	"gestion-obras/internal/storage"
)

type WorkOrderReader interface {
	Get(ctx context.Context, actor *storage.Actor, id int64) lifecycle.Result[*storage.WorkOrderDetail]
	List(ctx context.Context, actor *storage.Actor, filter storage.WorkOrderFilter) lifecycle.Result[[]*storage.WorkOrder]
}

// GetWorkOrder returns one order with supply lines and history.
func GetWorkOrder(log *slog.Logger, svc WorkOrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "id inválido")
			return
		}

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res := svc.Get(ctx, actor, id)
		if !res.Success {
			api.WriteFault(w, r, res.Fault)
			return
		}

		api.WriteOK(w, r, res.Data)
	}
}

// GetWorkOrders lists an obra's orders, optionally filtered by estado.
func GetWorkOrders(log *slog.Logger, svc WorkOrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obraID, err := strconv.ParseInt(r.URL.Query().Get("obra_id"), 10, 64)
		if err != nil || obraID <= 0 {
			api.WriteError(w, r, http.StatusBadRequest, "falta el parámetro obra_id")
			return
		}

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res := svc.List(ctx, actor, storage.WorkOrderFilter{
			ObraID: obraID,
			Estado: r.URL.Query().Get("estado"),
		})
		if !res.Success {
			api.WriteFault(w, r, res.Fault)
			return
		}

		api.WriteOK(w, r, res.Data)
	}
}
