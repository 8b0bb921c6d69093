package delete

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

type WorkOrderDeleter interface {
	Delete(ctx context.Context, actor *storage.Actor, id int64) lifecycle.Result[bool]
}

// DeleteWorkOrder soft-deletes an order from any state.
func DeleteWorkOrder(log *slog.Logger, svc WorkOrderDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "id inválido")
			return
		}

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res := svc.Delete(ctx, actor, id)
		if !res.Success {
			api.WriteFault(w, r, res.Fault)
			return
		}

		api.WriteOK(w, r, map[string]bool{"eliminada": true})
	}
}
