package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"gestion-obras/http-server/api"
	"gestion-obras/internal/middleware/auth"
	"gestion-obras/internal/service/lifecycle"
	"gestion-obras/internal/storage"
)

type WorkOrderUpdater interface {
	Update(ctx context.Context, actor *storage.Actor, in lifecycle.UpdateInput) lifecycle.Result[*storage.WorkOrder]
}

var validate = validator.New()

// UpdateWorkOrder patches a draft order. Non-draft orders are rejected with a
// state error.
func UpdateWorkOrder(log *slog.Logger, svc WorkOrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work-orders.update.UpdateWorkOrder"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "id inválido")
			return
		}

		var req lifecycle.UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			api.WriteError(w, r, http.StatusBadRequest, "datos inválidos")
			return
		}
		req.ID = id
		if err := validate.Struct(req); err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "datos incompletos o inválidos")
			return
		}

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res := svc.Update(ctx, actor, req)
		if !res.Success {
			api.WriteFault(w, r, res.Fault)
			return
		}

		api.WriteOK(w, r, res.Data)
	}
}
