package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"gestion-obras/http-server/api"
	"gestion-obras/internal/middleware/auth"
	"gestion-obras/internal/service/lifecycle"
	"gestion-obras/internal/storage"
)

type WorkOrderCreator interface {
	Create(ctx context.Context, actor *storage.Actor, in lifecycle.CreateInput) lifecycle.Result[*storage.WorkOrder]
}

var validate = validator.New()

func CreateWorkOrder(log *slog.Logger, svc WorkOrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work-orders.save.CreateWorkOrder"

		var req lifecycle.CreateInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			api.WriteError(w, r, http.StatusBadRequest, "datos inválidos")
			return
		}
		if err := validate.Struct(req); err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "datos incompletos o inválidos")
			return
		}

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res := svc.Create(ctx, actor, req)
		if !res.Success {
			api.WriteFault(w, r, res.Fault)
			return
		}

		api.WriteOK(w, r, res.Data)
	}
}
