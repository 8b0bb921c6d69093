package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gestion-obras/http-server/api"
	"gestion-obras/internal/service/budget"
	"gestion-obras/internal/storage"
)

type BudgetReader interface {
	Status(ctx context.Context, rubroID int64) (*budget.Status, error)
}

// GetBudgetStatus is the read-only rollup used by the order form as a
// pre-check before approval.
func GetBudgetStatus(log *slog.Logger, svc BudgetReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.budget.get.GetBudgetStatus"

		rubroID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "id inválido")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status, err := svc.Status(ctx, rubroID)
		if err != nil {
			if errors.Is(err, storage.ErrRubroNotFound) {
				api.WriteError(w, r, http.StatusNotFound, "rubro no encontrado")
				return
			}
			log.Error("budget status failed", slog.String("op", op), slog.String("error", err.Error()))
			api.WriteError(w, r, http.StatusInternalServerError, "error consultando el presupuesto")
			return
		}

		api.WriteOK(w, r, status)
	}
}
