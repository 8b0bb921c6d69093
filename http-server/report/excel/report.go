package excel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gestion-obras/http-server/api"
	"gestion-obras/internal/storage"
)

type ReportGenerator interface {
	GenerateExcel(ctx context.Context, obraID int64) ([]byte, error)
}

// GenerateObraReport streams the obra's work-order rollup as an xlsx file.
func GenerateObraReport(log *slog.Logger, svc ReportGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.excel.GenerateObraReport"

		obraID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			api.WriteError(w, r, http.StatusBadRequest, "id inválido")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		data, err := svc.GenerateExcel(ctx, obraID)
		if err != nil {
			if errors.Is(err, storage.ErrObraNotFound) {
				api.WriteError(w, r, http.StatusNotFound, "obra no encontrada")
				return
			}
			log.Error("report generation failed", slog.String("op", op), slog.String("error", err.Error()))
			api.WriteError(w, r, http.StatusInternalServerError, "error generando el reporte")
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="obra_%d_ordenes.xlsx"`, obraID))
		w.Write(data)
	}
}
