// Package transition exposes the three forward steps of the lifecycle. The
// approve and close endpoints are the two-phase gates: on a 409 the client is
// expected to retry with the acknowledgement flag set.
package transition

import (
	"context"
	"encoding/json"
	"errors"
	"io"
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

type WorkOrderTransitioner interface {
	Approve(ctx context.Context, actor *storage.Actor, in lifecycle.ApproveInput) lifecycle.Result[*storage.WorkOrder]
	Start(ctx context.Context, actor *storage.Actor, in lifecycle.StartInput) lifecycle.Result[*storage.WorkOrder]
	Close(ctx context.Context, actor *storage.Actor, in lifecycle.CloseInput) lifecycle.Result[*storage.WorkOrder]
}

func ApproveWorkOrder(log *slog.Logger, svc WorkOrderTransitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work-orders.transition.ApproveWorkOrder"

		id, ok := orderID(w, r)
		if !ok {
			return
		}

		var req lifecycle.ApproveInput
		if !decodeBody(w, r, log, op, &req) {
			return
		}
		req.ID = id

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		writeResult(w, r, svc.Approve(ctx, actor, req))
	}
}

func StartWorkOrder(log *slog.Logger, svc WorkOrderTransitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work-orders.transition.StartWorkOrder"

		id, ok := orderID(w, r)
		if !ok {
			return
		}

		var req lifecycle.StartInput
		if !decodeBody(w, r, log, op, &req) {
			return
		}
		req.ID = id

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		writeResult(w, r, svc.Start(ctx, actor, req))
	}
}

func CloseWorkOrder(log *slog.Logger, svc WorkOrderTransitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work-orders.transition.CloseWorkOrder"

		id, ok := orderID(w, r)
		if !ok {
			return
		}

		var req lifecycle.CloseInput
		if !decodeBody(w, r, log, op, &req) {
			return
		}
		req.ID = id

		actor, _ := auth.FromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		writeResult(w, r, svc.Close(ctx, actor, req))
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, r, http.StatusBadRequest, "id inválido")
		return 0, false
	}
	return id, true
}

// decodeBody tolerates an empty body: every transition works without
// parameters.
func decodeBody(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		api.WriteError(w, r, http.StatusBadRequest, "datos inválidos")
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, r *http.Request, res lifecycle.Result[*storage.WorkOrder]) {
	if !res.Success {
		api.WriteFault(w, r, res.Fault)
		return
	}
	api.WriteOK(w, r, res.Data)
}
