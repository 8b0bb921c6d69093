// Package api holds the response envelope shared by every handler. All
// operations answer {"success":true,"data":...} or
// {"success":false,"error":"..."}; callers branch on the tag.
package api

import (
	"net/http"

	"github.com/go-chi/render"

	"gestion-obras/internal/service/lifecycle"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func WriteOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

func WriteFault(w http.ResponseWriter, r *http.Request, fault *lifecycle.Fault) {
	render.Status(r, statusFor(fault.Kind))
	render.JSON(w, r, Envelope{Error: fault.Message})
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Error: message})
}

func statusFor(kind lifecycle.FaultKind) int {
	switch kind {
	case lifecycle.FaultValidation:
		return http.StatusBadRequest
	case lifecycle.FaultNoAuth:
		return http.StatusUnauthorized
	case lifecycle.FaultForbidden:
		return http.StatusForbidden
	case lifecycle.FaultNotFound:
		return http.StatusNotFound
	case lifecycle.FaultState, lifecycle.FaultBudget, lifecycle.FaultDeviation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
