package storage

import (
	"errors"
	"fmt"
)

var (
	ErrWorkOrderNotFound = errors.New("orden de trabajo no encontrada")
	ErrRubroNotFound     = errors.New("rubro no encontrado")
	ErrObraNotFound      = errors.New("obra no encontrada")
	ErrUserNotFound      = errors.New("usuario no encontrado")
)

// WrongStateError is returned when a transition is requested from a state
// other than the one it requires.
type WrongStateError struct {
	Actual    string
	Requerido string
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("estado inválido: la orden está en %q, se requiere %q", e.Actual, e.Requerido)
}

// BudgetExceededError is returned by the approve transition when the rubro's
// committed cost plus this order would exceed its presupuesto and the caller
// has not acknowledged the excess.
type BudgetExceededError struct {
	Presupuesto  float64
	Comprometido float64
	Excedente    float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("la aprobación excede el presupuesto del rubro por $%.2f (presupuesto $%.2f, comprometido $%.2f)",
		e.Excedente, e.Presupuesto, e.Comprometido)
}

// DeviationError is returned by the close transition when the real cost is
// above the estimate and the caller has not acknowledged the deviation.
type DeviationError struct {
	CostoEstimado float64
	CostoReal     float64
	Desvio        float64
	Porcentaje    float64
}

func (e *DeviationError) Error() string {
	return fmt.Sprintf("el cierre registra un desvío de $%.2f (%.1f%% sobre lo estimado)", e.Desvio, e.Porcentaje)
}
