package storage

import (
	"fmt"
	"time"
)

// Estados del ciclo de vida de una orden de trabajo. El grafo es estrictamente
// lineal: borrador -> aprobada -> en_ejecucion -> cerrada.
const (
	EstadoBorrador    = "borrador"
	EstadoAprobada    = "aprobada"
	EstadoEnEjecucion = "en_ejecucion"
	EstadoCerrada     = "cerrada"
)

var nextEstado = map[string]string{
	EstadoBorrador:    EstadoAprobada,
	EstadoAprobada:    EstadoEnEjecucion,
	EstadoEnEjecucion: EstadoCerrada,
}

var prevEstado = func() map[string]string {
	m := make(map[string]string, len(nextEstado))
	for from, to := range nextEstado {
		m[to] = from
	}
	return m
}()

// CanTransition reports whether from -> to is a valid forward step. There are
// no skips and no backward transitions.
func CanTransition(from, to string) bool {
	return nextEstado[from] == to
}

// PriorEstado returns the state an order must be in before entering to, or ""
// when to is not a transition target.
func PriorEstado(to string) string {
	return prevEstado[to]
}

// ValidEstado reports whether s names a known state.
func ValidEstado(s string) bool {
	switch s {
	case EstadoBorrador, EstadoAprobada, EstadoEnEjecucion, EstadoCerrada:
		return true
	}
	return false
}

// EstadosComprometidos are the states that count against a rubro's budget.
var EstadosComprometidos = []string{EstadoAprobada, EstadoEnEjecucion, EstadoCerrada}

type WorkOrder struct {
	ID            int64      `json:"id"`
	Numero        int        `json:"numero"`
	ObraID        int64      `json:"obra_id"`
	RubroID       int64      `json:"rubro_id"`
	Descripcion   string     `json:"descripcion"`
	Cantidad      float64    `json:"cantidad"`
	CostoEstimado float64    `json:"costo_estimado"`
	CostoReal     *float64   `json:"costo_real"`
	Estado        string     `json:"estado"`
	FechaInicio   *time.Time `json:"fecha_inicio"`
	FechaFin      *time.Time `json:"fecha_fin"`
	CreadoPor     int64      `json:"creado_por"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// NumeroDisplay is the sequential number as shown to users.
func (o *WorkOrder) NumeroDisplay() string {
	return fmt.Sprintf("OT-%04d", o.Numero)
}

// EstimatedSupplyLine is one row of the computed bill of materials for an
// order. The set is always replaced whole on recalculation, never patched.
type EstimatedSupplyLine struct {
	ID       int64   `json:"id"`
	OrdenID  int64   `json:"orden_id"`
	InsumoID int64   `json:"insumo_id"`
	Cantidad float64 `json:"cantidad"`
	Costo    float64 `json:"costo"`
}

// HistoryEntry is an append-only audit row, one per transition.
type HistoryEntry struct {
	ID             int64      `json:"id"`
	OrdenID        int64      `json:"orden_id"`
	EstadoAnterior *string    `json:"estado_anterior"`
	EstadoNuevo    string     `json:"estado_nuevo"`
	UsuarioID      int64      `json:"usuario_id"`
	Notas          string     `json:"notas"`
	ReconocidoPor  *int64     `json:"reconocido_por,omitempty"`
	ReconocidoAt   *time.Time `json:"reconocido_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type WorkOrderDetail struct {
	Orden     *WorkOrder             `json:"orden"`
	Insumos   []*EstimatedSupplyLine `json:"insumos_estimados"`
	Historial []*HistoryEntry        `json:"historial"`
}
