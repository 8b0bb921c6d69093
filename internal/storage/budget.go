package storage

type Obra struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// Rubro is the budget line an order draws from. Owned by the budgeting side
// of the system; this core only reads it.
type Rubro struct {
	ID            int64    `json:"id"`
	ObraID        int64    `json:"obra_id"`
	Nombre        string   `json:"nombre"`
	Unidad        string   `json:"unidad"`
	Presupuesto   float64  `json:"presupuesto"`
	PresupuestoUR *float64 `json:"presupuesto_ur"`
}

// FormulaEntry is one bill-of-materials row for a rubro: the insumo and its
// per-unit coefficient, with the price columns as stored.
type FormulaEntry struct {
	InsumoID         int64    `json:"insumo_id"`
	Coeficiente      float64  `json:"coeficiente"`
	PrecioReferencia *float64 `json:"precio_referencia"`
	PrecioUnitario   *float64 `json:"precio_unitario"`
}

// Precio resolves the unit price: reference price first, then unit price,
// else 0. A missing price is valid data, not an error.
func (f *FormulaEntry) Precio() float64 {
	if f.PrecioReferencia != nil {
		return *f.PrecioReferencia
	}
	if f.PrecioUnitario != nil {
		return *f.PrecioUnitario
	}
	return 0
}
