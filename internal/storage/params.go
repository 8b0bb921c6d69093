package storage

// UpdateParams patches a draft order. NuevoCosto and NuevasLineas are set by
// the caller only when cantidad or rubro changed and the estimate was rerun;
// in that case the supply-line set is replaced whole.
type UpdateParams struct {
	ID          int64
	UsuarioID   int64
	Descripcion *string
	Cantidad    *float64
	RubroID     *int64

	NuevoCosto   *float64
	NuevasLineas []*EstimatedSupplyLine
}

type ApproveParams struct {
	ID              int64
	UsuarioID       int64
	Notas           string
	ReconocerExceso bool
}

type TransitionParams struct {
	ID        int64
	UsuarioID int64
	Notas     string
}

type CloseParams struct {
	ID              int64
	UsuarioID       int64
	Notas           string
	CostoReal       *float64
	ReconocerDesvio bool
}

type WorkOrderFilter struct {
	ObraID int64
	Estado string
}
