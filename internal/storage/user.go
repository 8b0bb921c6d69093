package storage

// Roles known to the system.
const (
	RolAdmin        = "admin"
	RolDirectorObra = "director_obra"
	RolJefeObra     = "jefe_obra"
	RolCapataz      = "capataz"
)

// Actor is the resolved authenticated user attached to every request.
// ObraID is the assigned obra for roles scoped to a single obra (jefe_obra).
type Actor struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	ObraID *int64 `json:"obra_id,omitempty"`
}
