// Package policy holds the pure business rules of the work-order lifecycle:
// who may do what, and the budget and deviation gates. No storage, no I/O.
package policy

import (
	"errors"

	"gestion-obras/internal/storage"
)

type Action string

const (
	ActionVer      Action = "ver"
	ActionCrear    Action = "crear"
	ActionEditar   Action = "editar"
	ActionAprobar  Action = "aprobar"
	ActionIniciar  Action = "iniciar"
	ActionCerrar   Action = "cerrar"
	ActionEliminar Action = "eliminar"
)

var (
	ErrRolNoPermitido = errors.New("el rol no permite esta operación")
	ErrObraNoAsignada = errors.New("la orden pertenece a otra obra")
)

// allowedRoles is the capability table. Approve and delete are stricter than
// the rest of the lifecycle; capataz only reads.
var allowedRoles = map[Action]map[string]bool{
	ActionVer: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
		storage.RolJefeObra:     true,
		storage.RolCapataz:      true,
	},
	ActionCrear: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
		storage.RolJefeObra:     true,
	},
	ActionEditar: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
		storage.RolJefeObra:     true,
	},
	ActionAprobar: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
	},
	ActionIniciar: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
		storage.RolJefeObra:     true,
	},
	ActionCerrar: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
		storage.RolJefeObra:     true,
	},
	ActionEliminar: {
		storage.RolAdmin:        true,
		storage.RolDirectorObra: true,
	},
}

// obraScoped marks the actions a jefe_obra may only perform on their
// assigned obra. The mismatch is an explicit permission error, never a
// silent re-scope.
var obraScoped = map[Action]bool{
	ActionVer:     true,
	ActionCrear:   true,
	ActionEditar:  true,
	ActionIniciar: true,
	ActionCerrar:  true,
}

// Can checks whether actor may perform action on an order belonging to
// obraID. Returns ErrRolNoPermitido or ErrObraNoAsignada on rejection.
func Can(actor *storage.Actor, action Action, obraID int64) error {
	if actor == nil {
		return ErrRolNoPermitido
	}
	if !allowedRoles[action][actor.Rol] {
		return ErrRolNoPermitido
	}
	if actor.Rol == storage.RolJefeObra && obraScoped[action] {
		if actor.ObraID == nil || *actor.ObraID != obraID {
			return ErrObraNoAsignada
		}
	}
	return nil
}
