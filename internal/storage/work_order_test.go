package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_GrafoLineal(t *testing.T) {
	valid := [][2]string{
		{EstadoBorrador, EstadoAprobada},
		{EstadoAprobada, EstadoEnEjecucion},
		{EstadoEnEjecucion, EstadoCerrada},
	}
	for _, tr := range valid {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestCanTransition_SinSaltosNiRetrocesos(t *testing.T) {
	estados := []string{EstadoBorrador, EstadoAprobada, EstadoEnEjecucion, EstadoCerrada}

	for i, from := range estados {
		for j, to := range estados {
			if j == i+1 {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s debe rechazarse", from, to)
		}
	}

	// cerrada es terminal
	for _, to := range estados {
		assert.False(t, CanTransition(EstadoCerrada, to))
	}
}

func TestPriorEstado_EsElInversoDelGrafo(t *testing.T) {
	assert.Equal(t, EstadoBorrador, PriorEstado(EstadoAprobada))
	assert.Equal(t, EstadoAprobada, PriorEstado(EstadoEnEjecucion))
	assert.Equal(t, EstadoEnEjecucion, PriorEstado(EstadoCerrada))

	// borrador no es destino de ninguna transición
	assert.Equal(t, "", PriorEstado(EstadoBorrador))
}

func TestNumeroDisplay(t *testing.T) {
	orden := WorkOrder{Numero: 7}
	assert.Equal(t, "OT-0007", orden.NumeroDisplay())

	orden.Numero = 1234
	assert.Equal(t, "OT-1234", orden.NumeroDisplay())
}

func TestFormulaEntryPrecio(t *testing.T) {
	ref := 100.0
	unit := 80.0

	entry := FormulaEntry{PrecioReferencia: &ref, PrecioUnitario: &unit}
	assert.Equal(t, 100.0, entry.Precio(), "precio de referencia tiene prioridad")

	entry = FormulaEntry{PrecioUnitario: &unit}
	assert.Equal(t, 80.0, entry.Precio())

	entry = FormulaEntry{}
	assert.Equal(t, 0.0, entry.Precio(), "sin precio se usa 0, nunca error")
}
