package costing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gestion-obras/internal/storage"
)

type MockCostingStorage struct {
	mock.Mock
}

func (m *MockCostingStorage) GetRubro(ctx context.Context, id int64) (*storage.Rubro, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Rubro), args.Error(1)
}

func (m *MockCostingStorage) GetFormulaEntries(ctx context.Context, rubroID int64) ([]*storage.FormulaEntry, error) {
	args := m.Called(ctx, rubroID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.FormulaEntry), args.Error(1)
}

func floatPtr(v float64) *float64 { return &v }

func TestCompute_SumaDeLineas(t *testing.T) {
	entries := []*storage.FormulaEntry{
		{InsumoID: 1, Coeficiente: 10, PrecioReferencia: floatPtr(100)},
		{InsumoID: 2, Coeficiente: 5, PrecioReferencia: floatPtr(200)},
		{InsumoID: 3, Coeficiente: 20, PrecioReferencia: floatPtr(50)},
	}

	est := Compute(entries, 1)

	assert.Len(t, est.Lineas, 3)
	assert.Equal(t, 1000.0, est.Lineas[0].Costo)
	assert.Equal(t, 1000.0, est.Lineas[1].Costo)
	assert.Equal(t, 1000.0, est.Lineas[2].Costo)
	assert.Equal(t, 3000.0, est.Total)
}

func TestCompute_EscalaPorCantidad(t *testing.T) {
	entries := []*storage.FormulaEntry{
		{InsumoID: 1, Coeficiente: 2, PrecioReferencia: floatPtr(10)},
	}

	est := Compute(entries, 7.5)

	assert.Equal(t, 15.0, est.Lineas[0].Cantidad)
	assert.Equal(t, 150.0, est.Total)
}

func TestCompute_PrecioFaltanteContribuyeCero(t *testing.T) {
	entries := []*storage.FormulaEntry{
		{InsumoID: 1, Coeficiente: 3, PrecioReferencia: floatPtr(100)},
		{InsumoID: 2, Coeficiente: 4}, // sin precio en ninguna columna
	}

	est := Compute(entries, 2)

	assert.Len(t, est.Lineas, 2)
	assert.Equal(t, 600.0, est.Lineas[0].Costo)
	assert.Equal(t, 0.0, est.Lineas[1].Costo)
	assert.Equal(t, 8.0, est.Lineas[1].Cantidad, "la cantidad se calcula aunque no haya precio")
	assert.Equal(t, 600.0, est.Total)
}

func TestCompute_PrecioUnitarioComoRespaldo(t *testing.T) {
	entries := []*storage.FormulaEntry{
		{InsumoID: 1, Coeficiente: 1, PrecioUnitario: floatPtr(25)},
	}

	est := Compute(entries, 4)
	assert.Equal(t, 100.0, est.Total)
}

func TestCompute_SinFormulaDevuelveVacio(t *testing.T) {
	est := Compute(nil, 10)

	assert.Empty(t, est.Lineas)
	assert.Equal(t, 0.0, est.Total)
}

func TestEstimate_BuscaRubroYFormula(t *testing.T) {
	mockStorage := new(MockCostingStorage)
	mockStorage.On("GetRubro", mock.Anything, int64(5)).
		Return(&storage.Rubro{ID: 5, Presupuesto: 10000}, nil)
	mockStorage.On("GetFormulaEntries", mock.Anything, int64(5)).
		Return([]*storage.FormulaEntry{
			{InsumoID: 1, Coeficiente: 2, PrecioReferencia: floatPtr(50)},
		}, nil)

	svc := NewService(mockStorage)
	est, err := svc.Estimate(context.Background(), 5, 10)

	assert.NoError(t, err)
	assert.Equal(t, 1000.0, est.Total)
	mockStorage.AssertExpectations(t)
}

func TestEstimate_RubroInexistente(t *testing.T) {
	mockStorage := new(MockCostingStorage)
	mockStorage.On("GetRubro", mock.Anything, int64(99)).
		Return(nil, storage.ErrRubroNotFound)
	mockStorage.On("GetFormulaEntries", mock.Anything, int64(99)).
		Return([]*storage.FormulaEntry{}, nil).Maybe()

	svc := NewService(mockStorage)
	_, err := svc.Estimate(context.Background(), 99, 1)

	assert.ErrorIs(t, err, storage.ErrRubroNotFound)
}

func TestEstimate_ErrorDeFormula(t *testing.T) {
	mockStorage := new(MockCostingStorage)
	mockStorage.On("GetRubro", mock.Anything, int64(5)).
		Return(&storage.Rubro{ID: 5}, nil).Maybe()
	mockStorage.On("GetFormulaEntries", mock.Anything, int64(5)).
		Return(nil, errors.New("connection timeout"))

	svc := NewService(mockStorage)
	_, err := svc.Estimate(context.Background(), 5, 1)

	assert.Error(t, err)
}
