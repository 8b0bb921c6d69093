package mysql

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"gestion-obras/internal/storage"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	// conexión a la BD de prueba
	var err error
	testDB, err = sql.Open("mysql", "root:@tcp(mysql-8.0:3306)/test_obras?parseTime=true")
	if err != nil {
		panic(fmt.Errorf("no se pudo abrir la BD de prueba: %w", err))
	}
	defer testDB.Close()

	if err := testDB.Ping(); err != nil {
		panic(fmt.Errorf("ping failed: %w", err))
	}

	code := m.Run()

	os.Exit(code)
}

func cleanupTestDB(t *testing.T) {
	tables := []string{"ot_historial", "ot_insumos_estimados", "ot_tareas", "ordenes_trabajo", "rubro_formulas", "rubros", "obras"}
	for _, table := range tables {
		_, err := testDB.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func createTestObra(t *testing.T, nombre string) int64 {
	res, err := testDB.Exec(`INSERT INTO obras (nombre) VALUES (?)`, nombre)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func createTestRubro(t *testing.T, obraID int64, presupuesto float64) int64 {
	res, err := testDB.Exec(`
		INSERT INTO rubros (obra_id, nombre, unidad, presupuesto)
		VALUES (?, 'rubro de prueba', 'm3', ?)`, obraID, presupuesto)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

type ordenFixture struct {
	ObraID        int64
	RubroID       int64
	Numero        int
	Estado        string
	CostoEstimado float64
	CostoReal     *float64
	Deleted       bool
}

func createTestOrden(t *testing.T, fixture ordenFixture) int64 {
	estado := fixture.Estado
	if estado == "" {
		estado = storage.EstadoBorrador
	}

	var deletedAt interface{}
	if fixture.Deleted {
		deletedAt = "2026-01-15 10:00:00"
	}

	res, err := testDB.Exec(`
		INSERT INTO ordenes_trabajo
			(numero, obra_id, rubro_id, descripcion, cantidad, costo_estimado, costo_real, estado, creado_por, created_at, deleted_at)
		VALUES (?, ?, ?, 'orden de prueba', 1, ?, ?, ?, 1, NOW(), ?)`,
		fixture.Numero, fixture.ObraID, fixture.RubroID,
		fixture.CostoEstimado, fixture.CostoReal, estado, deletedAt)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
