// Package report renders an obra's work-order rollup as an xlsx workbook.
package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"gestion-obras/internal/storage"
)

type ReportStorage interface {
	GetObra(ctx context.Context, id int64) (*storage.Obra, error)
	GetRubrosByObra(ctx context.Context, obraID int64) ([]*storage.Rubro, error)
	ListWorkOrders(ctx context.Context, filter storage.WorkOrderFilter) ([]*storage.WorkOrder, error)
}

type Service struct {
	storage ReportStorage
}

func NewService(storage ReportStorage) *Service {
	return &Service{storage: storage}
}

var headers = []string{
	"Número", "Rubro", "Descripción", "Cantidad", "Estado",
	"Costo estimado", "Costo real", "Desvío",
}

// GenerateExcel builds the workbook for one obra: one row per non-deleted
// work order, with the deviation column filled only for closed orders.
func (g *Service) GenerateExcel(ctx context.Context, obraID int64) ([]byte, error) {
	const op = "service.report.GenerateExcel"

	obra, err := g.storage.GetObra(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rubros, err := g.storage.GetRubrosByObra(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rubroNombre := make(map[int64]string, len(rubros))
	for _, r := range rubros {
		rubroNombre[r.ID] = r.Nombre
	}

	ordenes, err := g.storage.ListWorkOrders(ctx, storage.WorkOrderFilter{ObraID: obraID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Órdenes de trabajo"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Obra: %s", obra.Nombre))
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 2)
	f.SetCellStyle(sheet, "A2", lastCol, headerStyle)

	for rowIdx, orden := range ordenes {
		rowNum := rowIdx + 3

		f.SetCellValue(sheet, cellName(1, rowNum), orden.NumeroDisplay())
		f.SetCellValue(sheet, cellName(2, rowNum), rubroNombre[orden.RubroID])
		f.SetCellValue(sheet, cellName(3, rowNum), orden.Descripcion)
		f.SetCellValue(sheet, cellName(4, rowNum), orden.Cantidad)
		f.SetCellValue(sheet, cellName(5, rowNum), orden.Estado)
		f.SetCellValue(sheet, cellName(6, rowNum), orden.CostoEstimado)
		if orden.CostoReal != nil {
			f.SetCellValue(sheet, cellName(7, rowNum), *orden.CostoReal)
			f.SetCellValue(sheet, cellName(8, rowNum), *orden.CostoReal-orden.CostoEstimado)
		}
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      2,
		TopLeftCell: "A3",
	})
	f.SetColWidth(sheet, "A", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
