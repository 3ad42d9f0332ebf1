// Package pdf implementa el reporte imprimible del libro de movimientos de
// stock.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha de emisión                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FILTROS: producto / ubicación / tipo aplicados             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Producto | Ubic. | Tipo | Cant | Ant→Nuevo  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: movimientos listados + delta neto                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appledger "github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorGreen   = &props.Color{Red: 20, Green: 110, Blue: 50}
)

var _ appledger.ReportGenerator = (*MarotoReportGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa ledger.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateMovementReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateMovementReport(
	_ context.Context,
	filter repository.MovementFilter,
	movements []*entity.StockMovement,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Libro de Movimientos de Stock", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow())
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(filterRow(filter))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableMovementRows(movements) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(movements))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y fecha de emisión (der).
func headerRow() core.Row {
	emitido := time.Now().Format("02/01/2006 15:04")
	return row.New(14).Add(
		col.New(8).Add(
			text.New("LIBRO DE MOVIMIENTOS DE STOCK", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Auditoría de entradas, salidas y ajustes por ubicación", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Emitido: "+emitido, props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

// filterRow: filtros aplicados al listado.
func filterRow(filter repository.MovementFilter) core.Row {
	variant := "—"
	if filter.VariantID != nil {
		variant = *filter.VariantID
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("FILTROS APLICADOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Producto: %s   |   Variante: %s   |   Ubicación: %s   |   Tipo: %s",
				nonEmpty(filter.ProductID, "todos"),
				variant,
				nonEmpty(filter.Location, "todas"),
				nonEmpty(filter.MovementType, "todos"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Producto", 3, align.Left),
		h("Ubicación", 2, align.Left),
		h("Tipo", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("Ant. → Nuevo", 2, align.Right),
		h("Usuario", 1, align.Left),
	)
}

// tableMovementRows: una fila por movimiento; entradas en verde, salidas en rojo.
func tableMovementRows(movements []*entity.StockMovement) []core.Row {
	result := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		qtyColor := colorGreen
		if mv.Quantity < 0 {
			qtyColor = colorRed
		}
		producto := mv.ProductID
		if mv.VariantID != nil {
			producto += " / " + *mv.VariantID
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				mv.CreatedAt.Format("02/01/2006 15:04"),
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(3).Add(text.New(
				producto,
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				mv.Location,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(
				mv.MovementType,
				props.Text{Size: 7, Align: align.Center, Top: 1},
			)),
			col.New(1).Add(text.New(
				fmt.Sprintf("%+d", mv.Quantity),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: qtyColor},
			)),
			col.New(2).Add(text.New(
				fmt.Sprintf("%d → %d", mv.PreviousStock, mv.NewStock),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				nonEmpty(mv.UserName, "—"),
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
		))
	}
	return result
}

// summaryRow: cantidad de movimientos listados y delta neto acumulado.
func summaryRow(movements []*entity.StockMovement) core.Row {
	neto := 0
	for _, mv := range movements {
		neto += mv.Quantity
	}
	netoColor := colorGreen
	if neto < 0 {
		netoColor = colorRed
	}
	return row.New(12).Add(
		col.New(6).Add(
			text.New(fmt.Sprintf("Movimientos listados: %d", len(movements)), props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 2,
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Delta neto: %+d unidades", neto), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: netoColor, Top: 2,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
