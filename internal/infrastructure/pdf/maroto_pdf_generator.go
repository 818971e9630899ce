// Package pdf genera la ficha de un lote de procesamiento.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código de lote + cultivo/lote │ Estado + fecha      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: cantidad inicial / vendido / disponible            │
//	│  PROCUREMENTS: agricultor | vereda | cantidad                │
//	│  ETAPAS: P# | método | responsable | inicial | final | estado│
//	│  VENTAS: fecha | etapa | cantidad                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el código de lote                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 94, Blue: 54}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 40, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ processing.BatchReportGenerator = (*MarotoBatchReport)(nil)

// MarotoBatchReport implementa processing.BatchReportGenerator usando Maroto v2.
type MarotoBatchReport struct{}

// NewMarotoBatchReport construye el generador.
func NewMarotoBatchReport() *MarotoBatchReport { return &MarotoBatchReport{} }

// GenerateBatchReport genera el PDF y devuelve sus bytes.
func (g *MarotoBatchReport) GenerateBatchReport(_ context.Context, d *dto.ProcessingBatchDetail) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Ficha de lote "+d.BatchCode, true).
		WithAuthor(nonEmpty(d.CreatedBy.Name, "Procesamiento"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(d))

	m.AddRows(sectionTitle("PROCUREMENTS"))
	m.AddRows(tableHeader([]string{"Agricultor", "Vereda", "Cultivo / Lote", "Cantidad"}, []int{4, 3, 3, 2}))
	for _, p := range d.Procurements {
		m.AddRows(tableRow([]string{
			nonEmpty(p.FarmerName, "—"),
			nonEmpty(p.FarmerVillage, "—"),
			fmt.Sprintf("%s / %d", p.Crop, p.LotNo),
			formatQuantity(p.Quantity),
		}, []int{4, 3, 3, 2}))
	}

	m.AddRows(sectionTitle("ETAPAS DE PROCESAMIENTO"))
	stageCols := []int{1, 3, 2, 2, 2, 2}
	m.AddRows(tableHeader([]string{"P#", "Método", "Responsable", "Inicial", "Final", "Estado"}, stageCols))
	for _, s := range d.ProcessingStages {
		final := "—"
		if s.QuantityAfterProcess != nil {
			final = formatQuantity(*s.QuantityAfterProcess)
		}
		m.AddRows(tableRow([]string{
			fmt.Sprintf("P%d", s.ProcessingCount),
			s.ProcessMethod,
			s.DoneBy,
			formatQuantity(s.InitialQuantity),
			final,
			s.Status,
		}, stageCols))
	}

	if len(d.Sales) > 0 {
		m.AddRows(sectionTitle("VENTAS"))
		m.AddRows(tableHeader([]string{"Fecha", "Etapa", "Cantidad"}, []int{4, 4, 4}))
		for _, s := range d.Sales {
			m.AddRows(tableRow([]string{
				s.DateOfSale.Format("02/01/2006"),
				fmt.Sprintf("P%d", s.ProcessingCount),
				formatQuantity(s.QuantitySold),
			}, []int{4, 4, 4}))
		}
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(d.BatchCode))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: código de lote y cultivo (izq), estado y fecha de creación (der).
func headerRow(d *dto.ProcessingBatchDetail) core.Row {
	statusColor := colorPrimary
	if d.Status == "SOLD_OUT" || d.Status == "CANCELLED" {
		statusColor = colorAlert
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(d.BatchCode, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Cultivo: %s   |   Lote: %d", d.Crop, d.LotNo), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FICHA DE LOTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(strings.ReplaceAll(d.Status, "_", " "), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7, Color: statusColor,
			}),
			text.New("Creado: "+d.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// summaryRow: cantidades del lote con el disponible resaltado.
func summaryRow(d *dto.ProcessingBatchDetail) core.Row {
	cell := func(label, value string, c *props.Color) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Color: c, Top: 6, Align: align.Center}),
		)
	}
	availableColor := colorPrimary
	if !d.NetAvailableQuantity.IsPositive() {
		availableColor = colorAlert
	}
	return row.New(14).Add(
		cell("Cantidad inicial", formatQuantity(d.InitialBatchQuantity), colorPrimary),
		cell("Total vendido", formatQuantity(d.TotalQuantitySoldFromBatch), colorPrimary),
		cell("Disponible", formatQuantity(d.NetAvailableQuantity), availableColor),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 3}),
	))
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func tableRow(values []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		cols = append(cols, col.New(sizes[i]).Add(text.New(v, props.Text{Size: 8, Top: 1, Left: 1})))
	}
	return row.New(6).Add(cols...)
}

// footerRow: QR con el código del lote para rotular sacos.
func footerRow(batchCode string) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(batchCode, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanee el código para identificar el lote en planta.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New(batchCode, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 14, Left: 3, Color: colorPrimary,
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

// formatQuantity dos decimales con puntos de miles y coma decimal.
// Ej: 25000.5 → "25.000,50", -10 → "-10,00"
func formatQuantity(q decimal.Decimal) string {
	s := q.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	if q.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf) + "," + frac
}
