// Package pdf genera el listado exportable del equipo de un negocio.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre del negocio + slug  │  Fecha de generación  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: total de miembros por estado                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Nombre | Email | Rol | Estado | Ingreso              │
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

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ team.RosterRenderer = (*RosterGenerator)(nil)

// RosterGenerator implementa team.RosterRenderer con Maroto v2.
type RosterGenerator struct{}

// NewRosterGenerator construye el generador.
func NewRosterGenerator() *RosterGenerator { return &RosterGenerator{} }

// RenderRoster genera el PDF y devuelve sus bytes.
func (g *RosterGenerator) RenderRoster(
	ctx context.Context,
	business *entity.Business,
	members []*entity.MemberView,
	generatedAt time.Time,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Equipo de "+business.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(business, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(members))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(memberRows(members)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar listado: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(b *entity.Business, generatedAt time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(b.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(b.Slug, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("EQUIPO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+generatedAt.UTC().Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// summaryRow: totales por estado.
func summaryRow(members []*entity.MemberView) core.Row {
	counts := map[string]int{}
	for _, mv := range members {
		counts[mv.Status]++
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Miembros: %d   |   Activos: %d   |   Suspendidos: %d",
			len(members), counts[entity.MembershipActive], counts[entity.MembershipSuspended],
		), props.Text{Size: 8, Top: 2, Color: colorGray}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Nombre", 3, align.Left),
		h("Email", 4, align.Left),
		h("Rol", 2, align.Center),
		h("Estado", 1, align.Center),
		h("Ingreso", 2, align.Right),
	)
}

// memberRows: una fila por miembro, en el orden recibido.
func memberRows(members []*entity.MemberView) []core.Row {
	out := make([]core.Row, 0, len(members))
	for _, mv := range members {
		joined := "—"
		if mv.JoinedAt != nil {
			joined = mv.JoinedAt.UTC().Format("02/01/2006")
		}
		out = append(out, row.New(7).Add(
			col.New(3).Add(text.New(nonEmpty(mv.DisplayName, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(mv.Email, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(mv.Role.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(mv.Status, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(joined, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
