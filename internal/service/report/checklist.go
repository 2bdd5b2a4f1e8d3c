package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

const (
	SheetPlan      = "Plano"
	SheetRevisions = "Revisões"
)

type ChecklistStorage interface {
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	PlanRevisions(ctx context.Context, id string) ([]storage.Revision, error)
}

// ChecklistService renders a plan as a printable spreadsheet: one row per
// field grouped by step, with an empty result column for the inspector.
type ChecklistService struct {
	storage ChecklistStorage
}

func NewChecklistService(storage ChecklistStorage) *ChecklistService {
	return &ChecklistService{storage: storage}
}

var fieldHeaders = []string{"Ordem", "Campo", "Tipo", "Obrigatório", "Detalhes", "Resultado", "Observações"}

func (c *ChecklistService) GenerateExcel(ctx context.Context, id string) ([]byte, *plan.Plan, error) {
	const op = "service.report.GenerateExcel"

	var (
		p         *plan.Plan
		revisions []storage.Revision
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = c.storage.GetPlan(gCtx, id)
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		revisions, err = c.storage.PlanRevisions(gCtx, id)
		if err != nil {
			return fmt.Errorf("revisions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPlan); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(SheetRevisions); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	stepStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "1F4E79"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	writePlanSheet(f, p, headerStyle, stepStyle)
	writeRevisionSheet(f, revisions, headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), p, nil
}

func writePlanSheet(f *excelize.File, p *plan.Plan, headerStyle, stepStyle int) {
	sheet := SheetPlan

	header := [][2]any{
		{"Plano", p.Name},
		{"Revisão", p.Revision},
		{"Status", statusLabel(p.Status)},
		{"Válido até", p.ValidUntil.Format("02/01/2006")},
		{"Produtos", productList(p.Products)},
		{"Tags", strings.Join(p.Tags, ", ")},
	}
	for i, kv := range header {
		row := i + 1
		f.SetCellValue(sheet, cellName(1, row), kv[0])
		f.SetCellValue(sheet, cellName(2, row), kv[1])
		f.SetCellStyle(sheet, cellName(1, row), cellName(1, row), headerStyle)
	}

	row := len(header) + 2
	for i, name := range fieldHeaders {
		f.SetCellValue(sheet, cellName(i+1, row), name)
	}
	f.SetCellStyle(sheet, cellName(1, row), cellName(len(fieldHeaders), row), headerStyle)
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      row,
		TopLeftCell: cellName(1, row+1),
		ActivePane:  "bottomLeft",
	})

	for _, s := range p.Steps {
		row++
		title := fmt.Sprintf("%d. %s (%d min)", s.Order, s.Name, s.EstimatedTime)
		f.SetCellValue(sheet, cellName(1, row), title)
		f.MergeCell(sheet, cellName(1, row), cellName(len(fieldHeaders), row))
		f.SetCellStyle(sheet, cellName(1, row), cellName(len(fieldHeaders), row), stepStyle)

		for j, fld := range s.Fields {
			row++
			f.SetCellValue(sheet, cellName(1, row), fmt.Sprintf("%d.%d", s.Order, j+1))
			f.SetCellValue(sheet, cellName(2, row), fld.Name)
			f.SetCellValue(sheet, cellName(3, row), fieldTypeLabel(fld.Type))
			f.SetCellValue(sheet, cellName(4, row), yesNo(fld.Required))
			f.SetCellValue(sheet, cellName(5, row), fieldDetails(fld))
		}
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 48)
	f.SetColWidth(sheet, "C", "D", 14)
	f.SetColWidth(sheet, "E", "E", 40)
	f.SetColWidth(sheet, "F", "G", 24)
}

func writeRevisionSheet(f *excelize.File, revisions []storage.Revision, headerStyle int) {
	sheet := SheetRevisions

	headers := []string{"Revisão", "Nome", "Status", "Atualizado por", "Data"}
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), headerStyle)

	for i, r := range revisions {
		row := i + 2
		f.SetCellValue(sheet, cellName(1, row), r.Revision)
		f.SetCellValue(sheet, cellName(2, row), r.Name)
		f.SetCellValue(sheet, cellName(3, row), statusLabel(plan.Status(r.Status)))
		f.SetCellValue(sheet, cellName(4, row), r.UpdatedBy)
		f.SetCellValue(sheet, cellName(5, row), r.CreatedAt.Format("02/01/2006 15:04"))
	}
	f.SetColWidth(sheet, "B", "B", 48)
	f.SetColWidth(sheet, "D", "E", 20)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func productList(products []plan.Product) string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, fmt.Sprintf("%s - %s (%s)", p.Code, p.Description, p.Voltage))
	}
	return strings.Join(out, "; ")
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

func statusLabel(s plan.Status) string {
	switch s {
	case plan.StatusDraft:
		return "Rascunho"
	case plan.StatusActive:
		return "Ativo"
	case plan.StatusExpired:
		return "Expirado"
	case plan.StatusArchived:
		return "Arquivado"
	}
	return string(s)
}

func fieldTypeLabel(t plan.FieldType) string {
	switch t {
	case plan.FieldText:
		return "Texto"
	case plan.FieldNumber:
		return "Número"
	case plan.FieldSelect:
		return "Seleção"
	case plan.FieldCheckbox:
		return "Checkbox"
	case plan.FieldPhoto:
		return "Foto"
	case plan.FieldFile:
		return "Arquivo"
	case plan.FieldTextarea:
		return "Texto longo"
	case plan.FieldLabel:
		return "Etiqueta"
	case plan.FieldQuestion:
		return "Pergunta"
	}
	return string(t)
}

func fieldDetails(f plan.Field) string {
	var parts []string
	if f.Photo != nil {
		parts = append(parts, fmt.Sprintf("%d foto(s)", f.Photo.Quantity))
		if f.Photo.CompareWithStandard {
			parts = append(parts, "comparar com padrão")
		}
	}
	if len(f.Options) > 0 {
		parts = append(parts, "opções: "+strings.Join(f.Options, " / "))
	}
	if f.Label != nil {
		parts = append(parts, "comparação: "+string(f.Label.ComparisonType))
		if f.Label.RequiresPhoto {
			parts = append(parts, "requer foto")
		}
	}
	if f.Question != nil && len(f.Question.Options) > 0 {
		parts = append(parts, "respostas: "+strings.Join(f.Question.Options, " / "))
	}
	if f.Conditional != nil && f.Conditional.DependsOn != "" {
		parts = append(parts, fmt.Sprintf("se %q = %s", f.Conditional.DependsOn, f.Conditional.Condition))
	}
	return strings.Join(parts, "; ")
}
