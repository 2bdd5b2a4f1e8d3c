package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quality-plans/internal/catalog"
	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

type MockChecklistStorage struct {
	mock.Mock
}

func (m *MockChecklistStorage) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockChecklistStorage) PlanRevisions(ctx context.Context, id string) ([]storage.Revision, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Revision), args.Error(1)
}

func samplePlan(t *testing.T) *plan.Plan {
	t.Helper()
	doc := plan.NewDocument(catalog.Default(), plan.WithIDGenerator(&plan.SequenceGenerator{}))
	doc.AddProduct(plan.Product{ID: "p1", Code: "4001", Description: "Ventilador", Voltage: "127V"})
	doc.AddStep()
	doc.AddStep()
	_, err := doc.AddStandardQuestion("packaging_external")
	require.NoError(t, err)
	p := doc.Plan()
	p.ID = "plan-1"
	return &p
}

func TestGenerateExcel(t *testing.T) {
	st := new(MockChecklistStorage)
	svc := NewChecklistService(st)

	p := samplePlan(t)
	st.On("GetPlan", mock.Anything, "plan-1").Return(p, nil)
	st.On("PlanRevisions", mock.Anything, "plan-1").Return([]storage.Revision{
		{PlanID: "plan-1", Revision: 1, Name: p.Name, Status: "draft", UpdatedBy: "ana", CreatedAt: time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)},
	}, nil)

	data, got, err := svc.GenerateExcel(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPlan, SheetRevisions}, f.GetSheetList())

	rows, err := f.GetRows(SheetPlan)
	require.NoError(t, err)
	assert.Equal(t, []string{"Plano", "PLANO DE INSPEÇÃO - Ventilador"}, rows[0])
	assert.Equal(t, "Rascunho", rows[2][1])
	assert.Equal(t, "4001 - Ventilador (127V)", rows[4][1])
	assert.Equal(t, fieldHeaders, rows[7])
	assert.Equal(t, "1. INSPEÇÃO MATERIAL GRÁFICO (10 min)", rows[8][0])
	assert.Equal(t, []string{"1.1", "Etiqueta Principal", "Foto", "Sim", "1 foto(s)"}, rows[9])

	// 7 catalog fields and the question in the graphic step, then step 2
	assert.Equal(t, "Pergunta", rows[16][2])
	assert.Contains(t, rows[16][4], "Sim / Não")
	assert.Equal(t, "2. Nova Etapa 2 (5 min)", rows[17][0])
	assert.Len(t, rows, 18)

	revs, err := f.GetRows(SheetRevisions)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, []string{"1", p.Name, "Rascunho", "ana", "03/02/2025 09:30"}, revs[1])
}

func TestGenerateExcel_NotFound(t *testing.T) {
	st := new(MockChecklistStorage)
	svc := NewChecklistService(st)

	st.On("GetPlan", mock.Anything, "missing").Return(nil, storage.ErrPlanNotFound)
	st.On("PlanRevisions", mock.Anything, "missing").Return(nil, storage.ErrPlanNotFound)

	_, _, err := svc.GenerateExcel(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrPlanNotFound)
}

func TestFieldDetails(t *testing.T) {
	f := plan.Field{
		Type:        plan.FieldSelect,
		Options:     []string{"A", "B"},
		Conditional: &plan.Conditional{DependsOn: "Embalagem", Condition: plan.ConditionRejected},
	}
	assert.Equal(t, `opções: A / B; se "Embalagem" = rejected`, fieldDetails(f))

	assert.Empty(t, fieldDetails(plan.Field{Type: plan.FieldText}))
}
