package plans

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quality-plans/internal/catalog"
	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

type MockPlanStorage struct {
	mock.Mock
}

func (m *MockPlanStorage) CreatePlan(ctx context.Context, d plan.Draft) (*plan.Plan, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanStorage) UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Plan, error) {
	args := m.Called(ctx, id, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanStorage) ImportPlan(ctx context.Context, p plan.Plan) (*plan.Plan, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanStorage) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func newService(st PlanStorage) *EditService {
	return NewEditService(st, catalog.Default(), plan.WithIDGenerator(&plan.SequenceGenerator{}))
}

func storedPlan() *plan.Plan {
	doc := plan.NewDocument(catalog.Default(), plan.WithIDGenerator(&plan.SequenceGenerator{}))
	doc.SetName("Plano Ventilador")
	doc.AddStep()
	doc.AddStep()
	p := doc.Plan()
	p.ID = "plan-1"
	p.Revision = 2
	p.Status = plan.StatusActive
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p.CreatedAt, p.UpdatedAt = &created, &created
	return &p
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	d := plan.Draft{Name: "Plano", Revision: 1, Status: plan.StatusDraft, Steps: []plan.Step{}}
	st.On("CreatePlan", ctx, mock.AnythingOfType("plan.Draft")).Return(&plan.Plan{ID: "plan-9"}, nil).Once()

	got, err := svc.Create(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "plan-9", got.ID)
	st.AssertExpectations(t)
}

func TestCreate_Invalid(t *testing.T) {
	st := new(MockPlanStorage)
	svc := newService(st)

	_, err := svc.Create(context.Background(), plan.Draft{Revision: 1, Status: plan.StatusDraft})
	assert.ErrorIs(t, err, plan.ErrEmptyPlanName)
	st.AssertNotCalled(t, "CreatePlan", mock.Anything, mock.Anything)
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	st.On("GetPlan", ctx, "missing").Return(nil, storage.ErrPlanNotFound)

	_, err := svc.Update(ctx, "missing", plan.Draft{Name: "x", Revision: 1, Status: plan.StatusDraft})
	assert.ErrorIs(t, err, storage.ErrPlanNotFound)
	st.AssertNotCalled(t, "UpdatePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_NameFollowsProducts(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	d := plan.Draft{
		Revision: 1,
		Status:   plan.StatusDraft,
		Products: []plan.Product{
			{ID: "p1", Code: "4001", Description: "Ventilador", Voltage: "127V"},
			{ID: "p1", Code: "4001", Description: "Ventilador", Voltage: "127V"},
			{ID: "p2", Code: "4002", Description: "Ventilador", Voltage: "220V"},
		},
		Tags: []string{"ventilação", " ventilação ", ""},
	}
	st.On("CreatePlan", ctx, mock.MatchedBy(func(d plan.Draft) bool {
		return d.Name == "PLANO DE INSPEÇÃO - Ventilador (127V / 220V)" &&
			len(d.Products) == 2 &&
			assert.ObjectsAreEqual([]string{"ventilação"}, d.Tags)
	})).Return(&plan.Plan{ID: "plan-9"}, nil).Once()

	_, err := svc.Create(ctx, d)
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestCreate_ManualNameReplacedByProducts(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	d := plan.Draft{
		Name:     "Qualquer nome",
		Revision: 1,
		Status:   plan.StatusDraft,
		Products: []plan.Product{{ID: "p1", Description: "Secador"}},
	}
	st.On("CreatePlan", ctx, mock.MatchedBy(func(d plan.Draft) bool {
		return d.Name == "PLANO DE INSPEÇÃO - Secador" && d.Products[0].Voltage == "N/A"
	})).Return(&plan.Plan{ID: "plan-9"}, nil).Once()

	_, err := svc.Create(ctx, d)
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestCreate_RejectsTwoGraphicSteps(t *testing.T) {
	st := new(MockPlanStorage)
	svc := newService(st)

	d := plan.Draft{
		Name:     "Plano",
		Revision: 1,
		Status:   plan.StatusDraft,
		Steps: []plan.Step{
			{ID: "g1", Name: plan.GraphicStepName},
			{ID: "g2", Name: plan.GraphicStepName},
		},
	}

	_, err := svc.Create(context.Background(), d)
	assert.ErrorIs(t, err, plan.ErrProtectedStep)
	st.AssertNotCalled(t, "CreatePlan", mock.Anything, mock.Anything)
}

func TestUpdate_MovesGraphicStepFirst(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	src := storedPlan()
	d := src.Draft()
	d.Steps = []plan.Step{src.Steps[1], src.Steps[0]}

	st.On("GetPlan", ctx, "plan-1").Return(src, nil)
	st.On("UpdatePlan", ctx, "plan-1", mock.MatchedBy(func(d plan.Draft) bool {
		return d.Steps[0].ID == src.Steps[0].ID && d.Steps[0].Order == 1 && d.Steps[1].Order == 2
	})).Return(src, nil).Once()

	_, err := svc.Update(ctx, "plan-1", d)
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestUpdate_KeepsGraphicStep(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	src := storedPlan()
	st.On("GetPlan", ctx, "plan-1").Return(src, nil)

	d := src.Draft()
	d.Steps = d.Steps[1:]
	_, err := svc.Update(ctx, "plan-1", d)
	assert.ErrorIs(t, err, plan.ErrProtectedStep)

	d.Steps = append(d.Steps, plan.Step{ID: "g2", Name: plan.GraphicStepName}, plan.Step{ID: "g3", Name: plan.GraphicStepName})
	_, err = svc.Update(ctx, "plan-1", d)
	assert.ErrorIs(t, err, plan.ErrProtectedStep)

	st.AssertNotCalled(t, "UpdatePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestDuplicate(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	src := storedPlan()
	st.On("GetPlan", ctx, "plan-1").Return(src, nil)
	st.On("CreatePlan", ctx, mock.MatchedBy(func(d plan.Draft) bool {
		return d.Name == "Plano Ventilador (Cópia)" &&
			d.Revision == 3 &&
			d.Status == plan.StatusDraft &&
			len(d.Steps) == 2 &&
			d.Steps[0].ID == src.Steps[0].ID
	})).Return(&plan.Plan{ID: "plan-2"}, nil).Once()

	got, err := svc.Duplicate(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-2", got.ID)
	assert.Equal(t, plan.StatusActive, src.Status)
	st.AssertExpectations(t)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	data, err := json.Marshal(storedPlan())
	require.NoError(t, err)

	st.On("ImportPlan", ctx, mock.MatchedBy(func(p plan.Plan) bool {
		return p.ID == "plan-1" && p.CreatedAt == nil && len(p.Steps) == 2
	})).Return(&plan.Plan{ID: "plan-1"}, nil).Once()

	got, err := svc.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "plan-1", got.ID)
	st.AssertExpectations(t)
}

func TestImport_Invalid(t *testing.T) {
	st := new(MockPlanStorage)
	svc := newService(st)

	_, err := svc.Import(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = svc.Import(context.Background(), []byte(`{"name":"","steps":[]}`))
	assert.ErrorIs(t, err, plan.ErrEmptyPlanName)

	st.On("ImportPlan", mock.Anything, mock.Anything).Return(nil, storage.ErrPlanExists)
	_, err = svc.Import(context.Background(), []byte(`{"id":"plan-1","name":"Plano"}`))
	assert.ErrorIs(t, err, storage.ErrPlanExists)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	st.On("GetPlan", ctx, "plan-1").Return(storedPlan(), nil)

	data, p, err := svc.Export(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", p.ID)

	var back plan.Plan
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p.Draft(), back.Draft())
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	src := storedPlan()
	st.On("GetPlan", ctx, "plan-1").Return(src, nil)
	st.On("UpdatePlan", ctx, "plan-1", mock.MatchedBy(func(d plan.Draft) bool {
		return len(d.Steps) == 3
	})).Return(src, nil).Once()

	got, err := svc.Edit(ctx, "plan-1", func(doc *plan.Document) error {
		doc.AddStep()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got.Steps, 3)
	st.AssertExpectations(t)
}

func TestEdit_RejectedEditIsNotSaved(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	src := storedPlan()
	st.On("GetPlan", ctx, "plan-1").Return(src, nil)

	_, err := svc.Edit(ctx, "plan-1", func(doc *plan.Document) error {
		g, _ := doc.GraphicStep()
		return doc.DeleteStep(g.ID)
	})
	assert.ErrorIs(t, err, plan.ErrProtectedStep)
	st.AssertNotCalled(t, "UpdatePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestEdit_StorageError(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	st.On("GetPlan", ctx, "plan-1").Return(storedPlan(), nil)
	st.On("UpdatePlan", ctx, "plan-1", mock.Anything).Return(nil, errors.New("deadlock"))

	_, err := svc.Edit(ctx, "plan-1", func(doc *plan.Document) error { return nil })
	assert.ErrorContains(t, err, "deadlock")
}

func TestEdit_StandardLabelSurvivesReload(t *testing.T) {
	ctx := context.Background()
	st := new(MockPlanStorage)
	svc := newService(st)

	src := storedPlan()
	var saved plan.Plan
	st.On("GetPlan", ctx, "plan-1").Return(src, nil).Once()
	st.On("UpdatePlan", ctx, "plan-1", mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(2).(plan.Draft).Plan()
		saved.ID = "plan-1"
	}).Return(src, nil).Once()

	_, err := svc.Edit(ctx, "plan-1", func(doc *plan.Document) error {
		_, err := doc.AddStandardLabel("ean")
		return err
	})
	require.NoError(t, err)

	st.On("GetPlan", ctx, "plan-1").Return(&saved, nil).Once()
	_, err = svc.Edit(ctx, "plan-1", func(doc *plan.Document) error {
		labels := doc.Labels()
		require.Len(t, labels, 1)
		assert.Equal(t, "EAN", labels[0].Name)
		for _, e := range doc.AvailableLabels() {
			assert.NotEqual(t, "ean", e.ID)
		}
		_, err := doc.AddStandardLabel("ean")
		return err
	})
	assert.ErrorIs(t, err, plan.ErrAlreadyAdded)
	st.AssertExpectations(t)
}
