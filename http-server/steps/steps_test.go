package steps

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quality-plans/internal/catalog"
	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

// MockPlanEditor records the call and runs the edit against an in-memory
// document.
type MockPlanEditor struct {
	mock.Mock
	doc *plan.Document
}

func newEditor() *MockPlanEditor {
	return &MockPlanEditor{
		doc: plan.NewDocument(catalog.Default(), plan.WithIDGenerator(&plan.SequenceGenerator{})),
	}
}

func (m *MockPlanEditor) Edit(ctx context.Context, id string, fn func(doc *plan.Document) error) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	if err := fn(m.doc); err != nil {
		return nil, err
	}
	p := m.doc.Plan()
	return &p, nil
}

func newRouter(m *MockPlanEditor) *chi.Mux {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Post("/plans/{id}/steps", AddStep(log, m))
	r.Put("/plans/{id}/steps/{stepId}", UpdateStep(log, m))
	r.Delete("/plans/{id}/steps/{stepId}", DeleteStep(log, m))
	r.Post("/plans/{id}/steps/reorder", ReorderSteps(log, m))
	r.Put("/plans/{id}/graphic-step", CurateGraphicStep(log, m))
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAddStep(t *testing.T) {
	m := newEditor()
	m.On("Edit", mock.Anything, "plan-1").Return(nil)
	r := newRouter(m)

	rr := do(r, http.MethodPost, "/plans/plan-1/steps", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp StepResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, plan.GraphicStepName, resp.Step.Name)
	assert.Len(t, resp.Plan.Steps, 1)

	rr = do(r, http.MethodPost, "/plans/plan-1/steps", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Nova Etapa 2", resp.Step.Name)
	m.AssertExpectations(t)
}

func TestAddStep_PlanNotFound(t *testing.T) {
	m := newEditor()
	m.On("Edit", mock.Anything, "missing").Return(storage.ErrPlanNotFound)

	rr := do(newRouter(m), http.MethodPost, "/plans/missing/steps", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateStep(t *testing.T) {
	m := newEditor()
	m.doc.AddStep()
	other := m.doc.AddStep()
	m.On("Edit", mock.Anything, "plan-1").Return(nil)
	r := newRouter(m)

	rr := do(r, http.MethodPut, "/plans/plan-1/steps/"+other.ID,
		`{"name":"Dimensional","description":"Medidas","required":true,"estimatedTime":12}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StepResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, other.ID, resp.Step.ID)
	assert.Equal(t, "Dimensional", resp.Step.Name)
	assert.Equal(t, 12, resp.Step.EstimatedTime)

	rr = do(r, http.MethodPut, "/plans/plan-1/steps/"+other.ID, `{"name":"`+plan.GraphicStepName+`"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(r, http.MethodPut, "/plans/plan-1/steps/missing", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(r, http.MethodPut, "/plans/plan-1/steps/"+other.ID, `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteStep(t *testing.T) {
	m := newEditor()
	graphic := m.doc.AddStep()
	other := m.doc.AddStep()
	m.On("Edit", mock.Anything, "plan-1").Return(nil)
	r := newRouter(m)

	rr := do(r, http.MethodDelete, "/plans/plan-1/steps/"+graphic.ID, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(r, http.MethodDelete, "/plans/plan-1/steps/"+other.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, m.doc.Steps(), 1)
}

func TestReorderSteps(t *testing.T) {
	m := newEditor()
	m.doc.AddStep()
	a := m.doc.AddStep()
	b := m.doc.AddStep()
	m.On("Edit", mock.Anything, "plan-1").Return(nil)
	r := newRouter(m)

	rr := do(r, http.MethodPost, "/plans/plan-1/steps/reorder", `{"from":2,"to":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	steps := m.doc.Steps()
	assert.Equal(t, b.ID, steps[1].ID)
	assert.Equal(t, a.ID, steps[2].ID)

	rr = do(r, http.MethodPost, "/plans/plan-1/steps/reorder", `{"from":0,"to":2}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(r, http.MethodPost, "/plans/plan-1/steps/reorder", `{"from":1,"to":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(r, http.MethodPost, "/plans/plan-1/steps/reorder", `{"from":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCurateGraphicStep(t *testing.T) {
	m := newEditor()
	m.doc.AddStep()
	m.On("Edit", mock.Anything, "plan-1").Return(nil)
	r := newRouter(m)

	rr := do(r, http.MethodPut, "/plans/plan-1/graphic-step", `{"fields":["embalagem","material_conforme"]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StepResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Step.Fields, 2)
	assert.Equal(t, "Embalagem", resp.Step.Fields[0].Name)
	assert.Equal(t, "Material está conforme?", resp.Step.Fields[1].Name)

	rr = do(r, http.MethodPut, "/plans/plan-1/graphic-step", `{"fields":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	g, _ := m.doc.GraphicStep()
	assert.Len(t, g.Fields, 2)

	rr = do(r, http.MethodPut, "/plans/plan-1/graphic-step", `{"fields":["nope"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCurateGraphicStep_NoGraphicStep(t *testing.T) {
	m := newEditor()
	m.On("Edit", mock.Anything, "plan-1").Return(nil)

	rr := do(newRouter(m), http.MethodPut, "/plans/plan-1/graphic-step", `{"fields":["embalagem"]}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
