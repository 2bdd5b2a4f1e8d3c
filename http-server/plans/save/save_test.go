package save

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quality-plans/internal/plan"
	"quality-plans/internal/service/plans"
	"quality-plans/internal/storage"
)

type MockPlanCreator struct {
	mock.Mock
}

func (m *MockPlanCreator) Create(ctx context.Context, d plan.Draft) (*plan.Plan, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanCreator) Duplicate(ctx context.Context, id string) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanCreator) Import(ctx context.Context, data []byte) (*plan.Plan, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func newRouter(creator PlanCreator) *chi.Mux {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Post("/plans", SavePlan(log, creator))
	r.Post("/plans/import", ImportPlan(log, creator))
	r.Post("/plans/{id}/duplicate", DuplicatePlan(log, creator))
	return r
}

func TestSavePlan(t *testing.T) {
	creator := new(MockPlanCreator)
	creator.On("Create", mock.Anything, mock.MatchedBy(func(d plan.Draft) bool {
		return d.Name == "Plano Secador" && d.ValidUntil.String() == "2025-12-31"
	})).Return(&plan.Plan{ID: "plan-1", Name: "Plano Secador"}, nil)

	body := `{"name":"Plano Secador","revision":1,"status":"draft","validUntil":"2025-12-31","steps":[]}`
	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newRouter(creator).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp plan.Plan
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "plan-1", resp.ID)
	creator.AssertExpectations(t)
}

func TestSavePlan_BadJSON(t *testing.T) {
	creator := new(MockPlanCreator)

	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(`{"name":`))
	rr := httptest.NewRecorder()
	newRouter(creator).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	creator.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSavePlan_Validation(t *testing.T) {
	creator := new(MockPlanCreator)
	creator.On("Create", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("service.plans.Create: %w", plan.ErrEmptyPlanName))

	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(`{"name":""}`))
	rr := httptest.NewRecorder()
	newRouter(creator).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), plan.ErrEmptyPlanName.Error())
}

func TestDuplicatePlan(t *testing.T) {
	creator := new(MockPlanCreator)
	creator.On("Duplicate", mock.Anything, "plan-1").
		Return(&plan.Plan{ID: "plan-2", Name: "Plano (Cópia)", Revision: 2}, nil)

	req := httptest.NewRequest(http.MethodPost, "/plans/plan-1/duplicate", nil)
	rr := httptest.NewRecorder()
	newRouter(creator).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp plan.Plan
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "Plano (Cópia)", resp.Name)
}

func TestDuplicatePlan_NotFound(t *testing.T) {
	creator := new(MockPlanCreator)
	creator.On("Duplicate", mock.Anything, "missing").Return(nil, storage.ErrPlanNotFound)

	req := httptest.NewRequest(http.MethodPost, "/plans/missing/duplicate", nil)
	rr := httptest.NewRecorder()
	newRouter(creator).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestImportPlan(t *testing.T) {
	creator := new(MockPlanCreator)
	body := `{"id":"plan-1","name":"Plano"}`
	creator.On("Import", mock.Anything, []byte(body)).Return(&plan.Plan{ID: "plan-1"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/plans/import", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newRouter(creator).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	creator.AssertExpectations(t)
}

func TestImportPlan_Errors(t *testing.T) {
	creator := new(MockPlanCreator)
	creator.On("Import", mock.Anything, []byte("nope")).Return(nil, fmt.Errorf("x: %w", plans.ErrInvalidPayload))
	creator.On("Import", mock.Anything, []byte("dup")).Return(nil, storage.ErrPlanExists)

	for body, want := range map[string]int{"nope": http.StatusBadRequest, "dup": http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/plans/import", strings.NewReader(body))
		rr := httptest.NewRecorder()
		newRouter(creator).ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, body)
	}
}
