package generate_excel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

type MockChecklistGenerator struct {
	mock.Mock
}

func (m *MockChecklistGenerator) GenerateExcel(ctx context.Context, id string) ([]byte, *plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(1) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*plan.Plan), args.Error(2)
}

func newRouter(m *MockChecklistGenerator) *chi.Mux {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Get("/plans/{id}/report/excel", GenerateChecklistExcel(log, m))
	return r
}

func TestGenerateChecklistExcel(t *testing.T) {
	m := new(MockChecklistGenerator)
	m.On("GenerateExcel", mock.Anything, "plan-1").
		Return([]byte("xlsx-bytes"), &plan.Plan{ID: "plan-1", Name: "Ventilador 220V", Revision: 3}, nil)

	req := httptest.NewRequest(http.MethodGet, "/plans/plan-1/report/excel", nil)
	rr := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=plano-ventilador-220v-rev3.xlsx", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx-bytes", rr.Body.String())
	m.AssertExpectations(t)
}

func TestGenerateChecklistExcel_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", storage.ErrPlanNotFound, http.StatusNotFound},
		{"internal", errors.New("excelize: boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockChecklistGenerator)
			m.On("GenerateExcel", mock.Anything, "plan-1").Return(nil, nil, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/plans/plan-1/report/excel", nil)
			rr := httptest.NewRecorder()
			newRouter(m).ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
		})
	}
}
