package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"quality-plans/http-server/httperr"
	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

type PlanReader interface {
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	ListPlans(ctx context.Context, f storage.Filter) ([]storage.Summary, error)
	PlansByProduct(ctx context.Context, productID string) ([]storage.Summary, error)
	PlanRevisions(ctx context.Context, id string) ([]storage.Revision, error)
}

// GetPlans lists plans, optionally filtered by ?status= and ?product=.
func GetPlans(log *slog.Logger, reader PlanReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.GetPlans"

		filter := storage.Filter{
			Status:    plan.Status(r.URL.Query().Get("status")),
			ProductID: r.URL.Query().Get("product"),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		plans, err := reader.ListPlans(ctx, filter)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, plans)
	}
}

func GetPlan(log *slog.Logger, reader PlanReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.GetPlan"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		p, err := reader.GetPlan(ctx, id)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, p)
	}
}

func GetPlansByProduct(log *slog.Logger, reader PlanReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.GetPlansByProduct"

		productID := chi.URLParam(r, "productId")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		plans, err := reader.PlansByProduct(ctx, productID)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, plans)
	}
}

func GetPlanRevisions(log *slog.Logger, reader PlanReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.GetPlanRevisions"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		revisions, err := reader.PlanRevisions(ctx, id)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, revisions)
	}
}
