package save

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"quality-plans/http-server/httperr"
	"quality-plans/internal/plan"
)

const maxImportSize = 5 << 20

type PlanCreator interface {
	Create(ctx context.Context, d plan.Draft) (*plan.Plan, error)
	Duplicate(ctx context.Context, id string) (*plan.Plan, error)
	Import(ctx context.Context, data []byte) (*plan.Plan, error)
}

func SavePlan(log *slog.Logger, creator PlanCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.SavePlan"

		var req plan.Draft
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.With(slog.String("op", op)).WarnContext(r.Context(), "invalid request body", slog.String("err", err.Error()))
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := creator.Create(ctx, req)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "plan created", slog.String("op", op), slog.String("id", saved.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

func DuplicatePlan(log *slog.Logger, creator PlanCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.DuplicatePlan"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := creator.Duplicate(ctx, id)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "plan duplicated", slog.String("op", op), slog.String("source", id), slog.String("id", saved.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

// ImportPlan accepts a file produced by the export endpoint.
func ImportPlan(log *slog.Logger, creator PlanCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.ImportPlan"

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
		if err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		saved, err := creator.Import(ctx, data)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "plan imported", slog.String("op", op), slog.String("id", saved.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}
