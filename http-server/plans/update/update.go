package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"quality-plans/http-server/httperr"
	"quality-plans/internal/plan"
)

type PlanUpdater interface {
	Update(ctx context.Context, id string, d plan.Draft) (*plan.Plan, error)
}

type PlanArchiver interface {
	ArchivePlan(ctx context.Context, id string) error
}

func UpdatePlan(log *slog.Logger, updater PlanUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.UpdatePlan"

		id := chi.URLParam(r, "id")

		var req plan.Draft
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.With(slog.String("op", op)).WarnContext(r.Context(), "invalid request body", slog.String("err", err.Error()))
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := updater.Update(ctx, id, req)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, saved)
	}
}

// ArchivePlan handles DELETE. Plans are never removed, only archived.
func ArchivePlan(log *slog.Logger, archiver PlanArchiver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.ArchivePlan"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := archiver.ArchivePlan(ctx, id); err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "plan archived", slog.String("op", op), slog.String("id", id))
		render.JSON(w, r, map[string]string{"status": "archived"})
	}
}
