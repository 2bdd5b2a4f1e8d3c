package steps

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

type PlanEditor interface {
	Edit(ctx context.Context, id string, fn func(doc *plan.Document) error) (*plan.Plan, error)
}

type StepResponse struct {
	Plan *plan.Plan `json:"plan"`
	Step plan.Step  `json:"step"`
}

// AddStep appends a step. The first step of a plan is always the graphic
// inspection step.
func AddStep(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.steps.AddStep"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var step plan.Step
		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			step = doc.AddStep()
			return nil
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "step added", slog.String("op", op), slog.String("plan", id), slog.String("step", step.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, StepResponse{Plan: saved, Step: step})
	}
}

func UpdateStep(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.steps.UpdateStep"

		id := chi.URLParam(r, "id")
		stepID := chi.URLParam(r, "stepId")

		var req plan.StepUpdate
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		req.ID = stepID

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var step plan.Step
		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			if err := doc.UpdateStep(req); err != nil {
				return err
			}
			step, _ = doc.Step(stepID)
			return nil
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, StepResponse{Plan: saved, Step: step})
	}
}

func DeleteStep(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.steps.DeleteStep"

		id := chi.URLParam(r, "id")
		stepID := chi.URLParam(r, "stepId")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			return doc.DeleteStep(stepID)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "step deleted", slog.String("op", op), slog.String("plan", id), slog.String("step", stepID))
		render.JSON(w, r, saved)
	}
}

type reorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// ReorderSteps moves the step at index from to index to.
func ReorderSteps(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.steps.ReorderSteps"

		id := chi.URLParam(r, "id")

		var req reorderRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil || req.From == nil || req.To == nil {
			http.Error(w, "from and to are required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			return doc.Reorder(*req.From, *req.To)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, saved)
	}
}

type curateRequest struct {
	Fields []string `json:"fields"`
}

// CurateGraphicStep sets which catalog fields the graphic inspection step
// carries. Fields outside the catalog are kept.
func CurateGraphicStep(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.steps.CurateGraphicStep"

		id := chi.URLParam(r, "id")

		var req curateRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var step plan.Step
		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			var err error
			step, err = doc.CurateGraphicStep(req.Fields)
			return err
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, StepResponse{Plan: saved, Step: step})
	}
}
