package fields

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

// FieldResponse carries the saved field and where it ended up. Redirected
// is set when the field was routed to a step other than the requested one.
type FieldResponse struct {
	Plan         *plan.Plan `json:"plan"`
	Field        plan.Field `json:"field"`
	TargetStepID string     `json:"targetStepId"`
	Redirected   bool       `json:"redirected"`
}

func AddField(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fields.AddField"

		id := chi.URLParam(r, "id")
		stepID := chi.URLParam(r, "stepId")

		var req plan.FieldDraft
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var resp FieldResponse
		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			s, err := doc.BeginAddField(stepID)
			if err != nil {
				return err
			}
			return apply(s, req, &resp)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}
		resp.Plan = saved

		if resp.Redirected {
			log.InfoContext(r.Context(), "field redirected", slog.String("op", op),
				slog.String("requested", stepID), slog.String("target", resp.TargetStepID))
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp)
	}
}

func UpdateField(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fields.UpdateField"

		id := chi.URLParam(r, "id")
		stepID := chi.URLParam(r, "stepId")
		fieldID := chi.URLParam(r, "fieldId")

		var req plan.FieldDraft
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var resp FieldResponse
		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			s, err := doc.BeginEditField(stepID, fieldID)
			if err != nil {
				return err
			}
			return apply(s, req, &resp)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}
		resp.Plan = saved

		render.JSON(w, r, resp)
	}
}

func apply(s *plan.FieldSession, req plan.FieldDraft, resp *FieldResponse) error {
	if err := s.Apply(req); err != nil {
		s.Cancel()
		return err
	}
	f, err := s.Save()
	if err != nil {
		return err
	}
	resp.Field = f
	resp.TargetStepID = s.Target()
	resp.Redirected = s.Redirected()
	return nil
}

func DeleteField(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fields.DeleteField"

		id := chi.URLParam(r, "id")
		stepID := chi.URLParam(r, "stepId")
		fieldID := chi.URLParam(r, "fieldId")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			return doc.RemoveField(stepID, fieldID)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "field removed", slog.String("op", op), slog.String("plan", id), slog.String("field", fieldID))
		render.JSON(w, r, saved)
	}
}
