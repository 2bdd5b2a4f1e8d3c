// Package standard serves the catalog labels and questions added to a plan.
package standard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"quality-plans/http-server/httperr"
	"quality-plans/internal/catalog"
	"quality-plans/internal/plan"
)

type PlanEditor interface {
	Edit(ctx context.Context, id string, fn func(doc *plan.Document) error) (*plan.Plan, error)
}

type addRequest struct {
	CatalogID string `json:"catalogId"`
}

type FieldResponse struct {
	Plan  *plan.Plan `json:"plan"`
	Field plan.Field `json:"field"`
}

func AddLabel(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return add(log, editor, "handlers.standard.AddLabel", (*plan.Document).AddStandardLabel)
}

func AddQuestion(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return add(log, editor, "handlers.standard.AddQuestion", (*plan.Document).AddStandardQuestion)
}

func add(log *slog.Logger, editor PlanEditor, op string, addFn func(*plan.Document, string) (plan.Field, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req addRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.CatalogID) == "" {
			http.Error(w, "catalogId is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var field plan.Field
		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			// a stored plan only keeps standard fields inside its graphic step
			if _, ok := doc.GraphicStep(); !ok {
				return fmt.Errorf("%w: the plan has no graphic inspection step", plan.ErrStepNotFound)
			}
			var err error
			field, err = addFn(doc, req.CatalogID)
			return err
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		log.InfoContext(r.Context(), "catalog entry added", slog.String("op", op), slog.String("plan", id), slog.String("entry", req.CatalogID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, FieldResponse{Plan: saved, Field: field})
	}
}

func UpdateLabel(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.standard.UpdateLabel"

		id := chi.URLParam(r, "id")
		fieldID := chi.URLParam(r, "fieldId")

		var cfg plan.LabelConfig
		if err := render.DecodeJSON(r.Body, &cfg); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			return doc.UpdateLabelConfig(fieldID, cfg)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, saved)
	}
}

func UpdateQuestion(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.standard.UpdateQuestion"

		id := chi.URLParam(r, "id")
		fieldID := chi.URLParam(r, "fieldId")

		var cfg plan.QuestionConfig
		if err := render.DecodeJSON(r.Body, &cfg); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			return doc.UpdateQuestionConfig(fieldID, cfg)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, saved)
	}
}

func RemoveLabel(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return remove(log, editor, "handlers.standard.RemoveLabel", (*plan.Document).RemoveLabel)
}

func RemoveQuestion(log *slog.Logger, editor PlanEditor) http.HandlerFunc {
	return remove(log, editor, "handlers.standard.RemoveQuestion", (*plan.Document).RemoveQuestion)
}

func remove(log *slog.Logger, editor PlanEditor, op string, removeFn func(*plan.Document, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		fieldID := chi.URLParam(r, "fieldId")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		saved, err := editor.Edit(ctx, id, func(doc *plan.Document) error {
			return removeFn(doc, fieldID)
		})
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		render.JSON(w, r, saved)
	}
}

type PlanReader interface {
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
}

// Overview lists the labels and questions a plan carries and the catalog
// entries still available to add.
type Overview struct {
	Labels             []plan.Field    `json:"labels"`
	Questions          []plan.Field    `json:"questions"`
	AvailableLabels    []catalog.Entry `json:"availableLabels"`
	AvailableQuestions []catalog.Entry `json:"availableQuestions"`
}

func GetStandard(log *slog.Logger, reader PlanReader, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.standard.GetStandard"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		p, err := reader.GetPlan(ctx, id)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		doc := plan.LoadDocument(cat, *p)
		render.JSON(w, r, Overview{
			Labels:             doc.Labels(),
			Questions:          doc.Questions(),
			AvailableLabels:    nonNil(doc.AvailableLabels()),
			AvailableQuestions: nonNil(doc.AvailableQuestions()),
		})
	}
}

func nonNil(e []catalog.Entry) []catalog.Entry {
	if e == nil {
		return []catalog.Entry{}
	}
	return e
}
