package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getcatalog "quality-plans/http-server/catalog/get"
	"quality-plans/http-server/fields"
	generate_excel "quality-plans/http-server/generate-report/generate-excel"
	"quality-plans/http-server/plans/export"
	getplans "quality-plans/http-server/plans/get"
	saveplans "quality-plans/http-server/plans/save"
	updateplans "quality-plans/http-server/plans/update"
	"quality-plans/http-server/standard"
	"quality-plans/http-server/steps"
	"quality-plans/internal/config"
	"quality-plans/internal/middleware/auth"
	"quality-plans/internal/service/plans"
	"quality-plans/internal/service/report"
	"quality-plans/internal/storage/sqlstore"
)

func routes(cfg config.Config, log *slog.Logger, storage *sqlstore.Storage, editService *plans.EditService, checklist *report.ChecklistService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	adminOnly := auth.BasicAuth(log, cfg.Admin.Login, cfg.Admin.Password)

	router.Get("/api/catalog", getcatalog.GetCatalog(log, editService.Catalog()))

	router.Route("/api/inspection-plans", func(r chi.Router) {
		r.Get("/", getplans.GetPlans(log, storage))
		r.Post("/", saveplans.SavePlan(log, editService))
		r.With(adminOnly).Post("/import", saveplans.ImportPlan(log, editService))
		r.Get("/product/{productId}", getplans.GetPlansByProduct(log, storage))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getplans.GetPlan(log, storage))
			r.Put("/", updateplans.UpdatePlan(log, editService))
			r.With(adminOnly).Delete("/", updateplans.ArchivePlan(log, storage))
			r.Post("/duplicate", saveplans.DuplicatePlan(log, editService))
			r.Get("/revisions", getplans.GetPlanRevisions(log, storage))
			r.Get("/export", export.ExportPlan(log, editService))
			r.Get("/report/excel", generate_excel.GenerateChecklistExcel(log, checklist))

			r.Post("/steps", steps.AddStep(log, editService))
			r.Post("/steps/reorder", steps.ReorderSteps(log, editService))
			r.Put("/steps/{stepId}", steps.UpdateStep(log, editService))
			r.Delete("/steps/{stepId}", steps.DeleteStep(log, editService))
			r.Put("/graphic-step", steps.CurateGraphicStep(log, editService))

			r.Post("/steps/{stepId}/fields", fields.AddField(log, editService))
			r.Put("/steps/{stepId}/fields/{fieldId}", fields.UpdateField(log, editService))
			r.Delete("/steps/{stepId}/fields/{fieldId}", fields.DeleteField(log, editService))

			r.Get("/standard", standard.GetStandard(log, storage, editService.Catalog()))
			r.Post("/labels", standard.AddLabel(log, editService))
			r.Put("/labels/{fieldId}", standard.UpdateLabel(log, editService))
			r.Delete("/labels/{fieldId}", standard.RemoveLabel(log, editService))
			r.Post("/questions", standard.AddQuestion(log, editService))
			r.Put("/questions/{fieldId}", standard.UpdateQuestion(log, editService))
			r.Delete("/questions/{fieldId}", standard.RemoveQuestion(log, editService))
		})
	})

	if cfg.FrontendDir != "" {
		mountFrontend(router, log, cfg.FrontendDir)
	}

	return router
}

// mountFrontend serves the built SPA: existing files as they are, any
// other path as index.html.
func mountFrontend(router *chi.Mux, log *slog.Logger, frontendDir string) {
	if _, err := os.Stat(frontendDir); err != nil {
		log.Warn("frontend directory not found, serving API only", slog.String("path", frontendDir))
		return
	}

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})
}
