package get

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"quality-plans/internal/catalog"
)

type Response struct {
	*catalog.Catalog
	QuestionsByCategory map[string][]catalog.Entry `json:"questionsByCategory"`
}

// GetCatalog serves the reference data of the editor. The catalog is
// read-only, so the response is built once.
func GetCatalog(log *slog.Logger, cat *catalog.Catalog) http.HandlerFunc {
	resp := Response{Catalog: cat, QuestionsByCategory: cat.QuestionsByCategory()}
	log.Debug("catalog loaded",
		slog.Int("labels", len(cat.Labels)),
		slog.Int("questions", len(cat.Questions)),
		slog.Int("graphic_fields", len(cat.GraphicFields)),
	)

	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, resp)
	}
}
