package generate_excel

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"quality-plans/http-server/httperr"
	"quality-plans/http-server/plans/export"
	"quality-plans/internal/plan"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ChecklistGenerator interface {
	GenerateExcel(ctx context.Context, id string) ([]byte, *plan.Plan, error)
}

// GenerateChecklistExcel sends the printable checklist of a plan.
func GenerateChecklistExcel(log *slog.Logger, gen ChecklistGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateChecklistExcel"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, p, err := gen.GenerateExcel(ctx, id)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", "attachment; filename="+export.FileName(p, "xlsx"))
		w.Header().Set("Content-Length", strconv.Itoa(len(excelBytes)))
		if _, err := w.Write(excelBytes); err != nil {
			log.ErrorContext(r.Context(), "failed to write excel", slog.String("op", op), slog.String("err", err.Error()))
		}
	}
}
