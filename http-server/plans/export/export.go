package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"quality-plans/http-server/httperr"
	"quality-plans/internal/plan"
)

type PlanExporter interface {
	Export(ctx context.Context, id string) ([]byte, *plan.Plan, error)
}

var (
	unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)
	namePrefix  = regexp.MustCompile(`^plano(-de-inspecao)?(-|$)`)
)

// ExportPlan sends the plan as a JSON attachment that the import endpoint
// accepts back.
func ExportPlan(log *slog.Logger, exporter PlanExporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.ExportPlan"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		data, p, err := exporter.Export(ctx, id)
		if err != nil {
			httperr.Write(w, r, log, op, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename="+FileName(p, "json"))
		if _, err := w.Write(data); err != nil {
			log.ErrorContext(r.Context(), "failed to write export", slog.String("op", op), slog.String("plan", id), slog.String("err", err.Error()))
		}
	}
}

// FileName builds "plano-<name>-rev<N>.<ext>" with only ASCII-safe
// characters. Accents are folded and a leading "plano de inspeção" in
// the name is not repeated.
func FileName(p *plan.Plan, ext string) string {
	name := namePrefix.ReplaceAllString(slug(p.Name), "")
	if name == "" {
		name = slug(p.ID)
	}
	if name == "" {
		return fmt.Sprintf("plano-rev%d.%s", p.Revision, ext)
	}
	return fmt.Sprintf("plano-%s-rev%d.%s", name, p.Revision, ext)
}

func slug(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	return strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
