package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quality-plans/internal/catalog"
	"quality-plans/internal/plan"
)

const copySuffix = " (Cópia)"

var ErrInvalidPayload = errors.New("invalid plan payload")

type PlanStorage interface {
	CreatePlan(ctx context.Context, d plan.Draft) (*plan.Plan, error)
	UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Plan, error)
	ImportPlan(ctx context.Context, p plan.Plan) (*plan.Plan, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
}

// EditService runs every write through a plan.Document so that the
// editing rules hold for API clients too. Writes are last-write-wins.
type EditService struct {
	storage PlanStorage
	cat     *catalog.Catalog
	opts    []plan.Option
}

func NewEditService(storage PlanStorage, cat *catalog.Catalog, opts ...plan.Option) *EditService {
	return &EditService{storage: storage, cat: cat, opts: opts}
}

func (s *EditService) Catalog() *catalog.Catalog {
	return s.cat
}

func (s *EditService) load(p plan.Plan) *plan.Document {
	return plan.LoadDocument(s.cat, p, s.opts...)
}

func (s *EditService) Create(ctx context.Context, d plan.Draft) (*plan.Plan, error) {
	const op = "service.plans.Create"

	doc := s.load(d.Plan())
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := doc.Save(ctx, s.storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Update replaces the stored plan with d. A plan that has a graphic
// inspection step keeps it.
func (s *EditService) Update(ctx context.Context, id string, d plan.Draft) (*plan.Plan, error) {
	const op = "service.plans.Update"

	current, err := s.storage.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := d.Plan()
	p.ID = id
	doc := s.load(p)
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, had := s.load(*current).GraphicStep(); had {
		if _, has := doc.GraphicStep(); !has {
			return nil, fmt.Errorf("%s: %w: the graphic inspection step cannot be removed", op, plan.ErrProtectedStep)
		}
	}

	saved, err := doc.Save(ctx, s.storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Duplicate stores a copy of the plan as a new draft with the next
// revision number.
func (s *EditService) Duplicate(ctx context.Context, id string) (*plan.Plan, error) {
	const op = "service.plans.Duplicate"

	src, err := s.storage.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cp := src.Clone()
	cp.ID = ""
	cp.CreatedAt, cp.UpdatedAt = nil, nil
	cp.Name += copySuffix
	cp.Revision++
	cp.Status = plan.StatusDraft

	saved, err := s.load(cp).Save(ctx, s.storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Import stores a plan exported by Export. The id is kept when present;
// repeated field ids are re-keyed.
func (s *EditService) Import(ctx context.Context, data []byte) (*plan.Plan, error) {
	const op = "service.plans.Import"

	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidPayload, err)
	}
	if p.Revision == 0 {
		p.Revision = 1
	}
	p.ID = strings.TrimSpace(p.ID)
	p.CreatedAt, p.UpdatedAt = nil, nil

	doc := s.load(p)
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.storage.ImportPlan(ctx, doc.Plan())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Export returns the plan as indented JSON, the format Import reads.
func (s *EditService) Export(ctx context.Context, id string) ([]byte, *plan.Plan, error) {
	const op = "service.plans.Export"

	p, err := s.storage.GetPlan(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, p, nil
}

// Edit loads the plan, applies fn and saves the result. Nothing is saved
// when fn fails.
func (s *EditService) Edit(ctx context.Context, id string, fn func(doc *plan.Document) error) (*plan.Plan, error) {
	const op = "service.plans.Edit"

	p, err := s.storage.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc := s.load(*p)
	if err := fn(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := doc.Save(ctx, s.storage); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.Plan()
	return &out, nil
}
