package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"quality-plans/internal/plan"
)

type encodedPlan struct {
	products, steps, tags, efficiency, access string
}

func encodePlan(p plan.Plan) (encodedPlan, error) {
	var (
		out encodedPlan
		err error
	)
	if p.Products == nil {
		p.Products = []plan.Product{}
	}
	if p.Steps == nil {
		p.Steps = []plan.Step{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	if out.products, err = encodeJSON(p.Products); err != nil {
		return out, fmt.Errorf("encode products: %w", err)
	}
	if out.steps, err = encodeJSON(p.Steps); err != nil {
		return out, fmt.Errorf("encode steps: %w", err)
	}
	if out.tags, err = encodeJSON(p.Tags); err != nil {
		return out, fmt.Errorf("encode tags: %w", err)
	}
	if out.efficiency, err = encodeJSON(p.Efficiency); err != nil {
		return out, fmt.Errorf("encode efficiency: %w", err)
	}
	if out.access, err = encodeJSON(p.Access); err != nil {
		return out, fmt.Errorf("encode access control: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*plan.Plan, error) {
	var (
		p                                         plan.Plan
		validUntil                                string
		products, steps, tags, efficiency, access string
		createdAt, updatedAt                      int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Revision, &validUntil, &p.Status,
		&products, &steps, &tags, &efficiency, &access,
		&p.CreatedBy, &p.UpdatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if p.ValidUntil, err = plan.ParseDate(validUntil); err != nil {
		return nil, err
	}
	if err := decodeJSON(products, &p.Products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	if err := decodeJSON(steps, &p.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if err := decodeJSON(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := decodeJSON(efficiency, &p.Efficiency); err != nil {
		return nil, fmt.Errorf("decode efficiency: %w", err)
	}
	if err := decodeJSON(access, &p.Access); err != nil {
		return nil, fmt.Errorf("decode access control: %w", err)
	}

	created := time.Unix(createdAt, 0).UTC()
	updated := time.Unix(updatedAt, 0).UTC()
	p.CreatedAt, p.UpdatedAt = &created, &updated
	return &p, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
