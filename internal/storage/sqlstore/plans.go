package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quality-plans/internal/plan"
	"quality-plans/internal/storage"
)

const planColumns = `id, name, revision, valid_until, status, products, steps, tags,
	efficiency, access_control, created_by, updated_by, created_at, updated_at`

// CreatePlan stores a new plan under a fresh UUID.
func (s *Storage) CreatePlan(ctx context.Context, d plan.Draft) (*plan.Plan, error) {
	const op = "storage.sqlstore.CreatePlan"

	p := d.Plan()
	p.ID = uuid.NewString()
	if err := s.insert(ctx, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ImportPlan stores a complete plan keeping its id when it has one.
func (s *Storage) ImportPlan(ctx context.Context, p plan.Plan) (*plan.Plan, error) {
	const op = "storage.sqlstore.ImportPlan"

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.insert(ctx, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (s *Storage) insert(ctx context.Context, p *plan.Plan) error {
	now := s.now().UTC().Truncate(time.Second)
	p.CreatedAt, p.UpdatedAt = &now, &now

	row, err := encodePlan(*p)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO inspection_plans (`+planColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Revision, p.ValidUntil.String(), p.Status,
			row.products, row.steps, row.tags, row.efficiency, row.access,
			p.CreatedBy, p.UpdatedBy, now.Unix(), now.Unix(),
		)
		if err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: id %s", storage.ErrPlanExists, p.ID)
			}
			return err
		}
		if err := insertProducts(ctx, tx, p.ID, p.Products); err != nil {
			return err
		}
		return insertRevision(ctx, tx, *p, now)
	})
}

// UpdatePlan replaces the stored plan. The creation data is kept.
func (s *Storage) UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Plan, error) {
	const op = "storage.sqlstore.UpdatePlan"

	p := d.Plan()
	p.ID = id
	now := s.now().UTC().Truncate(time.Second)

	row, err := encodePlan(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var createdAt int64
		var createdBy string
		err := tx.QueryRowContext(ctx,
			`SELECT created_at, created_by FROM inspection_plans WHERE id = ?`, id,
		).Scan(&createdAt, &createdBy)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %s", storage.ErrPlanNotFound, id)
		}
		if err != nil {
			return err
		}

		created := time.Unix(createdAt, 0).UTC()
		p.CreatedAt, p.UpdatedAt = &created, &now
		if createdBy != "" {
			p.CreatedBy = createdBy
		}

		_, err = tx.ExecContext(ctx, `UPDATE inspection_plans SET
			name = ?, revision = ?, valid_until = ?, status = ?, products = ?, steps = ?,
			tags = ?, efficiency = ?, access_control = ?, created_by = ?, updated_by = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, p.Revision, p.ValidUntil.String(), p.Status, row.products, row.steps,
			row.tags, row.efficiency, row.access, p.CreatedBy, p.UpdatedBy, now.Unix(), id,
		)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM inspection_plan_products WHERE plan_id = ?`, id); err != nil {
			return err
		}
		if err := insertProducts(ctx, tx, id, p.Products); err != nil {
			return err
		}
		return insertRevision(ctx, tx, p, now)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (s *Storage) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	const op = "storage.sqlstore.GetPlan"

	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM inspection_plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: id %s", op, storage.ErrPlanNotFound, id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPlans returns summaries ordered by last update, newest first.
func (s *Storage) ListPlans(ctx context.Context, f storage.Filter) ([]storage.Summary, error) {
	const op = "storage.sqlstore.ListPlans"

	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, f.Status)
	} else {
		where = append(where, "p.status <> ?")
		args = append(args, plan.StatusArchived)
	}
	if f.ProductID != "" {
		where = append(where, "p.id IN (SELECT plan_id FROM inspection_plan_products WHERE product_id = ?)")
		args = append(args, f.ProductID)
	}

	query := `SELECT p.id, p.name, p.revision, p.valid_until, p.status, p.products, p.steps, p.tags, p.updated_at
		FROM inspection_plans p
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.updated_at DESC, p.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	summaries := []storage.Summary{}
	for rows.Next() {
		var (
			sum                   storage.Summary
			validUntil            string
			products, steps, tags string
			updatedAt             int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Revision, &validUntil, &sum.Status,
			&products, &steps, &tags, &updatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		var stepList []json.RawMessage
		if err := decodeJSON(products, &sum.Products); err != nil {
			return nil, fmt.Errorf("%s: plan %s products: %w", op, sum.ID, err)
		}
		if err := decodeJSON(tags, &sum.Tags); err != nil {
			return nil, fmt.Errorf("%s: plan %s tags: %w", op, sum.ID, err)
		}
		if err := decodeJSON(steps, &stepList); err != nil {
			return nil, fmt.Errorf("%s: plan %s steps: %w", op, sum.ID, err)
		}
		if sum.ValidUntil, err = plan.ParseDate(validUntil); err != nil {
			return nil, fmt.Errorf("%s: plan %s: %w", op, sum.ID, err)
		}
		sum.Steps = len(stepList)
		sum.UpdatedAt = time.Unix(updatedAt, 0).UTC()

		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return summaries, nil
}

func (s *Storage) PlansByProduct(ctx context.Context, productID string) ([]storage.Summary, error) {
	return s.ListPlans(ctx, storage.Filter{ProductID: productID})
}

// ArchivePlan marks the plan archived and records the change as a
// revision. Archived plans stay readable.
func (s *Storage) ArchivePlan(ctx context.Context, id string) error {
	const op = "storage.sqlstore.ArchivePlan"

	now := s.now().UTC().Truncate(time.Second)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPlan(tx.QueryRowContext(ctx, `SELECT `+planColumns+` FROM inspection_plans WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %s", storage.ErrPlanNotFound, id)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE inspection_plans SET status = ?, updated_at = ? WHERE id = ?`,
			plan.StatusArchived, now.Unix(), id,
		); err != nil {
			return err
		}

		p.Status = plan.StatusArchived
		p.UpdatedAt = &now
		return insertRevision(ctx, tx, *p, now)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PlanRevisions lists the snapshots of a plan, oldest first.
func (s *Storage) PlanRevisions(ctx context.Context, id string) ([]storage.Revision, error) {
	const op = "storage.sqlstore.PlanRevisions"

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inspection_plans WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w: id %s", op, storage.ErrPlanNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT plan_id, revision, name, status, updated_by, snapshot, created_at
		FROM inspection_plan_revisions WHERE plan_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	revisions := []storage.Revision{}
	for rows.Next() {
		var (
			rev       storage.Revision
			snapshot  string
			createdAt int64
		)
		if err := rows.Scan(&rev.PlanID, &rev.Revision, &rev.Name, &rev.Status, &rev.UpdatedBy, &snapshot, &createdAt); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		if err := decodeJSON(snapshot, &rev.Snapshot); err != nil {
			return nil, fmt.Errorf("%s: snapshot: %w", op, err)
		}
		rev.CreatedAt = time.Unix(createdAt, 0).UTC()
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return revisions, nil
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertProducts(ctx context.Context, tx *sql.Tx, planID string, products []plan.Product) error {
	seen := make(map[string]bool, len(products))
	for _, pr := range products {
		if pr.ID == "" || seen[pr.ID] {
			continue
		}
		seen[pr.ID] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inspection_plan_products (plan_id, product_id) VALUES (?, ?)`, planID, pr.ID,
		); err != nil {
			return fmt.Errorf("product %s: %w", pr.ID, err)
		}
	}
	return nil
}

func insertRevision(ctx context.Context, tx *sql.Tx, p plan.Plan, at time.Time) error {
	snapshot, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO inspection_plan_revisions
		(plan_id, revision, name, status, updated_by, snapshot, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Revision, p.Name, p.Status, p.UpdatedBy, string(snapshot), at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}
