package storage

import (
	"errors"
	"time"

	"quality-plans/internal/plan"
)

var (
	ErrPlanNotFound = errors.New("inspection plan not found")
	ErrPlanExists   = errors.New("inspection plan already exists")
)

// Filter narrows ListPlans. Zero values match everything; archived plans
// are only listed when Status asks for them.
type Filter struct {
	Status    plan.Status
	ProductID string
}

// Revision is a snapshot written every time a plan is created or updated.
type Revision struct {
	PlanID    string    `json:"planId"`
	Revision  int       `json:"revision"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	Snapshot  plan.Plan `json:"snapshot"`
}

// Summary is a list entry without the step tree.
type Summary struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Revision   int            `json:"revision"`
	Status     plan.Status    `json:"status"`
	ValidUntil plan.Date      `json:"validUntil"`
	Products   []plan.Product `json:"products"`
	Tags       []string       `json:"tags"`
	Steps      int            `json:"stepCount"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}
