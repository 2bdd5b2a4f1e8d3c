package plan

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"quality-plans/internal/catalog"
)

// Store is the persistence collaborator a document is saved through.
type Store interface {
	CreatePlan(ctx context.Context, d Draft) (*Plan, error)
	UpdatePlan(ctx context.Context, id string, d Draft) (*Plan, error)
}

type Option func(*Document)

func WithIDGenerator(g IDGenerator) Option {
	return func(d *Document) { d.ids = g }
}

func WithRouting(r FieldRouting) Option {
	return func(d *Document) { d.routing = r }
}

func WithClock(now func() time.Time) Option {
	return func(d *Document) { d.now = now }
}

type stepNode struct {
	step     Step // Fields is always nil, see fieldIDs
	fieldIDs []string
}

// Document is an inspection plan being edited.
//
// Fields live in a single arena keyed by id. Steps and the label and
// question views only hold ids, so a field added from a catalog has one
// identity no matter where it is shown.
type Document struct {
	cat     *catalog.Catalog
	ids     IDGenerator
	routing FieldRouting
	now     func() time.Time

	header    Plan // Steps is always nil
	steps     []*stepNode
	fields    map[string]*Field
	labels    []string
	questions []string
	expanded  map[string]bool
	discarded bool
}

func newDocument(cat *catalog.Catalog, opts []Option) *Document {
	if cat == nil {
		cat = catalog.Default()
	}
	d := &Document{
		cat:      cat,
		ids:      UUIDGenerator{},
		routing:  RouteToGraphicStep,
		now:      time.Now,
		fields:   make(map[string]*Field),
		expanded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDocument starts an empty draft.
func NewDocument(cat *catalog.Catalog, opts ...Option) *Document {
	d := newDocument(cat, opts)
	d.header = Plan{
		Revision:   1,
		ValidUntil: NewDate(d.now()),
		Status:     StatusDraft,
		Tags:       []string{},
		Products:   []Product{},
		Access:     DefaultAccessControl(),
	}
	return d
}

// LoadDocument copies an existing plan into a document and brings it back
// under the editing rules: products and tags are deduplicated, the name is
// derived from the products when there are any, the graphic inspection
// step is moved to the first position and field ids repeated inside the
// tree are re-keyed so that every field has its own identity.
func LoadDocument(cat *catalog.Catalog, p Plan, opts ...Option) *Document {
	d := newDocument(cat, opts)

	p = p.Clone()
	steps := p.Steps
	p.Steps = nil
	p.Products = uniqueProducts(p.Products)
	p.Tags = uniqueTags(p.Tags)
	if p.Status == "" {
		p.Status = StatusDraft
	}
	d.header = p
	d.renameFromProducts()

	for _, s := range steps {
		node := &stepNode{step: s}
		node.step.Fields = nil
		if IsProtected(s) {
			node.step.IsGraphicInspection = true
		}
		for _, f := range s.Fields {
			if _, dup := d.fields[f.ID]; dup || f.ID == "" {
				f.ID = d.ids.NewID("field")
			}
			d.fields[f.ID] = &f
			node.fieldIDs = append(node.fieldIDs, f.ID)

			if node.step.IsGraphicInspection {
				switch f.Type {
				case FieldLabel:
					d.labels = append(d.labels, f.ID)
				case FieldQuestion:
					d.questions = append(d.questions, f.ID)
				}
			}
		}
		d.steps = append(d.steps, node)
	}

	if i := slices.IndexFunc(d.steps, func(n *stepNode) bool { return n.step.IsGraphicInspection }); i > 0 {
		node := d.steps[i]
		d.steps = slices.Insert(slices.Delete(d.steps, i, i+1), 0, node)
	}
	d.renumber()

	return d
}

// Validate checks the header and that at most one step is the graphic
// inspection step.
func (d *Document) Validate() error {
	if err := d.Draft().Validate(); err != nil {
		return err
	}
	n := 0
	for _, s := range d.steps {
		if s.step.IsGraphicInspection {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("%w: %d steps are marked as graphic inspection", ErrProtectedStep, n)
	}
	return nil
}

func uniqueProducts(in []Product) []Product {
	out := make([]Product, 0, len(in))
	for _, p := range in {
		if slices.ContainsFunc(out, func(x Product) bool { return x.ID == p.ID }) {
			continue
		}
		if strings.TrimSpace(p.Voltage) == "" {
			p.Voltage = noVoltage
		}
		out = append(out, p)
	}
	return out
}

func uniqueTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func (d *Document) ID() string {
	return d.header.ID
}

func (d *Document) Catalog() *catalog.Catalog {
	return d.cat
}

func (d *Document) Routing() FieldRouting {
	return d.routing
}

// Plan returns a deep copy of the current plan.
func (d *Document) Plan() Plan {
	p := d.header.Clone()
	p.Steps = make([]Step, 0, len(d.steps))
	for _, n := range d.steps {
		p.Steps = append(p.Steps, d.materialize(n))
	}
	return p
}

// Draft returns the plan in its save shape.
func (d *Document) Draft() Draft {
	return d.Plan().Draft()
}

// Save hands the draft to the store. A failed save leaves the document as
// it was so the edit can be retried.
func (d *Document) Save(ctx context.Context, s Store) (*Plan, error) {
	const op = "plan.Document.Save"

	if d.discarded {
		return nil, fmt.Errorf("%s: %w", op, ErrDiscarded)
	}

	var (
		saved *Plan
		err   error
	)
	if d.header.ID == "" {
		saved, err = s.CreatePlan(ctx, d.Draft())
	} else {
		saved, err = s.UpdatePlan(ctx, d.header.ID, d.Draft())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d.header.ID = saved.ID
	d.header.CreatedAt = saved.CreatedAt
	d.header.UpdatedAt = saved.UpdatedAt
	return saved, nil
}

// Discard abandons the edit. Later saves fail with ErrDiscarded.
func (d *Document) Discard() {
	d.discarded = true
}

func (d *Document) Name() string {
	return d.header.Name
}

// SetName sets a manual name. While products are attached the name is
// derived from them and manual names are ignored; false is returned then.
func (d *Document) SetName(name string) bool {
	if len(d.header.Products) > 0 {
		return false
	}
	d.header.Name = strings.TrimSpace(name)
	return true
}

func (d *Document) Products() []Product {
	return slices.Clone(d.header.Products)
}

// AddProduct attaches a product. Products are unique by id.
func (d *Document) AddProduct(p Product) bool {
	if slices.ContainsFunc(d.header.Products, func(x Product) bool { return x.ID == p.ID }) {
		return false
	}
	if strings.TrimSpace(p.Voltage) == "" {
		p.Voltage = noVoltage
	}
	d.header.Products = append(d.header.Products, p)
	d.renameFromProducts()
	return true
}

func (d *Document) RemoveProduct(id string) bool {
	n := len(d.header.Products)
	d.header.Products = slices.DeleteFunc(d.header.Products, func(x Product) bool { return x.ID == id })
	if len(d.header.Products) == n {
		return false
	}
	d.renameFromProducts()
	return true
}

func (d *Document) renameFromProducts() {
	if len(d.header.Products) > 0 {
		d.header.Name = GeneratePlanName(d.header.Products)
	}
}

func (d *Document) SetRevision(rev int) {
	d.header.Revision = rev
}

func (d *Document) SetValidUntil(date Date) {
	d.header.ValidUntil = date
}

func (d *Document) SetStatus(s Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	d.header.Status = s
	return nil
}

// SetAuthor records who edits the plan. The creator is kept once set.
func (d *Document) SetAuthor(user string) {
	if d.header.CreatedBy == "" {
		d.header.CreatedBy = user
	}
	d.header.UpdatedBy = user
}

func (d *Document) Tags() []string {
	return slices.Clone(d.header.Tags)
}

// AddTag adds a tag once. It returns false when the tag is already set.
func (d *Document) AddTag(tag string) (bool, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false, ErrEmptyTag
	}
	if slices.Contains(d.header.Tags, tag) {
		return false, nil
	}
	d.header.Tags = append(d.header.Tags, tag)
	return true, nil
}

func (d *Document) RemoveTag(tag string) bool {
	n := len(d.header.Tags)
	d.header.Tags = slices.DeleteFunc(d.header.Tags, func(t string) bool { return t == tag })
	return len(d.header.Tags) != n
}

func (d *Document) AccessControl() AccessControl {
	return d.header.Access.clone()
}

// ToggleRole flips the role in the plan's role set and reports whether it
// is now present.
func (d *Document) ToggleRole(role string) (bool, error) {
	if !slices.Contains(Roles, role) {
		return false, fmt.Errorf("%w: unknown role %q", ErrInvalidPermission, role)
	}
	var on bool
	d.header.Access.Roles, on = toggle(d.header.Access.Roles, role)
	return on, nil
}

func (d *Document) Grant(perm Permission, role string) error {
	list, err := d.permissionList(perm, role)
	if err != nil {
		return err
	}
	if !slices.Contains(*list, role) {
		*list = append(*list, role)
	}
	return nil
}

func (d *Document) Revoke(perm Permission, role string) error {
	list, err := d.permissionList(perm, role)
	if err != nil {
		return err
	}
	*list = slices.DeleteFunc(*list, func(r string) bool { return r == role })
	return nil
}

func (d *Document) permissionList(perm Permission, role string) (*[]string, error) {
	if !slices.Contains(Roles, role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidPermission, role)
	}
	list, ok := d.header.Access.Permissions.list(perm)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, perm)
	}
	return list, nil
}

func toggle(set []string, v string) ([]string, bool) {
	if slices.Contains(set, v) {
		return slices.DeleteFunc(set, func(x string) bool { return x == v }), false
	}
	return append(set, v), true
}

// materialize builds the nested value of a step from the arena.
func (d *Document) materialize(n *stepNode) Step {
	s := n.step
	s.Fields = make([]Field, 0, len(n.fieldIDs))
	for _, id := range n.fieldIDs {
		if f, ok := d.fields[id]; ok {
			s.Fields = append(s.Fields, f.Clone())
		}
	}
	return s
}

// release drops a field from the arena once nothing references it.
func (d *Document) release(id string) {
	if slices.Contains(d.labels, id) || slices.Contains(d.questions, id) {
		return
	}
	for _, n := range d.steps {
		if slices.Contains(n.fieldIDs, id) {
			return
		}
	}
	delete(d.fields, id)
}
