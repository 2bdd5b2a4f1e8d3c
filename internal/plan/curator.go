package plan

import (
	"fmt"
	"slices"

	"quality-plans/internal/catalog"
)

// Curator toggles which catalog fields the graphic inspection step
// carries. It cannot introduce fields outside the catalog; fields of the
// step that are not catalog fields (added labels, questions, custom fields)
// are kept as they are.
type Curator struct {
	cat      *catalog.Catalog
	selected map[string]bool
}

// NewCurator starts from the catalog fields present in step, matched by
// name. A nil step selects the whole catalog.
func NewCurator(cat *catalog.Catalog, step *Step) *Curator {
	c := &Curator{cat: cat, selected: make(map[string]bool)}
	for _, gf := range cat.GraphicFields {
		if step == nil || slices.ContainsFunc(step.Fields, func(f Field) bool { return f.Name == gf.Name }) {
			c.selected[gf.ID] = true
		}
	}
	return c
}

// Toggle flips a catalog field in or out and returns its new state.
func (c *Curator) Toggle(id string) (bool, error) {
	if _, ok := c.cat.GraphicField(id); !ok {
		return false, fmt.Errorf("%w: graphic field %q", ErrUnknownCatalogEntry, id)
	}
	if c.selected[id] {
		delete(c.selected, id)
		return false, nil
	}
	c.selected[id] = true
	return true, nil
}

func (c *Curator) Selected(id string) bool {
	return c.selected[id]
}

// SelectedIDs lists the selection in catalog order.
func (c *Curator) SelectedIDs() []string {
	var out []string
	for _, gf := range c.cat.GraphicFields {
		if c.selected[gf.ID] {
			out = append(out, gf.ID)
		}
	}
	return out
}

// Apply rebuilds the step fields: selected catalog fields in catalog order,
// followed by the step's non-catalog fields in their previous order.
// Catalog fields already in the step keep their id and edits.
func (c *Curator) Apply(step Step, ids IDGenerator) (Step, error) {
	if len(c.selected) == 0 {
		return step, ErrNoFieldsSelected
	}

	byName := make(map[string]Field, len(step.Fields))
	for _, f := range step.Fields {
		if _, seen := byName[f.Name]; !seen {
			byName[f.Name] = f
		}
	}

	fields := make([]Field, 0, len(c.cat.GraphicFields)+len(step.Fields))
	for _, gf := range c.cat.GraphicFields {
		if !c.selected[gf.ID] {
			continue
		}
		if existing, ok := byName[gf.Name]; ok {
			fields = append(fields, existing.Clone())
			continue
		}
		fields = append(fields, graphicFieldToField(gf, ids))
	}
	for _, f := range step.Fields {
		if !c.cat.IsGraphicFieldName(f.Name) {
			fields = append(fields, f.Clone())
		}
	}

	step.Fields = fields
	return step, nil
}

// Curator returns a curator over the current graphic step, or over the
// full catalog when the plan has none yet.
func (d *Document) Curator() *Curator {
	if s, ok := d.GraphicStep(); ok {
		return NewCurator(d.cat, &s)
	}
	return NewCurator(d.cat, nil)
}

// CurateGraphicStep applies a selection of catalog field ids to the graphic
// step. An empty selection is rejected and the step is left unchanged.
func (d *Document) CurateGraphicStep(selected []string) (Step, error) {
	n := d.graphicNode()
	if n == nil {
		return Step{}, fmt.Errorf("%w: plan has no graphic inspection step", ErrStepNotFound)
	}

	c := &Curator{cat: d.cat, selected: make(map[string]bool)}
	for _, id := range selected {
		if _, ok := d.cat.GraphicField(id); !ok {
			return Step{}, fmt.Errorf("%w: graphic field %q", ErrUnknownCatalogEntry, id)
		}
		c.selected[id] = true
	}

	curated, err := c.Apply(d.materialize(n), d.ids)
	if err != nil {
		return Step{}, err
	}

	old := n.fieldIDs
	n.fieldIDs = make([]string, 0, len(curated.Fields))
	for _, f := range curated.Fields {
		if _, ok := d.fields[f.ID]; !ok {
			d.fields[f.ID] = &f
		}
		n.fieldIDs = append(n.fieldIDs, f.ID)
	}
	for _, id := range old {
		if !slices.Contains(n.fieldIDs, id) {
			d.release(id)
		}
	}

	return d.materialize(n), nil
}

func graphicFieldToField(gf catalog.GraphicField, ids IDGenerator) Field {
	f := Field{
		ID:          ids.NewID("field-" + gf.ID),
		Name:        gf.Name,
		Type:        FieldType(gf.Type),
		Required:    gf.Required,
		Description: gf.Description,
	}
	if gf.Photo != nil {
		f.Photo = &PhotoConfig{
			Required:            gf.Photo.Required,
			Quantity:            gf.Photo.Quantity,
			AllowAnnotations:    gf.Photo.AllowAnnotations,
			CompareWithStandard: gf.Photo.CompareWithStandard,
		}
	}
	return f
}
