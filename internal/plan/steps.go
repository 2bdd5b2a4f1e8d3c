package plan

import (
	"fmt"
	"slices"
	"strings"
)

const (
	graphicStepDescription = "Inspeção de etiquetas, rótulos e material gráfico do produto"
	graphicStepMinutes     = 10
	newStepDescription     = "Descrição da nova etapa"
	newStepMinutes         = 5
)

// IsProtected reports whether the step is the graphic inspection step,
// which cannot be deleted, renamed or moved away from the first position.
func IsProtected(s Step) bool {
	return s.IsGraphicInspection || s.Name == GraphicStepName
}

// StepUpdate carries the editable attributes of a step.
type StepUpdate struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Required      bool   `json:"required"`
	EstimatedTime int    `json:"estimatedTime"`
}

func (d *Document) Steps() []Step {
	out := make([]Step, 0, len(d.steps))
	for _, n := range d.steps {
		out = append(out, d.materialize(n))
	}
	return out
}

func (d *Document) Step(id string) (Step, bool) {
	_, n := d.findStep(id)
	if n == nil {
		return Step{}, false
	}
	return d.materialize(n), true
}

// GraphicStep returns the protected step if the plan has one.
func (d *Document) GraphicStep() (Step, bool) {
	n := d.graphicNode()
	if n == nil {
		return Step{}, false
	}
	return d.materialize(n), true
}

// AddStep creates the graphic inspection step, seeded with the catalog's
// default fields, if the plan has none. Otherwise it appends a blank step.
// The new step starts expanded.
func (d *Document) AddStep() Step {
	var node *stepNode

	if d.graphicNode() == nil {
		node = &stepNode{step: Step{
			ID:                  d.ids.NewID("step-graphic"),
			Name:                GraphicStepName,
			Description:         graphicStepDescription,
			Required:            true,
			EstimatedTime:       graphicStepMinutes,
			IsGraphicInspection: true,
		}}
		for _, gf := range d.cat.DefaultGraphicFields() {
			f := graphicFieldToField(gf, d.ids)
			d.fields[f.ID] = &f
			node.fieldIDs = append(node.fieldIDs, f.ID)
		}
		d.steps = slices.Insert(d.steps, 0, node)
	} else {
		node = &stepNode{step: Step{
			ID:            d.ids.NewID("step"),
			Name:          fmt.Sprintf("Nova Etapa %d", len(d.steps)+1),
			Description:   newStepDescription,
			Required:      true,
			EstimatedTime: newStepMinutes,
		}}
		d.steps = append(d.steps, node)
	}

	d.renumber()
	d.expanded[node.step.ID] = true
	return d.materialize(node)
}

// Reorder moves the step at index from to index to. A protected step in
// the first position must stay there.
func (d *Document) Reorder(from, to int) error {
	if from < 0 || from >= len(d.steps) || to < 0 || to >= len(d.steps) {
		return fmt.Errorf("%w: move %d -> %d of %d steps", ErrIndexOutOfRange, from, to, len(d.steps))
	}
	if from == to {
		return nil
	}
	if IsProtected(d.steps[0].step) && (from == 0 || to == 0) {
		return fmt.Errorf("%w: it must remain the first step", ErrProtectedStep)
	}

	node := d.steps[from]
	d.steps = slices.Delete(d.steps, from, from+1)
	d.steps = slices.Insert(d.steps, to, node)
	d.renumber()
	return nil
}

func (d *Document) DeleteStep(id string) error {
	i, n := d.findStep(id)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, id)
	}
	if IsProtected(n.step) {
		return fmt.Errorf("%w: it cannot be deleted", ErrProtectedStep)
	}

	d.steps = slices.Delete(d.steps, i, i+1)
	for _, fid := range n.fieldIDs {
		d.release(fid)
	}
	delete(d.expanded, id)
	d.renumber()
	return nil
}

// UpdateStep merges the editable attributes into the step with u.ID.
func (d *Document) UpdateStep(u StepUpdate) error {
	_, n := d.findStep(u.ID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, u.ID)
	}

	name := strings.TrimSpace(u.Name)
	switch {
	case IsProtected(n.step) && name != GraphicStepName:
		return fmt.Errorf("%w: it cannot be renamed", ErrProtectedStep)
	case !IsProtected(n.step) && name == GraphicStepName:
		return fmt.Errorf("%w: only one step may be named %q", ErrProtectedStep, GraphicStepName)
	}

	n.step.Name = name
	n.step.Description = u.Description
	n.step.Required = u.Required
	n.step.EstimatedTime = max(u.EstimatedTime, 0)
	return nil
}

// ToggleExpanded flips the UI expansion state and returns the new value.
func (d *Document) ToggleExpanded(id string) bool {
	if d.expanded[id] {
		delete(d.expanded, id)
		return false
	}
	if _, n := d.findStep(id); n == nil {
		return false
	}
	d.expanded[id] = true
	return true
}

func (d *Document) Expanded(id string) bool {
	return d.expanded[id]
}

func (d *Document) findStep(id string) (int, *stepNode) {
	for i, n := range d.steps {
		if n.step.ID == id {
			return i, n
		}
	}
	return -1, nil
}

func (d *Document) graphicNode() *stepNode {
	for _, n := range d.steps {
		if IsProtected(n.step) {
			return n
		}
	}
	return nil
}

func (d *Document) renumber() {
	for i, n := range d.steps {
		n.step.Order = i + 1
	}
}
