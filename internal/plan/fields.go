package plan

import (
	"fmt"
	"slices"
)

// FieldRouting decides which step receives a field added through
// BeginAddField.
type FieldRouting int

const (
	// RouteToGraphicStep sends every new field to the graphic inspection
	// step once the plan has one, whatever step was requested.
	RouteToGraphicStep FieldRouting = iota
	// RouteToTarget always uses the requested step.
	RouteToTarget
)

func (r FieldRouting) String() string {
	if r == RouteToTarget {
		return "target"
	}
	return "graphic-step"
}

// ParseRouting reads the names printed by String.
func ParseRouting(s string) (FieldRouting, error) {
	switch s {
	case "graphic-step", "":
		return RouteToGraphicStep, nil
	case "target":
		return RouteToTarget, nil
	}
	return 0, fmt.Errorf("unknown field routing %q", s)
}

// Fields returns the fields of a step in order.
func (d *Document) Fields(stepID string) ([]Field, error) {
	_, n := d.findStep(stepID)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	return d.materialize(n).Fields, nil
}

// BeginAddField opens an editor session for a new field. The session's
// Target reports the step the field will be appended to, which differs from
// stepID when the routing rule redirects it.
func (d *Document) BeginAddField(stepID string) (*FieldSession, error) {
	target := stepID
	if d.routing == RouteToGraphicStep {
		if g := d.graphicNode(); g != nil {
			target = g.step.ID
		}
	}
	if _, n := d.findStep(target); n == nil {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	return &FieldSession{
		doc:        d,
		requested:  stepID,
		target:     target,
		redirected: target != stepID,
		isNew:      true,
		field: Field{
			ID:   d.ids.NewID("field"),
			Type: FieldText,
		},
	}, nil
}

// BeginEditField opens an editor session over a copy of an existing field.
func (d *Document) BeginEditField(stepID, fieldID string) (*FieldSession, error) {
	_, n := d.findStep(stepID)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	if !slices.Contains(n.fieldIDs, fieldID) {
		return nil, fmt.Errorf("%w: %s in step %s", ErrFieldNotFound, fieldID, stepID)
	}

	return &FieldSession{
		doc:       d,
		requested: stepID,
		target:    stepID,
		field:     d.fields[fieldID].Clone(),
	}, nil
}

// RemoveField removes the field from one step only.
func (d *Document) RemoveField(stepID, fieldID string) error {
	_, n := d.findStep(stepID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	before := len(n.fieldIDs)
	n.fieldIDs = slices.DeleteFunc(n.fieldIDs, func(id string) bool { return id == fieldID })
	if len(n.fieldIDs) == before {
		return fmt.Errorf("%w: %s in step %s", ErrFieldNotFound, fieldID, stepID)
	}

	d.labels = slices.DeleteFunc(d.labels, func(id string) bool { return id == fieldID })
	d.questions = slices.DeleteFunc(d.questions, func(id string) bool { return id == fieldID })
	d.release(fieldID)
	return nil
}

func (d *Document) commitNew(stepID string, f Field) error {
	_, n := d.findStep(stepID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	d.fields[f.ID] = &f
	n.fieldIDs = append(n.fieldIDs, f.ID)
	return nil
}

func (d *Document) commitEdit(stepID string, f Field) error {
	_, n := d.findStep(stepID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	if !slices.Contains(n.fieldIDs, f.ID) {
		return fmt.Errorf("%w: %s in step %s", ErrFieldNotFound, f.ID, stepID)
	}
	d.fields[f.ID] = &f

	// A field whose type changed no longer belongs to its catalog view.
	if f.Type != FieldLabel {
		d.labels = slices.DeleteFunc(d.labels, func(id string) bool { return id == f.ID })
	}
	if f.Type != FieldQuestion {
		d.questions = slices.DeleteFunc(d.questions, func(id string) bool { return id == f.ID })
	}
	return nil
}
