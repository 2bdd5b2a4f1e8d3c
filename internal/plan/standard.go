package plan

import (
	"fmt"
	"slices"

	"quality-plans/internal/catalog"
)

var scaleOptions = []string{"1 - Muito Ruim", "2 - Ruim", "3 - Regular", "4 - Bom", "5 - Excelente"}

var yesNoOptions = []string{"Sim", "Não"}

func questionOptions(q QuestionType) []string {
	switch q {
	case QuestionScale:
		return slices.Clone(scaleOptions)
	case QuestionYesNo:
		return slices.Clone(yesNoOptions)
	}
	return nil
}

// Labels returns the label fields added from the catalog.
func (d *Document) Labels() []Field {
	return d.view(d.labels)
}

// Questions returns the question fields added from the catalog.
func (d *Document) Questions() []Field {
	return d.view(d.questions)
}

func (d *Document) view(ids []string) []Field {
	out := make([]Field, 0, len(ids))
	for _, id := range ids {
		if f, ok := d.fields[id]; ok {
			out = append(out, f.Clone())
		}
	}
	return out
}

// AvailableLabels lists catalog labels not yet added. Membership is by name.
func (d *Document) AvailableLabels() []catalog.Entry {
	return d.available(d.cat.Labels, d.labels)
}

// AvailableQuestions lists catalog questions not yet added, by name.
func (d *Document) AvailableQuestions() []catalog.Entry {
	return d.available(d.cat.Questions, d.questions)
}

func (d *Document) available(entries []catalog.Entry, ids []string) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range entries {
		if !d.viewHasName(ids, e.Name) {
			out = append(out, e)
		}
	}
	return out
}

func (d *Document) viewHasName(ids []string, name string) bool {
	for _, id := range ids {
		if f, ok := d.fields[id]; ok && f.Name == name {
			return true
		}
	}
	return false
}

// AddStandardLabel instantiates a catalog label. The field is stored once
// and shown both in the labels view and, when present, in the graphic step.
func (d *Document) AddStandardLabel(catalogID string) (Field, error) {
	e, ok := d.cat.Label(catalogID)
	if !ok {
		return Field{}, fmt.Errorf("%w: label %q", ErrUnknownCatalogEntry, catalogID)
	}
	if d.viewHasName(d.labels, e.Name) {
		return Field{}, fmt.Errorf("%w: label %q", ErrAlreadyAdded, e.Name)
	}

	f := Field{
		ID:          d.ids.NewID("label-" + e.ID),
		Name:        e.Name,
		Type:        FieldLabel,
		Required:    true,
		Description: e.Description,
		Label:       defaultLabelConfig(),
	}
	d.labels = append(d.labels, f.ID)
	d.inject(f)
	return f.Clone(), nil
}

// AddStandardQuestion instantiates a catalog question, see AddStandardLabel.
func (d *Document) AddStandardQuestion(catalogID string) (Field, error) {
	e, ok := d.cat.Question(catalogID)
	if !ok {
		return Field{}, fmt.Errorf("%w: question %q", ErrUnknownCatalogEntry, catalogID)
	}
	if d.viewHasName(d.questions, e.Name) {
		return Field{}, fmt.Errorf("%w: question %q", ErrAlreadyAdded, e.Name)
	}

	q := QuestionType(e.Type)
	f := Field{
		ID:          d.ids.NewID("question-" + e.ID),
		Name:        e.Name,
		Type:        FieldQuestion,
		Required:    true,
		Description: e.Description,
		Question:    &QuestionConfig{QuestionType: q, Options: questionOptions(q)},
	}
	d.questions = append(d.questions, f.ID)
	d.inject(f)
	return f.Clone(), nil
}

func (d *Document) inject(f Field) {
	d.fields[f.ID] = &f
	if g := d.graphicNode(); g != nil {
		g.fieldIDs = append(g.fieldIDs, f.ID)
	}
}

// UpdateLabelConfig replaces the configuration of an added label.
func (d *Document) UpdateLabelConfig(fieldID string, cfg LabelConfig) error {
	if !slices.Contains(d.labels, fieldID) {
		return fmt.Errorf("%w: label %s", ErrFieldNotFound, fieldID)
	}
	if !cfg.ComparisonType.Valid() {
		return fmt.Errorf("%w: comparison %q", ErrConfigMismatch, cfg.ComparisonType)
	}
	d.fields[fieldID].Label = &cfg
	return nil
}

// UpdateQuestionConfig replaces the configuration of an added question.
// Options default to the ones implied by the question type.
func (d *Document) UpdateQuestionConfig(fieldID string, cfg QuestionConfig) error {
	if !slices.Contains(d.questions, fieldID) {
		return fmt.Errorf("%w: question %s", ErrFieldNotFound, fieldID)
	}
	if !cfg.QuestionType.Valid() {
		return fmt.Errorf("%w: question type %q", ErrConfigMismatch, cfg.QuestionType)
	}
	if len(cfg.Options) == 0 {
		cfg.Options = questionOptions(cfg.QuestionType)
	} else {
		cfg.Options = slices.Clone(cfg.Options)
	}
	d.fields[fieldID].Question = &cfg
	return nil
}

// RemoveLabel drops an added label from the view and from every step.
func (d *Document) RemoveLabel(fieldID string) error {
	if !slices.Contains(d.labels, fieldID) {
		return fmt.Errorf("%w: label %s", ErrFieldNotFound, fieldID)
	}
	d.labels = slices.DeleteFunc(d.labels, func(id string) bool { return id == fieldID })
	d.detach(fieldID)
	return nil
}

// RemoveQuestion drops an added question from the view and from every step.
func (d *Document) RemoveQuestion(fieldID string) error {
	if !slices.Contains(d.questions, fieldID) {
		return fmt.Errorf("%w: question %s", ErrFieldNotFound, fieldID)
	}
	d.questions = slices.DeleteFunc(d.questions, func(id string) bool { return id == fieldID })
	d.detach(fieldID)
	return nil
}

func (d *Document) detach(fieldID string) {
	for _, n := range d.steps {
		n.fieldIDs = slices.DeleteFunc(n.fieldIDs, func(id string) bool { return id == fieldID })
	}
	d.release(fieldID)
}
