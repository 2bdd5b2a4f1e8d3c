package plan

import (
	"fmt"
	"slices"
	"strings"
)

// FieldSession edits a private copy of one field. Nothing reaches the
// document until Save succeeds.
type FieldSession struct {
	doc        *Document
	requested  string
	target     string
	redirected bool
	isNew      bool
	closed     bool
	field      Field
}

// Target is the id of the step the field is saved into.
func (s *FieldSession) Target() string { return s.target }

// Requested is the step id the session was opened for.
func (s *FieldSession) Requested() string { return s.requested }

// Redirected reports whether routing changed the target step.
func (s *FieldSession) Redirected() bool { return s.redirected }

func (s *FieldSession) IsNew() bool { return s.isNew }

// Field returns a copy of the candidate value.
func (s *FieldSession) Field() Field { return s.field.Clone() }

func (s *FieldSession) SetName(name string) {
	s.field.Name = name
}

func (s *FieldSession) SetDescription(desc string) {
	s.field.Description = desc
}

func (s *FieldSession) SetRequired(required bool) {
	s.field.Required = required
}

// SetDefaultValue sets the default answer. An empty string clears it.
func (s *FieldSession) SetDefaultValue(v string) {
	if v == "" {
		s.field.DefaultValue = nil
		return
	}
	s.field.DefaultValue = &v
}

// SetType switches the field type. Every type-specific configuration is
// dropped and the new type starts from its defaults; options survive only
// between select and checkbox.
func (s *FieldSession) SetType(t FieldType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFieldType, t)
	}

	prev := s.field
	s.field.Type = t
	s.field.Photo = nil
	s.field.Label = nil
	s.field.Question = nil
	s.field.Options = nil

	switch t {
	case FieldPhoto:
		s.field.Photo = defaultPhotoConfig()
	case FieldLabel:
		s.field.Label = defaultLabelConfig()
	case FieldQuestion:
		s.field.Question = &QuestionConfig{QuestionType: QuestionText}
	}
	if t.HasOptions() && prev.Type.HasOptions() {
		s.field.Options = slices.Clone(prev.Options)
	}

	switch t {
	case FieldCheckbox:
		s.SetDefaultValue("false")
	case FieldNumber:
		s.SetDefaultValue("0")
	case FieldSelect:
		s.field.DefaultValue = nil
	}
	return nil
}

func (s *FieldSession) Options() []string {
	return slices.Clone(s.field.Options)
}

func (s *FieldSession) AddOption(text string) error {
	if !s.field.Type.HasOptions() {
		return fmt.Errorf("%w: %s has no options", ErrConfigMismatch, s.field.Type)
	}
	s.field.Options = append(s.field.Options, text)
	return nil
}

func (s *FieldSession) UpdateOption(i int, text string) error {
	if i < 0 || i >= len(s.field.Options) {
		return fmt.Errorf("%w: option %d of %d", ErrIndexOutOfRange, i, len(s.field.Options))
	}
	s.field.Options[i] = text
	return nil
}

func (s *FieldSession) RemoveOption(i int) error {
	if i < 0 || i >= len(s.field.Options) {
		return fmt.Errorf("%w: option %d of %d", ErrIndexOutOfRange, i, len(s.field.Options))
	}
	s.field.Options = slices.Delete(s.field.Options, i, i+1)
	return nil
}

func (s *FieldSession) photo() (*PhotoConfig, error) {
	if s.field.Type != FieldPhoto || s.field.Photo == nil {
		return nil, fmt.Errorf("%w: %s is not a photo field", ErrConfigMismatch, s.field.Type)
	}
	return s.field.Photo, nil
}

func (s *FieldSession) SetPhotoQuantity(n int) error {
	p, err := s.photo()
	if err != nil {
		return err
	}
	if n < 1 || n > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidPhotoQuantity, n)
	}
	p.Quantity = n
	return nil
}

func (s *FieldSession) SetPhotoRequired(v bool) error {
	p, err := s.photo()
	if err != nil {
		return err
	}
	p.Required = v
	return nil
}

func (s *FieldSession) SetAllowAnnotations(v bool) error {
	p, err := s.photo()
	if err != nil {
		return err
	}
	p.AllowAnnotations = v
	return nil
}

func (s *FieldSession) SetCompareWithStandard(v bool) error {
	p, err := s.photo()
	if err != nil {
		return err
	}
	p.CompareWithStandard = v
	return nil
}

func (s *FieldSession) SetLabelConfig(cfg LabelConfig) error {
	if s.field.Type != FieldLabel {
		return fmt.Errorf("%w: %s is not a label field", ErrConfigMismatch, s.field.Type)
	}
	if !cfg.ComparisonType.Valid() {
		return fmt.Errorf("%w: comparison %q", ErrConfigMismatch, cfg.ComparisonType)
	}
	s.field.Label = &cfg
	return nil
}

// SetQuestionType changes the kind of answer and resets the options to the
// ones that kind implies.
func (s *FieldSession) SetQuestionType(q QuestionType) error {
	if s.field.Type != FieldQuestion {
		return fmt.Errorf("%w: %s is not a question field", ErrConfigMismatch, s.field.Type)
	}
	if !q.Valid() {
		return fmt.Errorf("%w: question type %q", ErrConfigMismatch, q)
	}
	s.field.Question = &QuestionConfig{QuestionType: q, Options: questionOptions(q)}
	return nil
}

// EnableConditional attaches an empty rule: depends on nothing, any result.
func (s *FieldSession) EnableConditional() {
	if s.field.Conditional == nil {
		s.field.Conditional = &Conditional{Condition: ConditionAny}
	}
}

// DisableConditional removes the rule entirely.
func (s *FieldSession) DisableConditional() {
	s.field.Conditional = nil
}

func (s *FieldSession) SetConditional(dependsOn string, cond Condition) error {
	if !cond.Valid() {
		return fmt.Errorf("%w: condition %q", ErrInvalidCondition, cond)
	}
	s.field.Conditional = &Conditional{DependsOn: dependsOn, Condition: cond}
	return nil
}

// Save validates the candidate and writes it into the target step: appended
// when new, replaced by id otherwise. A session saves at most once.
func (s *FieldSession) Save() (Field, error) {
	if s.closed {
		return Field{}, ErrSessionClosed
	}
	if strings.TrimSpace(s.field.Name) == "" {
		return Field{}, ErrEmptyFieldName
	}

	f := s.field.Clone()
	var err error
	if s.isNew {
		err = s.doc.commitNew(s.target, f)
	} else {
		err = s.doc.commitEdit(s.target, f)
	}
	if err != nil {
		return Field{}, err
	}

	s.closed = true
	return f.Clone(), nil
}

// Cancel closes the session without touching the document.
func (s *FieldSession) Cancel() {
	s.closed = true
}

func defaultPhotoConfig() *PhotoConfig {
	return &PhotoConfig{Required: true, Quantity: 1}
}

func defaultLabelConfig() *LabelConfig {
	return &LabelConfig{IsEnabled: true, ComparisonType: CompareExact}
}

// FieldDraft is a complete field value submitted at once, as the HTTP API
// does. Apply replays it through the session setters so the same rules
// hold.
type FieldDraft struct {
	Name         string          `json:"name"`
	Type         FieldType       `json:"type"`
	Required     bool            `json:"required"`
	Description  string          `json:"description"`
	Options      []string        `json:"options"`
	Photo        *PhotoConfig    `json:"photoConfig"`
	Label        *LabelConfig    `json:"labelConfig"`
	Question     *QuestionConfig `json:"questionConfig"`
	Conditional  *Conditional    `json:"conditional"`
	DefaultValue *string         `json:"defaultValue"`
}

func (s *FieldSession) Apply(fd FieldDraft) error {
	if fd.Type == "" {
		fd.Type = s.field.Type
	}
	if fd.Type != s.field.Type {
		if err := s.SetType(fd.Type); err != nil {
			return err
		}
	}

	s.SetName(fd.Name)
	s.SetDescription(fd.Description)
	s.SetRequired(fd.Required)

	if fd.Type.HasOptions() {
		s.field.Options = nil
		for _, o := range fd.Options {
			if err := s.AddOption(o); err != nil {
				return err
			}
		}
	}

	if fd.Photo != nil {
		if err := s.SetPhotoQuantity(fd.Photo.Quantity); err != nil {
			return err
		}
		_ = s.SetPhotoRequired(fd.Photo.Required)
		_ = s.SetAllowAnnotations(fd.Photo.AllowAnnotations)
		_ = s.SetCompareWithStandard(fd.Photo.CompareWithStandard)
	}

	if fd.Label != nil {
		if err := s.SetLabelConfig(*fd.Label); err != nil {
			return err
		}
	}

	if fd.Question != nil {
		if err := s.SetQuestionType(fd.Question.QuestionType); err != nil {
			return err
		}
		if len(fd.Question.Options) > 0 {
			s.field.Question.Options = slices.Clone(fd.Question.Options)
		}
		s.field.Question.CorrectAnswer = fd.Question.CorrectAnswer
	}

	if fd.Conditional == nil {
		s.DisableConditional()
	} else if err := s.SetConditional(fd.Conditional.DependsOn, fd.Conditional.Condition); err != nil {
		return err
	}

	if fd.DefaultValue != nil {
		s.SetDefaultValue(*fd.DefaultValue)
	}
	return nil
}
