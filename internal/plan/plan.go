// Package plan implements the inspection plan document and its editing
// model: step ordering with the protected graphic inspection step, field
// collections, the field editor session, standard label/question
// injection and the graphic step curator.
//
// The package performs no I/O. Persistence goes through the Store
// interface.
package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GraphicStepName identifies the protected step.
const GraphicStepName = "INSPEÇÃO MATERIAL GRÁFICO"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusExpired, StatusArchived:
		return true
	}
	return false
}

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldPhoto    FieldType = "photo"
	FieldFile     FieldType = "file"
	FieldTextarea FieldType = "textarea"
	FieldLabel    FieldType = "label"
	FieldQuestion FieldType = "question"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldSelect, FieldCheckbox, FieldPhoto,
		FieldFile, FieldTextarea, FieldLabel, FieldQuestion:
		return true
	}
	return false
}

// HasOptions reports whether the type carries a choice list.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldCheckbox
}

type QuestionType string

const (
	QuestionYesNo          QuestionType = "yes_no"
	QuestionScale          QuestionType = "scale_1_5"
	QuestionText           QuestionType = "text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
)

func (q QuestionType) Valid() bool {
	switch q {
	case QuestionYesNo, QuestionScale, QuestionText, QuestionMultipleChoice:
		return true
	}
	return false
}

type Comparison string

const (
	CompareExact    Comparison = "exact"
	CompareSimilar  Comparison = "similar"
	ComparePresence Comparison = "presence"
)

func (c Comparison) Valid() bool {
	return c == CompareExact || c == CompareSimilar || c == ComparePresence
}

type Condition string

const (
	ConditionAny      Condition = "any"
	ConditionApproved Condition = "approved"
	ConditionRejected Condition = "rejected"
)

func (c Condition) Valid() bool {
	return c == ConditionAny || c == ConditionApproved || c == ConditionRejected
}

type Permission string

const (
	PermissionView    Permission = "view"
	PermissionEdit    Permission = "edit"
	PermissionDelete  Permission = "delete"
	PermissionExecute Permission = "execute"
	PermissionApprove Permission = "approve"
)

// Roles known to the access-control matrix.
var Roles = []string{"inspector", "assistant", "technician", "engineer", "supervisor"}

type Plan struct {
	ID         string        `json:"id,omitempty"`
	Name       string        `json:"name"`
	Products   []Product     `json:"products"`
	Revision   int           `json:"revision"`
	ValidUntil Date          `json:"validUntil"`
	Status     Status        `json:"status"`
	Steps      []Step        `json:"steps"`
	Tags       []string      `json:"tags"`
	CreatedBy  string        `json:"createdBy"`
	UpdatedBy  string        `json:"updatedBy"`
	Efficiency Efficiency    `json:"efficiency"`
	Access     AccessControl `json:"accessControl"`
	CreatedAt  *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time    `json:"updatedAt,omitempty"`
}

// Draft is the save shape: a plan without the identity and timestamps the
// store assigns.
type Draft struct {
	Name       string        `json:"name"`
	Products   []Product     `json:"products"`
	Revision   int           `json:"revision"`
	ValidUntil Date          `json:"validUntil"`
	Status     Status        `json:"status"`
	Steps      []Step        `json:"steps"`
	Tags       []string      `json:"tags"`
	CreatedBy  string        `json:"createdBy"`
	UpdatedBy  string        `json:"updatedBy"`
	Efficiency Efficiency    `json:"efficiency"`
	Access     AccessControl `json:"accessControl"`
}

// Plan converts the draft into a plan without identity.
func (d Draft) Plan() Plan {
	return Plan{
		Name:       d.Name,
		Products:   d.Products,
		Revision:   d.Revision,
		ValidUntil: d.ValidUntil,
		Status:     d.Status,
		Steps:      d.Steps,
		Tags:       d.Tags,
		CreatedBy:  d.CreatedBy,
		UpdatedBy:  d.UpdatedBy,
		Efficiency: d.Efficiency,
		Access:     d.Access,
	}
}

// Validate checks the header. The step tree is only ever changed through a
// Document, which keeps it consistent.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyPlanName
	}
	if d.Revision < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRevision, d.Revision)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}

// Draft strips identity and timestamps.
func (p Plan) Draft() Draft {
	return Draft{
		Name:       p.Name,
		Products:   p.Products,
		Revision:   p.Revision,
		ValidUntil: p.ValidUntil,
		Status:     p.Status,
		Steps:      p.Steps,
		Tags:       p.Tags,
		CreatedBy:  p.CreatedBy,
		UpdatedBy:  p.UpdatedBy,
		Efficiency: p.Efficiency,
		Access:     p.Access,
	}
}

type Product struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Voltage     string `json:"voltage"`
}

type Efficiency struct {
	AvgInspectionTime  float64  `json:"avgInspectionTime"`
	RejectionRate      float64  `json:"rejectionRate"`
	TopRejectionCauses []string `json:"topRejectionCauses"`
}

type AccessControl struct {
	Roles       []string    `json:"roles"`
	Permissions Permissions `json:"permissions"`
}

type Permissions struct {
	View    []string `json:"view"`
	Edit    []string `json:"edit"`
	Delete  []string `json:"delete"`
	Execute []string `json:"execute"`
	Approve []string `json:"approve"`
}

func (p *Permissions) list(perm Permission) (*[]string, bool) {
	switch perm {
	case PermissionView:
		return &p.View, true
	case PermissionEdit:
		return &p.Edit, true
	case PermissionDelete:
		return &p.Delete, true
	case PermissionExecute:
		return &p.Execute, true
	case PermissionApprove:
		return &p.Approve, true
	}
	return nil, false
}

// DefaultAccessControl is the matrix a new plan starts with.
func DefaultAccessControl() AccessControl {
	return AccessControl{
		Roles: []string{"inspector"},
		Permissions: Permissions{
			View:    []string{"inspector"},
			Edit:    []string{"technician"},
			Delete:  []string{"engineer"},
			Execute: []string{"inspector", "assistant"},
			Approve: []string{"technician", "engineer", "supervisor"},
		},
	}
}

type Step struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Order               int     `json:"order"`
	Required            bool    `json:"required"`
	EstimatedTime       int     `json:"estimatedTime"`
	Fields              []Field `json:"fields"`
	IsGraphicInspection bool    `json:"isGraphicInspection,omitempty"`
}

type Field struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         FieldType       `json:"type"`
	Required     bool            `json:"required"`
	Description  string          `json:"description,omitempty"`
	Options      []string        `json:"options,omitempty"`
	Photo        *PhotoConfig    `json:"photoConfig,omitempty"`
	Label        *LabelConfig    `json:"labelConfig,omitempty"`
	Question     *QuestionConfig `json:"questionConfig,omitempty"`
	Conditional  *Conditional    `json:"conditional,omitempty"`
	DefaultValue *string         `json:"defaultValue,omitempty"`
}

type PhotoConfig struct {
	Required            bool `json:"required"`
	Quantity            int  `json:"quantity"`
	AllowAnnotations    bool `json:"allowAnnotations"`
	CompareWithStandard bool `json:"compareWithStandard"`
}

type LabelConfig struct {
	PDFURL         string     `json:"pdfUrl"`
	IsEnabled      bool       `json:"isEnabled"`
	RequiresPhoto  bool       `json:"requiresPhoto"`
	ComparisonType Comparison `json:"comparisonType"`
}

type QuestionConfig struct {
	QuestionType  QuestionType `json:"questionType"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
}

type Conditional struct {
	DependsOn string    `json:"dependsOn"`
	Condition Condition `json:"condition"`
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.Options = cloneStrings(f.Options)
	if f.Photo != nil {
		c := *f.Photo
		out.Photo = &c
	}
	if f.Label != nil {
		c := *f.Label
		out.Label = &c
	}
	if f.Question != nil {
		c := *f.Question
		c.Options = cloneStrings(f.Question.Options)
		out.Question = &c
	}
	if f.Conditional != nil {
		c := *f.Conditional
		out.Conditional = &c
	}
	if f.DefaultValue != nil {
		v := *f.DefaultValue
		out.DefaultValue = &v
	}
	return out
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	if p.Products != nil {
		out.Products = append(make([]Product, 0, len(p.Products)), p.Products...)
	}
	out.Tags = cloneStrings(p.Tags)
	out.Efficiency.TopRejectionCauses = cloneStrings(p.Efficiency.TopRejectionCauses)
	out.Access = p.Access.clone()
	out.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		out.Steps[i] = s
		out.Steps[i].Fields = make([]Field, len(s.Fields))
		for j, f := range s.Fields {
			out.Steps[i].Fields[j] = f.Clone()
		}
	}
	return out
}

func (a AccessControl) clone() AccessControl {
	return AccessControl{
		Roles: cloneStrings(a.Roles),
		Permissions: Permissions{
			View:    cloneStrings(a.Permissions.View),
			Edit:    cloneStrings(a.Permissions.Edit),
			Delete:  cloneStrings(a.Permissions.Delete),
			Execute: cloneStrings(a.Permissions.Execute),
			Approve: cloneStrings(a.Permissions.Approve),
		},
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

const dateLayout = "2006-01-02"

// Date is a calendar day. It marshals as YYYY-MM-DD and accepts either that
// form or a full RFC 3339 timestamp when unmarshalling.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
