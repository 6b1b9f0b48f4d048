// Package fieldspec defines the schema for an agent's fill-in form fields and
// validates user-authored field lists.
//
// Field lists are authored as free text in the sidebar, so Parse accepts
// strict JSON first and falls back to a single lenient pass that tolerates
// the usual hand-typed sloppiness (single quotes, unquoted keys, trailing
// commas). See Parse for the exact rules.
package fieldspec

import "fmt"

// Type enumerates the supported input kinds for a form field.
type Type string

const (
	TypeText     Type = "text"
	TypeNumber   Type = "number"
	TypePassword Type = "password"
	TypeTextarea Type = "textarea"
)

// Valid reports whether t is one of the supported input kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypePassword, TypeTextarea:
		return true
	}
	return false
}

// FieldSpec describes one fill-in field of an agent template.
//
// Placeholder doubles as the key under which the field's live value appears
// in the composed prompt, so it must be unique enough to be meaningful —
// but uniqueness is the author's problem, not enforced here.
type FieldSpec struct {
	Label       string `json:"label"`
	Type        Type   `json:"type"`
	Placeholder string `json:"placeholder"`
	Default     string `json:"default,omitempty"`
}

// Validate checks that every element supplies a non-empty label, a supported
// type, and a non-empty placeholder. A spec failing any requirement fails as
// a whole unit; the first failing element is reported.
func Validate(specs []FieldSpec) error {
	for i, s := range specs {
		if s.Label == "" {
			return &FieldError{Index: i, Key: "label", Reason: "missing"}
		}
		if s.Type == "" {
			return &FieldError{Index: i, Key: "type", Reason: "missing"}
		}
		if !s.Type.Valid() {
			return &FieldError{Index: i, Key: "type", Reason: fmt.Sprintf("unsupported value %q", s.Type)}
		}
		if s.Placeholder == "" {
			return &FieldError{Index: i, Key: "placeholder", Reason: "missing"}
		}
	}
	return nil
}
