package sidebar

import (
	sdk "github.com/ashita-ai/hinagata/sdk/go/hinagata"

	"github.com/ashita-ai/hinagata/prompt"
)

// Form holds the live field values for one selected agent. Every value
// change recomputes the full composed prompt and pushes it to the
// injection target; the recompute is idempotent, so pushing the same
// state twice yields the same block.
type Form struct {
	def    sdk.AgentDefinition
	values map[string]string
	target InjectionTarget
}

// NewForm creates a form for the given definition. No push happens until
// the first SetValue or an explicit Push.
func NewForm(def sdk.AgentDefinition, target InjectionTarget) *Form {
	return &Form{
		def:    def,
		values: make(map[string]string),
		target: target,
	}
}

// SetValue records a live value keyed by field placeholder and pushes the
// recomposed block. An empty value is still a live value and overrides the
// field default.
func (f *Form) SetValue(placeholder, value string) error {
	f.values[placeholder] = value
	return f.Push()
}

// ClearValue forgets a live value so the field default applies again.
func (f *Form) ClearValue(placeholder string) error {
	delete(f.values, placeholder)
	return f.Push()
}

// Values returns a copy of the live values.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Composed returns the plain composed prompt for the current values.
func (f *Form) Composed() string {
	return prompt.Compose(f.def.Prompt, f.def.FormFields, f.values)
}

// Push formats the current composition and hands it to the target.
func (f *Form) Push() error {
	return f.target.Inject(prompt.FormatForInjection(f.Composed()))
}
