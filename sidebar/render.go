package sidebar

import (
	"github.com/google/uuid"

	"github.com/ashita-ai/hinagata/internal/authz"
	sdk "github.com/ashita-ai/hinagata/sdk/go/hinagata"

	"github.com/ashita-ai/hinagata/fieldspec"
)

// State is everything the UI depends on. Render derives the complete view
// from it on every call; there is no incremental mutation of a previous
// view.
type State struct {
	User       *sdk.User
	Agents     []sdk.AgentDefinition
	SelectedID uuid.UUID
	Values     map[string]string
}

// View is a plain description of what the UI should show.
type View struct {
	LoggedIn    bool
	Username    string
	ShowLogin   bool // login + register affordances
	ShowLogout  bool
	ShowCreate  bool
	Agents      []AgentItem
	Fields      []FieldView
	HasSelected bool
}

// AgentItem is one row in the agent list with its per-user affordances.
type AgentItem struct {
	ID        uuid.UUID
	Name      string
	Owner     string
	Selected  bool
	CanEdit   bool
	CanDelete bool
	CanClone  bool
}

// FieldView is one form input for the selected agent.
type FieldView struct {
	Label       string
	Type        fieldspec.Type
	Placeholder string
	Default     string
	Value       string // live value, empty when unset
	HasValue    bool
}

// Render maps session state to a view. Edit and delete only show for the
// owner; clone shows for any logged-in user.
func Render(state State) View {
	v := View{
		LoggedIn:   state.User != nil,
		ShowLogin:  state.User == nil,
		ShowLogout: state.User != nil,
		ShowCreate: state.User != nil,
	}
	if state.User != nil {
		v.Username = state.User.Username
	}

	for _, def := range state.Agents {
		item := AgentItem{
			ID:       def.ID,
			Name:     def.Name,
			Owner:    def.OwnerName,
			Selected: def.ID == state.SelectedID,
			CanClone: state.User != nil,
		}
		if state.User != nil {
			mutable := authz.CanMutate(def.OwnerID, state.User.ID) == authz.Allow
			item.CanEdit = mutable
			item.CanDelete = mutable
		}
		v.Agents = append(v.Agents, item)

		if item.Selected {
			v.HasSelected = true
			for _, f := range def.FormFields {
				value, ok := state.Values[f.Placeholder]
				v.Fields = append(v.Fields, FieldView{
					Label:       f.Label,
					Type:        f.Type,
					Placeholder: f.Placeholder,
					Default:     f.Default,
					Value:       value,
					HasValue:    ok,
				})
			}
		}
	}

	return v
}
