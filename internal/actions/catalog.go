package actions

import "fmt"

// Kind identifies one of the supported calendar actions.
type Kind int

const (
	KindBook Kind = iota
	KindList
	KindCancel
	KindCheckAvailability
)

// Action names as exposed to the model.
const (
	NameBook              = "book_appointment"
	NameList              = "get_appointments"
	NameCancel            = "cancel_appointment"
	NameCheckAvailability = "check_availability"
)

// Param describes one argument of an action.
type Param struct {
	Name        string
	Type        string // "string" is the only primitive the model sends today
	Description string
	Required    bool
}

// Action is one entry of the catalog: a kind, the wire name the model
// uses, a description, and the argument schema.
type Action struct {
	Kind        Kind
	Name        string
	Description string
	Params      []Param
}

// NotFoundError reports a lookup for an action name that is not part
// of the catalog. Callers convert it into an observation string so a
// model hallucinating an action degrades gracefully.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// Catalog is the fixed registry of calendar actions.
type Catalog struct {
	actions []Action
	byName  map[string]Action
}

// NewCatalog builds the catalog of all supported actions.
func NewCatalog() *Catalog {
	all := []Action{
		{
			Kind:        KindBook,
			Name:        NameBook,
			Description: "Book a new appointment in the user's calendar.",
			Params: []Param{
				{Name: "title", Type: "string", Description: "The title of the appointment", Required: true},
				{Name: "start_time", Type: "string", Description: "Start time in ISO format (e.g. '2024-01-15T10:00:00')", Required: true},
				{Name: "end_time", Type: "string", Description: "End time in ISO format (e.g. '2024-01-15T11:00:00')", Required: true},
				{Name: "description", Type: "string", Description: "Optional description of the appointment"},
			},
		},
		{
			Kind:        KindList,
			Name:        NameList,
			Description: "List the user's appointments, optionally filtered by date.",
			Params: []Param{
				{Name: "date", Type: "string", Description: "Optional date filter in YYYY-MM-DD format"},
			},
		},
		{
			Kind:        KindCancel,
			Name:        NameCancel,
			Description: "Cancel an appointment by its calendar event id.",
			Params: []Param{
				{Name: "event_id", Type: "string", Description: "The calendar event id of the appointment to cancel", Required: true},
			},
		},
		{
			Kind:        KindCheckAvailability,
			Name:        NameCheckAvailability,
			Description: "Check whether a time slot is free in the user's calendar.",
			Params: []Param{
				{Name: "start_time", Type: "string", Description: "Start time in ISO format", Required: true},
				{Name: "end_time", Type: "string", Description: "End time in ISO format", Required: true},
			},
		},
	}

	byName := make(map[string]Action, len(all))
	for _, a := range all {
		byName[a.Name] = a
	}

	return &Catalog{actions: all, byName: byName}
}

// All returns every action in registration order.
func (c *Catalog) All() []Action {
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Lookup returns the action registered under name. Unknown names
// yield a *NotFoundError.
func (c *Catalog) Lookup(name string) (Action, error) {
	a, ok := c.byName[name]
	if !ok {
		return Action{}, &NotFoundError{Name: name}
	}
	return a, nil
}
