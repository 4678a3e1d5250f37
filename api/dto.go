/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types
  (generic.Client, generic.Task, generic.CalendarSettings) already carry
  the wire shape, so responses mostly return them directly; request types
  live here because they carry validation tags.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Request structs are checked with go-playground/validator before the
  handler runs. Dates use the custom "date" tag (YYYY-MM-DD).

SEE ALSO:
  - handlers.go: Uses these types
  - validation.go: Validator setup
*/
package api

import "github.com/warp/followup-engine/generic"

// =============================================================================
// LEADS
// =============================================================================

// ParseRequest carries a raw lead dump.
type ParseRequest struct {
	Text string `json:"text" validate:"required"`
}

// ParseResponse lists the leads found in the text.
type ParseResponse struct {
	Leads      []generic.Lead `json:"leads"`
	MultiLead  bool           `json:"multiLead"`
	Identified int            `json:"identified"`
}

// ImportRequest imports either raw text or already-parsed leads.
type ImportRequest struct {
	Text  string         `json:"text" validate:"required_without=Leads"`
	Leads []generic.Lead `json:"leads" validate:"required_without=Text"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientRequest creates or edits a client.
type ClientRequest struct {
	Name         string `json:"name" validate:"required_without_all=Email Phone LeadID"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	Route        string `json:"route"`
	Dates        string `json:"dates"`
	Pax          string `json:"pax"`
	LeadID       string `json:"leadId"`
	Cabin        string `json:"cabin"`
	Notes        string `json:"notes"`
	Status       string `json:"status" validate:"omitempty,oneof=unreached reached"`
	StartDate    string `json:"startDate" validate:"omitempty,date"`
	ReachedStart string `json:"reachedStart" validate:"omitempty,date"`
}

func (r ClientRequest) toClient(id generic.ClientID) generic.Client {
	return generic.Client{
		Lead: generic.Lead{
			Name:   r.Name,
			Email:  r.Email,
			Phone:  r.Phone,
			Route:  r.Route,
			Dates:  r.Dates,
			Pax:    r.Pax,
			LeadID: r.LeadID,
			Cabin:  r.Cabin,
			Notes:  r.Notes,
		},
		ID:           id,
		Status:       generic.ClientStatus(r.Status),
		StartDate:    mustDate(r.StartDate),
		ReachedStart: mustDate(r.ReachedStart),
	}
}

// StatusRequest moves a client between unreached and reached.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=unreached reached"`
}

// =============================================================================
// TASKS
// =============================================================================

// TaskRequest adds a manual or custom task.
type TaskRequest struct {
	ClientID   string `json:"clientId"`
	Date       string `json:"date" validate:"required,date"`
	Type       string `json:"type" validate:"omitempty,oneof=call callvm sms email custom"`
	Title      string `json:"title" validate:"max=200"`
	Source     string `json:"source" validate:"omitempty,oneof=manual custom"`
	Notes      string `json:"notes"`
	Importance string `json:"importance" validate:"omitempty,oneof=low normal high"`
	Notify     bool   `json:"notify"`
}

func (r TaskRequest) toTask() generic.Task {
	return generic.Task{
		ClientID:   generic.ClientID(r.ClientID),
		Date:       mustDate(r.Date),
		Type:       generic.TaskType(r.Type),
		Title:      r.Title,
		Source:     generic.TaskSource(r.Source),
		Notes:      r.Notes,
		Importance: generic.Importance(r.Importance),
		Notify:     r.Notify,
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

// OverrideRequest forces a date to be working or off.
type OverrideRequest struct {
	Date string `json:"date" validate:"required,date"`
	Kind string `json:"kind" validate:"required,oneof=work off"`
}

// RegenerateResponse reports how many auto tasks a regeneration created.
type RegenerateResponse struct {
	Created  int                      `json:"created"`
	Settings *generic.CalendarSettings `json:"settings,omitempty"`
}

// CountResponse reports how many records an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo lead dump.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// LoadScenarioResponse lists what a scenario created.
type LoadScenarioResponse struct {
	Scenario ScenarioDTO      `json:"scenario"`
	Clients  []generic.Client `json:"clients"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// mustDate parses a date the validator already accepted. Empty stays zero.
func mustDate(s string) generic.Date {
	d, _ := generic.ParseDate(s)
	return d
}
