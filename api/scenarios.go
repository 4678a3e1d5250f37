/*
scenarios.go - Demo lead dumps for testing and demonstrations

PURPOSE:

	Provides pre-built lead dumps that populate the store with realistic
	clients for demos. Each scenario is raw pasted text, run through the
	same parse and import path as POST /api/import.

AVAILABLE SCENARIOS:

	single-lead:   One enquiry, name derived from the email
	two-leads:     Two "new ..." lines with routes, dates, cabin
	blank-lines:   Leads separated only by blank lines
	repeated-lead: One customer pasted three times, merged to one client

HOW SCENARIOS WORK:
 1. Reset the store (clients, tasks, settings back to default)
 2. Parse the dump
 3. Import the leads (cadences scheduled from today)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "two-leads"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ImportLeads handler
  - leads/parse.go: ParseText
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/followup-engine/factory"
	"github.com/warp/followup-engine/generic"
	"github.com/warp/followup-engine/leads"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	dump string
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "single-lead",
			Name:        "Single Lead",
			Description: "One enquiry without a name; the name comes from the email",
		},
		dump: "Please call back about the trip\njohn.smith@example.com",
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "two-leads",
			Name:        "Two Leads",
			Description: "Two leads marked with \"new\", with routes, dates, pax and cabin",
		},
		dump: "new John Smith JFK-LHR Mar 10 - Mar 17 2 pax\n" +
			"john.smith@example.com +1 555 123 4567\n" +
			"new Mary Jones CDG-NRT Business\n" +
			"mary@example.org",
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "blank-lines",
			Name:        "Blank-Line Separated",
			Description: "Leads separated only by blank lines",
		},
		dump: "Anna\nanna@x.com\n\nBob\nbob@y.com",
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "repeated-lead",
			Name:        "Repeated Lead",
			Description: "The same customer pasted in pieces; merged into one client",
		},
		dump: "new John Smith\nJOHN@Example.com\nnew J\njohn@example.com\n+44 20 7946 0958",
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadScenario resets the store and imports the scenario's dump.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	clients, err := h.loadScenario(r.Context(), s)
	if err != nil {
		writeServiceError(w, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, LoadScenarioResponse{Scenario: s.ScenarioDTO, Clients: clients})
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) ([]generic.Client, error) {
	empty := &factory.State{Settings: generic.DefaultCalendarSettings()}
	if err := factory.Load(ctx, h.Service.Store, empty); err != nil {
		return nil, err
	}
	return h.Service.ImportLeads(ctx, leads.ParseText(s.dump))
}
