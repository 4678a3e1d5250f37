package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_ListAll(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[[]ScenarioDTO](t, resp)
	require.Len(t, got, len(scenarios))
	assert.Equal(t, "single-lead", got[0].ID)
}

func TestScenario_AllScenariosLoadWithoutError(t *testing.T) {
	// GIVEN: Each demo dump
	// WHEN: Loaded through the API
	// THEN: The expected number of clients exists, and only those

	want := map[string]int{
		"single-lead":   1,
		"two-leads":     2,
		"blank-lines":   2,
		"repeated-lead": 1,
	}

	srv, svc := setupTestServer(t)
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: s.ID})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			got := decodeBody[LoadScenarioResponse](t, resp)
			assert.Len(t, got.Clients, want[s.ID])

			clients, err := svc.ListClients(context.Background())
			require.NoError(t, err)
			assert.Len(t, clients, want[s.ID], "previous scenario is cleared")
		})
	}
}

func TestScenario_Unknown(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/scenarios/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
