package generic_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/followup-engine/generic"
)

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())

	zero, err := generic.ParseDate("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = generic.ParseDate("03/10/2025")
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		A generic.Date `json:"a"`
		B generic.Date `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2025-03-10","b":""}`), &v))
	assert.Equal(t, day("2025-03-10"), v.A)
	assert.True(t, v.B.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2025-03-10","b":""}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"tomorrow"}`), &v))
}

func TestLead_IdentityKey(t *testing.T) {
	tests := []struct {
		name string
		lead generic.Lead
		want string
	}{
		{"email wins", generic.Lead{Email: " Ann@Example.COM ", Phone: "555-1234", Name: "Ann"}, "ann@example.com"},
		{"phone digits", generic.Lead{Phone: "+1 (212) 555-0199", LeadID: "123"}, "12125550199"},
		{"lead id", generic.Lead{LeadID: "123456", Name: "Ann"}, "123456"},
		{"name last", generic.Lead{Name: "Ann"}, "Ann"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lead.IdentityKey())
		})
	}
}

func TestClient_Anchor(t *testing.T) {
	c := generic.Client{Status: generic.StatusUnreached, StartDate: day("2025-03-10"), ReachedStart: day("2025-03-20")}
	assert.Equal(t, day("2025-03-10"), c.Anchor())

	c.Status = generic.StatusReached
	assert.Equal(t, day("2025-03-20"), c.Anchor())
}

func TestTaskIndex(t *testing.T) {
	task := generic.Task{ClientID: "c1", Date: day("2025-03-10"), Type: generic.TaskCall, Title: "Call", Source: generic.SourceAuto}
	idx := generic.NewTaskIndex(nil)

	assert.True(t, idx.Add(task))
	assert.False(t, idx.Add(task), "same key twice")

	other := task
	other.ID = "different id"
	other.Status = generic.TaskDone
	assert.True(t, idx.Has(other), "id and status are not part of the key")

	other.Source = generic.SourceManual
	assert.False(t, idx.Has(other))

	idx.Remove(task)
	assert.False(t, idx.Has(task))
}

func TestIsFutureOpenAuto(t *testing.T) {
	today := day("2025-03-10")
	base := generic.Task{Date: today, Source: generic.SourceAuto, Status: generic.TaskOpen}
	assert.True(t, base.IsFutureOpenAuto(today))

	past := base
	past.Date = today.AddDays(-1)
	assert.False(t, past.IsFutureOpenAuto(today))

	done := base
	done.Status = generic.TaskDone
	assert.False(t, done.IsFutureOpenAuto(today))

	manual := base
	manual.Source = generic.SourceManual
	assert.False(t, manual.IsFutureOpenAuto(today))
}

func TestProgressOf(t *testing.T) {
	p := generic.ProgressOf([]generic.Task{
		{Status: generic.TaskDone},
		{Status: generic.TaskOpen},
		{Status: generic.TaskOpen},
	})
	assert.Equal(t, 2, p.Open)
	assert.Equal(t, 1, p.Done)
	assert.Equal(t, "33.33", p.Completion.StringFixed(2))

	assert.True(t, generic.ProgressOf(nil).Completion.IsZero())
}

func TestErrorHelpers(t *testing.T) {
	dup := &generic.DuplicateTaskError{Key: generic.TaskKey{ClientID: "c1", Date: "2025-03-10", Type: generic.TaskSMS, Title: "SMS", Source: generic.SourceAuto}}
	assert.True(t, errors.Is(dup, generic.ErrDuplicateTask))
	assert.True(t, generic.IsConflict(dup))
	assert.Contains(t, dup.Error(), "client=c1")

	assert.True(t, generic.IsNotFound(generic.ErrTaskNotFound))
	assert.True(t, generic.IsClientError(generic.ErrInvalidSettings))
	assert.False(t, generic.IsClientError(generic.ErrClientNotFound))
}
