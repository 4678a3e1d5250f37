/*
Package factory converts the persisted JSON state document to and from a store.

PURPOSE:
  The whole client/task collection can be exported as one JSON document
  and imported back, replacing what a store holds. This is the backup and
  migration format, and what the CLI import/export commands read and write.

JSON SCHEMA:
  {
    "clients": [
      {"id": "...", "name": "Ann Lee", "email": "...", "phone": "...",
       "route": "JFK-LHR", "dates": "...", "pax": "2", "leadId": "...",
       "cabin": "Business", "notes": "", "status": "unreached",
       "startDate": "2025-03-10", "reachedStart": "", "createdAt": "2025-03-10"}
    ],
    "tasks": [
      {"id": "...", "clientId": "...", "clientName": "Ann Lee",
       "date": "2025-03-10", "type": "call", "title": "Call",
       "label": "Unreached Day 1", "source": "auto", "status": "open"}
    ],
    "settings": {
      "workingDays": {"mon": true, ..., "sun": false},
      "moveOffDays": true,
      "overrides": {"2025-12-25": "off"}
    }
  }

DEFAULTS ON DECODE:
  - missing settings           -> DefaultCalendarSettings
  - missing client id/status   -> uuid / unreached
  - missing task id            -> uuid
  - missing task status/source -> open / manual
  - repeated task keys         -> first occurrence kept

SEE ALSO:
  - generic/store.go: Store the document is loaded into
  - cmd/followup: import/export commands
*/
package factory

import (
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/warp/followup-engine/generic"
)

// State is the persisted document.
type State struct {
	Clients  []generic.Client         `json:"clients"`
	Tasks    []generic.Task           `json:"tasks"`
	Settings generic.CalendarSettings `json:"settings"`
}

type rawState struct {
	Clients  []generic.Client          `json:"clients"`
	Tasks    []generic.Task            `json:"tasks"`
	Settings *generic.CalendarSettings `json:"settings"`
}

// Decode reads and validates a state document, filling defaults.
func Decode(r io.Reader) (*State, error) {
	var raw rawState
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "factory: decode state")
	}

	st := &State{Settings: generic.DefaultCalendarSettings()}
	if raw.Settings != nil {
		st.Settings = raw.Settings.Clone()
		if err := st.Settings.Validate(); err != nil {
			return nil, eris.Wrap(err, "factory: settings")
		}
	}

	known := make(map[generic.ClientID]bool, len(raw.Clients))
	for _, c := range raw.Clients {
		if c.ID == "" {
			c.ID = generic.ClientID(uuid.NewString())
		}
		if c.Status == "" {
			c.Status = generic.StatusUnreached
		}
		if !c.Status.Valid() {
			return nil, eris.Wrapf(generic.ErrInvalidStatus, "factory: client %s status %q", c.ID, c.Status)
		}
		if known[c.ID] {
			return nil, eris.Errorf("factory: client %s appears twice", c.ID)
		}
		known[c.ID] = true
		st.Clients = append(st.Clients, c)
	}

	idx := make(generic.TaskIndex, len(raw.Tasks))
	for _, t := range raw.Tasks {
		if err := normalizeTask(&t); err != nil {
			return nil, err
		}
		if t.ClientID != "" && !known[t.ClientID] {
			return nil, eris.Wrapf(generic.ErrClientNotFound, "factory: task %s references client %s", t.ID, t.ClientID)
		}
		if !idx.Add(t) {
			continue
		}
		st.Tasks = append(st.Tasks, t)
	}
	return st, nil
}

func normalizeTask(t *generic.Task) error {
	if t.ID == "" {
		t.ID = generic.TaskID(uuid.NewString())
	}
	if t.Status == "" {
		t.Status = generic.TaskOpen
	}
	if t.Source == "" {
		t.Source = generic.SourceManual
	}
	switch {
	case !t.Type.Valid():
		return eris.Wrapf(generic.ErrInvalidTask, "factory: task %s type %q", t.ID, t.Type)
	case !t.Source.Valid():
		return eris.Wrapf(generic.ErrInvalidTask, "factory: task %s source %q", t.ID, t.Source)
	case !t.Status.Valid():
		return eris.Wrapf(generic.ErrInvalidStatus, "factory: task %s status %q", t.ID, t.Status)
	case t.Date.IsZero():
		return eris.Wrapf(generic.ErrInvalidTask, "factory: task %s has no date", t.ID)
	}
	return nil
}

// Encode writes st as indented JSON.
func Encode(w io.Writer, st State) error {
	if st.Clients == nil {
		st.Clients = []generic.Client{}
	}
	if st.Tasks == nil {
		st.Tasks = []generic.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(st), "factory: encode state")
}

// Load replaces everything the store holds with st, atomically.
func Load(ctx context.Context, store generic.TxStore, st *State) error {
	return store.WithTx(ctx, func(tx generic.Store) error {
		clients, err := tx.ListClients(ctx)
		if err != nil {
			return err
		}
		for _, c := range clients {
			if err := tx.DeleteClient(ctx, c.ID); err != nil {
				return err
			}
		}
		if _, err := tx.DeleteTasks(ctx, generic.TaskFilter{}); err != nil {
			return err
		}
		if err := tx.SaveSettings(ctx, st.Settings); err != nil {
			return err
		}
		for _, c := range st.Clients {
			if err := tx.SaveClient(ctx, c); err != nil {
				return err
			}
		}
		return tx.InsertTasks(ctx, st.Tasks)
	})
}

// Dump reads the whole store into a State.
func Dump(ctx context.Context, store generic.Store) (*State, error) {
	clients, err := store.ListClients(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "factory: list clients")
	}
	tasks, err := store.ListTasks(ctx, generic.TaskFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "factory: list tasks")
	}
	cal, err := store.GetSettings(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "factory: settings")
	}
	return &State{Clients: clients, Tasks: tasks, Settings: cal}, nil
}
