// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/followup-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements generic.TxStore with plain maps.
type Memory struct {
	mu   sync.RWMutex
	data *memoryData
}

var _ generic.TxStore = (*Memory)(nil)

type memoryData struct {
	clients  map[generic.ClientID]generic.Client
	order    []generic.ClientID
	tasks    []generic.Task // insertion order
	index    generic.TaskIndex
	settings *generic.CalendarSettings
}

func NewMemory() *Memory {
	return &Memory{data: newMemoryData()}
}

func newMemoryData() *memoryData {
	return &memoryData{
		clients: make(map[generic.ClientID]generic.Client),
		index:   make(generic.TaskIndex),
	}
}

// Client operations

func (m *Memory) SaveClient(ctx context.Context, c generic.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveClient(ctx, c)
}

func (m *Memory) GetClient(ctx context.Context, id generic.ClientID) (*generic.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetClient(ctx, id)
}

func (m *Memory) ListClients(ctx context.Context) ([]generic.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListClients(ctx)
}

func (m *Memory) DeleteClient(ctx context.Context, id generic.ClientID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteClient(ctx, id)
}

// Task operations

func (m *Memory) InsertTasks(ctx context.Context, tasks []generic.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.InsertTasks(ctx, tasks)
}

func (m *Memory) GetTask(ctx context.Context, id generic.TaskID) (*generic.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetTask(ctx, id)
}

func (m *Memory) ListTasks(ctx context.Context, filter generic.TaskFilter) ([]generic.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListTasks(ctx, filter)
}

func (m *Memory) SetTaskStatus(ctx context.Context, id generic.TaskID, status generic.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SetTaskStatus(ctx, id, status)
}

func (m *Memory) DeleteTask(ctx context.Context, id generic.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteTask(ctx, id)
}

func (m *Memory) DeleteTasks(ctx context.Context, filter generic.TaskFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteTasks(ctx, filter)
}

// Settings operations

func (m *Memory) GetSettings(ctx context.Context) (generic.CalendarSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetSettings(ctx)
}

func (m *Memory) SaveSettings(ctx context.Context, s generic.CalendarSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveSettings(ctx, s)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(m.data); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (d *memoryData) clone() *memoryData {
	out := newMemoryData()
	for k, v := range d.clients {
		out.clients[k] = v
	}
	out.order = append([]generic.ClientID(nil), d.order...)
	out.tasks = append([]generic.Task(nil), d.tasks...)
	for k := range d.index {
		out.index[k] = struct{}{}
	}
	if d.settings != nil {
		s := d.settings.Clone()
		out.settings = &s
	}
	return out
}

// =============================================================================
// UNLOCKED OPERATIONS - memoryData implements generic.Store
// =============================================================================

func (d *memoryData) SaveClient(_ context.Context, c generic.Client) error {
	if _, ok := d.clients[c.ID]; !ok {
		d.order = append(d.order, c.ID)
	}
	d.clients[c.ID] = c
	return nil
}

func (d *memoryData) GetClient(_ context.Context, id generic.ClientID) (*generic.Client, error) {
	c, ok := d.clients[id]
	if !ok {
		return nil, generic.ErrClientNotFound
	}
	return &c, nil
}

func (d *memoryData) ListClients(_ context.Context) ([]generic.Client, error) {
	out := make([]generic.Client, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.clients[id])
	}
	return out, nil
}

func (d *memoryData) DeleteClient(ctx context.Context, id generic.ClientID) error {
	if _, ok := d.clients[id]; !ok {
		return generic.ErrClientNotFound
	}
	delete(d.clients, id)
	for i, cid := range d.order {
		if cid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	_, err := d.DeleteTasks(ctx, generic.TaskFilter{ClientIDs: []generic.ClientID{id}})
	return err
}

func (d *memoryData) InsertTasks(_ context.Context, tasks []generic.Task) error {
	// Check every key first so a failing batch writes nothing
	batch := make(generic.TaskIndex, len(tasks))
	for _, t := range tasks {
		if d.index.Has(t) || !batch.Add(t) {
			return &generic.DuplicateTaskError{Key: t.Key()}
		}
	}
	for _, t := range tasks {
		d.index.Add(t)
		d.tasks = append(d.tasks, t)
	}
	return nil
}

func (d *memoryData) GetTask(_ context.Context, id generic.TaskID) (*generic.Task, error) {
	i := d.find(id)
	if i < 0 {
		return nil, generic.ErrTaskNotFound
	}
	t := d.tasks[i]
	return &t, nil
}

func (d *memoryData) ListTasks(_ context.Context, filter generic.TaskFilter) ([]generic.Task, error) {
	var out []generic.Task
	for _, t := range d.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (d *memoryData) SetTaskStatus(_ context.Context, id generic.TaskID, status generic.TaskStatus) error {
	i := d.find(id)
	if i < 0 {
		return generic.ErrTaskNotFound
	}
	d.tasks[i].Status = status
	return nil
}

func (d *memoryData) DeleteTask(_ context.Context, id generic.TaskID) error {
	i := d.find(id)
	if i < 0 {
		return generic.ErrTaskNotFound
	}
	d.index.Remove(d.tasks[i])
	d.tasks = append(d.tasks[:i], d.tasks[i+1:]...)
	return nil
}

func (d *memoryData) DeleteTasks(_ context.Context, filter generic.TaskFilter) (int, error) {
	kept := d.tasks[:0]
	removed := 0
	for _, t := range d.tasks {
		if filter.Matches(t) {
			d.index.Remove(t)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	d.tasks = kept
	return removed, nil
}

func (d *memoryData) GetSettings(_ context.Context) (generic.CalendarSettings, error) {
	if d.settings == nil {
		return generic.DefaultCalendarSettings(), nil
	}
	return d.settings.Clone(), nil
}

func (d *memoryData) SaveSettings(_ context.Context, s generic.CalendarSettings) error {
	c := s.Clone()
	d.settings = &c
	return nil
}

func (d *memoryData) find(id generic.TaskID) int {
	for i, t := range d.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
