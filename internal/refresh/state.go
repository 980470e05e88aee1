package refresh

import "sync"

// Status is the observable progress of a room refresh.
type Status struct {
	Refreshing bool `json:"refreshing"`
	Processed  int  `json:"processed"`
	Total      int  `json:"total"`
}

type roomState struct {
	Status
	done chan struct{}
}

// StateTable tracks refresh progress per room. A single mutex guards the
// whole table; no I/O happens while it is held.
type StateTable struct {
	mu    sync.Mutex
	rooms map[string]*roomState
}

// NewStateTable returns an empty table.
func NewStateTable() *StateTable {
	return &StateTable{rooms: make(map[string]*roomState)}
}

// begin marks room as refreshing. It reports false when a refresh of the
// room is already running.
func (t *StateTable) begin(room string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.rooms[room]; ok && st.Refreshing {
		return false
	}
	t.rooms[room] = &roomState{
		Status: Status{Refreshing: true},
		done:   make(chan struct{}),
	}
	return true
}

func (t *StateTable) setTotal(room string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.rooms[room]; ok {
		st.Total = total
	}
}

// advance counts one processed item, never past Total.
func (t *StateTable) advance(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.rooms[room]; ok && st.Processed < st.Total {
		st.Processed++
	}
}

// finish marks the run idle and releases waiters. Processed and Total are
// kept so the final progress stays visible.
func (t *StateTable) finish(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.rooms[room]
	if !ok || !st.Refreshing {
		return
	}
	st.Refreshing = false
	close(st.done)
}

// abort forgets a run that never started its worker.
func (t *StateTable) abort(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.rooms[room]; ok {
		close(st.done)
		delete(t.rooms, room)
	}
}

// Get returns the room's status, or the zero Status for an unknown room.
func (t *StateTable) Get(room string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.rooms[room]; ok {
		return st.Status
	}
	return Status{}
}

func (t *StateTable) doneChan(room string) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.rooms[room]; ok {
		return st.done
	}
	return nil
}
