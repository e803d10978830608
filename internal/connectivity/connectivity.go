// Package connectivity tracks which uid is attached through which live
// connection: a presence map, nothing more. The room actor is the one that
// reconciles a disconnect against spec.md §4.5 (mark-offline-and-synthesize-
// a-timeout versus full-leave) using Tracker only to decide who's online.
// Grounded on the pingChan/pingPlayers liveness pattern in
// rakaoran-GuessTheObject's game/player_actor.go and game/lobby.go
// (PingPlayers ticker), generalized from a ping loop to an explicit
// connect/disconnect tracker the room actor drives.
package connectivity

import "sync"

// Tracker maps uid to the connection id currently representing it, scoped
// to one room (one Tracker per room actor).
type Tracker struct {
	mu          sync.Mutex
	connections map[string]string // uid -> connectionId
}

func New() *Tracker {
	return &Tracker{connections: make(map[string]string)}
}

// Attach records uid as owned by connectionId, replacing any prior
// connection for the same uid (a reconnect race; the newer connection wins).
func (t *Tracker) Attach(uid, connectionId string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connections[uid] = connectionId
}

// Detach removes the (uid, connectionId) pair if connectionId is still the
// one on file — a stale disconnect from a connection that was already
// superseded by a reconnect must not evict the newer one. Returns true if
// this disconnect is the one that actually takes uid offline.
func (t *Tracker) Detach(uid, connectionId string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.connections[uid]; !ok || current != connectionId {
		return false
	}
	delete(t.connections, uid)
	return true
}

// IsOnline reports whether uid currently has a live connection attached.
func (t *Tracker) IsOnline(uid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.connections[uid]
	return ok
}

// OnlineUids returns every uid with a live connection attached.
func (t *Tracker) OnlineUids() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.connections))
	for uid := range t.connections {
		out = append(out, uid)
	}
	return out
}
