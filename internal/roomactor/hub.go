package roomactor

import (
	"sync"

	"triviaarena/internal/dispatch"
	"triviaarena/internal/engine"
	"triviaarena/internal/questions"
	"triviaarena/internal/roommanager"
	"triviaarena/internal/scheduler"
	"triviaarena/internal/store"
)

// Hub owns the directory of live RoomActors, the server-wide analogue of
// rakaoran-GuessTheObject's lobby.rooms map, generalized from a single
// actor goroutine driven by one big select (LobbyActor) to one actor
// goroutine per room plus a mutex-protected directory, since spec.md §5
// requires only per-room serialization, not a single global sequencer.
type Hub struct {
	store    store.Store
	provider questions.Provider

	mu    sync.Mutex
	rooms map[string]*RoomActor
}

func NewHub(s store.Store, provider questions.Provider) *Hub {
	return &Hub{store: s, provider: provider, rooms: make(map[string]*RoomActor)}
}

// GetOrStart returns the running actor for roomId, starting one if this
// replica doesn't have it running yet (e.g. first message after a room was
// created on another instance, spec.md §5's open sharding question).
func (h *Hub) GetOrStart(roomId string) *RoomActor {
	h.mu.Lock()
	defer h.mu.Unlock()

	if a, ok := h.rooms[roomId]; ok {
		return a
	}

	m := roommanager.New(h.store)
	e := engine.New(h.store, h.provider)
	d := dispatch.New(e, m, h.store)
	sched := scheduler.New(scheduler.NewRealTimerCreator())

	a := New(roomId, h.store, m, d, sched)
	a.OnEmpty(h.Remove)
	h.rooms[roomId] = a
	go a.Run()
	return a
}

// Remove stops and evicts roomId's actor, called once the room actor
// itself observes the room emptied (spec.md §4.2).
func (h *Hub) Remove(roomId string) {
	h.mu.Lock()
	a, ok := h.rooms[roomId]
	delete(h.rooms, roomId)
	h.mu.Unlock()

	if ok {
		a.Stop()
	}
}
