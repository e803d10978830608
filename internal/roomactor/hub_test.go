package roomactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triviaarena/internal/domain"
	"triviaarena/internal/questions"
	"triviaarena/internal/registry"
	"triviaarena/internal/store"
)

func TestHub_GetOrStart_ReturnsSameActorForSameRoom(t *testing.T) {
	s := store.NewMemoryStore()
	h := NewHub(s, questions.NewStaticProvider(nil))

	a1 := h.GetOrStart("room-1")
	a2 := h.GetOrStart("room-1")
	assert.Same(t, a1, a2)
	t.Cleanup(a1.Stop)
}

func TestHub_Remove_StopsActorOnRoomEmpty(t *testing.T) {
	s := store.NewMemoryStore()
	reg := registry.New(s)
	room, err := reg.CreateRoom(context.Background(), "host", "Host", domain.DefaultGameSettings(), false)
	require.NoError(t, err)

	h := NewHub(s, questions.NewStaticProvider(nil))
	actor := h.GetOrStart(room.Id)

	_, err = actor.Join(context.Background(), "host", "Host", "", nil)
	require.NoError(t, err)

	actor.Leave("host")
	time.Sleep(50 * time.Millisecond)

	h.mu.Lock()
	_, stillTracked := h.rooms[room.Id]
	h.mu.Unlock()
	assert.False(t, stillTracked, "hub should evict the actor once the room empties")
}
