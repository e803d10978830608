package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triviaarena/internal/domain"
	"triviaarena/internal/store"
)

func TestRegistry_CreateRoom_GeneratesCodeAndHost(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s)

	room, err := r.CreateRoom(context.Background(), "host-1", "Host", domain.DefaultGameSettings(), false)
	require.NoError(t, err)
	assert.Len(t, room.Code, codeLength)
	assert.Equal(t, "host-1", room.HostUid)
	assert.Equal(t, domain.RoomWaiting, room.State)

	host, ok, err := s.GetPlayer(context.Background(), room.Id, "host-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Host", host.Name)
}

func TestRegistry_LookupByCode(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s)

	created, err := r.CreateRoom(context.Background(), "host-1", "Host", domain.DefaultGameSettings(), false)
	require.NoError(t, err)

	found, err := r.LookupByCode(context.Background(), created.Code)
	require.NoError(t, err)
	assert.Equal(t, created.Id, found.Id)
}

func TestRegistry_LookupByCode_NotFound(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s)

	_, err := r.LookupByCode(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRegistry_CreateRoom_DistinctCodesAcrossRooms(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		room, err := r.CreateRoom(context.Background(), "host", "Host", domain.DefaultGameSettings(), false)
		require.NoError(t, err)
		assert.False(t, seen[room.Code], "codes must not repeat across rooms")
		seen[room.Code] = true
	}
}
