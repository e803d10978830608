package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triviaarena/internal/domain"
)

func TestMemoryStore_CreateRoomWithHost(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	room := domain.Room{Id: "room-1", Code: "ABCDEF", HostUid: "host-1", State: domain.RoomWaiting, CreatedAt: time.Now()}
	host := domain.Player{Uid: "host-1", Name: "Host", JoinOrder: 0, Role: domain.RolePlayer}

	require.NoError(t, s.CreateRoomWithHost(ctx, room, host))

	got, err := s.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, room.Code, got.Code)

	p, ok, err := s.GetPlayer(ctx, "room-1", "host-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Host", p.Name)
}

func TestMemoryStore_GetRoom_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetRoom(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestMemoryStore_ReserveCode_Collision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.ReserveCode(ctx, "ABCDEF", "room-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ReserveCode(ctx, "ABCDEF", "room-2")
	require.NoError(t, err)
	assert.False(t, ok, "a code already reserved must not be reservable again")

	roomId, err := s.LookupCodeToRoomId(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, "room-1", roomId)
}

func TestMemoryStore_ListPlayers_SortedByJoinOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	room := domain.Room{Id: "room-1", State: domain.RoomWaiting}
	require.NoError(t, s.CreateRoomWithHost(ctx, room, domain.Player{Uid: "a", JoinOrder: 2}))
	require.NoError(t, s.UpsertPlayer(ctx, "room-1", domain.Player{Uid: "b", JoinOrder: 0}))
	require.NoError(t, s.UpsertPlayer(ctx, "room-1", domain.Player{Uid: "c", JoinOrder: 1}))

	players, err := s.ListPlayers(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{players[0].Uid, players[1].Uid, players[2].Uid})
}

func TestMemoryStore_Questions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	qs := []domain.Question{
		{Id: "0", Text: "q1", CorrectIndex: 1},
		{Id: "1", Text: "q2", CorrectIndex: 2},
	}
	require.NoError(t, s.PutQuestions(ctx, "room-1", qs))

	got, err := s.GetQuestion(ctx, "room-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "q2", got.Text)

	_, err = s.GetQuestion(ctx, "room-1", 5)
	assert.ErrorIs(t, err, domain.ErrQuestionMissing)

	require.NoError(t, s.DeleteQuestions(ctx, "room-1"))
	_, err = s.GetQuestion(ctx, "room-1", 0)
	assert.ErrorIs(t, err, domain.ErrQuestionMissing)
}

func TestMemoryStore_RunRoomTransaction_SerializesConcurrentJoins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	room := domain.Room{Id: "room-1", State: domain.RoomWaiting}
	require.NoError(t, s.CreateRoomWithHost(ctx, room, domain.Player{Uid: "host", JoinOrder: 0}))

	const attempts = 16
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		i := i
		go func() {
			err := s.RunRoomTransaction(ctx, "room-1", func(ctx context.Context, tx Tx) error {
				players, err := tx.ListPlayers(ctx, "room-1")
				if err != nil {
					return err
				}
				if len(players) >= domain.MaxPlayers {
					return domain.ErrRoomFull
				}
				return tx.UpsertPlayer(ctx, "room-1", domain.Player{
					Uid:       uidFor(i),
					JoinOrder: len(players),
					Role:      domain.RolePlayer,
				})
			})
			results <- err == nil
		}()
	}

	admitted := 0
	for i := 0; i < attempts; i++ {
		if <-results {
			admitted++
		}
	}

	players, err := s.ListPlayers(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, players, admitted+1, "the host plus the serialized admitted count must match the room's final player count")
	assert.LessOrEqual(t, len(players), domain.MaxPlayers)
}

func uidFor(i int) string {
	return "p" + string(rune('a'+i))
}
