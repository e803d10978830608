package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triviaarena/internal/domain"
	"triviaarena/internal/engine"
	"triviaarena/internal/questions"
	"triviaarena/internal/quorum"
	"triviaarena/internal/roommanager"
	"triviaarena/internal/store"
)

func setup(t *testing.T, uids ...string) (*Dispatcher, store.Store, domain.Room) {
	t.Helper()
	s := store.NewMemoryStore()
	room := domain.Room{Id: "room-1", HostUid: uids[0], State: domain.RoomWaiting, GameSettings: domain.DefaultGameSettings()}
	for i, uid := range uids {
		p := domain.Player{Uid: uid, Name: uid, JoinOrder: i, Online: true, Role: domain.RolePlayer}
		if i == 0 {
			require.NoError(t, s.CreateRoomWithHost(context.Background(), room, p))
		} else {
			require.NoError(t, s.UpsertPlayer(context.Background(), room.Id, p))
		}
	}
	pool := make([]domain.RawQuestion, 10)
	for i := range pool {
		pool[i] = domain.RawQuestion{Text: "q", CorrectAnswer: "A", IncorrectAnswers: []string{"B", "C", "D"}}
	}
	e := engine.New(s, questions.NewStaticProvider(pool))
	m := roommanager.New(s)
	d := New(e, m, s)
	return d, s, room
}

func TestDispatcher_StartGame_RequiresHost(t *testing.T) {
	d, _, room := setup(t, "host", "p2")

	_, err := d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientStartGame}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrNotHost)
}

func TestDispatcher_StartGame_BroadcastsQuestionPresented(t *testing.T) {
	d, _, room := setup(t, "host", "p2")

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientStartGame}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerQuestionPresented, res.Broadcast[0].Type)
	assert.True(t, res.ArmTurnTimer)
}

func TestDispatcher_SubmitAnswer_UnknownEventIsNoAction(t *testing.T) {
	d, _, room := setup(t, "host", "p2")

	_, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: "nonsense"}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoAction)
}

func TestDispatcher_UpdateSettings_BroadcastsSnapshot(t *testing.T) {
	d, _, room := setup(t, "host", "p2")
	turnTimeout := 40

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{
		Type:     ClientUpdateSettings,
		Settings: &SettingsPayload{TurnTimeoutSec: &turnTimeout},
	}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerRoomSnapshot, res.Broadcast[0].Type)
	assert.Equal(t, 40, *res.Broadcast[0].Room.Settings.TurnTimeoutSec)
}

func TestDispatcher_VotePlayAgain_QuorumRestartsGame(t *testing.T) {
	d, s, room := setup(t, "host", "p2")
	room.State = domain.RoomEnded
	require.NoError(t, s.SaveRoom(context.Background(), room))

	votes := quorum.NewVote()
	online := []string{"host", "p2"}

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientVotePlayAgain, PlayAgain: true}, votes, online)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerPlayAgainStatus, res.Broadcast[0].Type)

	res, err = d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientVotePlayAgain, PlayAgain: true}, votes, online)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomActive, res.Room.State)
}

func TestDispatcher_VotePlayAgain_ReachesQuorumWithoutUnanimity(t *testing.T) {
	d, s, room := setup(t, "host", "p2", "p3")
	room.State = domain.RoomEnded
	require.NoError(t, s.SaveRoom(context.Background(), room))

	votes := quorum.NewVote()
	online := []string{"host", "p2", "p3"}

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientVotePlayAgain, PlayAgain: true}, votes, online)
	require.NoError(t, err)
	assert.True(t, res.ArmQuorumTimer, "first vote arms the inactivity timer")

	res, err = d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientVotePlayAgain, PlayAgain: true}, votes, online)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomActive, res.Room.State, "2 of 3 online players is enough, p3 never votes")
	assert.True(t, res.CancelTimers)
}

func TestDispatcher_LeaveRoom_RemovesPlayerAndBroadcasts(t *testing.T) {
	d, s, room := setup(t, "host", "p2")

	res, err := d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientLeaveRoom}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "p2", res.LeaveUid)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerPlayerLeft, res.Broadcast[0].Type)

	_, ok, err := s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDispatcher_LeaveRoom_EmptyRoomSignalsTeardown(t *testing.T) {
	d, _, room := setup(t, "host")

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientLeaveRoom}, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.RoomEmpty)
	assert.Equal(t, "host", res.LeaveUid)
}

func TestDispatcher_Rejoin_RestoresOfflinePlayer(t *testing.T) {
	d, s, room := setup(t, "host", "p2")
	p2, _, err := s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	p2.Online = false
	require.NoError(t, s.UpsertPlayer(context.Background(), room.Id, p2))

	res, err := d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientRejoin}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerPlayerRejoined, res.Broadcast[0].Type)

	p2, _, err = s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	assert.True(t, p2.Online)
}

func TestDispatcher_Rejoin_DemotesSlotAlreadyPassed(t *testing.T) {
	d, s, room := setup(t, "host", "p2", "p3")
	room.State = domain.RoomActive
	room.ActiveTurnOrderUids = []string{"host", "p2", "p3"}
	room.CurrentPlayerIndexInOrder = 2
	room.CurrentTurnUid = "p3"
	require.NoError(t, s.SaveRoom(context.Background(), room))

	p2, _, err := s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	p2.Online = false
	require.NoError(t, s.UpsertPlayer(context.Background(), room.Id, p2))

	res, err := d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientRejoin}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, string(domain.RoleSpectator), res.Broadcast[0].Role)

	p2, _, err = s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	assert.True(t, p2.Online)
	assert.Equal(t, domain.RoleSpectator, p2.Role)
}

func TestDispatcher_Rejoin_NotInRotationBecomesSpectator(t *testing.T) {
	d, s, room := setup(t, "host", "p2")
	room.State = domain.RoomActive
	room.ActiveTurnOrderUids = []string{"host"}
	room.CurrentPlayerIndexInOrder = 0
	room.CurrentTurnUid = "host"
	require.NoError(t, s.SaveRoom(context.Background(), room))

	p2, _, err := s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	p2.Online = false
	require.NoError(t, s.UpsertPlayer(context.Background(), room.Id, p2))

	res, err := d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientRejoin}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleSpectator), res.Broadcast[0].Role)
}

func TestDispatcher_Rejoin_ReinstatesPlayerWhenSlotNotYetPassed(t *testing.T) {
	d, s, room := setup(t, "host", "p2", "p3")
	room.State = domain.RoomActive
	room.ActiveTurnOrderUids = []string{"host", "p2", "p3"}
	room.CurrentPlayerIndexInOrder = 1
	room.CurrentTurnUid = "p2"
	require.NoError(t, s.SaveRoom(context.Background(), room))

	p2, _, err := s.GetPlayer(context.Background(), room.Id, "p2")
	require.NoError(t, err)
	p2.Online = false
	require.NoError(t, s.UpsertPlayer(context.Background(), room.Id, p2))

	res, err := d.Handle(context.Background(), room, "p2", ClientEvent{Type: ClientRejoin}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RolePlayer), res.Broadcast[0].Role)
}

func TestDispatcher_LobbyMessage_RejectsOverlongText(t *testing.T) {
	d, _, room := setup(t, "host", "p2")

	text := strings.Repeat("a", 501)
	_, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientLobbyMessage, Text: text}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)
}

func TestDispatcher_LobbyMessage_Broadcasts(t *testing.T) {
	d, _, room := setup(t, "host", "p2")

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientLobbyMessage, Text: "gl hf"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerLobbyMessage, res.Broadcast[0].Type)
	assert.Equal(t, "gl hf", res.Broadcast[0].Text)
}

func TestDispatcher_PrivateMessage_TargetsSingleUid(t *testing.T) {
	d, _, room := setup(t, "host", "p2")

	res, err := d.Handle(context.Background(), room, "host", ClientEvent{Type: ClientPrivateMessage, TargetUid: "p2", Text: "psst"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Broadcast, 1)
	assert.Equal(t, ServerPrivateMessage, res.Broadcast[0].Type)
	assert.Equal(t, "p2", res.Broadcast[0].TargetUid)
}
