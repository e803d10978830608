package dispatch

import (
	"context"
	"strconv"

	"triviaarena/internal/domain"
	"triviaarena/internal/engine"
	"triviaarena/internal/quorum"
	"triviaarena/internal/roommanager"
	"triviaarena/internal/settings"
	"triviaarena/internal/store"
)

// Dispatcher authorizes and executes inbound ClientEvents against a single
// room's collaborators, and translates their results into outbound
// ServerEvents. One Dispatcher is shared across rooms (it holds no
// per-room state); the room actor supplies the room and per-room
// collaborators (quorum vote, connectivity) on every call.
type Dispatcher struct {
	engine  *engine.Engine
	manager *roommanager.Manager
	store   store.Store
}

func New(e *engine.Engine, m *roommanager.Manager, s store.Store) *Dispatcher {
	return &Dispatcher{engine: e, manager: m, store: s}
}

// Result is what the room actor needs after handling one ClientEvent: the
// new authoritative room, events to broadcast to every connected session,
// and timer instructions.
type Result struct {
	Room           domain.Room
	Broadcast      []ServerEvent
	ArmTurnTimer   bool
	ArmStealTimer  bool
	ArmQuorumTimer bool
	CancelTimers   bool
	GameEnded      bool
	// LeaveUid is set when byUid fully departed the room (explicit
	// leave-room event): the room actor must detach its session and
	// connectivity entry. RoomEmpty is set alongside it when that
	// departure emptied the room.
	LeaveUid  string
	RoomEmpty bool
}

// Handle authorizes byUid for ev against room and, if authorized, executes
// it. Every call produces a Result even on failure: the caller always owes
// the submitter an ack (spec.md §6's ack-reply-per-event contract), sent by
// the caller as a ServerErrorEvent carrying the returned error, or as a
// ServerAck when the call succeeded.
func (d *Dispatcher) Handle(ctx context.Context, room domain.Room, byUid string, ev ClientEvent, votes *quorum.Vote, onlineUids []string) (Result, error) {
	switch ev.Type {
	case ClientStartGame:
		return d.handleStartGame(ctx, room, byUid)
	case ClientSubmitAnswer:
		return d.handleAnswer(ctx, room, byUid, ev.AnsweredIndex, ev.QuestionId)
	case ClientSubmitSteal:
		return d.handleSteal(ctx, room, byUid, ev.AnsweredIndex, ev.QuestionId)
	case ClientUpdateSettings:
		return d.handleUpdateSettings(ctx, room, byUid, ev.Settings)
	case ClientVotePlayAgain:
		return d.handleVotePlayAgain(ctx, room, byUid, ev.PlayAgain, votes, onlineUids)
	case ClientLeaveRoom:
		return d.handleLeaveRoom(ctx, room, byUid)
	case ClientRejoin:
		return d.handleRejoin(ctx, room, byUid)
	case ClientLobbyMessage:
		return d.handleLobbyMessage(ctx, room, byUid, ev.Text)
	case ClientPrivateMessage:
		return d.handlePrivateMessage(ctx, room, byUid, ev.TargetUid, ev.Text)
	default:
		return Result{Room: room}, domain.ErrNoAction
	}
}

func (d *Dispatcher) handleStartGame(ctx context.Context, room domain.Room, byUid string) (Result, error) {
	if room.HostUid != byUid {
		return Result{Room: room}, domain.ErrNotHost
	}
	players, err := d.store.ListPlayers(ctx, room.Id)
	if err != nil {
		return Result{Room: room}, err
	}
	out, err := d.engine.StartGame(ctx, room, players)
	if err != nil {
		return Result{Room: room}, err
	}
	return d.toResult(ctx, out), nil
}

func (d *Dispatcher) handleAnswer(ctx context.Context, room domain.Room, byUid string, answeredIndex int, questionId string) (Result, error) {
	out, err := d.engine.SubmitAnswer(ctx, room, byUid, answeredIndex, questionId)
	if err != nil {
		return Result{Room: room}, err
	}
	return d.toResult(ctx, out), nil
}

func (d *Dispatcher) handleSteal(ctx context.Context, room domain.Room, byUid string, answeredIndex int, questionId string) (Result, error) {
	out, err := d.engine.SubmitSteal(ctx, room, byUid, answeredIndex, questionId)
	if err != nil {
		return Result{Room: room}, err
	}
	return d.toResult(ctx, out), nil
}

func (d *Dispatcher) handleUpdateSettings(ctx context.Context, room domain.Room, byUid string, payload *SettingsPayload) (Result, error) {
	if payload == nil {
		return Result{Room: room}, domain.ErrInvalidSettings
	}
	patch := settings.Patch{
		QuestionsPerPlayer: payload.QuestionsPerPlayer,
		TurnTimeoutSec:     payload.TurnTimeoutSec,
		StealTimeoutSec:    payload.StealTimeoutSec,
		AllowSteal:         payload.AllowSteal,
		BonusForSteal:      payload.BonusForSteal,
	}
	updated, err := d.manager.UpdateSettings(ctx, room.Id, byUid, patch)
	if err != nil {
		return Result{Room: room}, err
	}
	snapshot, err := d.buildSnapshot(ctx, updated)
	if err != nil {
		return Result{Room: room}, err
	}
	return Result{Room: updated, Broadcast: []ServerEvent{{Type: ServerRoomSnapshot, Room: snapshot}}}, nil
}

func (d *Dispatcher) handleVotePlayAgain(ctx context.Context, room domain.Room, byUid string, playAgain bool, votes *quorum.Vote, onlineUids []string) (Result, error) {
	if room.State != domain.RoomEnded {
		return Result{Room: room}, domain.ErrNoAction
	}
	firstVote := votes.Count() == 0
	votes.Cast(byUid, playAgain)
	yes, total := votes.Tally(onlineUids)

	if !votes.Reached(onlineUids) {
		return Result{
			Room:           room,
			Broadcast:      []ServerEvent{{Type: ServerPlayAgainStatus, PlayAgainYes: yes, PlayAgainTotal: total}},
			ArmQuorumTimer: firstVote,
		}, nil
	}

	votes.Reset()
	players, err := d.store.ListPlayers(ctx, room.Id)
	if err != nil {
		return Result{Room: room}, err
	}
	waitingRoom := room
	waitingRoom.State = domain.RoomWaiting
	out, err := d.engine.StartGame(ctx, waitingRoom, players)
	if err != nil {
		return Result{Room: room}, err
	}
	result := d.toResult(ctx, out)
	result.CancelTimers = true
	return result, nil
}

// handleLeaveRoom removes byUid from the room entirely (spec.md §4.2),
// distinct from a websocket disconnect (spec.md §4.5), which only marks a
// player offline while a game is active. The room actor is responsible for
// detaching byUid's session/connectivity entry and, if the room is now
// empty, tearing it down; both are signaled via Result.LeaveUid/RoomEmpty
// since the dispatcher itself holds no session state.
func (d *Dispatcher) handleLeaveRoom(ctx context.Context, room domain.Room, byUid string) (Result, error) {
	leaveResult, err := d.manager.Leave(ctx, room.Id, byUid)
	if err != nil {
		return Result{Room: room}, err
	}
	if leaveResult.RoomEmpty {
		return Result{Room: leaveResult.Room, LeaveUid: byUid, RoomEmpty: true}, nil
	}
	snapshot, err := d.buildSnapshot(ctx, leaveResult.Room)
	if err != nil {
		return Result{Room: leaveResult.Room, LeaveUid: byUid}, err
	}
	broadcast := []ServerEvent{{Type: ServerPlayerLeft, ActorUid: byUid, Room: snapshot}}
	return Result{Room: leaveResult.Room, Broadcast: broadcast, LeaveUid: byUid}, nil
}

// handleRejoin restores an offline player's session after a disconnect
// (spec.md §4.5, scenario S3). Besides flipping the player back online, it
// reconciles role against the room's current turn order: waiting/ended
// rooms always reinstate a player; an active room demotes to spectator
// anyone not part of the active rotation, or whose turn slot has already
// been passed, and otherwise reinstates player.
func (d *Dispatcher) handleRejoin(ctx context.Context, room domain.Room, byUid string) (Result, error) {
	p, ok, err := d.store.GetPlayer(ctx, room.Id, byUid)
	if err != nil {
		return Result{Room: room}, err
	}
	if !ok {
		return Result{Room: room}, domain.ErrNotInRoom
	}
	p.Online = true
	p.Role = reconcileRejoinRole(room, byUid)
	if err := d.store.UpsertPlayer(ctx, room.Id, p); err != nil {
		return Result{Room: room}, err
	}
	snapshot, err := d.buildSnapshot(ctx, room)
	if err != nil {
		return Result{Room: room}, err
	}
	return Result{
		Room:      room,
		Broadcast: []ServerEvent{{Type: ServerPlayerRejoined, ActorUid: byUid, Role: string(p.Role), Room: snapshot}},
	}, nil
}

// reconcileRejoinRole decides the role a reconnecting uid should hold
// (spec.md §4.5, scenario S3 / testable property #7).
func reconcileRejoinRole(room domain.Room, uid string) domain.PlayerRole {
	if room.State != domain.RoomActive {
		return domain.RolePlayer
	}
	idx := indexOf(room.ActiveTurnOrderUids, uid)
	if idx == -1 {
		return domain.RoleSpectator
	}
	if idx < room.CurrentPlayerIndexInOrder {
		return domain.RoleSpectator
	}
	if idx == room.CurrentPlayerIndexInOrder && room.CurrentTurnUid != uid {
		return domain.RoleSpectator
	}
	return domain.RolePlayer
}

func indexOf(uids []string, uid string) int {
	for i, u := range uids {
		if u == uid {
			return i
		}
	}
	return -1
}

// maxLobbyMessageLen bounds chat text (spec.md §6.1).
const maxLobbyMessageLen = 500

// handleLobbyMessage relays a chat message to every session in the room
// (spec.md §6.1/§6.2); chat moderation is explicitly out of scope, so this
// is a pure relay with no filtering beyond the length bound.
func (d *Dispatcher) handleLobbyMessage(ctx context.Context, room domain.Room, byUid, text string) (Result, error) {
	if text == "" {
		return Result{Room: room}, domain.ErrNoAction
	}
	if len(text) > maxLobbyMessageLen {
		return Result{Room: room}, domain.ErrMessageTooLong
	}
	return Result{Room: room, Broadcast: []ServerEvent{{Type: ServerLobbyMessage, ActorUid: byUid, Text: text}}}, nil
}

// handlePrivateMessage relays a chat message to a single targetUid; the
// room actor is responsible for routing the resulting ServerEvent to only
// that session instead of broadcasting it.
func (d *Dispatcher) handlePrivateMessage(ctx context.Context, room domain.Room, byUid, targetUid, text string) (Result, error) {
	if text == "" || targetUid == "" {
		return Result{Room: room}, domain.ErrNoAction
	}
	return Result{
		Room:      room,
		Broadcast: []ServerEvent{{Type: ServerPrivateMessage, ActorUid: byUid, TargetUid: targetUid, Text: text}},
	}, nil
}

// toResult translates an engine.Outcome into a dispatch.Result, fetching
// whatever extra data (question text, player snapshots) the outbound
// events need.
func (d *Dispatcher) toResult(ctx context.Context, out engine.Outcome) Result {
	result := Result{
		Room:          out.Room,
		ArmTurnTimer:  out.ArmTurnTimer,
		ArmStealTimer: out.ArmStealTimer,
		CancelTimers:  out.CancelTimers,
		GameEnded:     out.GameEnded,
	}
	for _, ev := range out.Events {
		result.Broadcast = append(result.Broadcast, d.translateEvent(ctx, out.Room, ev))
	}
	return result
}

func (d *Dispatcher) translateEvent(ctx context.Context, room domain.Room, ev engine.Event) ServerEvent {
	switch ev.Kind {
	case engine.EventQuestionPresented:
		q, err := d.store.GetQuestion(ctx, room.Id, ev.QuestionIndex)
		if err != nil {
			return ServerEvent{Type: ServerErrorEvent, Error: err.Error()}
		}
		return ServerEvent{
			Type: ServerQuestionPresented,
			ActorUid: ev.ActorUid,
			Question: &QuestionPayload{Id: q.Id, Text: q.Text, Options: q.Options[:], Category: q.Category},
		}
	case engine.EventAnswerResult:
		correct := ev.Correct
		return ServerEvent{Type: ServerAnswerResult, ActorUid: ev.ActorUid, Correct: &correct, ScoreDelta: ev.ScoreDelta}
	case engine.EventStealOpened:
		return ServerEvent{
			Type:       ServerStealOpened,
			QuestionId: strconv.Itoa(ev.QuestionIndex),
			NextUid:    ev.StealerUid,
			TimeoutSec: room.GameSettings.StealTimeoutSec,
		}
	case engine.EventStealResult:
		correct := ev.Correct
		return ServerEvent{Type: ServerStealResult, ActorUid: ev.ActorUid, Correct: &correct, ScoreDelta: ev.ScoreDelta}
	case engine.EventTurnAdvanced:
		return ServerEvent{Type: ServerTurnAdvanced, NextUid: ev.NextUid}
	case engine.EventGameEnded:
		return ServerEvent{Type: ServerGameEnded, Error: ev.Reason}
	default:
		return ServerEvent{Type: ServerErrorEvent, Error: "unknown-event"}
	}
}

func (d *Dispatcher) buildSnapshot(ctx context.Context, room domain.Room) (*RoomSnapshot, error) {
	players, err := d.store.ListPlayers(ctx, room.Id)
	if err != nil {
		return nil, err
	}
	payloads := make([]PlayerPayload, 0, len(players))
	for _, p := range players {
		payloads = append(payloads, PlayerPayload{
			Uid: p.Uid, Name: p.Name, AvatarUrl: p.AvatarUrl,
			Score: p.Score, Online: p.Online, Role: string(p.Role),
		})
	}
	return &RoomSnapshot{
		Id: room.Id, Code: room.Code, HostUid: room.HostUid,
		State: string(room.State), CurrentTurn: room.CurrentTurnUid,
		Players: payloads,
		Settings: SettingsPayload{
			QuestionsPerPlayer: intPtr(room.GameSettings.QuestionsPerPlayer),
			TurnTimeoutSec:     intPtr(room.GameSettings.TurnTimeoutSec),
			StealTimeoutSec:    intPtr(room.GameSettings.StealTimeoutSec),
			AllowSteal:         boolPtr(room.GameSettings.AllowSteal),
			BonusForSteal:      intPtr(room.GameSettings.BonusForSteal),
		},
	}, nil
}

// BuildSnapshot exposes buildSnapshot to the room actor for the join/leave
// broadcasts that roommanager.Manager itself triggers.
func (d *Dispatcher) BuildSnapshot(ctx context.Context, room domain.Room) (*RoomSnapshot, error) {
	return d.buildSnapshot(ctx, room)
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
