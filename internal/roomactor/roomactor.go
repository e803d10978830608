// Package roomactor runs one goroutine per room, serializing every mutation
// through a single select loop the way rakaoran-GuessTheObject's
// lobby.go LobbyActor multiplexes distinct request channels (addAndRunRoomChan,
// roomJoinReqs, roomDescUpdate, ticks, pingTicker) into one loop body.
// RoomActor generalizes that pattern from "one lobby, many rooms" to "one
// room, many concurrent callers" per spec.md §5's serialization requirement.
package roomactor

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"triviaarena/internal/connectivity"
	"triviaarena/internal/dispatch"
	"triviaarena/internal/domain"
	"triviaarena/internal/quorum"
	"triviaarena/internal/roommanager"
	"triviaarena/internal/scheduler"
	"triviaarena/internal/store"
	"triviaarena/internal/transport"
)

// playAgainInactivityTimeout is the fixed window spec.md §4.6 gives a just-
// ended room to reach play-again quorum before votes are discarded.
const playAgainInactivityTimeout = 30 * time.Second

type joinRequest struct {
	uid, name, avatarUrl string
	session              *transport.Session
	reply                chan joinReply
}

type joinReply struct {
	room domain.Room
	err  error
}

type leaveRequest struct {
	uid  string
	done chan struct{}
}

// disconnectRequest is a websocket-level close, distinct from an explicit
// leave-room client event (spec.md §4.5): while a game is active the
// player's row is preserved and only marked offline, with a synthesized
// timeout if they held the turn or the steal; otherwise it's a full leave.
type disconnectRequest struct {
	uid string
}

type clientEventRequest struct {
	uid string
	ev  dispatch.ClientEvent
}

type timerFireRequest struct {
	phase scheduler.Phase
	fence scheduler.Fence
}

// RoomActor owns a single room's authoritative state and every collaborator
// scoped to it. All fields below are touched only from Run's goroutine;
// everything else communicates through the channels.
type RoomActor struct {
	roomId string

	store      store.Store
	manager    *roommanager.Manager
	dispatcher *dispatch.Dispatcher
	scheduler  *scheduler.Scheduler

	connectivity *connectivity.Tracker
	votes        *quorum.Vote
	sessions     map[string]*transport.Session

	joins        chan joinRequest
	leaves       chan leaveRequest
	disconnects  chan disconnectRequest
	clientEvents chan clientEventRequest
	timerFires   chan timerFireRequest
	stop         chan struct{}

	onEmpty func(roomId string)

	mu     sync.Mutex
	closed bool
}

func New(roomId string, s store.Store, m *roommanager.Manager, d *dispatch.Dispatcher, sched *scheduler.Scheduler) *RoomActor {
	return &RoomActor{
		roomId:       roomId,
		store:        s,
		manager:      m,
		dispatcher:   d,
		scheduler:    sched,
		connectivity: connectivity.New(),
		votes:        quorum.NewVote(),
		sessions:     make(map[string]*transport.Session),
		joins:        make(chan joinRequest, 64),
		leaves:       make(chan leaveRequest, 64),
		disconnects:  make(chan disconnectRequest, 64),
		clientEvents: make(chan clientEventRequest, 1024),
		timerFires:   make(chan timerFireRequest, 16),
		stop:         make(chan struct{}),
	}
}

// Join admits uid (blocking on the actor loop) and attaches session for
// subsequent broadcasts.
func (a *RoomActor) Join(ctx context.Context, uid, name, avatarUrl string, session *transport.Session) (domain.Room, error) {
	reply := make(chan joinReply, 1)
	select {
	case a.joins <- joinRequest{uid: uid, name: name, avatarUrl: avatarUrl, session: session, reply: reply}:
	case <-ctx.Done():
		return domain.Room{}, ctx.Err()
	case <-a.stop:
		return domain.Room{}, domain.ErrRoomEnded
	}

	select {
	case r := <-reply:
		return r.room, r.err
	case <-ctx.Done():
		return domain.Room{}, ctx.Err()
	}
}

// Leave removes uid from the room entirely, fire-and-forget from the
// caller's side. Used for an explicit in-band leave-room event; the
// websocket layer should call Disconnect instead (spec.md §4.5).
func (a *RoomActor) Leave(uid string) {
	select {
	case a.leaves <- leaveRequest{uid: uid}:
	case <-a.stop:
	default:
	}
}

// Disconnect reports a websocket close, fire-and-forget from the caller's
// side. Whether this tears the player down entirely or just marks them
// offline depends on the room's state (spec.md §4.5).
func (a *RoomActor) Disconnect(uid string) {
	select {
	case a.disconnects <- disconnectRequest{uid: uid}:
	case <-a.stop:
	default:
	}
}

// Submit enqueues a decoded client event for processing. Never blocks the
// caller's read pump on a slow room: a full queue drops the event, and the
// client simply times out waiting for its ack (consistent with spec.md §7's
// treatment of stale/no-op client actions).
func (a *RoomActor) Submit(uid string, ev dispatch.ClientEvent) {
	select {
	case a.clientEvents <- clientEventRequest{uid: uid, ev: ev}:
	default:
	}
}

// Run is the actor's select loop; call it in its own goroutine.
func (a *RoomActor) Run() {
	for {
		select {
		case req := <-a.joins:
			a.handleJoin(req)
		case req := <-a.leaves:
			a.handleLeave(req)
		case req := <-a.disconnects:
			a.handleDisconnect(req)
		case req := <-a.clientEvents:
			a.handleClientEvent(req)
		case req := <-a.timerFires:
			a.handleTimerFire(req)
		case <-a.stop:
			a.scheduler.CancelAll(a.roomId)
			return
		}
	}
}

// OnEmpty registers a callback invoked (from the actor goroutine) once the
// room's last player leaves.
func (a *RoomActor) OnEmpty(f func(roomId string)) {
	a.onEmpty = f
}

// Stop tears down the actor; idempotent.
func (a *RoomActor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.stop)
}

func (a *RoomActor) handleJoin(req joinRequest) {
	ctx := context.Background()
	result, err := a.manager.Join(ctx, a.roomId, req.uid, req.name, req.avatarUrl)
	if err != nil {
		req.reply <- joinReply{err: err}
		return
	}
	a.connectivity.Attach(req.uid, req.uid)
	if req.session != nil {
		a.sessions[req.uid] = req.session
	}

	snapshot, err := a.dispatcher.BuildSnapshot(ctx, result.Room)
	if err == nil {
		a.broadcast(dispatch.ServerEvent{Type: dispatch.ServerRoomSnapshot, Room: snapshot})
	}
	req.reply <- joinReply{room: result.Room}
}

func (a *RoomActor) handleLeave(req leaveRequest) {
	ctx := context.Background()
	a.connectivity.Detach(req.uid, req.uid)
	delete(a.sessions, req.uid)

	result, err := a.manager.Leave(ctx, a.roomId, req.uid)
	if err != nil {
		log.Printf("room %s: leave %s: %v", a.roomId, req.uid, err)
		return
	}
	if result.RoomEmpty {
		a.scheduler.CancelAll(a.roomId)
		if a.onEmpty != nil {
			a.onEmpty(a.roomId)
		}
		return
	}
	snapshot, err := a.dispatcher.BuildSnapshot(ctx, result.Room)
	if err == nil {
		a.broadcast(dispatch.ServerEvent{Type: dispatch.ServerRoomSnapshot, Room: snapshot})
	}
}

// handleDisconnect reconciles a websocket close (spec.md §4.5). While a
// game is active the player's row survives: it's only marked offline, and
// if the disconnecting uid held the turn or the open steal, a timeout is
// synthesized in their name so the state machine doesn't stall on a
// vanished session. Outside an active game this is a full leave, same as
// an explicit leave-room event.
func (a *RoomActor) handleDisconnect(req disconnectRequest) {
	ctx := context.Background()
	room, err := a.store.GetRoom(ctx, a.roomId)
	if err != nil {
		a.connectivity.Detach(req.uid, req.uid)
		delete(a.sessions, req.uid)
		return
	}

	if room.State != domain.RoomActive {
		a.handleLeave(leaveRequest{uid: req.uid})
		return
	}

	delete(a.sessions, req.uid)
	a.connectivity.Detach(req.uid, req.uid)

	p, ok, err := a.store.GetPlayer(ctx, a.roomId, req.uid)
	if err != nil || !ok {
		return
	}
	p.Online = false
	if err := a.store.UpsertPlayer(ctx, a.roomId, p); err != nil {
		log.Printf("room %s: mark %s offline: %v", a.roomId, req.uid, err)
		return
	}
	snapshot, err := a.dispatcher.BuildSnapshot(ctx, room)
	if err == nil {
		a.broadcast(dispatch.ServerEvent{Type: dispatch.ServerPlayerOffline, ActorUid: req.uid, Room: snapshot})
	}

	questionId := strconv.Itoa(room.CurrentQuestionDbIndex)
	switch {
	case room.CurrentStealAttempt != nil && room.CurrentStealAttempt.StealerUid == req.uid:
		ev := dispatch.ClientEvent{Type: dispatch.ClientSubmitSteal, AnsweredIndex: -1, QuestionId: questionId}
		a.handleClientEvent(clientEventRequest{uid: req.uid, ev: ev})
	case room.CurrentStealAttempt == nil && room.CurrentTurnUid == req.uid:
		ev := dispatch.ClientEvent{Type: dispatch.ClientSubmitAnswer, AnsweredIndex: -1, QuestionId: questionId}
		a.handleClientEvent(clientEventRequest{uid: req.uid, ev: ev})
	}
}

func (a *RoomActor) handleClientEvent(req clientEventRequest) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("room %s: panic handling event from %s: %v", a.roomId, req.uid, r)
			if session, ok := a.sessions[req.uid]; ok {
				data, _ := dispatch.Marshal(dispatch.ServerEvent{Type: dispatch.ServerErrorEvent, Error: "internal error", NoActionTaken: true})
				session.Send(data)
			}
		}
	}()
	ctx := context.Background()
	room, err := a.store.GetRoom(ctx, a.roomId)
	if err != nil {
		return
	}

	res, err := a.dispatcher.Handle(ctx, room, req.uid, req.ev, a.votes, a.connectivity.OnlineUids())
	if err != nil {
		if session, ok := a.sessions[req.uid]; ok {
			data, _ := dispatch.Marshal(dispatch.ServerEvent{Type: dispatch.ServerErrorEvent, Error: err.Error(), NoActionTaken: true})
			session.Send(data)
		}
		return
	}
	if !res.RoomEmpty {
		if err := a.store.SaveRoom(ctx, res.Room); err != nil {
			log.Printf("room %s: save room: %v", a.roomId, err)
		}
	}

	a.applyTimers(res, room)
	a.broadcast(res.Broadcast...)
	if session, ok := a.sessions[req.uid]; ok {
		data, _ := dispatch.Marshal(dispatch.ServerEvent{Type: dispatch.ServerAck})
		session.Send(data)
	}

	if res.LeaveUid != "" {
		a.connectivity.Detach(res.LeaveUid, res.LeaveUid)
		delete(a.sessions, res.LeaveUid)
		if res.RoomEmpty {
			a.scheduler.CancelAll(a.roomId)
			if a.onEmpty != nil {
				a.onEmpty(a.roomId)
			}
		}
	}
}

func (a *RoomActor) handleTimerFire(req timerFireRequest) {
	ctx := context.Background()
	room, err := a.store.GetRoom(ctx, a.roomId)
	if err != nil {
		return
	}

	switch req.phase {
	case scheduler.PhaseTurn:
		if room.State != domain.RoomActive {
			return
		}
		if room.CurrentTurnUid != req.fence.ExpectedUid || room.CurrentQuestionDbIndex != req.fence.QuestionIndex {
			return
		}
		ev := dispatch.ClientEvent{Type: dispatch.ClientSubmitAnswer, AnsweredIndex: -1, QuestionId: strconv.Itoa(room.CurrentQuestionDbIndex)}
		a.handleClientEvent(clientEventRequest{uid: room.CurrentTurnUid, ev: ev})
	case scheduler.PhaseSteal:
		if room.State != domain.RoomActive {
			return
		}
		if room.CurrentStealAttempt == nil || room.CurrentQuestionDbIndex != req.fence.QuestionIndex {
			return
		}
		ev := dispatch.ClientEvent{Type: dispatch.ClientSubmitSteal, AnsweredIndex: -1, QuestionId: strconv.Itoa(room.CurrentQuestionDbIndex)}
		a.handleClientEvent(clientEventRequest{uid: room.CurrentStealAttempt.StealerUid, ev: ev})
	case scheduler.PhaseQuorum:
		if room.State != domain.RoomEnded {
			return
		}
		a.votes.Reset()
		a.broadcast(dispatch.ServerEvent{Type: dispatch.ServerPlayAgainFailed})
	}
}

// applyTimers arms/cancels scheduler timers per the dispatch.Result, using
// the room's own timeout settings as the duration (spec.md §4.4).
func (a *RoomActor) applyTimers(res dispatch.Result, prevRoom domain.Room) {
	if res.CancelTimers {
		a.scheduler.CancelAll(a.roomId)
	}
	if res.ArmTurnTimer {
		d := time.Duration(res.Room.GameSettings.TurnTimeoutSec) * time.Second
		fence := scheduler.Fence{RoomId: a.roomId, Phase: scheduler.PhaseTurn, QuestionIndex: res.Room.CurrentQuestionDbIndex, ExpectedUid: res.Room.CurrentTurnUid}
		a.scheduler.Arm(a.roomId, scheduler.PhaseTurn, d, fence, func(f scheduler.Fence) {
			a.timerFires <- timerFireRequest{phase: scheduler.PhaseTurn, fence: f}
		})
	}
	if res.ArmStealTimer {
		d := time.Duration(res.Room.GameSettings.StealTimeoutSec) * time.Second
		fence := scheduler.Fence{RoomId: a.roomId, Phase: scheduler.PhaseSteal, QuestionIndex: res.Room.CurrentQuestionDbIndex}
		a.scheduler.Arm(a.roomId, scheduler.PhaseSteal, d, fence, func(f scheduler.Fence) {
			a.timerFires <- timerFireRequest{phase: scheduler.PhaseSteal, fence: f}
		})
	}
	if res.ArmQuorumTimer {
		fence := scheduler.Fence{RoomId: a.roomId, Phase: scheduler.PhaseQuorum}
		a.scheduler.Arm(a.roomId, scheduler.PhaseQuorum, playAgainInactivityTimeout, fence, func(f scheduler.Fence) {
			a.timerFires <- timerFireRequest{phase: scheduler.PhaseQuorum, fence: f}
		})
	}
}

func (a *RoomActor) broadcast(events ...dispatch.ServerEvent) {
	for _, ev := range events {
		data, err := dispatch.Marshal(ev)
		if err != nil {
			continue
		}
		if ev.Type == dispatch.ServerPrivateMessage && ev.TargetUid != "" {
			if session, ok := a.sessions[ev.TargetUid]; ok {
				session.Send(data)
			}
			continue
		}
		for _, session := range a.sessions {
			session.Send(data)
		}
	}
}
