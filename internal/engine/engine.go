// Package engine implements the turn/steal state machine (spec.md §4.3):
// starting a game, submitting an answer, submitting a steal, and advancing
// or ending the round. Grounded on the phase-driven Room state in
// rakaoran-GuessTheObject's game/room.go and game/room_actor.go, generalized
// from that repo's drawing-phase machine to spec.md's turn/steal machine.
package engine

import (
	"context"
	"fmt"
	"time"

	"triviaarena/internal/domain"
	"triviaarena/internal/questions"
	"triviaarena/internal/store"
)

// Outcome reports what changed so the caller (the room actor) can decide
// which outbound events to emit and which timers to arm.
type Outcome struct {
	Room           domain.Room
	Events         []Event
	ArmTurnTimer   bool
	ArmStealTimer  bool
	CancelTimers   bool
	GameEnded      bool
}

// Event is a tagged outcome of an engine operation; the dispatcher maps
// these onto the outbound wire events of spec.md §6.2.
type Event struct {
	Kind          string
	ActorUid      string
	QuestionIndex int
	Correct       bool
	ScoreDelta    int
	NextUid       string
	StealerUid    string
	Reason        string
}

const (
	EventQuestionPresented = "question-presented"
	EventAnswerResult      = "answer-result"
	EventStealOpened       = "steal-opened"
	EventStealResult       = "steal-result"
	EventTurnAdvanced      = "turn-advanced"
	EventGameEnded         = "game-ended"
)

// Engine executes game operations against a Store-backed room. It holds no
// per-room state of its own: the room actor owns the authoritative
// domain.Room and passes it in, matching the single-owner-goroutine model
// of spec.md §5.
type Engine struct {
	store    store.Store
	provider questions.Provider
}

func New(s store.Store, p questions.Provider) *Engine {
	return &Engine{store: s, provider: p}
}

// StartGame fetches and shuffles QuestionsPerPlayer*len(players) questions,
// fixes the turn order to current join order, and presents the first
// question (spec.md §4.3.1).
func (e *Engine) StartGame(ctx context.Context, room domain.Room, players []domain.Player) (Outcome, error) {
	if room.State != domain.RoomWaiting {
		return Outcome{}, domain.ErrRoomEnded
	}

	order := onlinePlayerUidsInJoinOrder(players)
	if len(order) < 2 {
		return Outcome{}, domain.ErrNotEnoughPlayers
	}

	count := room.GameSettings.QuestionsPerPlayer * len(order)
	raws, err := e.provider.FetchQuestions(ctx, count)
	if err != nil {
		return Outcome{}, err
	}
	qs, err := questions.BuildQuestionSet(raws)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.store.PutQuestions(ctx, room.Id, qs); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}

	startedAt := time.Now()

	next := room
	next.State = domain.RoomActive
	next.StartedAt = &startedAt
	next.QuestionCount = len(qs)
	next.CurrentQuestionDbIndex = 0
	next.ActiveTurnOrderUids = order
	next.CurrentPlayerIndexInOrder = 0
	next.CurrentTurnUid = order[0]
	next.CurrentStealAttempt = nil

	return Outcome{
		Room: next,
		Events: []Event{{
			Kind:          EventQuestionPresented,
			ActorUid:      next.CurrentTurnUid,
			QuestionIndex: 0,
		}},
		ArmTurnTimer: true,
	}, nil
}

// SubmitAnswer handles both a natural submission and a synthesized timeout
// (answeredIndex == -1) from the current turn-holder (spec.md §4.3.2,
// §4.3.3). questionId must match the question at currentQuestionDbIndex,
// else the submission is a stale/mismatched event and is dropped. On
// correct, the turn-holder scores and the round advances. On wrong or
// timeout, a steal window opens if enabled and a stealer is available,
// else the round advances with no score change.
func (e *Engine) SubmitAnswer(ctx context.Context, room domain.Room, byUid string, answeredIndex int, questionId string) (Outcome, error) {
	if room.State != domain.RoomActive {
		return Outcome{}, domain.ErrRoomEnded
	}
	if room.CurrentStealAttempt != nil {
		return Outcome{}, domain.ErrNoAction
	}
	if room.CurrentTurnUid != byUid {
		return Outcome{}, domain.ErrNotYourTurn
	}

	q, err := e.store.GetQuestion(ctx, room.Id, room.CurrentQuestionDbIndex)
	if err != nil {
		return Outcome{}, err
	}
	if q.Id != questionId {
		return Outcome{}, domain.ErrNoAction
	}

	correct := answeredIndex == q.CorrectIndex
	if correct {
		return e.resolveAndAdvance(ctx, room, byUid, 1, EventAnswerResult, true)
	}

	allPlayers, err := e.store.ListPlayers(ctx, room.Id)
	if err != nil {
		return Outcome{}, err
	}
	byUidPlayers := playersByUid(allPlayers)
	stealerUid, _, stealerFound := findNextOnlinePlayer(room.ActiveTurnOrderUids, room.CurrentPlayerIndexInOrder, byUidPlayers)
	if !room.GameSettings.AllowSteal || !stealerFound || stealerUid == byUid {
		return e.resolveAndAdvance(ctx, room, byUid, 0, EventAnswerResult, false)
	}

	next := room
	next.CurrentStealAttempt = &domain.StealAttempt{StealerUid: stealerUid, QuestionDbIndex: room.CurrentQuestionDbIndex}
	return Outcome{
		Room: next,
		Events: []Event{
			{Kind: EventAnswerResult, ActorUid: byUid, Correct: false},
			{Kind: EventStealOpened, QuestionIndex: room.CurrentQuestionDbIndex, StealerUid: stealerUid},
		},
		ArmStealTimer: true,
	}, nil
}

// SubmitSteal handles a natural or synthesized-timeout steal attempt from
// the single designated stealer (spec.md §4.3.4): the next online player
// after the turn-holder in rotation order, recorded in CurrentStealAttempt
// when the steal window opened. Any other uid is rejected, even if online.
func (e *Engine) SubmitSteal(ctx context.Context, room domain.Room, byUid string, answeredIndex int, questionId string) (Outcome, error) {
	if room.State != domain.RoomActive {
		return Outcome{}, domain.ErrRoomEnded
	}
	if room.CurrentStealAttempt == nil {
		return Outcome{}, domain.ErrNoAction
	}
	if byUid != room.CurrentStealAttempt.StealerUid {
		return Outcome{}, domain.ErrNotStealer
	}

	q, err := e.store.GetQuestion(ctx, room.Id, room.CurrentQuestionDbIndex)
	if err != nil {
		return Outcome{}, err
	}
	if q.Id != questionId {
		return Outcome{}, domain.ErrNoAction
	}

	correct := answeredIndex == q.CorrectIndex
	bonus := 0
	if correct {
		bonus = room.GameSettings.BonusForSteal
	}
	return e.resolveAndAdvance(ctx, room, byUid, bonus, EventStealResult, correct)
}

// resolveAndAdvance scores scoringUid (if delta > 0) and advances the
// turn order, ending the game once every question has been presented.
func (e *Engine) resolveAndAdvance(ctx context.Context, room domain.Room, scoringUid string, delta int, eventKind string, correct bool) (Outcome, error) {
	events := []Event{{Kind: eventKind, ActorUid: scoringUid, ScoreDelta: delta, Correct: correct}}

	if delta > 0 {
		p, ok, err := e.store.GetPlayer(ctx, room.Id, scoringUid)
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			p.Score += delta
			if err := e.store.UpsertPlayer(ctx, room.Id, p); err != nil {
				return Outcome{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
			}
		}
	}

	next := room
	next.CurrentStealAttempt = nil
	next.CurrentQuestionDbIndex++

	if next.CurrentQuestionDbIndex >= next.QuestionCount {
		next.State = domain.RoomEnded
		events = append(events, Event{Kind: EventGameEnded})
		return Outcome{Room: next, Events: events, GameEnded: true, CancelTimers: true}, nil
	}

	allPlayers, err := e.store.ListPlayers(ctx, room.Id)
	if err != nil {
		return Outcome{}, err
	}
	byUid := playersByUid(allPlayers)

	nextUid, nextIdx, ok := findNextOnlinePlayer(room.ActiveTurnOrderUids, room.CurrentPlayerIndexInOrder, byUid)
	if !ok {
		next.State = domain.RoomEnded
		events = append(events, Event{Kind: EventGameEnded, Reason: "no-online-players"})
		return Outcome{Room: next, Events: events, GameEnded: true, CancelTimers: true}, nil
	}
	next.CurrentPlayerIndexInOrder = nextIdx
	next.CurrentTurnUid = nextUid

	events = append(events,
		Event{Kind: EventTurnAdvanced, NextUid: nextUid},
		Event{Kind: EventQuestionPresented, ActorUid: nextUid, QuestionIndex: next.CurrentQuestionDbIndex},
	)

	return Outcome{Room: next, Events: events, ArmTurnTimer: true}, nil
}

// findNextOnlinePlayer walks the fixed turn order starting just after
// fromIndex and returns the first index whose uid is online and still
// holds player role, wrapping around at most once (spec.md §4.3.2,
// §4.3.5). A uid demoted to spectator (e.g. by a rejoin that missed its
// slot) is skipped even if reconnected.
func findNextOnlinePlayer(order []string, fromIndex int, players map[string]domain.Player) (string, int, bool) {
	n := len(order)
	for step := 1; step <= n; step++ {
		idx := (fromIndex + step) % n
		uid := order[idx]
		if p, ok := players[uid]; ok && p.Online && p.Role == domain.RolePlayer {
			return uid, idx, true
		}
	}
	return "", 0, false
}

func onlinePlayerUidsInJoinOrder(players []domain.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		if p.Role == domain.RolePlayer && p.Online {
			out = append(out, p.Uid)
		}
	}
	return out
}

func playersByUid(players []domain.Player) map[string]domain.Player {
	out := make(map[string]domain.Player, len(players))
	for _, p := range players {
		out[p.Uid] = p
	}
	return out
}
