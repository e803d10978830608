package domain

import "errors"

// Client errors: bad input, unauthorized, not-in-room, stale turn ownership.
var (
	ErrRoomNotFound     = errors.New("not-found")
	ErrRoomEnded        = errors.New("ended")
	ErrRoomFull         = errors.New("room-full")
	ErrSpectatorsFull   = errors.New("spectators-full")
	ErrInvalidSettings  = errors.New("invalid-settings")
	ErrNotYourTurn      = errors.New("not-your-turn")
	ErrNotStealer       = errors.New("invalid")
	ErrNotHost          = errors.New("not-host")
	ErrNotInRoom        = errors.New("not-in-room")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotEnoughPlayers = errors.New("not-enough-players")
	ErrMessageTooLong   = errors.New("message-too-long")
)

// Stale events never mutate state; the dispatcher replies noActionTaken=true.
var ErrNoAction = errors.New("no-action")

// State/collaborator errors.
var (
	ErrNotEnoughQuestions = errors.New("not-enough-questions")
	ErrQuestionSourceFail = errors.New("question-source-error")
	ErrPersistenceFail    = errors.New("persistence-error")
)

// Game integrity faults: logged, end the game gracefully.
var (
	ErrQuestionMissing   = errors.New("question-missing")
	ErrStealerOutOfOrder = errors.New("stealer-not-in-turn-order")
)

var (
	ErrUserNotFound = errors.New("user-not-found")
)
