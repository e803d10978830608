// Package dispatch defines the wire envelope (spec.md §6.1, §6.2) and the
// EventDispatcher that turns a decoded ClientEvent into calls against
// roommanager/engine/quorum and turns their results into outbound
// ServerEvents. JSON replaces the teacher's protobuf envelope: the pack's
// domain/protobuf/helpers.go references ServerPacket/ClientPacket types
// that have no .proto source or generated bindings anywhere in the
// retrieved pack, and fabricating generated protobuf code would violate
// the "never invent dependencies" rule. JSON also matches the payload
// shapes already in spec.md §6.1. Grounded structurally on the
// ClientPacketEnvelope{clientPacket, rawBinary, from} + dataSendTask{to, data}
// shapes in rakaoran-GuessTheObject's game/room_actor.go and game/room_tdt_test.go.
package dispatch

import "encoding/json"

// ClientEvent is the inbound envelope every websocket text frame decodes
// into; Type selects which payload fields are meaningful (a closed sum
// type enforced by the switch in Dispatcher.Handle).
type ClientEvent struct {
	Type          string `json:"type"`
	RoomCode      string `json:"roomCode,omitempty"`
	QuestionId    string `json:"questionId,omitempty"`
	AnsweredIndex int    `json:"answeredIndex,omitempty"`
	PlayAgain     bool   `json:"playAgain,omitempty"`
	Text          string `json:"text,omitempty"`
	TargetUid     string `json:"targetUid,omitempty"`
	Settings      *SettingsPayload `json:"settings,omitempty"`
}

const (
	ClientCreateRoom     = "create-room"
	ClientJoinRoom       = "join-room"
	ClientLeaveRoom      = "leave-room"
	ClientRejoin         = "game:rejoin"
	ClientStartGame      = "start-game"
	ClientSubmitAnswer   = "submit-answer"
	ClientSubmitSteal    = "submit-steal"
	ClientUpdateSettings = "update-settings"
	ClientVotePlayAgain  = "vote-play-again"
	ClientLobbyMessage   = "lobby-message"
	ClientPrivateMessage = "private-message"
)

// SettingsPayload is the wire shape of a settings patch (spec.md §6.1);
// nil pointer fields mean "leave unchanged".
type SettingsPayload struct {
	QuestionsPerPlayer *int  `json:"questionsPerPlayer,omitempty"`
	TurnTimeoutSec     *int  `json:"turnTimeoutSec,omitempty"`
	StealTimeoutSec    *int  `json:"stealTimeoutSec,omitempty"`
	AllowSteal         *bool `json:"allowSteal,omitempty"`
	BonusForSteal      *int  `json:"bonusForSteal,omitempty"`
}

// ServerEvent is the outbound envelope (spec.md §6.2). Ack always carries
// whether the triggering client action actually changed state.
type ServerEvent struct {
	Type           string           `json:"type"`
	NoActionTaken  bool             `json:"noActionTaken,omitempty"`
	Error          string           `json:"error,omitempty"`
	Room           *RoomSnapshot    `json:"room,omitempty"`
	Question       *QuestionPayload `json:"question,omitempty"`
	QuestionId     string           `json:"questionId,omitempty"`
	ActorUid       string           `json:"actorUid,omitempty"`
	Correct        *bool            `json:"correct,omitempty"`
	ScoreDelta     int              `json:"scoreDelta,omitempty"`
	NextUid        string           `json:"nextUid,omitempty"`
	Role           string           `json:"role,omitempty"`
	TimeoutSec     int              `json:"timeoutSec,omitempty"`
	Text           string           `json:"text,omitempty"`
	TargetUid      string           `json:"targetUid,omitempty"`
	PlayAgainYes   int              `json:"playAgainYes,omitempty"`
	PlayAgainTotal int              `json:"playAgainTotal,omitempty"`
}

const (
	ServerAck               = "ack"
	ServerRoomSnapshot      = "room-snapshot"
	ServerQuestionPresented = "question-presented"
	ServerAnswerResult      = "answer-result"
	ServerStealOpened       = "steal-opened"
	ServerStealResult       = "steal-result"
	ServerTurnAdvanced      = "turn-advanced"
	ServerGameEnded         = "game-ended"
	ServerPlayerLeft        = "player-left"
	ServerPlayerOffline     = "player-offline"
	ServerPlayerRejoined    = "player-rejoined"
	ServerPlayAgainStatus   = "play-again-status"
	ServerPlayAgainFailed   = "play-again-failed"
	ServerLobbyMessage      = "lobby-message"
	ServerPrivateMessage    = "private-message"
	ServerErrorEvent        = "error"
)

// RoomSnapshot is the room+players projection broadcast on join, leave,
// disconnect, rejoin and settings changes (spec.md §6.2).
type RoomSnapshot struct {
	Id           string           `json:"id"`
	Code         string           `json:"code"`
	HostUid      string           `json:"hostUid"`
	State        string           `json:"state"`
	CurrentTurn  string           `json:"currentTurnUid,omitempty"`
	Players      []PlayerPayload  `json:"players"`
	Settings     SettingsPayload  `json:"settings"`
}

type PlayerPayload struct {
	Uid       string `json:"uid"`
	Name      string `json:"name"`
	AvatarUrl string `json:"avatarUrl"`
	Score     int    `json:"score"`
	Online    bool   `json:"online"`
	Role      string `json:"role"`
}

// QuestionPayload omits CorrectIndex: the server never tells a client the
// answer ahead of resolution (spec.md §7 client error taxonomy implies no
// leaking of authoritative state the client hasn't earned yet).
type QuestionPayload struct {
	Id       string   `json:"id"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

// Marshal is a thin wrapper kept for symmetry with Unmarshal below; both
// exist so call sites never import encoding/json directly, keeping the
// wire format swappable in one place.
func Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
