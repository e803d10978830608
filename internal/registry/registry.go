// Package registry owns room creation and code lookup (spec.md §4.1):
// generating a collision-free join code, committing the room+host
// atomically, and resolving a code back to a room id. Grounded on the
// code→room map and collision handling sketched (but never finished) in
// rakaoran-GuessTheObject's game/idgen.go, generalized into a complete,
// Store-backed implementation.
package registry

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	"triviaarena/internal/domain"
	"triviaarena/internal/store"
)

// codeAlphabet excludes visually ambiguous characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6
const maxGenerateAttempts = 8

// Registry creates rooms and resolves join codes to room ids.
type Registry struct {
	store store.Store
}

func New(s store.Store) *Registry {
	return &Registry{store: s}
}

// CreateRoom generates a collision-free code, commits the room and its host
// player atomically, and returns the populated Room (spec.md §4.1).
func (r *Registry) CreateRoom(ctx context.Context, hostUid, hostName string, settings domain.GameSettings, private bool) (domain.Room, error) {
	roomId := newRoomId()

	var code string
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate, err := generateCode()
		if err != nil {
			return domain.Room{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
		}
		ok, err := r.store.ReserveCode(ctx, candidate, roomId)
		if err != nil {
			return domain.Room{}, err
		}
		if ok {
			code = candidate
			break
		}
	}
	if code == "" {
		return domain.Room{}, fmt.Errorf("%w: exhausted %d code generation attempts", domain.ErrPersistenceFail, maxGenerateAttempts)
	}

	room := domain.Room{
		Id:           roomId,
		Code:         code,
		HostUid:      hostUid,
		State:        domain.RoomWaiting,
		CreatedAt:    time.Now(),
		GameSettings: settings,
		Private:      private,
	}
	host := domain.Player{
		Uid:       hostUid,
		Name:      hostName,
		JoinOrder: 0,
		Online:    true,
		Role:      domain.RolePlayer,
		JoinedAt:  room.CreatedAt,
	}

	if err := r.store.CreateRoomWithHost(ctx, room, host); err != nil {
		_ = r.store.ReleaseCode(ctx, code)
		return domain.Room{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}

	return room, nil
}

// LookupByCode resolves a join code to the current Room.
func (r *Registry) LookupByCode(ctx context.Context, code string) (domain.Room, error) {
	roomId, err := r.store.LookupCodeToRoomId(ctx, code)
	if err != nil {
		return domain.Room{}, err
	}
	return r.store.GetRoom(ctx, roomId)
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

func newRoomId() string {
	return uuid.NewString()
}
