package store

import (
	"context"
	"sort"
	"sync"

	"triviaarena/internal/domain"
)

// MemoryStore is the single-process Store implementation, grounded on the
// mutex-protected map pattern in aaronzipp-you-are-officially-sus's
// internal/store/memory.go. It backs the tests; cmd/server always uses
// RedisStore.
type MemoryStore struct {
	mu        sync.Mutex
	rooms     map[string]domain.Room
	players   map[string]map[string]domain.Player // roomId -> uid -> Player
	questions map[string][]domain.Question         // roomId -> ordered questions
	codes     map[string]string                    // code -> roomId
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:     make(map[string]domain.Room),
		players:   make(map[string]map[string]domain.Player),
		questions: make(map[string][]domain.Question),
		codes:     make(map[string]string),
	}
}

func (s *MemoryStore) CreateRoomWithHost(ctx context.Context, room domain.Room, host domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Id] = *room.Clone()
	if s.players[room.Id] == nil {
		s.players[room.Id] = make(map[string]domain.Player)
	}
	s.players[room.Id][host.Uid] = host
	return nil
}

func (s *MemoryStore) ReserveCode(ctx context.Context, code, roomId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[code]; exists {
		return false, nil
	}
	s.codes[code] = roomId
	return true, nil
}

func (s *MemoryStore) LookupCodeToRoomId(ctx context.Context, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomId, ok := s.codes[code]
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	return roomId, nil
}

func (s *MemoryStore) ReleaseCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, code)
	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRoomLocked(roomId)
}

func (s *MemoryStore) getRoomLocked(roomId string) (domain.Room, error) {
	r, ok := s.rooms[roomId]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return *r.Clone(), nil
}

func (s *MemoryStore) SaveRoom(ctx context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Id] = *room.Clone()
	return nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, roomId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomId)
	delete(s.players, roomId)
	delete(s.questions, roomId)
	return nil
}

func (s *MemoryStore) GetPlayer(ctx context.Context, roomId, uid string) (domain.Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[roomId][uid]
	return p, ok, nil
}

func (s *MemoryStore) ListPlayers(ctx context.Context, roomId string) ([]domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Player, 0, len(s.players[roomId]))
	for _, p := range s.players[roomId] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinOrder < out[j].JoinOrder })
	return out, nil
}

func (s *MemoryStore) UpsertPlayer(ctx context.Context, roomId string, p domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.players[roomId] == nil {
		s.players[roomId] = make(map[string]domain.Player)
	}
	s.players[roomId][p.Uid] = p
	return nil
}

func (s *MemoryStore) DeletePlayer(ctx context.Context, roomId, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players[roomId], uid)
	return nil
}

func (s *MemoryStore) PutQuestions(ctx context.Context, roomId string, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]domain.Question, len(questions))
	copy(cp, questions)
	s.questions[roomId] = cp
	return nil
}

func (s *MemoryStore) GetQuestion(ctx context.Context, roomId string, index int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := s.questions[roomId]
	if index < 0 || index >= len(qs) {
		return domain.Question{}, domain.ErrQuestionMissing
	}
	return qs[index], nil
}

func (s *MemoryStore) DeleteQuestions(ctx context.Context, roomId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.questions, roomId)
	return nil
}

// RunRoomTransaction holds the store's single mutex for the duration of fn.
// Coarse, but correct: MemoryStore backs a single process, and every other
// Store method also takes the same mutex, so fn observes a consistent view
// and no concurrent writer can interleave.
func (s *MemoryStore) RunRoomTransaction(ctx context.Context, roomId string, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, (*lockedTx)(s))
}

// lockedTx adapts MemoryStore's already-locked methods for use inside
// RunRoomTransaction without re-acquiring the mutex (which would deadlock).
type lockedTx MemoryStore

func (t *lockedTx) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	return (*MemoryStore)(t).getRoomLocked(roomId)
}

func (t *lockedTx) SaveRoom(ctx context.Context, room domain.Room) error {
	t.rooms[room.Id] = *room.Clone()
	return nil
}

func (t *lockedTx) DeleteRoom(ctx context.Context, roomId string) error {
	delete(t.rooms, roomId)
	delete(t.players, roomId)
	delete(t.questions, roomId)
	return nil
}

func (t *lockedTx) GetPlayer(ctx context.Context, roomId, uid string) (domain.Player, bool, error) {
	p, ok := t.players[roomId][uid]
	return p, ok, nil
}

func (t *lockedTx) ListPlayers(ctx context.Context, roomId string) ([]domain.Player, error) {
	out := make([]domain.Player, 0, len(t.players[roomId]))
	for _, p := range t.players[roomId] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinOrder < out[j].JoinOrder })
	return out, nil
}

func (t *lockedTx) UpsertPlayer(ctx context.Context, roomId string, p domain.Player) error {
	if t.players[roomId] == nil {
		t.players[roomId] = make(map[string]domain.Player)
	}
	t.players[roomId][p.Uid] = p
	return nil
}

func (t *lockedTx) DeletePlayer(ctx context.Context, roomId, uid string) error {
	delete(t.players[roomId], uid)
	return nil
}
