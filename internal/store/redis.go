package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"triviaarena/internal/domain"
)

// RedisStore is the sharded-deployment Store implementation: rooms live on
// exactly one replica per spec.md §5's "open deployment question", but the
// code→roomId index and the room/player/question documents themselves are
// visible to every replica through Redis. Grounded on the go-redis usage in
// UNIZAR-30226-2025-04-Backend's services/redis package and
// MkMuhammetKaradag...auth-service's session store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func roomKey(roomId string) string      { return "rooms:" + roomId }
func playersKey(roomId string) string   { return "rooms:" + roomId + ":players" }
func questionsKey(roomId string) string { return "rooms:" + roomId + ":questions" }
func codeKey(code string) string        { return "codes:" + code }

func (s *RedisStore) CreateRoomWithHost(ctx context.Context, room domain.Room, host domain.Player) error {
	roomBytes, err := json.Marshal(room)
	if err != nil {
		return err
	}
	hostBytes, err := json.Marshal(host)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.Id), roomBytes, 0)
	pipe.HSet(ctx, playersKey(room.Id), host.Uid, hostBytes)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ReserveCode(ctx context.Context, code, roomId string) (bool, error) {
	ok, err := s.client.SetNX(ctx, codeKey(code), roomId, 0).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	return ok, nil
}

func (s *RedisStore) LookupCodeToRoomId(ctx context.Context, code string) (string, error) {
	roomId, err := s.client.Get(ctx, codeKey(code)).Result()
	if err == redis.Nil {
		return "", domain.ErrRoomNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	return roomId, nil
}

func (s *RedisStore) ReleaseCode(ctx context.Context, code string) error {
	return s.client.Del(ctx, codeKey(code)).Err()
}

func (s *RedisStore) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	raw, err := s.client.Get(ctx, roomKey(roomId)).Bytes()
	if err == redis.Nil {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *RedisStore) SaveRoom(ctx context.Context, room domain.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(room.Id), raw, 0).Err()
}

func (s *RedisStore) DeleteRoom(ctx context.Context, roomId string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(roomId))
	pipe.Del(ctx, playersKey(roomId))
	pipe.Del(ctx, questionsKey(roomId))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) GetPlayer(ctx context.Context, roomId, uid string) (domain.Player, bool, error) {
	raw, err := s.client.HGet(ctx, playersKey(roomId), uid).Bytes()
	if err == redis.Nil {
		return domain.Player{}, false, nil
	}
	if err != nil {
		return domain.Player{}, false, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	var p domain.Player
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Player{}, false, err
	}
	return p, true, nil
}

func (s *RedisStore) ListPlayers(ctx context.Context, roomId string) ([]domain.Player, error) {
	all, err := s.client.HGetAll(ctx, playersKey(roomId)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	out := make([]domain.Player, 0, len(all))
	for _, raw := range all {
		var p domain.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinOrder < out[j].JoinOrder })
	return out, nil
}

func (s *RedisStore) UpsertPlayer(ctx context.Context, roomId string, p domain.Player) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, playersKey(roomId), p.Uid, raw).Err()
}

func (s *RedisStore) DeletePlayer(ctx context.Context, roomId, uid string) error {
	return s.client.HDel(ctx, playersKey(roomId), uid).Err()
}

func (s *RedisStore) PutQuestions(ctx context.Context, roomId string, questions []domain.Question) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, questionsKey(roomId), raw, 0).Err()
}

func (s *RedisStore) GetQuestion(ctx context.Context, roomId string, index int) (domain.Question, error) {
	raw, err := s.client.Get(ctx, questionsKey(roomId)).Bytes()
	if err != nil {
		return domain.Question{}, domain.ErrQuestionMissing
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		return domain.Question{}, err
	}
	if index < 0 || index >= len(qs) {
		return domain.Question{}, domain.ErrQuestionMissing
	}
	return qs[index], nil
}

func (s *RedisStore) DeleteQuestions(ctx context.Context, roomId string) error {
	return s.client.Del(ctx, questionsKey(roomId)).Err()
}

// RunRoomTransaction uses optimistic locking (WATCH) on the room key and the
// room's players hash: fn reads through a watchTx and every write it issues
// is staged in a pipeline that only commits if neither watched key has
// changed since the read,
// matching the document-store transaction semantics spec.md §1 and §4.2
// require for capacity invariants under concurrent joins.
func (s *RedisStore) RunRoomTransaction(ctx context.Context, roomId string, fn func(ctx context.Context, tx Tx) error) error {
	return s.client.Watch(ctx, func(rtx *redis.Tx) error {
		wtx := &watchTx{ctx_: ctx, rtx: rtx, roomId: roomId}
		if err := fn(ctx, wtx); err != nil {
			return err
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return wtx.flush(pipe)
		})
		return err
	}, roomKey(roomId), playersKey(roomId))
}

// watchTx buffers writes issued during a RunRoomTransaction callback and
// flushes them inside the surrounding Redis MULTI/EXEC once the callback
// returns without error.
type watchTx struct {
	ctx_   context.Context
	rtx    *redis.Tx
	roomId string

	pendingRoom    *domain.Room
	deleteRoom     bool
	pendingPlayers map[string]*domain.Player // uid -> nil means delete
}

func (w *watchTx) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	raw, err := w.rtx.Get(ctx, roomKey(roomId)).Bytes()
	if err == redis.Nil {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (w *watchTx) SaveRoom(ctx context.Context, room domain.Room) error {
	r := room
	w.pendingRoom = &r
	return nil
}

func (w *watchTx) DeleteRoom(ctx context.Context, roomId string) error {
	w.deleteRoom = true
	return nil
}

func (w *watchTx) GetPlayer(ctx context.Context, roomId, uid string) (domain.Player, bool, error) {
	raw, err := w.rtx.HGet(ctx, playersKey(roomId), uid).Bytes()
	if err == redis.Nil {
		return domain.Player{}, false, nil
	}
	if err != nil {
		return domain.Player{}, false, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	var p domain.Player
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Player{}, false, err
	}
	return p, true, nil
}

func (w *watchTx) ListPlayers(ctx context.Context, roomId string) ([]domain.Player, error) {
	all, err := w.rtx.HGetAll(ctx, playersKey(roomId)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	out := make([]domain.Player, 0, len(all))
	for _, raw := range all {
		var p domain.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinOrder < out[j].JoinOrder })
	return out, nil
}

func (w *watchTx) UpsertPlayer(ctx context.Context, roomId string, p domain.Player) error {
	if w.pendingPlayers == nil {
		w.pendingPlayers = make(map[string]*domain.Player)
	}
	cp := p
	w.pendingPlayers[p.Uid] = &cp
	return nil
}

func (w *watchTx) DeletePlayer(ctx context.Context, roomId, uid string) error {
	if w.pendingPlayers == nil {
		w.pendingPlayers = make(map[string]*domain.Player)
	}
	w.pendingPlayers[uid] = nil
	return nil
}

func (w *watchTx) flush(pipe redis.Pipeliner) error {
	ctx := w.ctx_
	if w.deleteRoom {
		pipe.Del(ctx, roomKey(w.roomId))
		pipe.Del(ctx, playersKey(w.roomId))
		pipe.Del(ctx, questionsKey(w.roomId))
		return nil
	}
	if w.pendingRoom != nil {
		raw, err := json.Marshal(*w.pendingRoom)
		if err != nil {
			return err
		}
		pipe.Set(ctx, roomKey(w.roomId), raw, 0)
	}
	for uid, p := range w.pendingPlayers {
		if p == nil {
			pipe.HDel(ctx, playersKey(w.roomId), uid)
			continue
		}
		raw, err := json.Marshal(*p)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, playersKey(w.roomId), uid, raw)
	}
	return nil
}

var _ Tx = (*watchTx)(nil)
