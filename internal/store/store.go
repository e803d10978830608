// Package store defines the persistence collaborator (spec.md §1, §6.4):
// a document store with single-doc get/set/update/delete plus atomic
// batches/transactions, scoped to rooms/{id}, rooms/{id}/players/{uid} and
// rooms/{id}/questions/{index}. Out of scope per spec.md, so this package
// only needs to satisfy the Store contract used by the room/registry
// packages — it never encodes game rules itself.
package store

import (
	"context"

	"triviaarena/internal/domain"
)

// Tx is the view of the store available inside RunRoomTransaction. All
// operations inside a Tx are scoped to one room and its subcollections,
// matching the join-capacity and host-migration invariants of spec.md §4.2
// that must hold under concurrent joins.
type Tx interface {
	GetRoom(ctx context.Context, roomId string) (domain.Room, error)
	SaveRoom(ctx context.Context, room domain.Room) error
	DeleteRoom(ctx context.Context, roomId string) error

	GetPlayer(ctx context.Context, roomId, uid string) (domain.Player, bool, error)
	ListPlayers(ctx context.Context, roomId string) ([]domain.Player, error)
	UpsertPlayer(ctx context.Context, roomId string, p domain.Player) error
	DeletePlayer(ctx context.Context, roomId, uid string) error
}

// Store is the persistence collaborator.
type Store interface {
	Tx

	// CreateRoomWithHost commits the room document and the host's player
	// document atomically (spec.md §4.1).
	CreateRoomWithHost(ctx context.Context, room domain.Room, host domain.Player) error

	// ReserveCode atomically claims a code→roomId mapping. It returns false,
	// nil if the code is already taken (the caller should regenerate and
	// retry, spec.md §4.1), and an error only on collaborator failure.
	ReserveCode(ctx context.Context, code, roomId string) (bool, error)
	LookupCodeToRoomId(ctx context.Context, code string) (string, error)
	ReleaseCode(ctx context.Context, code string) error

	PutQuestions(ctx context.Context, roomId string, questions []domain.Question) error
	GetQuestion(ctx context.Context, roomId string, index int) (domain.Question, error)
	DeleteQuestions(ctx context.Context, roomId string) error

	// RunRoomTransaction serializes a read-modify-write sequence against one
	// room's keyspace. Implementations may use a real transaction (Redis
	// WATCH/MULTI) or a coarse in-process lock; both satisfy spec.md §5.
	RunRoomTransaction(ctx context.Context, roomId string, fn func(ctx context.Context, tx Tx) error) error
}

// UserStore is the persistence collaborator for the top-level users/{uid}
// profile collection (spec.md §6.3, §6.4). Kept separate from Store because
// it is relationally shaped (no subcollections, no room transactions) and is
// naturally backed by a different collaborator in production (Postgres,
// see PostgresUserStore) than the room/player/question documents.
type UserStore interface {
	UpsertProfile(ctx context.Context, profile domain.UserProfile) error
	GetProfile(ctx context.Context, uid string) (domain.UserProfile, error)
}

var (
	_ Store = (*MemoryStore)(nil)
)
