// Package roommanager implements room membership operations (spec.md
// §4.2): joining, leaving, listing players, host migration, and settings
// updates. Capacity and transaction handling are grounded on the
// roomJoinRequest/errChan pattern in rakaoran-GuessTheObject's
// game/lobby.go, adapted from an unbuffered channel handoff to a
// Store.RunRoomTransaction for the capacity check.
package roommanager

import (
	"context"
	"fmt"

	"triviaarena/internal/domain"
	"triviaarena/internal/settings"
	"triviaarena/internal/store"
)

type Manager struct {
	store store.Store
}

func New(s store.Store) *Manager {
	return &Manager{store: s}
}

// JoinResult reports what happened on Join so the caller can decide what
// to broadcast.
type JoinResult struct {
	Room    domain.Room
	Player  domain.Player
	Players []domain.Player
}

// Join admits uid to the room, as a player if there is capacity, else as a
// spectator if spectator capacity allows, else it fails (spec.md §3, §4.2).
// A rejoin (uid already has a player row) restores the existing role and
// flips it online rather than creating a duplicate.
func (m *Manager) Join(ctx context.Context, roomId, uid, name, avatarUrl string) (JoinResult, error) {
	var result JoinResult

	err := m.store.RunRoomTransaction(ctx, roomId, func(ctx context.Context, tx store.Tx) error {
		room, err := tx.GetRoom(ctx, roomId)
		if err != nil {
			return err
		}
		if room.State == domain.RoomEnded {
			return domain.ErrRoomEnded
		}

		players, err := tx.ListPlayers(ctx, roomId)
		if err != nil {
			return err
		}

		if existing, ok, err := tx.GetPlayer(ctx, roomId, uid); err != nil {
			return err
		} else if ok {
			existing.Online = true
			if err := tx.UpsertPlayer(ctx, roomId, existing); err != nil {
				return err
			}
			players = replacePlayer(players, existing)
			result = JoinResult{Room: room, Player: existing, Players: players}
			return nil
		}

		playerCount, spectatorCount := countByRole(players)

		role := domain.RolePlayer
		switch {
		case room.State == domain.RoomActive:
			role = domain.RoleSpectator
		case playerCount >= domain.MaxPlayers:
			role = domain.RoleSpectator
		}
		if role == domain.RoleSpectator && spectatorCount >= domain.MaxSpectators {
			return domain.ErrSpectatorsFull
		}
		if role == domain.RolePlayer && playerCount >= domain.MaxPlayers {
			return domain.ErrRoomFull
		}

		p := domain.Player{
			Uid:       uid,
			Name:      name,
			AvatarUrl: avatarUrl,
			JoinOrder: len(players),
			Online:    true,
			Role:      role,
		}
		if err := tx.UpsertPlayer(ctx, roomId, p); err != nil {
			return err
		}

		result = JoinResult{Room: room, Player: p, Players: append(players, p)}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	return result, nil
}

// LeaveResult reports the room after departure, the new host if migration
// happened, and whether the room should now be torn down.
type LeaveResult struct {
	Room        domain.Room
	NewHostUid  string
	HostChanged bool
	RoomEmpty   bool
}

// Leave removes uid from the room entirely (not merely marking offline;
// that's the room actor's job on disconnect). If uid was host, a new host
// is picked by selectNewHost (spec.md §4.2 host migration). If no players
// remain, Leave deletes the room, releases its join code and sets
// RoomEmpty so the caller can stop the room's actor.
func (m *Manager) Leave(ctx context.Context, roomId, uid string) (LeaveResult, error) {
	var result LeaveResult

	err := m.store.RunRoomTransaction(ctx, roomId, func(ctx context.Context, tx store.Tx) error {
		room, err := tx.GetRoom(ctx, roomId)
		if err != nil {
			return err
		}
		if err := tx.DeletePlayer(ctx, roomId, uid); err != nil {
			return err
		}

		players, err := tx.ListPlayers(ctx, roomId)
		if err != nil {
			return err
		}

		if len(players) == 0 {
			room.HostUid = ""
			result = LeaveResult{Room: room, RoomEmpty: true}
			return tx.DeleteRoom(ctx, roomId)
		}

		if room.HostUid == uid {
			newHost, promote := selectNewHost(players)
			if newHost != "" {
				room.HostUid = newHost
				result.NewHostUid = newHost
				result.HostChanged = true
				if promote {
					for i, p := range players {
						if p.Uid == newHost {
							players[i].Role = domain.RolePlayer
							if err := tx.UpsertPlayer(ctx, roomId, players[i]); err != nil {
								return err
							}
							break
						}
					}
				}
			}
		}
		result.Room = room
		return tx.SaveRoom(ctx, room)
	})
	if err != nil {
		return LeaveResult{}, err
	}
	if result.RoomEmpty {
		if err := m.store.ReleaseCode(ctx, result.Room.Code); err != nil {
			return LeaveResult{}, err
		}
	}
	return result, nil
}

// UpdateSettings validates and merges a settings patch, rejecting the call
// if the room has already started (spec.md §4.2).
func (m *Manager) UpdateSettings(ctx context.Context, roomId, byUid string, patch settings.Patch) (domain.Room, error) {
	var room domain.Room
	err := m.store.RunRoomTransaction(ctx, roomId, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.GetRoom(ctx, roomId)
		if err != nil {
			return err
		}
		if r.HostUid != byUid {
			return domain.ErrNotHost
		}
		if r.State != domain.RoomWaiting {
			return fmt.Errorf("%w: settings are fixed once a game has started", domain.ErrInvalidSettings)
		}
		merged, err := settings.Merge(r.GameSettings, patch)
		if err != nil {
			return err
		}
		r.GameSettings = merged
		room = r
		return tx.SaveRoom(ctx, r)
	})
	return room, err
}

// ListPlayersSorted returns the room's players in join order.
func (m *Manager) ListPlayersSorted(ctx context.Context, roomId string) ([]domain.Player, error) {
	return m.store.ListPlayers(ctx, roomId)
}

func countByRole(players []domain.Player) (playerCount, spectatorCount int) {
	for _, p := range players {
		if p.Role == domain.RoleSpectator {
			spectatorCount++
		} else {
			playerCount++
		}
	}
	return
}

func replacePlayer(players []domain.Player, updated domain.Player) []domain.Player {
	for i, p := range players {
		if p.Uid == updated.Uid {
			players[i] = updated
			return players
		}
	}
	return append(players, updated)
}

// selectNewHost picks the next host on departure per spec.md §4.2's 4-tier
// order: the earliest-joined online player, else the earliest-joined
// offline player, else the earliest-joined online spectator (promoted),
// else the earliest-joined remaining participant of any role (promoted).
// promote is true when the winner isn't already a player.
func selectNewHost(players []domain.Player) (uid string, promote bool) {
	if uid, ok := firstByRole(players, domain.RolePlayer, true); ok {
		return uid, false
	}
	if uid, ok := firstByRole(players, domain.RolePlayer, false); ok {
		return uid, false
	}
	if uid, ok := firstByRole(players, domain.RoleSpectator, true); ok {
		return uid, true
	}
	if uid, ok := firstByRole(players, "", false); ok {
		return uid, true
	}
	return "", false
}

// firstByRole returns the uid of the earliest-joined player matching role
// (any role if role == "") and onlineOnly, or ok=false if none match.
func firstByRole(players []domain.Player, role domain.PlayerRole, onlineOnly bool) (string, bool) {
	best := -1
	bestUid := ""
	for _, p := range players {
		if role != "" && p.Role != role {
			continue
		}
		if onlineOnly && !p.Online {
			continue
		}
		if best == -1 || p.JoinOrder < best {
			best = p.JoinOrder
			bestUid = p.Uid
		}
	}
	return bestUid, bestUid != ""
}
