package domain

import "time"

// PlayerRole scopes a Player to the turn rotation or to observation only.
type PlayerRole string

const (
	RolePlayer    PlayerRole = "player"
	RoleSpectator PlayerRole = "spectator"
)

// Player is a room-scoped participant (spec.md §3).
type Player struct {
	Uid       string
	Name      string
	AvatarUrl string
	JoinOrder int
	Score     int
	Online    bool
	Role      PlayerRole
	JoinedAt  time.Time
}

// UserProfile is the top-level users/{uid} profile, upserted on connect (spec.md §6.3, §6.4).
type UserProfile struct {
	Uid         string
	DisplayName string
	AvatarUrl   string
	LastLogin   time.Time
}
