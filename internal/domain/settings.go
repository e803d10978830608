package domain

// GameSettings are bounded, mutable game parameters (spec.md §3).
type GameSettings struct {
	QuestionsPerPlayer int
	TurnTimeoutSec     int
	StealTimeoutSec    int
	AllowSteal         bool
	BonusForSteal      int
}

// DefaultGameSettings mirrors the defaults named in spec.md §3.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		QuestionsPerPlayer: 5,
		TurnTimeoutSec:     30,
		StealTimeoutSec:    15,
		AllowSteal:         true,
		BonusForSteal:      1,
	}
}

// Bounds, named so SettingsValidator and docs/tests share one source of truth.
const (
	MinQuestionsPerPlayer = 1
	MaxQuestionsPerPlayer = 20
	MinTurnTimeoutSec     = 5
	MaxTurnTimeoutSec     = 60
	MinStealTimeoutSec    = 3
	MaxStealTimeoutSec    = 30
	MinBonusForSteal      = 0
	MaxBonusForSteal      = 5
)

// Capacity invariants (spec.md §3).
const (
	MaxPlayers    = 8
	MaxSpectators = 5
	MaxTotal      = MaxPlayers + MaxSpectators
)
