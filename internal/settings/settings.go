// Package settings validates GameSettings patches submitted by the host
// before room creation or between games (spec.md §4.2 updateSettings,
// §9 Open Questions). Error message style grounded on the bound-validation
// texture asserted in rakaoran-GuessTheObject's game/handlers_test.go
// ("maxPlayers must be at least 2", "roundsCount cannot exceed 10").
package settings

import (
	"fmt"

	"triviaarena/internal/domain"
)

// Validate checks a GameSettings against the bounds in domain.settings.go.
// It returns the first violation found, wrapped in domain.ErrInvalidSettings.
func Validate(s domain.GameSettings) error {
	if err := bound("questionsPerPlayer", s.QuestionsPerPlayer, domain.MinQuestionsPerPlayer, domain.MaxQuestionsPerPlayer); err != nil {
		return err
	}
	if err := bound("turnTimeoutSec", s.TurnTimeoutSec, domain.MinTurnTimeoutSec, domain.MaxTurnTimeoutSec); err != nil {
		return err
	}
	if err := bound("stealTimeoutSec", s.StealTimeoutSec, domain.MinStealTimeoutSec, domain.MaxStealTimeoutSec); err != nil {
		return err
	}
	if err := bound("bonusForSteal", s.BonusForSteal, domain.MinBonusForSteal, domain.MaxBonusForSteal); err != nil {
		return err
	}
	return nil
}

func bound(field string, value, min, max int) error {
	if value < min {
		return fmt.Errorf("%w: %s must be at least %d", domain.ErrInvalidSettings, field, min)
	}
	if value > max {
		return fmt.Errorf("%w: %s cannot exceed %d", domain.ErrInvalidSettings, field, max)
	}
	return nil
}

// Patch is the wire shape of an updateSettings payload (spec.md §6.1):
// every field optional, nil meaning "leave unchanged".
type Patch struct {
	QuestionsPerPlayer *int
	TurnTimeoutSec     *int
	StealTimeoutSec    *int
	AllowSteal         *bool
	BonusForSteal      *int
}

// Merge applies a Patch onto a base GameSettings and validates the result.
func Merge(base domain.GameSettings, patch Patch) (domain.GameSettings, error) {
	merged := base
	if patch.QuestionsPerPlayer != nil {
		merged.QuestionsPerPlayer = *patch.QuestionsPerPlayer
	}
	if patch.TurnTimeoutSec != nil {
		merged.TurnTimeoutSec = *patch.TurnTimeoutSec
	}
	if patch.StealTimeoutSec != nil {
		merged.StealTimeoutSec = *patch.StealTimeoutSec
	}
	if patch.AllowSteal != nil {
		merged.AllowSteal = *patch.AllowSteal
	}
	if patch.BonusForSteal != nil {
		merged.BonusForSteal = *patch.BonusForSteal
	}

	if err := Validate(merged); err != nil {
		return domain.GameSettings{}, err
	}
	return merged, nil
}
