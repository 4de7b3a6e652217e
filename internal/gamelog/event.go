// Package gamelog carries game milestones to the audit log and to organizers.
package gamelog

import (
	"time"

	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
)

type Kind string

const (
	KindWaiversOpened      Kind = "waivers_opened"
	KindGameStarted        Kind = "game_started"
	KindLevelUp            Kind = "level_up"
	KindTeamFinished       Kind = "team_finished"
	KindGameFinished       Kind = "game_finished"
	KindGameCancelled      Kind = "game_cancelled"
	KindHintDeliveryFailed Kind = "hint_delivery_failed"
	KindHintCancelled      Kind = "hint_cancelled"
)

// Event is a structured game milestone. Fields not relevant to the kind are zero.
type Event struct {
	Kind        Kind
	GameID      int64
	GameName    string
	TeamID      int64
	TeamName    string
	LevelNumber int
	HintOffset  time.Duration
	BonusKey    string
	Organizers  []gameModel.Organizer
	Teams       []int64
	Err         string
	At          time.Time
}
