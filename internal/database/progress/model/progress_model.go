package model

import (
	"time"

	"github.com/google/uuid"
)

// LevelTime is the window a team spent on one level of a game.
type LevelTime struct {
	GameID      int64      `json:"gameId"`
	TeamID      int64      `json:"teamId"`
	LevelNumber int        `json:"levelNumber"`
	StartAt     time.Time  `json:"startAt"`
	FinishAt    *time.Time `json:"finishAt,omitempty"`
}

func (lt LevelTime) IsFinished() bool {
	return lt.FinishAt != nil
}

// Duration returns time spent on the level, up to now when the level is not finished.
func (lt LevelTime) Duration(now time.Time) time.Duration {
	if lt.FinishAt != nil {
		return lt.FinishAt.Sub(lt.StartAt)
	}

	return now.Sub(lt.StartAt)
}

// KeyTime is an immutable record of one key submission.
type KeyTime struct {
	ID          uuid.UUID `json:"id"`
	GameID      int64     `json:"gameId"`
	TeamID      int64     `json:"teamId"`
	PlayerID    int64     `json:"playerId"`
	LevelNumber int       `json:"levelNumber"`
	Text        string    `json:"text"`
	Normalized  string    `json:"normalized"`
	At          time.Time `json:"at"`
	IsCorrect   bool      `json:"isCorrect"`
	IsDuplicate bool      `json:"isDuplicate"`
	IsBonus     bool      `json:"isBonus"`
}

// Advance describes the level transition committed together with a key.
// Next is nil when the finished level was the last one.
type Advance struct {
	FinishAt time.Time
	Next     *LevelTime
}
