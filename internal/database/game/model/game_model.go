package model

import (
	"time"

	"github.com/keyhunt-games/keyhunt/internal/scenario"
)

type Status string

const (
	StatusNotStarted  Status = "not_started"
	StatusWaiversOpen Status = "waivers_open"
	StatusRunning     Status = "running"
	StatusFinished    Status = "finished"
	StatusCancelled   Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusNotStarted:  {StatusWaiversOpen, StatusCancelled},
	StatusWaiversOpen: {StatusRunning, StatusCancelled},
	StatusRunning:     {StatusFinished, StatusCancelled},
}

// CanTransition reports whether the status machine allows moving from s to
// next. Finished and cancelled are terminal.
func (s Status) CanTransition(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}

	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

type Level struct {
	ID       string         `json:"id"`
	Number   int            `json:"number"`
	Scenario scenario.Level `json:"scenario"`
}

type Organizer struct {
	PlayerID int64  `json:"playerId"`
	ChatID   int64  `json:"chatId"`
	Name     string `json:"name"`
}

type Game struct {
	ID         int64       `json:"id"`
	AuthorID   int64       `json:"authorId"`
	Name       string      `json:"name"`
	Status     Status      `json:"status"`
	StartAt    time.Time   `json:"startAt"`
	Levels     []Level     `json:"levels"`
	Organizers []Organizer `json:"organizers"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (g Game) LevelsCount() int {
	return len(g.Levels)
}

func (g Game) Level(number int) (Level, bool) {
	if number < 0 || number >= len(g.Levels) {
		return Level{}, false
	}

	return g.Levels[number], true
}

func (g Game) IsLastLevel(number int) bool {
	return number == len(g.Levels)-1
}

// IsOrganizer reports whether the player may see organizer only state, the
// author always may.
func (g Game) IsOrganizer(playerID int64) bool {
	if g.AuthorID == playerID {
		return true
	}

	for _, org := range g.Organizers {
		if org.PlayerID == playerID {
			return true
		}
	}

	return false
}
