package model

import (
	"sort"
	"time"
)

type Played string

const (
	PlayedYes Played = "playing"
	PlayedNo  Played = "not_playing"
)

func (p Played) IsValid() bool {
	return p == PlayedYes || p == PlayedNo
}

type Status string

const (
	StatusOpen     Status = "open"
	StatusApproved Status = "approved"
)

// Waiver is the attendance record of a team for a game.
type Waiver struct {
	GameID     int64            `json:"gameId"`
	TeamID     int64            `json:"teamId"`
	Votes      map[int64]Played `json:"votes"`
	Status     Status           `json:"status"`
	Roster     []int64          `json:"roster"`
	ApprovedBy int64            `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time       `json:"approvedAt,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func New(gameID, teamID int64, now time.Time) Waiver {
	return Waiver{
		GameID:    gameID,
		TeamID:    teamID,
		Votes:     map[int64]Played{},
		Status:    StatusOpen,
		CreatedAt: now,
	}
}

func (w Waiver) IsApproved() bool {
	return w.Status == StatusApproved
}

// HasVotes reports whether somebody in the team intends to play.
func (w Waiver) HasVotes() bool {
	for _, p := range w.Votes {
		if p == PlayedYes {
			return true
		}
	}

	return false
}

// Playing returns the sorted ids of players who voted to play.
func (w Waiver) Playing() []int64 {
	ids := make([]int64, 0, len(w.Votes))
	for id, p := range w.Votes {
		if p == PlayedYes {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
