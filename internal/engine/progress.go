package engine

import (
	"context"
	"errors"
	"time"

	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	progressDB "github.com/keyhunt-games/keyhunt/internal/database/progress/database"
	progressModel "github.com/keyhunt-games/keyhunt/internal/database/progress/model"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
)

type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseOnLevel  Phase = "on_level"
	PhaseFinished Phase = "finished"
)

// TeamState is the position of a team in a game.
type TeamState struct {
	Phase       Phase
	LevelNumber int
	LevelStart  time.Time
}

// TeamState derives the team position from its live level time.
func (e *Engine) TeamState(ctx context.Context, game gameModel.Game, teamID int64) (TeamState, error) {
	lt, err := e.CurrentLevel(ctx, game.ID, teamID)
	if err != nil {
		if errors.Is(err, ErrTeamNotParticipating) {
			return TeamState{Phase: PhasePending}, nil
		}
		return TeamState{}, err
	}

	st := TeamState{Phase: PhaseOnLevel, LevelNumber: lt.LevelNumber, LevelStart: lt.StartAt}
	if lt.IsFinished() && game.IsLastLevel(lt.LevelNumber) {
		st.Phase = PhaseFinished
	}

	return st, nil
}

// CurrentLevel returns the live level time of the team.
func (e *Engine) CurrentLevel(ctx context.Context, gameID, teamID int64) (progressModel.LevelTime, error) {
	lt, err := e.progress.CurrentLevelTime(ctx, gameID, teamID)
	if err != nil {
		if errors.Is(err, progressDB.ErrNotFound) {
			return lt, precondition(CodeTeamNotParticipating, "team %d has no progress", teamID)
		}
		return lt, infrastructure("fetch current level", err)
	}

	return lt, nil
}

// LevelAt returns the historical level time of the team on the given level.
func (e *Engine) LevelAt(ctx context.Context, gameID, teamID int64, level int) (progressModel.LevelTime, error) {
	lt, err := e.progress.LevelTime(ctx, gameID, teamID, level)
	if err != nil {
		if errors.Is(err, progressDB.ErrNotFound) {
			return lt, precondition(CodeLevelMismatch, "team never reached level %d", level)
		}
		return lt, infrastructure("fetch level time", err)
	}

	return lt, nil
}

// IsFinished reports whether every participating team finished the last
// level. Participants are the teams put on level 0 when the game started.
func (e *Engine) IsFinished(ctx context.Context, game gameModel.Game) (bool, error) {
	list, err := e.progress.LevelTimesByGame(ctx, game.ID)
	if err != nil {
		return false, infrastructure("fetch level times", err)
	}

	participants := 0
	for _, lt := range list {
		if lt.LevelNumber != 0 {
			continue
		}
		participants++

		st, err := e.TeamState(ctx, game, lt.TeamID)
		if err != nil {
			return false, err
		}
		if st.Phase != PhaseFinished {
			return false, nil
		}
	}

	return participants > 0, nil
}

// AvailableHints is what a team may see on its live level.
type AvailableHints struct {
	LevelNumber int
	TimeHints   []scenario.TimeHint
	Bonus       []scenario.BonusKey
}

// AvailableHints returns the hints of the team's live level released by now,
// with bonus hints the team unlocked there.
func (e *Engine) AvailableHints(ctx context.Context, game gameModel.Game, teamID int64, now time.Time) (AvailableHints, error) {
	var res AvailableHints

	st, err := e.status(ctx, game.ID)
	if err != nil {
		return res, err
	}
	if err := requireStatus(st, gameModel.StatusRunning); err != nil {
		return res, err
	}

	lt, err := e.CurrentLevel(ctx, game.ID, teamID)
	if err != nil {
		return res, err
	}

	lvl, ok := game.Level(lt.LevelNumber)
	if !ok {
		return res, precondition(CodeLevelMismatch, "level %d", lt.LevelNumber)
	}

	res.LevelNumber = lt.LevelNumber
	res.TimeHints = lvl.Scenario.HintsBefore(now.Sub(lt.StartAt))

	keys, err := e.progress.KeyTimes(ctx, game.ID, teamID)
	if err != nil {
		return res, infrastructure("fetch key times", err)
	}

	for _, kt := range keys {
		if !kt.IsBonus || kt.IsDuplicate || kt.LevelNumber != lt.LevelNumber {
			continue
		}
		if m := lvl.Scenario.Match(kt.Normalized); m.Bonus != nil {
			res.Bonus = append(res.Bonus, *m.Bonus)
		}
	}

	return res, nil
}

// TypedKeys returns key submissions of every team ordered by time.
func (e *Engine) TypedKeys(ctx context.Context, game gameModel.Game, actorID int64) (map[int64][]progressModel.KeyTime, error) {
	if !game.IsOrganizer(actorID) {
		return nil, precondition(CodeInsufficientPermission, "player %d is not an organizer", actorID)
	}

	list, err := e.progress.KeyTimesByGame(ctx, game.ID)
	if err != nil {
		return nil, infrastructure("fetch key times", err)
	}

	byTeam := make(map[int64][]progressModel.KeyTime)
	for _, kt := range list {
		byTeam[kt.TeamID] = append(byTeam[kt.TeamID], kt)
	}

	return byTeam, nil
}

// LevelTimes returns level times of every team ordered by level.
func (e *Engine) LevelTimes(ctx context.Context, game gameModel.Game, actorID int64) (map[int64][]progressModel.LevelTime, error) {
	if !game.IsOrganizer(actorID) {
		return nil, precondition(CodeInsufficientPermission, "player %d is not an organizer", actorID)
	}

	list, err := e.progress.LevelTimesByGame(ctx, game.ID)
	if err != nil {
		return nil, infrastructure("fetch level times", err)
	}

	byTeam := make(map[int64][]progressModel.LevelTime)
	for _, lt := range list {
		byTeam[lt.TeamID] = append(byTeam[lt.TeamID], lt)
	}

	return byTeam, nil
}
