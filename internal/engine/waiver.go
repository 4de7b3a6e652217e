package engine

import (
	"context"
	"errors"

	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	waiverDB "github.com/keyhunt-games/keyhunt/internal/database/waiver/database"
	waiverModel "github.com/keyhunt-games/keyhunt/internal/database/waiver/model"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/logging"
)

// OpenWaivers creates an empty waiver for every known team and moves the game
// to waivers open.
func (e *Engine) OpenWaivers(ctx context.Context, game gameModel.Game) error {
	logger := logging.FromContext(ctx).Named("engine.OpenWaivers")

	unlock, err := e.lock(ctx, lockGame, game.ID)
	if err != nil {
		return err
	}
	defer unlock()

	st, err := e.status(ctx, game.ID)
	if err != nil {
		return err
	}
	if err := requireStatus(st, gameModel.StatusNotStarted); err != nil {
		return err
	}

	teams, err := e.teams.FetchAll(ctx)
	if err != nil {
		return infrastructure("fetch teams", err)
	}

	now := e.clock.Now()
	for _, t := range teams {
		if _, err := e.waivers.CreateIfAbsent(ctx, waiverModel.New(game.ID, t.ID, now)); err != nil {
			return infrastructure("create waiver", err)
		}
	}

	if _, err := e.games.UpdateStatus(ctx, game.ID, gameModel.StatusWaiversOpen, gameModel.StatusNotStarted); err != nil {
		if errors.Is(err, gameDB.ErrStatusConflict) {
			return precondition(CodeInvalidGameStatus, "game status changed")
		}
		return infrastructure("update game status", err)
	}

	logger.Infof("game %d: waivers opened for %d teams", game.ID, len(teams))
	e.log.Log(ctx, gamelog.Event{
		Kind:     gamelog.KindWaiversOpened,
		GameID:   game.ID,
		GameName: game.Name,
		At:       now,
	})

	return nil
}

// fetchWaiver returns the stored waiver or a fresh one for teams created after
// waivers were opened.
func (e *Engine) fetchWaiver(ctx context.Context, gameID, teamID int64) (waiverModel.Waiver, error) {
	w, err := e.waivers.Fetch(ctx, gameID, teamID)
	if err != nil {
		if errors.Is(err, waiverDB.ErrNotFound) {
			return waiverModel.New(gameID, teamID, e.clock.Now()), nil
		}
		return w, infrastructure("fetch waiver", err)
	}

	return w, nil
}

// Vote stores the player's choice in the team waiver, overwriting an earlier one.
func (e *Engine) Vote(ctx context.Context, game gameModel.Game, team teamModel.Team, playerID int64, choice waiverModel.Played) (waiverModel.Waiver, error) {
	logger := logging.FromContext(ctx).Named("engine.Vote")

	if !choice.IsValid() {
		return waiverModel.Waiver{}, precondition(CodeInvalidVote, "unknown vote %q", choice)
	}

	if _, ok := team.Member(playerID); !ok {
		return waiverModel.Waiver{}, precondition(CodePlayerNotInTeam, "player %d, team %d", playerID, team.ID)
	}

	unlock, err := e.lock(ctx, lockVote, game.ID, team.ID)
	if err != nil {
		return waiverModel.Waiver{}, err
	}
	defer unlock()

	st, err := e.status(ctx, game.ID)
	if err != nil {
		return waiverModel.Waiver{}, err
	}
	if err := requireStatus(st, gameModel.StatusWaiversOpen); err != nil {
		return waiverModel.Waiver{}, err
	}

	w, err := e.fetchWaiver(ctx, game.ID, team.ID)
	if err != nil {
		return w, err
	}

	if w.IsApproved() {
		return w, precondition(CodeVotingClosed, "waiver of team %d approved", team.ID)
	}

	if w.Votes == nil {
		w.Votes = map[int64]waiverModel.Played{}
	}
	w.Votes[playerID] = choice

	if err := e.waivers.Put(ctx, w); err != nil {
		return w, infrastructure("put waiver", err)
	}

	logger.Infof("game %d team %d: player %d voted %s", game.ID, team.ID, playerID, choice)

	return w, nil
}

// ApproveWaiver locks the current "playing" votes of team members into the
// final roster.
func (e *Engine) ApproveWaiver(ctx context.Context, game gameModel.Game, team teamModel.Team, approverID int64) (waiverModel.Waiver, error) {
	logger := logging.FromContext(ctx).Named("engine.ApproveWaiver")

	if !team.Can(approverID, teamModel.PermissionManageWaivers) {
		return waiverModel.Waiver{}, precondition(CodeInsufficientPermission, "player %d can not approve waivers of team %d", approverID, team.ID)
	}

	unlock, err := e.lock(ctx, lockVote, game.ID, team.ID)
	if err != nil {
		return waiverModel.Waiver{}, err
	}
	defer unlock()

	st, err := e.status(ctx, game.ID)
	if err != nil {
		return waiverModel.Waiver{}, err
	}
	if err := requireStatus(st, gameModel.StatusWaiversOpen); err != nil {
		return waiverModel.Waiver{}, err
	}

	w, err := e.fetchWaiver(ctx, game.ID, team.ID)
	if err != nil {
		return w, err
	}

	if w.IsApproved() {
		return w, precondition(CodeVotingClosed, "waiver of team %d already approved", team.ID)
	}

	roster := make([]int64, 0, len(w.Votes))
	for _, id := range w.Playing() {
		if _, ok := team.Member(id); ok {
			roster = append(roster, id)
		}
	}

	if len(roster) == 0 {
		return w, precondition(CodeEmptyRoster, "team %d", team.ID)
	}

	now := e.clock.Now()
	w.Status = waiverModel.StatusApproved
	w.Roster = roster
	w.ApprovedBy = approverID
	w.ApprovedAt = &now

	if err := e.waivers.Put(ctx, w); err != nil {
		return w, infrastructure("put waiver", err)
	}

	logger.Infof("game %d team %d: waiver approved by %d, roster %v", game.ID, team.ID, approverID, roster)

	return w, nil
}
