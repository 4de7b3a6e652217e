package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	progressDB "github.com/keyhunt-games/keyhunt/internal/database/progress/database"
	progressModel "github.com/keyhunt-games/keyhunt/internal/database/progress/model"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/logging"
)

// StartGame puts every team with an approved waiver on level 0, arms its hints
// and moves the game to running. A team that voted to play but is not approved
// blocks the start. It returns the ids of the participating teams.
func (e *Engine) StartGame(ctx context.Context, game gameModel.Game, authorID int64) ([]int64, error) {
	logger := logging.FromContext(ctx).Named("engine.StartGame")

	if !game.IsOrganizer(authorID) {
		return nil, precondition(CodeInsufficientPermission, "player %d can not start game %d", authorID, game.ID)
	}

	if game.LevelsCount() == 0 {
		return nil, precondition(CodeInvalidScenario, "game %d has no levels", game.ID)
	}
	for _, lvl := range game.Levels {
		if err := lvl.Scenario.Validate(); err != nil {
			return nil, &Error{Kind: KindPrecondition, Code: CodeInvalidScenario, Msg: fmt.Sprintf("level %d", lvl.Number), Err: err}
		}
	}

	unlock, err := e.lock(ctx, lockGame, game.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.status(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(st, gameModel.StatusWaiversOpen); err != nil {
		return nil, err
	}

	// votes wait until the game is running and are then refused
	unlockVotes, err := e.lockVotes(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	defer unlockVotes()

	waivers, err := e.waivers.FetchByGame(ctx, game.ID)
	if err != nil {
		return nil, infrastructure("fetch waivers", err)
	}

	var approved, missing []int64
	for _, w := range waivers {
		switch {
		case w.IsApproved():
			approved = append(approved, w.TeamID)
		case w.HasVotes():
			missing = append(missing, w.TeamID)
		}
	}

	if len(missing) > 0 {
		return nil, &Error{Kind: KindPrecondition, Code: CodeWaiversIncomplete, Msg: "waivers not approved", Teams: missing}
	}
	if len(approved) == 0 {
		return nil, precondition(CodeNoParticipants, "game %d", game.ID)
	}

	now := e.clock.Now()
	for _, teamID := range approved {
		if _, err := e.progress.StartLevel(ctx, progressModel.LevelTime{
			GameID:      game.ID,
			TeamID:      teamID,
			LevelNumber: 0,
			StartAt:     now,
		}); err != nil {
			return nil, infrastructure("start level", err)
		}
	}

	if _, err := e.games.UpdateStatus(ctx, game.ID, gameModel.StatusRunning, gameModel.StatusWaiversOpen); err != nil {
		if errors.Is(err, gameDB.ErrStatusConflict) {
			return nil, precondition(CodeInvalidGameStatus, "game status changed")
		}
		return nil, infrastructure("update game status", err)
	}

	for _, teamID := range approved {
		// a previous failed start may have seeded the level already
		lt, err := e.progress.LevelTime(ctx, game.ID, teamID, 0)
		if err != nil {
			if errors.Is(err, progressDB.ErrNotFound) {
				continue
			}
			logger.Errorf("game %d team %d: level time: %v", game.ID, teamID, err)
			continue
		}

		t, _ := target(game, teamID, 0)
		e.hints.Arm(ctx, t, lt.StartAt)
	}

	logger.Infof("game %d started, teams %v", game.ID, approved)
	ev := gamelog.Event{
		Kind:       gamelog.KindGameStarted,
		GameID:     game.ID,
		GameName:   game.Name,
		Teams:      approved,
		Organizers: game.Organizers,
		At:         now,
	}
	e.log.Log(ctx, ev)
	e.log.Notify(ctx, ev)

	return approved, nil
}

// lockVotes takes the vote token of every team in id order.
func (e *Engine) lockVotes(ctx context.Context, gameID int64) (func(), error) {
	teams, err := e.teams.FetchAll(ctx)
	if err != nil {
		return nil, infrastructure("fetch teams", err)
	}

	ids := make([]int64, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	unlocks := make([]func(), 0, len(ids))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, id := range ids {
		unlock, err := e.lock(ctx, lockVote, gameID, id)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}

	return release, nil
}
