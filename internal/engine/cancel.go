package engine

import (
	"context"
	"errors"

	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/logging"
)

// CancelGame stops the game for good. Pending hints are dropped, recorded
// progress stays untouched.
func (e *Engine) CancelGame(ctx context.Context, game gameModel.Game, actorID int64) error {
	logger := logging.FromContext(ctx).Named("engine.CancelGame")

	if game.AuthorID != actorID {
		return precondition(CodeInsufficientPermission, "only the author cancels game %d", game.ID)
	}

	unlock, err := e.lock(ctx, lockGame, game.ID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := e.games.UpdateStatus(ctx, game.ID, gameModel.StatusCancelled,
		gameModel.StatusNotStarted, gameModel.StatusWaiversOpen, gameModel.StatusRunning); err != nil {
		if errors.Is(err, gameDB.ErrStatusConflict) {
			return precondition(CodeInvalidGameStatus, "game %d already over", game.ID)
		}
		return infrastructure("update game status", err)
	}

	now := e.clock.Now()
	dropped := e.hints.CancelGame(game.ID)
	logger.Infof("game %d cancelled by %d, dropped %d hints", game.ID, actorID, len(dropped))

	if e.config.AuditCancelledHints {
		for _, d := range dropped {
			e.log.Log(ctx, gamelog.Event{
				Kind:        gamelog.KindHintCancelled,
				GameID:      game.ID,
				TeamID:      d.TeamID,
				LevelNumber: d.LevelNumber,
				HintOffset:  d.Offset,
				BonusKey:    d.BonusKey,
				At:          now,
			})
		}
	}

	ev := gamelog.Event{
		Kind:       gamelog.KindGameCancelled,
		GameID:     game.ID,
		GameName:   game.Name,
		Organizers: game.Organizers,
		At:         now,
	}
	e.log.Log(ctx, ev)
	e.log.Notify(ctx, ev)

	return nil
}

// ResumeHints arms hints of every team still on a level of a running game.
// Hints whose time already passed are not armed again. It returns the number
// of timers armed.
func (e *Engine) ResumeHints(ctx context.Context, game gameModel.Game) (int, error) {
	st, err := e.status(ctx, game.ID)
	if err != nil {
		return 0, err
	}
	if err := requireStatus(st, gameModel.StatusRunning); err != nil {
		return 0, err
	}

	list, err := e.progress.LevelTimesByGame(ctx, game.ID)
	if err != nil {
		return 0, infrastructure("fetch level times", err)
	}

	armed := 0
	for _, lt := range list {
		if lt.IsFinished() {
			continue
		}

		t, ok := target(game, lt.TeamID, lt.LevelNumber)
		if !ok {
			continue
		}
		armed += e.hints.Resume(ctx, t, lt.StartAt)
	}

	logging.FromContext(ctx).Named("engine.ResumeHints").Infof("game %d: armed %d hints", game.ID, armed)

	return armed, nil
}
