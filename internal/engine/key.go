package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	progressDB "github.com/keyhunt-games/keyhunt/internal/database/progress/database"
	progressModel "github.com/keyhunt-games/keyhunt/internal/database/progress/model"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	waiverDB "github.com/keyhunt-games/keyhunt/internal/database/waiver/database"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/logging"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
)

type Outcome string

const (
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeCorrect   Outcome = "correct"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeBonus     Outcome = "bonus"
)

// Submission is a key typed by a player for a level.
type Submission struct {
	PlayerID    int64
	LevelNumber int
	Text        string
	// At defaults to the engine clock.
	At time.Time
}

type KeyResult struct {
	Outcome Outcome
	KeyTime progressModel.KeyTime
	// LevelNumber is the team's live level after the check.
	LevelNumber  int
	Advanced     bool
	TeamFinished bool
	GameFinished bool
	Bonus        *scenario.BonusKey
}

// CheckKey classifies the submission, records it and advances the team on the
// first correct regular key of its live level. Checks of one team are
// serialized, so concurrent copies of one key give exactly one correct result.
func (e *Engine) CheckKey(ctx context.Context, game gameModel.Game, team teamModel.Team, sub Submission) (KeyResult, error) {
	logger := logging.FromContext(ctx).Named("engine.CheckKey")

	var res KeyResult
	if !team.Can(sub.PlayerID, teamModel.PermissionSubmitKeys) {
		if _, ok := team.Member(sub.PlayerID); !ok {
			return res, precondition(CodePlayerNotInTeam, "player %d, team %d", sub.PlayerID, team.ID)
		}
		return res, precondition(CodeInsufficientPermission, "player %d can not submit keys", sub.PlayerID)
	}

	unlock, err := e.lock(ctx, lockKey, game.ID, team.ID)
	if err != nil {
		return res, err
	}
	defer unlock()

	st, err := e.status(ctx, game.ID)
	if err != nil {
		return res, err
	}
	if err := requireStatus(st, gameModel.StatusRunning); err != nil {
		return res, err
	}

	w, err := e.waivers.Fetch(ctx, game.ID, team.ID)
	if err != nil && !errors.Is(err, waiverDB.ErrNotFound) {
		return res, infrastructure("fetch waiver", err)
	}
	if err != nil || !w.IsApproved() {
		return res, precondition(CodeTeamNotParticipating, "team %d", team.ID)
	}

	current, err := e.progress.CurrentLevelTime(ctx, game.ID, team.ID)
	if err != nil {
		if errors.Is(err, progressDB.ErrNotFound) {
			return res, precondition(CodeTeamNotParticipating, "team %d has no progress", team.ID)
		}
		return res, infrastructure("fetch current level", err)
	}
	res.LevelNumber = current.LevelNumber

	lt, err := e.submittedLevel(ctx, game, current, sub.LevelNumber)
	if err != nil {
		return res, err
	}
	lvl, _ := game.Level(lt.LevelNumber)

	now := sub.At
	if now.IsZero() {
		now = e.clock.Now()
	}

	match := lvl.Scenario.Match(sub.Text)
	kt := progressModel.KeyTime{
		ID:          uuid.New(),
		GameID:      game.ID,
		TeamID:      team.ID,
		PlayerID:    sub.PlayerID,
		LevelNumber: lt.LevelNumber,
		Text:        sub.Text,
		Normalized:  match.Normalized,
		At:          now,
	}

	var adv *progressModel.Advance
	res.Outcome = OutcomeIncorrect
	if match.IsValid() {
		dup, err := e.progress.HasCorrectKey(ctx, game.ID, team.ID, lt.LevelNumber, match.Normalized)
		if err != nil {
			return res, infrastructure("check duplicate", err)
		}

		kt.IsCorrect = true
		kt.IsDuplicate = dup
		kt.IsBonus = match.Kind == scenario.KeyKindBonus

		switch {
		case dup:
			res.Outcome = OutcomeDuplicate
		case kt.IsBonus:
			res.Outcome = OutcomeBonus
			res.Bonus = match.Bonus
		default:
			res.Outcome = OutcomeCorrect
			// late keys for a passed level are recorded without advancing
			if lt.LevelNumber == current.LevelNumber && !current.IsFinished() {
				adv = &progressModel.Advance{FinishAt: now}
				if !game.IsLastLevel(lt.LevelNumber) {
					adv.Next = &progressModel.LevelTime{
						GameID:      game.ID,
						TeamID:      team.ID,
						LevelNumber: lt.LevelNumber + 1,
						StartAt:     now,
					}
				}
			}
		}
	}

	if err := e.progress.RecordKey(ctx, kt, adv); err != nil {
		return res, infrastructure("record key", err)
	}
	res.KeyTime = kt

	logger.Infof("game %d team %d level %d: player %d key %q %s",
		game.ID, team.ID, lt.LevelNumber, sub.PlayerID, sub.Text, res.Outcome)

	if res.Outcome == OutcomeBonus {
		t, _ := target(game, team.ID, lt.LevelNumber)
		e.hints.ArmBonus(ctx, t, *match.Bonus)
	}

	if adv != nil {
		res.Advanced = true
		e.advanced(ctx, game, team, lt.LevelNumber, adv, &res)
	} else if current.IsFinished() {
		res.TeamFinished = true
		if finished, err := e.IsFinished(ctx, game); err == nil && finished {
			res.GameFinished = e.finish(ctx, game, team, now)
		}
	}

	return res, nil
}

// submittedLevel returns the level time the key is evaluated against: the live
// one or an earlier level the team already passed.
func (e *Engine) submittedLevel(ctx context.Context, game gameModel.Game, current progressModel.LevelTime, level int) (progressModel.LevelTime, error) {
	if _, ok := game.Level(level); !ok || level > current.LevelNumber {
		return current, precondition(CodeLevelMismatch, "team is on level %d, key for level %d", current.LevelNumber, level)
	}

	if level == current.LevelNumber {
		return current, nil
	}

	lt, err := e.progress.LevelTime(ctx, game.ID, current.TeamID, level)
	if err != nil {
		if errors.Is(err, progressDB.ErrNotFound) {
			return lt, precondition(CodeLevelMismatch, "team never reached level %d", level)
		}
		return lt, infrastructure("fetch level time", err)
	}

	return lt, nil
}

func (e *Engine) advanced(ctx context.Context, game gameModel.Game, team teamModel.Team, level int, adv *progressModel.Advance, res *KeyResult) {
	logger := logging.FromContext(ctx).Named("engine.advanced")

	e.hints.CancelAll(game.ID, team.ID, level)

	if adv.Next != nil {
		res.LevelNumber = adv.Next.LevelNumber
		t, _ := target(game, team.ID, adv.Next.LevelNumber)
		e.hints.Arm(ctx, t, adv.Next.StartAt)

		ev := gamelog.Event{
			Kind:        gamelog.KindLevelUp,
			GameID:      game.ID,
			GameName:    game.Name,
			TeamID:      team.ID,
			TeamName:    team.Name,
			LevelNumber: adv.Next.LevelNumber,
			Organizers:  game.Organizers,
			At:          adv.FinishAt,
		}
		e.log.Log(ctx, ev)
		e.log.Notify(ctx, ev)
		return
	}

	res.TeamFinished = true

	finished, err := e.IsFinished(ctx, game)
	if err != nil {
		// the team is finished in storage, the next check of a finished team retries
		logger.Errorf("game %d: finish check: %v", game.ID, err)
		return
	}

	if finished {
		res.GameFinished = e.finish(ctx, game, team, adv.FinishAt)
		return
	}

	ev := gamelog.Event{
		Kind:        gamelog.KindTeamFinished,
		GameID:      game.ID,
		GameName:    game.Name,
		TeamID:      team.ID,
		TeamName:    team.Name,
		LevelNumber: level,
		Organizers:  game.Organizers,
		At:          adv.FinishAt,
	}
	e.log.Log(ctx, ev)
	e.log.Notify(ctx, ev)
}

// finish moves the game to finished once. It reports whether this call did it.
func (e *Engine) finish(ctx context.Context, game gameModel.Game, team teamModel.Team, at time.Time) bool {
	logger := logging.FromContext(ctx).Named("engine.finish")

	if _, err := e.games.UpdateStatus(ctx, game.ID, gameModel.StatusFinished, gameModel.StatusRunning); err != nil {
		if !errors.Is(err, gameDB.ErrStatusConflict) {
			logger.Errorf("game %d: finish: %v", game.ID, err)
		}
		return false
	}

	logger.Infof("game %d finished, last team %d", game.ID, team.ID)
	e.hints.ForgetGame(game.ID)

	ev := gamelog.Event{
		Kind:       gamelog.KindGameFinished,
		GameID:     game.ID,
		GameName:   game.Name,
		TeamID:     team.ID,
		TeamName:   team.Name,
		Organizers: game.Organizers,
		At:         at,
	}
	e.log.Log(ctx, ev)
	e.log.Notify(ctx, ev)

	return true
}
