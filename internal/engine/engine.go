// Package engine runs game play: waivers, game start, key checking, level
// progress and hint arming.
package engine

import (
	"context"
	"time"

	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	progressModel "github.com/keyhunt-games/keyhunt/internal/database/progress/model"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	waiverModel "github.com/keyhunt-games/keyhunt/internal/database/waiver/model"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/keylock"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
	"github.com/keyhunt-games/keyhunt/internal/scheduler"
)

type GameStore interface {
	FetchStatus(ctx context.Context, id int64) (gameModel.Status, error)
	UpdateStatus(ctx context.Context, id int64, next gameModel.Status, from ...gameModel.Status) (gameModel.Game, error)
}

type TeamStore interface {
	FetchAll(ctx context.Context) ([]teamModel.Team, error)
}

type WaiverStore interface {
	CreateIfAbsent(ctx context.Context, w waiverModel.Waiver) (bool, error)
	Fetch(ctx context.Context, gameID, teamID int64) (waiverModel.Waiver, error)
	FetchByGame(ctx context.Context, gameID int64) ([]waiverModel.Waiver, error)
	Put(ctx context.Context, w waiverModel.Waiver) error
}

type ProgressStore interface {
	StartLevel(ctx context.Context, lt progressModel.LevelTime) (bool, error)
	CurrentLevelTime(ctx context.Context, gameID, teamID int64) (progressModel.LevelTime, error)
	LevelTime(ctx context.Context, gameID, teamID int64, level int) (progressModel.LevelTime, error)
	LevelTimesByGame(ctx context.Context, gameID int64) ([]progressModel.LevelTime, error)
	HasCorrectKey(ctx context.Context, gameID, teamID int64, level int, normalized string) (bool, error)
	RecordKey(ctx context.Context, kt progressModel.KeyTime, adv *progressModel.Advance) error
	KeyTimes(ctx context.Context, gameID, teamID int64) ([]progressModel.KeyTime, error)
	KeyTimesByGame(ctx context.Context, gameID int64) ([]progressModel.KeyTime, error)
}

type HintScheduler interface {
	Arm(ctx context.Context, t scheduler.Target, levelStart time.Time) int
	Resume(ctx context.Context, t scheduler.Target, levelStart time.Time) int
	ArmBonus(ctx context.Context, t scheduler.Target, bonus scenario.BonusKey) bool
	CancelAll(gameID, teamID int64, level int) []scheduler.Delivery
	CancelGame(gameID int64) []scheduler.Delivery
	ForgetGame(gameID int64) []scheduler.Delivery
}

// Deps are the collaborators of the engine.
type Deps struct {
	Games    GameStore
	Teams    TeamStore
	Waivers  WaiverStore
	Progress ProgressStore
	Hints    HintScheduler
	Log      *gamelog.Log
	Clock    scheduler.Clock
}

type Engine struct {
	config *Config

	games    GameStore
	teams    TeamStore
	waivers  WaiverStore
	progress ProgressStore
	hints    HintScheduler
	log      *gamelog.Log
	clock    scheduler.Clock

	locks *keylock.Locker
}

func New(config *Config, deps Deps) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = scheduler.SystemClock{}
	}

	return &Engine{
		config:   config,
		games:    deps.Games,
		teams:    deps.Teams,
		waivers:  deps.Waivers,
		progress: deps.Progress,
		hints:    deps.Hints,
		log:      deps.Log,
		clock:    clock,
		locks:    keylock.New(),
	}
}

const (
	lockGame = "game"
	lockKey  = "key"
	lockVote = "vote"
)

// lock takes the admission token for ns and ids, waiting at most LockTimeout.
func (e *Engine) lock(ctx context.Context, ns string, ids ...int64) (func(), error) {
	if e.config.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.LockTimeout)
		defer cancel()
	}

	unlock, err := e.locks.Lock(ctx, keylock.Key(ns, ids...))
	if err != nil {
		return nil, infrastructure("admission token", err)
	}

	return unlock, nil
}

// status reads the stored game status, not the one the caller resolved.
func (e *Engine) status(ctx context.Context, gameID int64) (gameModel.Status, error) {
	st, err := e.games.FetchStatus(ctx, gameID)
	if err != nil {
		return "", infrastructure("fetch game status", err)
	}

	return st, nil
}

func requireStatus(got, want gameModel.Status) error {
	if got == want {
		return nil
	}

	if got == gameModel.StatusCancelled {
		return precondition(CodeGameCancelled, "game cancelled")
	}

	if want == gameModel.StatusRunning {
		return precondition(CodeGameNotRunning, "game is %s", got)
	}

	return precondition(CodeInvalidGameStatus, "game is %s, expected %s", got, want)
}

func target(game gameModel.Game, teamID int64, level int) (scheduler.Target, bool) {
	lvl, ok := game.Level(level)
	if !ok {
		return scheduler.Target{}, false
	}

	return scheduler.Target{
		GameID:      game.ID,
		TeamID:      teamID,
		LevelNumber: level,
		Level:       lvl.Scenario,
	}, true
}
