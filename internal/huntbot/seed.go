package huntbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	teamDB "github.com/keyhunt-games/keyhunt/internal/database/team/database"
	teamModel "github.com/keyhunt-games/keyhunt/internal/database/team/model"
	"github.com/keyhunt-games/keyhunt/internal/logging"
)

var ErrSeedNoID = fmt.Errorf("seed record must have an id")

type Seed struct {
	Games []gameModel.Game `json:"games"`
	Teams []teamModel.Team `json:"teams"`
}

type GameSeeder interface {
	Fetch(ctx context.Context, id int64) (gameModel.Game, error)
	Store(ctx context.Context, g gameModel.Game) (gameModel.Game, error)
}

type TeamSeeder interface {
	Fetch(ctx context.Context, id int64) (teamModel.Team, error)
	Store(ctx context.Context, t teamModel.Team) (teamModel.Team, error)
}

func ReadSeed(r io.Reader) (Seed, error) {
	var s Seed
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return s, fmt.Errorf("decode seed: %w", err)
	}

	for _, g := range s.Games {
		if g.ID == 0 {
			return s, fmt.Errorf("game %q: %w", g.Name, ErrSeedNoID)
		}
		for i, lvl := range g.Levels {
			if err := lvl.Scenario.Validate(); err != nil {
				return s, fmt.Errorf("game %d level %d: %w", g.ID, i, err)
			}
		}
	}

	for _, t := range s.Teams {
		if t.ID == 0 {
			return s, fmt.Errorf("team %q: %w", t.Name, ErrSeedNoID)
		}
	}

	return s, nil
}

// LoadSeed stores games and teams from the seed file. Records that already
// exist are left untouched, so a restart does not reset a game in progress.
func LoadSeed(ctx context.Context, path string, games GameSeeder, teams TeamSeeder) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	s, err := ReadSeed(f)
	if err != nil {
		return err
	}

	return ApplySeed(ctx, s, games, teams)
}

func ApplySeed(ctx context.Context, s Seed, games GameSeeder, teams TeamSeeder) error {
	logger := logging.FromContext(ctx).Named("huntbot.ApplySeed")

	for _, g := range s.Games {
		_, err := games.Fetch(ctx, g.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, gameDB.ErrNotFound) {
			return fmt.Errorf("fetch game %d: %w", g.ID, err)
		}

		if g.Status == "" {
			g.Status = gameModel.StatusNotStarted
		}
		for i := range g.Levels {
			g.Levels[i].Number = i
		}

		if _, err := games.Store(ctx, g); err != nil {
			return fmt.Errorf("store game %d: %w", g.ID, err)
		}
		logger.Infof("seeded game %d %q", g.ID, g.Name)
	}

	for _, t := range s.Teams {
		_, err := teams.Fetch(ctx, t.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, teamDB.ErrNotFound) {
			return fmt.Errorf("fetch team %d: %w", t.ID, err)
		}

		if _, err := teams.Store(ctx, t); err != nil {
			return fmt.Errorf("store team %d: %w", t.ID, err)
		}
		logger.Infof("seeded team %d %q", t.ID, t.Name)
	}

	return nil
}
