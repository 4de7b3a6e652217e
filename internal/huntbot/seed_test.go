package huntbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/keyhunt-games/keyhunt/internal/database/dbtest"
	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	gameModel "github.com/keyhunt-games/keyhunt/internal/database/game/model"
	teamDB "github.com/keyhunt-games/keyhunt/internal/database/team/database"
	"github.com/keyhunt-games/keyhunt/internal/scenario"
)

const seedJSON = `{
  "games": [{
    "id": 5,
    "authorId": 1,
    "name": "hunt",
    "levels": [{
      "id": "first",
      "scenario": {
        "id": "first",
        "keys": ["SH123"],
        "timeHints": [
          {"offset": 0, "hints": [{"kind": "text", "data": {"text": "puzzle"}}]}
        ]
      }
    }]
  }],
  "teams": [{"id": 7, "name": "Gryffindor", "chatId": 100, "captainId": 10}]
}`

func TestApplySeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := dbtest.New(t)
	games, teams := gameDB.New(db, nil), teamDB.New(db, nil)

	s, err := ReadSeed(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}

	if err := ApplySeed(ctx, s, games, teams); err != nil {
		t.Fatalf("apply seed: %v", err)
	}

	g, err := games.Fetch(ctx, 5)
	if err != nil {
		t.Fatalf("fetch game: %v", err)
	}
	if g.Status != gameModel.StatusNotStarted {
		t.Fatalf("expected %v got %v", gameModel.StatusNotStarted, g.Status)
	}
	if g.LevelsCount() != 1 {
		t.Fatalf("expected %v got %v", 1, g.LevelsCount())
	}
	if _, ok := g.Levels[0].Scenario.TimeHints[0].Hints[0].(scenario.TextHint); !ok {
		t.Fatalf("expected text hint got %T", g.Levels[0].Scenario.TimeHints[0].Hints[0])
	}

	if _, err := teams.Fetch(ctx, 7); err != nil {
		t.Fatalf("fetch team: %v", err)
	}
}

func TestApplySeedKeepsExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := dbtest.New(t)
	games, teams := gameDB.New(db, nil), teamDB.New(db, nil)

	s, err := ReadSeed(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}
	if err := ApplySeed(ctx, s, games, teams); err != nil {
		t.Fatalf("apply seed: %v", err)
	}

	if _, err := games.UpdateStatus(ctx, 5, gameModel.StatusWaiversOpen, gameModel.StatusNotStarted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if err := ApplySeed(ctx, s, games, teams); err != nil {
		t.Fatalf("apply seed: %v", err)
	}

	st, err := games.FetchStatus(ctx, 5)
	if err != nil {
		t.Fatalf("fetch status: %v", err)
	}
	if st != gameModel.StatusWaiversOpen {
		t.Fatalf("expected %v got %v", gameModel.StatusWaiversOpen, st)
	}
}

func TestReadSeedInvalid(t *testing.T) {
	t.Parallel()

	_, err := ReadSeed(strings.NewReader(`{"teams": [{"name": "no id"}]}`))
	if !errors.Is(err, ErrSeedNoID) {
		t.Fatalf("expected %v got %v", ErrSeedNoID, err)
	}

	_, err = ReadSeed(strings.NewReader(`{"games": [{"id": 1, "levels": [{"scenario": {"keys": []}}]}]}`))
	if !errors.Is(err, scenario.ErrNoKeys) {
		t.Fatalf("expected %v got %v", scenario.ErrNoKeys, err)
	}
}
