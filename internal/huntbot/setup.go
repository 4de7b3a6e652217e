package huntbot

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/keyhunt-games/keyhunt/internal/cache"
	"github.com/keyhunt-games/keyhunt/internal/database"
	gameDB "github.com/keyhunt-games/keyhunt/internal/database/game/database"
	progressDB "github.com/keyhunt-games/keyhunt/internal/database/progress/database"
	teamDB "github.com/keyhunt-games/keyhunt/internal/database/team/database"
	waiverDB "github.com/keyhunt-games/keyhunt/internal/database/waiver/database"
	"github.com/keyhunt-games/keyhunt/internal/engine"
	"github.com/keyhunt-games/keyhunt/internal/gamelog"
	"github.com/keyhunt-games/keyhunt/internal/logging"
	"github.com/keyhunt-games/keyhunt/internal/scheduler"
)

// NewBotAPI connects to telegram through a client whose timeout covers one
// long poll plus one send, so no request can hang forever.
func NewBotAPI(config *Config) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: config.TgBotPollTimeout + config.SendTimeout}

	return tgbotapi.NewBotAPIWithClient(config.BotToken, client)
}

// Setup builds the stores, the hint scheduler and the engine on top of db and
// returns a manager ready to run.
func Setup(ctx context.Context, bot *tgbotapi.BotAPI, config *Config, db *database.DB) (*Manager, error) {
	logger := logging.FromContext(ctx).Named("huntbot.Setup")

	gameCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("can not create lru cache: %w", err)
	}

	teamCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("can not create lru cache: %w", err)
	}

	games := gameDB.New(db, gameCache)
	teams := teamDB.New(db, teamCache)

	if config.SeedFile != "" {
		if err := LoadSeed(ctx, config.SeedFile, games, teams); err != nil {
			return nil, fmt.Errorf("load seed: %w", err)
		}
		logger.Infof("seed %s loaded", config.SeedFile)
	}

	clock := scheduler.SystemClock{}
	view := NewView(bot, teams, config.GameLogChatID)
	log := gamelog.New(gamelog.MultiWriter{gamelog.ZapWriter{}, view}, view, config.SendTimeout)
	hints := scheduler.New(scheduler.NewTimerBackend(clock), clock, view, log, config.SendTimeout)

	eng := engine.New(&config.Engine, engine.Deps{
		Games:    games,
		Teams:    teams,
		Waivers:  waiverDB.New(db),
		Progress: progressDB.New(db),
		Hints:    hints,
		Log:      log,
		Clock:    clock,
	})

	return NewManager(bot, config, eng, games, teams, clock), nil
}
