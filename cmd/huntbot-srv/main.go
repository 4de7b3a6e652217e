package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/keyhunt-games/keyhunt/internal/database"
	"github.com/keyhunt-games/keyhunt/internal/huntbot"
	"github.com/keyhunt-games/keyhunt/internal/huntbot/resource"
	"github.com/keyhunt-games/keyhunt/internal/logging"
	"github.com/keyhunt-games/keyhunt/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprintf(os.Stdout, resource.GreetingCLI, resource.ProjectName, resource.ProjectVersion)

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := realMain(ctx); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context) error {
	// .env is optional, the environment wins
	_ = godotenv.Load()

	config := huntbot.Config{}
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("processing the config: %w", err)
	}

	logger := logging.NewLogger(config.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if config.BotToken == "" {
		return fmt.Errorf(
			"bot token not found, please visit %s to register your bot and get a token",
			resource.BotFatherURL,
		)
	}

	tg, err := huntbot.NewBotAPI(&config)
	if err != nil {
		return fmt.Errorf("bot api: %w", err)
	}

	tg.Debug = config.Debug
	logger.Infof("authorization in telegram was successful: %s", tg.Self.UserName)

	db, err := database.NewFromEnv(ctx, &config.Db)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	manager, err := huntbot.Setup(ctx, tg, &config, db)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}
