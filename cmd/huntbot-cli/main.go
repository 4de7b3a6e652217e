package main

import (
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

// Local runner: asks for the bot token and an optional seed file instead of
// reading them from the environment.
func main() {
	_, _ = fmt.Fprintf(os.Stdout, resource.GreetingCLI, resource.ProjectName, resource.ProjectVersion)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	defer done()

	_ = godotenv.Load()
	config := huntbot.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	config.BotToken = prompt("Enter your bot token:")
	if config.BotToken == "" {
		logger.Fatalf(
			"Bot token not found, please visit %s to register your bot and get a token",
			resource.BotFatherURL,
		)
	}

	if config.SeedFile == "" {
		config.SeedFile = prompt("Enter seed file path (empty to skip):")
	}

	tg, err := huntbot.NewBotAPI(&config)
	if err != nil {
		logger.Fatalf("bot api: %v", err)
	}

	tg.Debug = config.Debug
	_, _ = fmt.Fprint(os.Stdout, "Authorization in telegram was successful: ", tg.Self.UserName, "\n")

	db, err := database.NewFromEnv(ctx, &config.Db)
	if err != nil {
		logger.Fatalf("new database from env: %v", err)
	}

	defer db.Close(ctx)

	manager, err := huntbot.Setup(ctx, tg, &config, db)
	if err != nil {
		logger.Fatalf("setup: %v", err)
	}

	if err := manager.Run(ctx); err != nil {
		logger.Fatalf("run: %v", err)
	}
}

func prompt(title string) string {
	var value string
	fmt.Println(title)
	if _, err := fmt.Scanln(&value); err != nil && err.Error() != "unexpected newline" {
		logging.DefaultLogger().Fatalf("read input: %v", err)
	}

	return value
}
