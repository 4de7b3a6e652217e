package huntbot

import (
	"time"

	"github.com/keyhunt-games/keyhunt/internal/database"
	"github.com/keyhunt-games/keyhunt/internal/engine"
)

type Config struct {
	// Logging all requests and responses from telegram
	Debug bool `envconfig:"HUNT_DEBUG" default:"false"`

	// Number of items in the cache
	CacheSize int `envconfig:"HUNT_CACHE_SIZE" default:"1024"`

	// Telegram bot token
	BotToken         string        `envconfig:"HUNT_BOT_TOKEN"`
	TgBotPollTimeout time.Duration `envconfig:"HUNT_TG_BOT_POLL_TIMEOUT" default:"60s"`

	// Chat receiving the game log, disabled when zero
	GameLogChatID int64 `envconfig:"HUNT_GAME_LOG_CHAT_ID" default:"0"`

	// Upper bound for a single notification or hint delivery
	SendTimeout time.Duration `envconfig:"HUNT_SEND_TIMEOUT" default:"10s"`

	// Size of the outgoing reply queue
	SendQueueSize int `envconfig:"HUNT_SEND_QUEUE_SIZE" default:"256"`

	// JSON file with games and teams loaded on start, optional
	SeedFile string `envconfig:"HUNT_SEED_FILE"`

	Db     database.Config
	Engine engine.Config
}
