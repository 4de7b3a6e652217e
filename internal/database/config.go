package database

import "time"

type Config struct {
	FilePath    string        `envconfig:"HUNT_DB_FILE_PATH" default:"keyhunt.db"`
	OpenTimeout time.Duration `envconfig:"HUNT_DB_OPEN_TIMEOUT" default:"1s"`
}
