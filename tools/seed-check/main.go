package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/keyhunt-games/keyhunt/internal/huntbot"
	"github.com/keyhunt-games/keyhunt/internal/logging"
	"github.com/keyhunt-games/keyhunt/internal/shutdown"
)

type Config struct {
	SeedFile string `envconfig:"HUNT_SEED_FILE"`
}

func main() {
	path := flag.String("file", "", "seed file, HUNT_SEED_FILE when empty")
	flag.Parse()

	_, cancel := shutdown.New()
	defer cancel()
	logger := logging.DefaultLogger()

	config := Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	if *path == "" {
		*path = config.SeedFile
	}

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatalf("open seed: %v", err)
	}
	defer f.Close()

	s, err := huntbot.ReadSeed(f)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stdout, err)
		os.Exit(1)
	}

	for _, g := range s.Games {
		_, _ = fmt.Fprintf(os.Stdout, "game %d %q: %d levels, %d organizers\n", g.ID, g.Name, g.LevelsCount(), len(g.Organizers))
	}
	for _, t := range s.Teams {
		_, _ = fmt.Fprintf(os.Stdout, "team %d %q: %d players\n", t.ID, t.Name, len(t.Players))
	}
}
