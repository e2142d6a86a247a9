package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/squadup/internal/seed"
	"github.com/okian/squadup/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers = 16
	defaultMatches = 40
	defaultWorkers = 4
	defaultTimeout = 10 * time.Second
	runTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		squadID = flag.String("squad", "", "Squad to seed (default: a new squad)")
		players = flag.Int("players", defaultPlayers, "Number of players to create")
		matches = flag.Int("matches", defaultMatches, "Number of matches to play")
		rngSeed = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		workers = flag.Int("workers", defaultWorkers, "Concurrent player creations")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Also write logs to this file")
		verbose = flag.Bool("verbose", false, "Log every request")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := seed.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, err = seed.Run(ctx, &seed.Config{
		BaseURL: *baseURL,
		SquadID: *squadID,
		Players: *players,
		Matches: *matches,
		Seed:    *rngSeed,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
