package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/squadup/pkg/logger"
)

const (
	// Progress reporting interval while creating players.
	reportInterval = time.Second
	// Gap between match creations so every match gets its own millisecond
	// timestamp and lands at the end of each participant's timeline.
	matchSpacing = 2 * time.Millisecond
)

// ErrNoPlayers is returned when the run has too few players to play matches.
var ErrNoPlayers = errors.New("at least two players are required")

// run state shared by the steps.
type run struct {
	cfg     *Config
	client  *Client
	gen     *Generator
	log     logger.Logger
	stats   *Stats
	squadID string
	players []Player
	matches []Match
}

// Run seeds a squad, plays matches and verifies the replayed scores.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Players < 2 {
		return nil, ErrNoPlayers
	}
	log := logger.Get().Named("seed")
	r := &run{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.Timeout, log, cfg.Verbose),
		gen:    NewGenerator(cfg.Seed),
		log:    log,
		stats:  &Stats{StartTime: time.Now()},
	}

	log.Info(ctx, "starting squadup seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("matches", cfg.Matches),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	// Step 1: Check service health
	if err := r.checkHealth(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create players concurrently
	if err := r.createPlayers(ctx); err != nil {
		return nil, fmt.Errorf("player creation failed: %w", err)
	}

	// Step 3: Play matches in order
	if err := r.playMatches(ctx); err != nil {
		return nil, fmt.Errorf("playing matches failed: %w", err)
	}

	// Step 4: Verify scores, leaderboard, draft and stats
	if err := r.verify(ctx); err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	r.displayFinalStats(ctx)
	return r.stats, nil
}

func (r *run) checkHealth(ctx context.Context) error {
	if err := r.client.Do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return err
	}
	r.log.Info(ctx, "service is healthy")
	return nil
}

// createPlayers creates the first player alone to learn the squad id and
// the rest with a worker pool.
func (r *run) createPlayers(ctx context.Context) error {
	roster := r.gen.Players(r.cfg.Players)
	r.players = make([]Player, len(roster))

	first, err := r.createPlayer(ctx, r.cfg.SquadID, roster[0])
	if err != nil {
		return err
	}
	r.players[0] = first
	r.squadID = first.SquadID

	workers := max(1, r.cfg.Workers)
	jobs := make(chan int, workers*2)
	var (
		wg         sync.WaitGroup
		created    atomic.Int64
		failed     atomic.Int64
		firstErr   error
		errOnce    sync.Once
		lastReport atomic.Int64
	)
	created.Store(1)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p, err := r.createPlayer(ctx, r.squadID, roster[i])
				if err != nil {
					failed.Add(1)
					errOnce.Do(func() { firstErr = err })
					continue
				}
				r.players[i] = p
				n := created.Add(1)

				now := time.Now().UnixNano()
				if last := lastReport.Load(); now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
					r.log.Info(ctx, "creating players", logger.Int("created", int(n)), logger.Int("total", len(roster)))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 1; i < len(roster); i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	r.stats.PlayersCreated = int(created.Load())
	r.stats.PlayersFailed = int(failed.Load())
	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.Info(ctx, "players created", logger.Int("count", r.stats.PlayersCreated), logger.String("squadID", r.squadID))
	return nil
}

func (r *run) createPlayer(ctx context.Context, squadID string, ps PlayerSpec) (Player, error) {
	body := map[string]any{
		"squad_id":   squadID,
		"name":       ps.Name,
		"position":   ps.Position,
		"base_score": ps.BaseScore,
	}
	var p Player
	err := r.client.Do(ctx, http.MethodPost, "/players", body, &p, http.StatusCreated)
	return p, err
}

// playMatches creates every generated match. Every third match is created
// unscored and scored afterwards, and every fifth has its result edited.
func (r *run) playMatches(ctx context.Context) error {
	plan := r.gen.Matches(len(r.players), r.cfg.Matches)
	r.matches = make([]Match, 0, len(plan))

	for i, ms := range plan {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(matchSpacing):
			}
		}
		deferred := i%3 == 2
		teamA := Team{Color: ms.ColorA, PlayerIDs: ids(r.players, ms.TeamA)}
		teamB := Team{Color: ms.ColorB, PlayerIDs: ids(r.players, ms.TeamB)}
		if !deferred {
			teamA.Score, teamB.Score = &ms.GoalsA, &ms.GoalsB
		}

		var m Match
		body := map[string]any{"squad_id": r.squadID, "team_a": teamA, "team_b": teamB}
		if err := r.client.Do(ctx, http.MethodPost, "/matches", body, &m, http.StatusCreated); err != nil {
			return err
		}
		r.stats.MatchesCreated++

		if deferred {
			if err := r.score(ctx, &m, ms.GoalsA, ms.GoalsB); err != nil {
				return err
			}
		}
		if i%5 == 4 {
			a, b := r.gen.Goals()
			if err := r.score(ctx, &m, a, b); err != nil {
				return err
			}
			r.stats.ScoresEdited++
		}
		r.matches = append(r.matches, m)
	}
	r.log.Info(ctx, "matches played",
		logger.Int("matches", r.stats.MatchesCreated),
		logger.Int("edited", r.stats.ScoresEdited),
	)
	return nil
}

func (r *run) score(ctx context.Context, m *Match, a, b int) error {
	body := map[string]int{"team_a": a, "team_b": b}
	return r.client.Do(ctx, http.MethodPut, "/matches/"+m.ID+"/score", body, m, http.StatusOK)
}

func (r *run) displayFinalStats(ctx context.Context) {
	var matchesPerSecond float64
	if r.stats.Duration > 0 {
		matchesPerSecond = float64(r.stats.MatchesCreated) / r.stats.Duration.Seconds()
	}
	r.log.Info(ctx, "final statistics",
		logger.Int("playersCreated", r.stats.PlayersCreated),
		logger.Int("playersFailed", r.stats.PlayersFailed),
		logger.Int("matchesCreated", r.stats.MatchesCreated),
		logger.Int("scoresEdited", r.stats.ScoresEdited),
		logger.Int("playersVerified", r.stats.PlayersVerified),
		logger.Int("draftProposals", r.stats.DraftProposals),
		logger.Int("squadGoals", r.stats.SquadGoals),
		logger.String("duration", r.stats.Duration.String()),
		logger.Float64("matchesPerSecond", matchesPerSecond),
	)
}
