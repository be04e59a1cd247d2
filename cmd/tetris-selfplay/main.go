package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plus3/tetrisai/agent"
	"github.com/plus3/tetrisai/config"
	"github.com/plus3/tetrisai/tetris"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON config file. Defaults to the xdg config location.")
	episodes := flag.Int("episodes", 0, "Number of episodes to play. Overrides the config.")
	duration := flag.Duration("duration", 0, "Stop after this long, even if episodes remain.")
	workers := flag.Int("workers", 0, "Number of concurrent sessions. Overrides the config.")
	seed := flag.Uint64("seed", 0, "Base seed for bags and random policies. Zero is random.")
	outFile := flag.String("out", "", "CSV dataset to append to. Use - to disable.")
	policyName := flag.String("policy", "", "Policy to play with: heuristic or random.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, *episodes, *workers, *seed, *outFile, *policyName)
	limit := timeLimit(cfg, *duration)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	var dataset *Dataset
	if cfg.Selfplay.Output != "-" {
		dataset, err = OpenDataset(cfg.Selfplay.Output, tetris.NumActions(cfg.Engine.Width))
		if err != nil {
			log.Fatalf("open csv: %v", err)
		}
		defer func() {
			if err := dataset.Close(); err != nil {
				log.Printf("close csv: %v", err)
			}
		}()
	}

	ctx := context.Background()
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	report := &Report{
		Episodes: cfg.Selfplay.Episodes,
		Workers:  cfg.Selfplay.Workers,
		Policy:   cfg.Selfplay.Policy,
		Width:    cfg.Engine.Width,
		Height:   cfg.Engine.Height,
		Duration: limit,
		Output:   cfg.Selfplay.Output,
	}

	log.Printf("CPU=%d, starting %d workers for %d episodes (%s policy)",
		runtime.NumCPU(), cfg.Selfplay.Workers, cfg.Selfplay.Episodes, cfg.Selfplay.Policy)

	startTime := time.Now()
	results, err := playAll(ctx, cfg, dataset)
	report.TotalTime = time.Since(startTime)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Fatalf("Self-play failed: %v", err)
	}
	report.Add(results)

	log.Println("Self-play finished.")

	fmt.Println("\n\n--- Self-Play Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.InitConfig()
	}
	return config.Load(path)
}

// timeLimit prefers the -duration flag, kept exact, over the whole seconds of
// the config file.
func timeLimit(cfg *config.Config, flagDuration time.Duration) time.Duration {
	if flagDuration > 0 {
		return flagDuration
	}
	return cfg.Selfplay.Duration()
}

func applyFlags(cfg *config.Config, episodes, workers int, seed uint64, out, policy string) {
	if episodes > 0 {
		cfg.Selfplay.Episodes = episodes
	}
	if workers > 0 {
		cfg.Selfplay.Workers = workers
	}
	if cfg.Selfplay.Workers == 0 {
		cfg.Selfplay.Workers = max(1, runtime.NumCPU()/2)
	}
	if seed != 0 {
		cfg.Selfplay.Seed = seed
	}
	if out != "" {
		cfg.Selfplay.Output = out
	}
	if policy != "" {
		cfg.Selfplay.Policy = policy
	}
}

// WorkerResult is what one worker reports back.
type WorkerResult struct {
	Episodes []agent.EpisodeResult
	Rewards  []float64
	Stats    *agent.DriverStats
}

// playAll fans the episodes out over the configured workers. Each episode
// runs on a fresh session so its outcome depends only on its id and seed.
func playAll(ctx context.Context, cfg *config.Config, dataset *Dataset) ([]WorkerResult, error) {
	jobs := make(chan int, cfg.Selfplay.Workers*2)
	results := make([]WorkerResult, cfg.Selfplay.Workers)
	cache := cfg.SessionConfig(0).Cache

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for id := range cfg.Selfplay.Episodes {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return ctx.Err()
			}
			if (id+1)%100 == 0 {
				log.Printf("Queued %d/%d episodes", id+1, cfg.Selfplay.Episodes)
			}
		}
		return nil
	})

	for w := range cfg.Selfplay.Workers {
		g.Go(func() error {
			out := &results[w]
			for id := range jobs {
				res, reward, stats, err := playEpisode(ctx, cfg, cache, dataset, id)
				if err != nil {
					return err
				}
				out.Episodes = append(out.Episodes, res)
				out.Rewards = append(out.Rewards, reward)
				out.Stats = mergeStats(out.Stats, stats)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

func episodeSeed(base uint64, id int) uint64 {
	if base == 0 {
		return 0
	}
	return base + uint64(id)
}

func playEpisode(ctx context.Context, cfg *config.Config, cache *tetris.EnumerationCache, dataset *Dataset, id int) (agent.EpisodeResult, float64, *agent.DriverStats, error) {
	seed := episodeSeed(cfg.Selfplay.Seed, id)
	sc := cfg.SessionConfig(seed)
	sc.Cache = cache
	session, err := tetris.NewSession(ctx, sc)
	if err != nil {
		return agent.EpisodeResult{}, 0, nil, fmt.Errorf("episode %d: %w", id, err)
	}
	defer session.Close()

	policySeed := seed
	if policySeed == 0 {
		policySeed = uint64(time.Now().UnixNano()) + uint64(id)
	}
	policy, err := agent.NewPolicy(cfg.Selfplay.Policy, cfg.Heuristic, policySeed)
	if err != nil {
		return agent.EpisodeResult{}, 0, nil, err
	}

	driver := agent.NewDriver(session, policy)
	shaper := agent.NewRewardShaper(cfg.Rewards)
	recorder := &agent.EpisodeRecorder{}
	driver.Register(shaper)
	driver.Register(recorder)
	var rows *DatasetObserver
	if dataset != nil {
		rows = dataset.Observer(id)
		driver.Register(rows)
	}

	if err := driver.Run(ctx, 1); err != nil {
		return agent.EpisodeResult{}, 0, nil, err
	}
	result, _ := recorder.Best()
	result.Episode = id
	if rows != nil {
		if err := rows.Commit(); err != nil {
			return agent.EpisodeResult{}, 0, nil, fmt.Errorf("episode %d: write csv: %w", id, err)
		}
	}
	return result, shaper.Episode, driver.GetStats(), nil
}

// mergeStats folds b into a, keeping min and max and recomputing averages.
func mergeStats(a, b *agent.DriverStats) *agent.DriverStats {
	if a == nil {
		return b
	}
	a.Turns += b.Turns
	a.Episodes += b.Episodes
	a.Policy = mergeStage(a.Policy, b.Policy)
	a.Apply = mergeStage(a.Apply, b.Apply)
	for i := range min(len(a.Observers), len(b.Observers)) {
		a.Observers[i] = mergeStage(a.Observers[i], b.Observers[i])
	}
	return a
}

func mergeStage(a, b agent.StageStats) agent.StageStats {
	if a.ExecutionCount == 0 {
		return b
	}
	if b.ExecutionCount == 0 {
		return a
	}
	a.MinDuration = min(a.MinDuration, b.MinDuration)
	a.MaxDuration = max(a.MaxDuration, b.MaxDuration)
	a.LastDuration = b.LastDuration
	a.ExecutionCount += b.ExecutionCount
	a.TotalDuration += b.TotalDuration
	a.AvgDuration = a.TotalDuration / time.Duration(a.ExecutionCount)
	return a
}
