// exopredict-bench measures end-to-end prediction latency against the
// configured inference engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/exopredict/exopredict/internal/config"
	"github.com/exopredict/exopredict/internal/engine"
	"github.com/exopredict/exopredict/internal/features"
	"github.com/exopredict/exopredict/internal/pipeline"
)

const sampleObservation = `{"orb_period":3.52,"planet_radius":1.2,"planet_mass":0.7,"pl_eqt":1400,"st_teff":5800,"st_rad":1.1,"st_mass":1.05,"sy_dist":150,"transit_depth":0.012,"transit_duration":2.9}`

func main() {
	cfgPath := flag.String("config", "exopredict.yaml", "path to config yaml")
	n := flag.Int("n", 50, "number of predictions")
	parallel := flag.Int("parallel", 4, "predictions in flight")
	input := flag.String("input", "", "observation JSON file (default: built-in sample)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	raw, err := loadObservation(*input)
	if err != nil {
		log.Fatalf("load observation: %v", err)
	}

	inv := engine.New(engine.Config{
		Command:        cfg.Engine.Command,
		Args:           cfg.Engine.Args,
		Dir:            cfg.Engine.Dir,
		Env:            cfg.Engine.Env,
		Timeout:        cfg.Engine.Timeout,
		MaxOutputBytes: cfg.Engine.MaxOutputBytes,
	}, zap.NewNop())
	if err := inv.Check(); err != nil {
		log.Fatalf("engine: %v", err)
	}
	deriver, err := features.NewDeriver(features.EpsilonPlacement(cfg.Features.EpsilonPlacement))
	if err != nil {
		log.Fatalf("features: %v", err)
	}
	p := pipeline.New(inv, pipeline.WithDeriver(deriver))

	// Warmup
	if _, err := p.Predict(context.Background(), raw); err != nil {
		log.Fatalf("warmup predict failed: %v", err)
	}

	if *n <= 0 {
		*n = 1
	}
	durations, failures := run(p, raw, *n, *parallel)
	if len(durations) == 0 {
		log.Fatalf("all %d predictions failed", failures)
	}
	fmt.Println(summarize(durations, failures, *parallel))
}

func loadObservation(path string) (map[string]any, error) {
	data := []byte(sampleObservation)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func run(p *pipeline.Pipeline, raw map[string]any, n, parallel int) ([]time.Duration, int) {
	var (
		mu        sync.Mutex
		durations = make([]time.Duration, 0, n)
		failures  int
	)
	g := new(errgroup.Group)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			start := time.Now()
			_, err := p.Predict(context.Background(), raw)
			d := time.Since(start)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return nil
			}
			durations = append(durations, d)
			return nil
		})
	}
	_ = g.Wait()
	return durations, failures
}

func summarize(durations []time.Duration, failures, parallel int) string {
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	return fmt.Sprintf("bench: n=%d failures=%d parallel=%d avg_ms=%.2f p50_ms=%.2f p95_ms=%.2f",
		len(durations), failures, parallel, avg, p50, p95)
}
