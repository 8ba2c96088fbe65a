package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	bitlock "github.com/facebookincubator/go-bitlock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type stressConfig struct {
	Size       uint64
	Workers    int
	Iterations int
	Seed       int64
}

type stressResult struct {
	Rounds  uint64
	Pairs   uint64
	Elapsed time.Duration
}

// runStress has every worker repeatedly lock a random bit (and every
// eighth round a random pair of bits through LockAll), bump the counters
// guarded by those bits with plain non-atomic increments, and unlock.
// Counters only add up if the bit-locks exclude each other.
func runStress(ctx context.Context, cfg stressConfig) (stressResult, error) {
	if cfg.Size == 0 || cfg.Workers <= 0 || cfg.Iterations < 0 {
		return stressResult{}, fmt.Errorf("invalid stress configuration: %+v", cfg)
	}
	locks := bitlock.New(cfg.Size)
	counters := make([]uint64, cfg.Size)
	pairs := make([]uint64, cfg.Workers)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			r := rand.New(rand.NewSource(cfg.Seed + int64(w)))
			for n := 0; n < cfg.Iterations; n++ {
				if n%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if n%8 == 7 {
					a, b := uint64(r.Int63n(int64(cfg.Size))), uint64(r.Int63n(int64(cfg.Size)))
					held := locks.LockAll(a, b)
					for _, i := range held {
						counters[i]++
					}
					pairs[w]++
					locks.UnlockAll(held)
					continue
				}
				i := uint64(r.Int63n(int64(cfg.Size)))
				locks.Lock(i)
				counters[i]++
				locks.Unlock(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stressResult{}, err
	}

	res := stressResult{Elapsed: time.Since(start)}
	for _, c := range counters {
		res.Rounds += c
	}
	for _, p := range pairs {
		res.Pairs += p
	}
	if want := expectedIncrements(cfg); res.Rounds != want {
		return res, fmt.Errorf("lost updates: counted %d increments, expected %d", res.Rounds, want)
	}
	if held := locks.Count(); held != 0 {
		return res, fmt.Errorf("%d bit-locks still held after all workers finished", held)
	}
	return res, nil
}

// expectedIncrements replays every worker's random stream.  A pair that
// draws the same bit twice bumps a single counter.
func expectedIncrements(cfg stressConfig) uint64 {
	var total uint64
	for w := 0; w < cfg.Workers; w++ {
		r := rand.New(rand.NewSource(cfg.Seed + int64(w)))
		for n := 0; n < cfg.Iterations; n++ {
			if n%8 == 7 {
				a, b := r.Int63n(int64(cfg.Size)), r.Int63n(int64(cfg.Size))
				if a == b {
					total++
				} else {
					total += 2
				}
				continue
			}
			r.Int63n(int64(cfg.Size))
			total++
		}
	}
	return total
}

func stress(ctx context.Context, cfg stressConfig) error {
	logger.WithFields(logrus.Fields{
		"size":       cfg.Size,
		"workers":    cfg.Workers,
		"iterations": cfg.Iterations,
	}).Debug("starting stress run")
	res, err := runStress(ctx, cfg)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"increments": res.Rounds,
		"pairs":      res.Pairs,
		"elapsed":    res.Elapsed,
	}).Info("stress run passed")
	return nil
}
