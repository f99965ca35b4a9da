// Package sweep runs periodic housekeeping while the scanner is running.
package sweep

import (
	"context"
	"time"

	"github.com/colonyops/goodvibes/internal/core/logging"
)

// KVSweeper deletes expired KV entries.
type KVSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Pruner deletes resolved suggestions past retention.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Start sweeps on every interval until ctx is cancelled. It blocks.
func Start(ctx context.Context, kv KVSweeper, suggestions Pruner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Run(ctx, kv, suggestions)
		}
	}
}

// Run performs a single sweep.
func Run(ctx context.Context, kv KVSweeper, suggestions Pruner) {
	log := logging.Component("sweep")

	if n, err := kv.SweepExpired(ctx); err != nil {
		log.Debug().Err(err).Msg("kv sweep failed")
	} else if n > 0 {
		log.Debug().Int("deleted", n).Msg("swept expired kv entries")
	}

	if n, err := suggestions.Prune(ctx); err != nil {
		log.Debug().Err(err).Msg("suggestion prune failed")
	} else if n > 0 {
		log.Info().Int("deleted", n).Msg("pruned resolved suggestions")
	}
}
