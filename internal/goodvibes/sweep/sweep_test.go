package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepExpired(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func (c *countingSweeper) Prune(context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestRun_ErrorsDoNotStopEitherSweep(t *testing.T) {
	kv := &countingSweeper{err: errors.New("locked")}
	sugg := &countingSweeper{}

	Run(context.Background(), kv, sugg)

	assert.Equal(t, int32(1), kv.calls.Load())
	assert.Equal(t, int32(1), sugg.calls.Load())
}

func TestStart_TicksUntilCancelled(t *testing.T) {
	kv := &countingSweeper{}
	sugg := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Start(ctx, kv, sugg, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return kv.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
	assert.GreaterOrEqual(t, sugg.calls.Load(), int32(2))
}
