package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"channel-relay/handlers"
	"channel-relay/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListeners_WaitReturnsAfterListenersStopScheduling(t *testing.T) {
	tasks := handlers.NewDispatcher("Test", 2, utils.NewNopLogger())
	var scheduled, returned atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())
	g := startListeners(ctx, func(ctx context.Context) error {
		defer returned.Store(1)
		for ctx.Err() == nil {
			tasks.Go(ctx, "Tick", func(context.Context) error {
				time.Sleep(time.Millisecond)
				return nil
			})
			scheduled.Add(1)
		}
		return nil
	})

	require.Eventually(t, func() bool { return scheduled.Load() > 5 }, time.Second, time.Millisecond)
	cancel()
	g.Wait()
	assert.Equal(t, int64(1), returned.Load())

	final := scheduled.Load()
	tasks.Wait()
	assert.Equal(t, final, scheduled.Load())
	g.Wait()
}

func TestListeners_FailureCancelsTheOthers(t *testing.T) {
	boom := errors.New("boom")
	g := startListeners(context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
		func(context.Context) error { return boom },
	)

	select {
	case err := <-g.Done():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("listeners did not stop")
	}
}
