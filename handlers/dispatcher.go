package handlers

import (
	"context"
	"fmt"

	"channel-relay/utils"

	"github.com/rs/xid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Dispatcher runs one task per incoming event on a bounded pool. A failing or
// panicking task is logged and never reaches the listener that spawned it.
type Dispatcher struct {
	name string
	pool *pool.Pool
	log  *utils.Logger
}

// NewDispatcher creates a pool allowing at most workers concurrent tasks.
func NewDispatcher(name string, workers int, log *utils.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		name: name,
		pool: pool.New().WithMaxGoroutines(workers),
		log:  log,
	}
}

// Go schedules fn. It blocks while the pool is full.
func (d *Dispatcher) Go(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	taskID := xid.New().String()
	log := d.log.With(zap.String("task", taskID))
	d.pool.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error(d.name, operation, fmt.Sprintf("task panicked: %v", r))
			}
		}()
		if err := fn(ctx); err != nil {
			log.Warn(d.name, operation, err.Error())
		}
	})
}

// Wait blocks until every scheduled task has finished.
func (d *Dispatcher) Wait() {
	d.pool.Wait()
}
