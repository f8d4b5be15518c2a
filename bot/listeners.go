package bot

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// listenerGroup runs the long-lived listeners. The first one to fail cancels
// the others.
type listenerGroup struct {
	done    chan error
	stopped chan struct{}
}

func startListeners(ctx context.Context, listeners ...func(ctx context.Context) error) *listenerGroup {
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for _, listen := range listeners {
		p.Go(listen)
	}
	g := &listenerGroup{done: make(chan error, 1), stopped: make(chan struct{})}
	go func() {
		g.done <- p.Wait()
		close(g.stopped)
	}()
	return g
}

// Done delivers the combined result once every listener has returned.
func (g *listenerGroup) Done() <-chan error {
	return g.done
}

// Wait blocks until every listener has returned. Unlike Done it can be
// called any number of times.
func (g *listenerGroup) Wait() {
	<-g.stopped
}
