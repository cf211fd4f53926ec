// every task gets its own goroutine right away, the pool only bounds how many of them run
// i.e. unbounded scheduling, bounded work: goroutines waiting for a slot are cheap, open connections are not
// NOTE: a task whose ctx is done before it gets a slot is dropped, Wait reports the ctx error
package routingpool

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type SimpleRoutingPool struct {
	group errgroup.Group
	sem   *semaphore.Weighted
}

func NewSimpleRoutingPool(size uint32) RoutingPool {
	if size == 0 {
		size = 1
	}
	return &SimpleRoutingPool{
		sem: semaphore.NewWeighted(int64(size)),
	}
}

func (s *SimpleRoutingPool) Go(ctx context.Context, task func(context.Context)) {
	s.group.Go(func() error {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer s.sem.Release(1)
		task(ctx)
		return nil
	})
}

func (s *SimpleRoutingPool) Wait() error {
	return s.group.Wait()
}
