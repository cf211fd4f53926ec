package routingpool

import (
	"context"
)

type RoutingPool interface {
	// Go schedules task at once, the task itself runs when a slot is free.
	Go(ctx context.Context, task func(context.Context))
	// Wait blocks until every scheduled task is done or dropped.
	Wait() error
}
