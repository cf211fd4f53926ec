package lister

import (
	"context"

	"github.com/andrewyi/dirfetch/src/entity"
)

type Lister interface {
	List(ctx context.Context, rootURL string) ([]entity.ListingEntry, error)
}

// ProbeObserver is told about the outcome of every size probe.
type ProbeObserver interface {
	ProbeFinished(url string, ok bool)
}
