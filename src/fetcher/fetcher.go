package fetcher

import (
	"context"
	"errors"

	"github.com/andrewyi/dirfetch/src/entity"
)

type Fetcher interface {
	FetchAll(context.Context, []entity.ListingEntry) []entity.DownloadResult
}

// ResultSink receives every download result as soon as it is known.
type ResultSink interface {
	RecordResult(entity.DownloadResult) error
}

// MultiSink hands every result to each of its sinks.
type MultiSink []ResultSink

func (m MultiSink) RecordResult(r entity.DownloadResult) error {
	var errs []error
	for _, sink := range m {
		if err := sink.RecordResult(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
