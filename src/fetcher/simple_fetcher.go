// all entries are scheduled at once, transfers and connections are capped at concurrency
// one file failing never stops the others, every entry gets exactly one result
package fetcher

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/dirfetch/src/downloader"
	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/enum"
	"github.com/andrewyi/dirfetch/src/routingpool"
)

var ErrNotStarted = errors.New("download not started")

type SimpleFetcher struct {
	logger      *log.Logger
	concurrency uint32

	downloader downloader.Downloader
	sink       ResultSink
}

// sink may be nil.
func NewSimpleFetcher(logger *log.Logger, concurrency uint32, d downloader.Downloader, sink ResultSink) Fetcher {
	if concurrency == 0 {
		concurrency = enum.DefaultConcurrency
	}
	return &SimpleFetcher{
		logger:      logger,
		concurrency: concurrency,
		downloader:  d,
		sink:        sink,
	}
}

// NewHTTPClient returns a client without timeout whose transport keeps at most
// concurrency connections per host open.
func NewHTTPClient(concurrency uint32) *http.Client {
	if concurrency == 0 {
		concurrency = enum.DefaultConcurrency
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = int(concurrency)
	transport.MaxIdleConnsPerHost = int(concurrency)
	transport.MaxIdleConns = int(concurrency)

	return &http.Client{
		Transport: transport,
	}
}

func (s *SimpleFetcher) FetchAll(ctx context.Context, entries []entity.ListingEntry) []entity.DownloadResult {
	results := make([]entity.DownloadResult, len(entries))
	pool := routingpool.NewSimpleRoutingPool(s.concurrency)

	for i, e := range entries {
		// kept when the task is dropped before it starts
		results[i] = entity.DownloadResult{URL: e.URL, Err: ErrNotStarted}

		pool.Go(ctx, func(ctx context.Context) {
			r := s.downloader.Download(ctx, e)
			results[i] = r
			s.record(r)
		})
	}

	if err := pool.Wait(); err != nil {
		s.logger.WithError(err).Warn("download phase interrupted")
		for _, r := range results {
			if errors.Is(r.Err, ErrNotStarted) {
				s.record(r)
			}
		}
	}
	return results
}

func (s *SimpleFetcher) record(r entity.DownloadResult) {
	if s.sink == nil {
		return
	}
	if err := s.sink.RecordResult(r); err != nil {
		s.logger.WithError(err).WithField("url", r.URL).Error("fail to record download result")
	}
}

// Summarize counts successful and failed results and adds up the bytes written.
func Summarize(results []entity.DownloadResult) entity.Summary {
	var s entity.Summary
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.Bytes += r.Bytes
	}
	return s
}
