// the two phases of a run: list everything, then fetch everything
// the listing must be complete before the first transfer, progress needs the total upfront
package core

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/dirfetch/src/console"
	"github.com/andrewyi/dirfetch/src/downloader"
	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/enum"
	"github.com/andrewyi/dirfetch/src/fetcher"
	"github.com/andrewyi/dirfetch/src/filestorage"
	"github.com/andrewyi/dirfetch/src/lister"
	"github.com/andrewyi/dirfetch/src/progress"
)

// Ledger keeps a durable record of a run.
type Ledger interface {
	RecordEntries([]entity.ListingEntry) error
	fetcher.ResultSink
}

// ListingObserver is told about the result of the listing phase.
type ListingObserver interface {
	SetListing(files int, bytes int64)
}

type Pipeline struct {
	Logger   *log.Logger
	Lister   lister.Lister
	Reporter *console.Reporter

	RootURL     string
	Location    string
	Concurrency uint32
	ChunkSize   uint32
	ShowBar     bool

	// optional
	Ledger    Ledger
	Observer  ListingObserver
	Listeners []progress.Listener
	Sinks     []fetcher.ResultSink
}

// Run lists rootURL and downloads every file found below it.
// Only a listing failure is returned, download failures are counted in the summary.
func (p *Pipeline) Run(ctx context.Context) (entity.Summary, *progress.Tracker, error) {
	if p.Concurrency == 0 {
		p.Concurrency = enum.DefaultConcurrency
	}

	p.Reporter.Scanning(p.RootURL)
	entries, err := p.Lister.List(ctx, p.RootURL)
	if err != nil {
		return entity.Summary{}, nil, err
	}

	total := entity.TotalSize(entries)
	p.Reporter.Found(len(entries), total)
	if p.Observer != nil {
		p.Observer.SetListing(len(entries), total)
	}
	if p.Ledger != nil {
		if err := p.Ledger.RecordEntries(entries); err != nil {
			// the ledger is a record, not a requirement for the transfer
			p.Logger.WithError(err).Error("fail to record listing")
		}
	}

	listeners := append([]progress.Listener(nil), p.Listeners...)
	var bar *console.Bar
	if p.ShowBar {
		bar = p.Reporter.Bar(total)
		listeners = append(listeners, bar)
	}
	tracker := progress.NewTracker(total, listeners...)
	if bar != nil {
		bar.Watch(tracker)
	}

	sinks := append(fetcher.MultiSink(nil), p.Sinks...)
	if p.Ledger != nil {
		sinks = append(sinks, p.Ledger)
	}
	var sink fetcher.ResultSink
	if len(sinks) > 0 {
		sink = sinks
	}
	client := fetcher.NewHTTPClient(p.Concurrency)
	d := downloader.NewSimpleDownloader(p.Logger, client, filestorage.NewSimpleFileStorage(p.Location), tracker, p.RootURL, p.ChunkSize)
	f := fetcher.NewSimpleFetcher(p.Logger, p.Concurrency, d, sink)

	p.Reporter.Downloading(p.Concurrency)
	results := f.FetchAll(ctx, entries)
	if bar != nil {
		bar.Finish()
	}

	summary := fetcher.Summarize(results)
	p.Reporter.Complete(summary)
	return summary, tracker, nil
}
