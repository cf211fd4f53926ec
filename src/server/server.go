package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/andrewyi/dirfetch/src/config"
	"github.com/andrewyi/dirfetch/src/console"
	"github.com/andrewyi/dirfetch/src/core"
	"github.com/andrewyi/dirfetch/src/dbstorage"
	"github.com/andrewyi/dirfetch/src/entity"
	"github.com/andrewyi/dirfetch/src/fetcher"
	"github.com/andrewyi/dirfetch/src/lister"
	"github.com/andrewyi/dirfetch/src/metrics"
	"github.com/andrewyi/dirfetch/src/progress"
	"github.com/andrewyi/dirfetch/src/util"
)

var ErrNoRootURL = errors.New("no root url configured, use --url or core.root_url")

func Flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "config file (yaml/json/toml), optional",
		},
		cli.StringFlag{
			Name:  "url,u",
			Usage: "root url of the directory listing",
		},
		cli.StringFlag{
			Name:  "output,o",
			Usage: "local directory to mirror into",
		},
		cli.UintFlag{
			Name:  "concurrency,n",
			Usage: "maximum number of concurrent connections",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn, error",
		},
	}
}

type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
	config *config.Config
	out    io.Writer

	runID     string
	collector *metrics.Collector
	dbStorage *dbstorage.SimpleDBStorage
	ledger    *dbstorage.RunLedger

	summary entity.Summary
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:    ctx,
		cancel: cancel,
		out:    os.Stdout,
	}
}

func (s *Server) initLog() {
	var logger = log.New()
	logger.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	logger.SetOutput(s.out)

	if s.config.Log.ReportCaller {
		logger.SetReportCaller(true)
	}

	if logLevel, err := log.ParseLevel(s.config.Log.Level); err != nil {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(logLevel)
	}
	s.logger = logger
}

// loadConfig resolves defaults, .env, config file, env and finally flags.
func (s *Server) loadConfig(ctx *cli.Context) error {
	// a missing .env is fine
	_ = godotenv.Load()

	var cfg = &config.Config{}
	if err := util.ReadConfig(ctx.String("config"), config.Defaults, cfg); err != nil {
		return fmt.Errorf("fail to load config, err: %w", err)
	}

	if ctx.IsSet("url") {
		cfg.Core.RootURL = ctx.String("url")
	}
	if ctx.IsSet("output") {
		cfg.Storage.Location = ctx.String("output")
	}
	if ctx.IsSet("concurrency") {
		cfg.Fetcher.Concurrency = uint32(ctx.Uint("concurrency"))
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = ctx.String("log-level")
	}

	if cfg.Core.RootURL == "" {
		return ErrNoRootURL
	}
	s.config = cfg
	return nil
}

func (s *Server) Start(ctx *cli.Context) error {
	if err := s.loadConfig(ctx); err != nil {
		return err
	}
	s.initLog()
	defer s.Stop()

	s.runID = uuid.NewString()
	s.logger.WithField("run_id", s.runID).WithField("url", s.config.Core.RootURL).Info("run started")

	s.collector = metrics.NewCollector()
	if s.config.Metrics.Address != "" {
		s.collector.Serve(s.ctx, s.logger, s.config.Metrics.Address)
	}

	var ledger core.Ledger
	if s.config.Database.URL != "" {
		dbStorage, err := dbstorage.NewSimpleDBStorage(s.config.Database.URL)
		if err != nil {
			return fmt.Errorf("fail to create dbstorage handler, err: %w", err)
		}
		s.dbStorage = dbStorage
		s.ledger = dbstorage.NewRunLedger(dbStorage, s.runID, s.logger)
		ledger = s.ledger
	}

	go s.wait()

	p := &core.Pipeline{
		Logger:      s.logger,
		Lister:      lister.NewSimpleLister(s.logger, s.config.Lister.Timeout, s.config.Lister.ProbeRate, s.collector),
		Reporter:    console.NewReporter(s.out, s.logger),
		RootURL:     s.config.Core.RootURL,
		Location:    s.config.Storage.Location,
		Concurrency: s.config.Fetcher.Concurrency,
		ChunkSize:   s.config.Fetcher.ChunkSize,
		ShowBar:     s.config.Progress.Enabled,
		Ledger:      ledger,
		Observer:    s.collector,
		Listeners:   []progress.Listener{s.collector},
		Sinks:       []fetcher.ResultSink{s.collector},
	}

	summary, _, err := p.Run(s.ctx)
	if err != nil {
		return fmt.Errorf("fail to list %s, err: %w", s.config.Core.RootURL, err)
	}
	s.summary = summary

	s.logger.WithField("run_id", s.runID).
		WithField("succeeded", summary.Succeeded).
		WithField("failed", summary.Failed).
		WithField("bytes", summary.Bytes).
		Info("run finished")

	if s.ledger != nil {
		s.logLedger()
	}
	return nil
}

// the ledger view of the run, pending rows are files the run never got to
func (s *Server) logLedger() {
	counts, err := s.ledger.Counts()
	if err != nil {
		s.logger.WithError(err).WithField("run_id", s.ledger.RunID()).Error("fail to read ledger counts")
		return
	}
	s.logger.WithField("run_id", s.ledger.RunID()).
		WithField("succeeded", counts.Succeeded).
		WithField("failed", counts.Failed).
		WithField("pending", counts.Pending).
		Info("ledger recorded")
}

// wait cancels the run on SIGINT/SIGTERM, in-flight transfers end as failures
func (s *Server) wait() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case <-c:
		s.logger.Warn("interrupt signal, run gonna stop")
		s.cancel()
	case <-s.ctx.Done():
	}
}

func (s *Server) Summary() entity.Summary {
	return s.summary
}

func (s *Server) Stop() {
	s.cancel()
	if s.dbStorage != nil {
		s.dbStorage.Close()
	}
}
