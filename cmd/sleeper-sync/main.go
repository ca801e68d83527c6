package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"

	"github.com/sam-maryland/sleeper-sync/internal/config"
	"github.com/sam-maryland/sleeper-sync/internal/mcp"
	"github.com/sam-maryland/sleeper-sync/internal/metrics"
	"github.com/sam-maryland/sleeper-sync/internal/retry"
	"github.com/sam-maryland/sleeper-sync/internal/scheduler"
	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
	"github.com/sam-maryland/sleeper-sync/internal/store"
	"github.com/sam-maryland/sleeper-sync/internal/syncer"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.New()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	app := &cli.App{
		Name:  "sleeper-sync",
		Usage: "reconcile Sleeper league history into Postgres",
		Commands: []*cli.Command{
			serveCommand(cfg, logger),
			syncCommand(cfg, logger),
			syncPlayoffsCommand(cfg, logger),
			refreshPlayersCommand(cfg, logger),
			migrateCommand(cfg, logger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("Command failed")
	}
}

var authUserFlag = &cli.StringFlag{
	Name:     "auth-user-id",
	Usage:    "authenticated account the leagues belong to",
	Required: true,
}

// app holds what every sync command needs
type app struct {
	db      *bun.DB
	service *syncer.Service
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	db, err := store.Connect(ctx, cfg.DatabaseURL, retry.DefaultConfig(), logger)
	if err != nil {
		return nil, err
	}

	client := sleeper.NewHTTPClient(logger,
		sleeper.WithBaseURL(cfg.Sleeper.BaseURL),
		sleeper.WithTimeout(cfg.Sleeper.Timeout),
		sleeper.WithSport(cfg.Sleeper.Sport),
	)

	opts := syncer.DefaultOptions()
	opts.LeagueConcurrency = cfg.Sync.LeagueConcurrency
	opts.WeekConcurrency = cfg.Sync.WeekConcurrency
	opts.PlayerChunkSize = cfg.Sync.PlayerChunkSize
	opts.MatchupPlayerChunkSize = cfg.Sync.MatchupPlayerChunkSize
	opts.PlayersStaleAfter = cfg.Sync.PlayersStaleAfter
	opts.Retry.MaxRetries = cfg.Sync.WriteRetries

	m := metrics.New(prometheus.NewRegistry())
	service := syncer.NewService(client, store.NewPostgres(db, logger), logger, opts, syncer.WithMetrics(m))

	return &app{db: db, service: service, metrics: m, logger: logger}, nil
}

func serveCommand(cfg *config.Config, logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the sync tools over MCP stdio with the player refresh job",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			sched, err := scheduler.NewScheduler(a.service, cfg.PlayerRefreshInterval, logger)
			if err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer func() {
				if err := sched.Stop(); err != nil {
					logger.WithError(err).Warn("Failed to stop scheduler")
				}
			}()

			if cfg.MetricsAddress != "" {
				srv := &http.Server{
					Addr:              cfg.MetricsAddress,
					Handler:           a.metrics.Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					logger.WithField("address", cfg.MetricsAddress).Info("Serving metrics")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.WithError(err).Error("Metrics server failed")
					}
				}()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			mcpServer := mcp.NewSyncMCPServer(a.service, logger)
			if mcpServer == nil {
				return errors.New("failed to create MCP server")
			}

			logger.Info("Starting Sleeper sync MCP server...")
			return server.ServeStdio(mcpServer)
		},
	}
}

func syncCommand(cfg *config.Config, logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "sync every league for a Sleeper user",
		Flags: []cli.Flag{
			authUserFlag,
			&cli.StringFlag{Name: "username", Usage: "Sleeper username", Required: true},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return printResult(a.service.InitializeUserData(c.Context, c.String("auth-user-id"), c.String("username")))
		},
	}
}

func syncPlayoffsCommand(cfg *config.Config, logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "sync-playoffs",
		Usage: "re-resolve playoff brackets for every league a user can access",
		Flags: []cli.Flag{authUserFlag},
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return printResult(a.service.SyncPlayoffs(c.Context, c.String("auth-user-id")))
		},
	}
}

func refreshPlayersCommand(cfg *config.Config, logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "refresh-players",
		Usage: "reload the global player table if it is stale",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.service.RefreshPlayers(c.Context)
		},
	}
}

type resultOutput struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Code     syncer.Code     `json:"code,omitempty"`
	Phase    syncer.Phase    `json:"phase"`
	Partial  bool            `json:"partial"`
	Failures []failureOutput `json:"failures,omitempty"`
	Skipped  []syncer.Unit   `json:"skipped,omitempty"`
}

type failureOutput struct {
	syncer.Unit
	Error string `json:"error"`
}

func printResult(res syncer.Result) error {
	out := resultOutput{
		Success: res.Success,
		Error:   res.Error,
		Code:    res.Code,
		Phase:   res.Phase,
		Partial: res.Partial,
	}
	for _, f := range res.Report.Failures() {
		out.Failures = append(out.Failures, failureOutput{Unit: f.Unit, Error: f.Err.Error()})
	}
	for _, s := range res.Report.Skipped() {
		out.Skipped = append(out.Skipped, s.Unit)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("sync failed: %s", res.Error)
	}
	return nil
}
