// sectorjam runs the game loop headless.
//
// Usage:
//
//	sectorjam [-auto] [-ticks n]
//	sectorjam -top n
//
// The config path comes from SECTORJAM_CONFIG, default config/game.toml.
// Remote control clients can connect when control.bind is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sectorjam/server/internal/audio"
	"github.com/sectorjam/server/internal/config"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/game"
	"github.com/sectorjam/server/internal/handler"
	"github.com/sectorjam/server/internal/net"
	"github.com/sectorjam/server/internal/net/packet"
	"github.com/sectorjam/server/internal/persist"
	"github.com/sectorjam/server/internal/render"
	"github.com/sectorjam/server/internal/scripting"
	"github.com/sectorjam/server/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	auto := flag.Bool("auto", false, "play unattended")
	ticks := flag.Int("ticks", 0, "stop after n ticks (0 = config)")
	top := flag.Int("top", 0, "print the n best scores and exit")
	flag.Parse()

	// 1. Load config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *auto {
		cfg.Game.AutoPlay = true
	}
	if *ticks > 0 {
		cfg.Game.MaxTicks = *ticks
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Score database, optional
	var scores game.ScoreSink
	var repo *persist.ScoreRepo
	if cfg.Database.DSN != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		repo = persist.NewScoreRepo(db)
		scores = repo
	} else {
		log.Info("no database configured, scores are not stored")
	}

	if *top > 0 {
		if repo == nil {
			return errors.New("-top needs database.dsn")
		}
		return printTop(ctx, repo, *top)
	}

	// 4. Rules
	engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()

	// 5. Game
	app, err := game.NewApp(cfg, game.Deps{
		Log:      log,
		Renderer: render.NewHeadless(),
		Audio:    audio.NewLogManager(log.Named("audio")),
		Rules:    engine,
		Scores:   scores,
		Loader:   data.NewLoader(cfg.Data.Dir, log.Named("data")),
	})
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}
	defer app.Shutdown()

	// 6. Remote control, optional
	if cfg.Control.Bind != "" {
		srv, err := net.NewServer(cfg.Control.Bind, net.SessionOptions{
			InQueueSize:   cfg.Control.InQueueSize,
			OutQueueSize:  cfg.Control.OutQueueSize,
			PacketsPerSec: cfg.Control.MaxPacketsSec,
			IdleTimeout:   cfg.Control.IdleTimeout,
		}, log.Named("control"))
		if err != nil {
			return fmt.Errorf("control listen: %w", err)
		}
		go srv.AcceptLoop()
		defer srv.Shutdown()

		store := net.NewSessionStore()
		reg := packet.NewRegistry(log.Named("packet"))
		deps := &handler.Deps{Config: cfg, Log: log.Named("control"), Game: app, Sessions: store}
		handler.RegisterAll(reg, deps)
		handler.NewBroadcaster(deps).Attach(app.Bus())

		app.Register(system.NewInputSystem(srv, reg, store, cfg.Control.MaxPerTick, app, log.Named("control")))
		app.Register(system.NewOutputSystem(store))
		log.Info("control server listening", zap.String("addr", srv.Addr().String()))
	}

	log.Info("game loop starting",
		zap.String("config", cfgPath),
		zap.Duration("tick", cfg.Game.TickRate),
		zap.Strings("sectors", cfg.SectorNames()),
		zap.Bool("auto_play", cfg.Game.AutoPlay))

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("game loop: %w", err)
	}
	log.Info("game loop stopped", zap.String("state", app.CurrentState()), zap.Int("score", app.Environment().Score()))
	return nil
}

func printTop(ctx context.Context, repo *persist.ScoreRepo, n int) error {
	rows, err := repo.Top(ctx, n)
	if err != nil {
		return err
	}
	for i, r := range rows {
		fmt.Printf("%2d. %7d  %-9s sectors=%d  %s  %v\n",
			i+1, r.Score, r.Outcome, r.Sectors, r.CreatedAt.Format(time.DateTime), r.Players)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
