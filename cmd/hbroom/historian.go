package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jason-s-yu/hbroom/internal/cache"
	"github.com/jason-s-yu/hbroom/internal/database"
	"github.com/jason-s-yu/hbroom/internal/historian"
)

var historianCmd = &cobra.Command{
	Use:   "historian",
	Short: "Store queued room events in a database",
	Long: `Pop room events from the Redis queue that "hbroom run" publishes to and
write them to Postgres (DATABASE_URL) or SQLite (HB_SQLITE_PATH).

Several rooms may share one queue; events are keyed by room id.`,
	RunE: runHistorian,
}

func runHistorian(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.RedisAddr == "" {
		return errors.New("historian: REDIS_ADDR is empty")
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var sink historian.Sink
	switch {
	case cfg.DatabaseURL != "":
		pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		if sink, err = historian.NewPostgresSink(ctx, pool); err != nil {
			return err
		}
	case cfg.SQLitePath != "":
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if sink, err = historian.NewSQLiteSink(db); err != nil {
			return err
		}
	default:
		return errors.New("historian: set DATABASE_URL or HB_SQLITE_PATH")
	}

	return historian.New(rdb, cfg.EventQueue, sink, log).Run(ctx)
}
