package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/hbroom/internal/auth"
	"github.com/jason-s-yu/hbroom/internal/cache"
	"github.com/jason-s-yu/hbroom/internal/commands"
	"github.com/jason-s-yu/hbroom/internal/config"
	"github.com/jason-s-yu/hbroom/internal/database"
	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/handlers"
	"github.com/jason-s-yu/hbroom/internal/rating"
	"github.com/jason-s-yu/hbroom/internal/recording"
	"github.com/jason-s-yu/hbroom/internal/room"
)

var flagMaxBackoff time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the room and serve the operator API",
	Long: `Open the room described by the environment and the room file, wait for
its link, apply the room file and keep running until interrupted or until
the host drops the room.

Unreachable bridges are retried with backoff. Refusals are not.`,
	RunE: runRoom,
}

func init() {
	runCmd.Flags().DurationVar(&flagMaxBackoff, "max-backoff", 30*time.Second, "Longest wait between connection attempts")
}

func runRoom(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roomID := uuid.New()
	rc := cfg.RoomConfig()
	log := cfg.NewLogger().WithFields(logrus.Fields{"room": roomID, "roomName": rc.RoomName})

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ratings, closeRatings, err := openRatings(cfg)
	if err != nil {
		return err
	}
	defer closeRatings()
	reg := events.NewRegistry()
	tracker := rating.NewTracker(ratings, log)
	tracker.Attach(reg)

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		pub := cache.NewPublisher(rdb, roomID, cfg.EventQueue, log)
		pub.Attach(reg)
		defer pub.Close()
	}

	r, err := initWithRetry(ctx, rc, room.Options{
		BridgeURL: cfg.BridgeURL,
		Env:       cfg.RoomEnv(),
		ID:        roomID,
		Events:    reg,
		Logger:    log,
	}, log)
	if err != nil {
		return err
	}
	defer r.Close()

	commands.New(r, cfg.Room.AdminPasswordHash, log).WithRatings(tracker).Attach(reg)

	var rec *recording.Recorder
	if store != nil {
		rec = recording.NewRecorder(r, store, rc.RoomName, log)
		if cfg.Room.AutoRecord {
			rec.Attach(reg)
		}
	}

	go func() {
		select {
		case <-r.Linked():
		case <-r.Done():
			return
		}
		if err := cfg.Room.Bootstrap(r); err != nil {
			log.WithError(err).Error("room file could not be applied")
			return
		}
		log.Debug("room file applied")
	}()

	var srv *http.Server
	if cfg.AdminAddr != "" {
		srv, err = startAPI(cfg, r, store, rec, ratings, log)
		if err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case <-r.Done():
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("api shutdown")
		}
	}
	if rec != nil && rec.Active() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := rec.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("final recording lost")
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("room closed by host: %w", err)
	}
	return errors.New("room closed by host")
}

// initWithRetry calls room.Init until it succeeds, fails for good or ctx ends.
func initWithRetry(ctx context.Context, rc room.RoomConfig, opts room.Options, log logrus.FieldLogger) (*room.Room, error) {
	backoff := time.Second
	for {
		r, err := room.Init(ctx, rc, opts)
		if err == nil {
			return r, nil
		}
		if !room.IsRetryable(err) {
			return nil, err
		}
		log.WithError(err).WithField("retryIn", backoff).Warn("bridge unreachable")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, flagMaxBackoff)
	}
}

// openStore prefers Postgres, then SQLite. Neither configured means no
// recordings are kept.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (recording.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		store, err := recording.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case cfg.SQLitePath != "":
		return recording.OpenSQLite(cfg.SQLitePath)
	}
	if cfg.Room.AutoRecord {
		log.Warn("autoRecord is set but no database is configured")
	}
	return nil, nil
}

// openRatings keeps ratings next to the SQLite recordings when there are
// any, in memory otherwise. The returned func releases the database.
func openRatings(cfg config.Config) (rating.Store, func(), error) {
	if cfg.SQLitePath == "" {
		return rating.NewMemoryStore(), func() {}, nil
	}
	db, err := database.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	store, err := rating.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

func startAPI(cfg config.Config, r *room.Room, store recording.Store, rec *recording.Recorder, ratings rating.Store, log logrus.FieldLogger) (*http.Server, error) {
	if cfg.AdminKey == "" {
		log.Warn("HB_ADMIN_KEY is empty, tokens will not survive a restart")
	}
	signer, err := auth.NewSigner(cfg.AdminKey, cfg.TokenExpire)
	if err != nil {
		return nil, err
	}
	api := &handlers.API{
		Room:           r,
		Signer:         signer,
		Store:          store,
		Recorder:       rec,
		Ratings:        ratings,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	srv := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("operator API on %s", cfg.AdminAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("operator API stopped")
		}
	}()
	return srv, nil
}
