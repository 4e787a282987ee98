package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/topiclab/internal/api"
	"github.com/nerrad567/topiclab/internal/archive"
	"github.com/nerrad567/topiclab/internal/audit"
	"github.com/nerrad567/topiclab/internal/auth"
	"github.com/nerrad567/topiclab/internal/infrastructure/config"
	"github.com/nerrad567/topiclab/internal/infrastructure/database"
	"github.com/nerrad567/topiclab/internal/infrastructure/influxdb"
	"github.com/nerrad567/topiclab/internal/infrastructure/logging"
	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/profile"
	"github.com/nerrad567/topiclab/internal/session"
	"github.com/nerrad567/topiclab/migrations"
)

// connectWait bounds how long auto-connect and watch wait for the broker
// handshake before giving up on saved subscriptions.
const connectWait = 10 * time.Second

type serveOptions struct {
	autoConnect bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and MQTT session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), root.configPath, *opts)
		},
	}
	cmd.Flags().BoolVar(&opts.autoConnect, "auto-connect", false,
		"connect to the last used connection if it has auto_connect set")
	return cmd
}

// run is the serve logic, separated from the command for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configFlag: Value of --config (may be empty)
//   - opts: serve flags
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configFlag string, opts serveOptions) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Topic Lab",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, path, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	if path == "" {
		log.Info("no configuration file, using defaults")
	} else {
		log.Info("configuration loaded", "path", path)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// The sqlite database holds profiles (sqlite backend) and the audit log
	var db *database.DB
	if cfg.Storage.Backend == config.StorageSQLite || cfg.Audit.Enabled {
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database ready", "path", cfg.Storage.SQLite.Path)
	}

	var store profile.Store
	if cfg.Storage.Backend == config.StorageSQLite {
		store = profile.NewSQLiteStore(db)
	} else {
		jsonStore, openErr := profile.Open(ctx, cfg.Storage)
		if openErr != nil {
			return fmt.Errorf("opening profile store: %w", openErr)
		}
		defer jsonStore.Close()
		store = jsonStore
	}
	log.Info("profile store opened", "backend", cfg.Storage.Backend)

	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		repo := audit.NewSQLiteRepository(db.DB)
		if retention := cfg.GetAuditRetention(); retention > 0 {
			n, pruneErr := repo.Prune(ctx, time.Now().Add(-retention))
			if pruneErr != nil {
				log.Warn("pruning audit log", "error", pruneErr)
			} else if n > 0 {
				log.Info("pruned audit log", "removed", n, "retention_days", cfg.Audit.RetentionDays)
			}
		}
		auditRepo = repo
		log.Info("audit log enabled")
	}

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	notifiers := session.Notifiers{hub}

	// Message archive (optional)
	var archiver *archive.Archiver
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		archiver = archive.New(influxClient)
		notifiers = append(notifiers, archiver)
		log.Info("message archive enabled",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("message archive disabled")
	}

	sess := session.New(session.Config{
		Notifier:             notifiers,
		Logger:               log.With("component", "session"),
		SettleDelay:          cfg.GetSettleDelay(),
		Backoff:              cfg.GetBackoff(),
		MaxConsecutiveErrors: cfg.Session.MaxConsecutiveErrors,
		BufferCapacity:       cfg.Session.BufferCapacity,
		OnStart: func(c session.ConnectionConfig) {
			if archiver != nil {
				archiver.SetConnection(c.Name)
			}
		},
	})
	defer func() {
		log.Info("disconnecting MQTT session")
		sess.Disconnect()
	}()

	users, err := auth.NewDirectory(cfg.Security.Users)
	if err != nil {
		return fmt.Errorf("loading API users: %w", err)
	}

	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Session:  sess,
		Store:    store,
		Users:    users,
		Hub:      hub,
		Audit:    auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	if !cfg.AuthEnabled() {
		log.Warn("API authentication disabled (security.jwt.secret is empty)")
	}

	if opts.autoConnect {
		autoConnect(ctx, log, store, sess)
	}

	log.Info("initialisation complete, waiting for shutdown signal", "address", srv.Addr())

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. MQTT session
	// 3. InfluxDB (if enabled)
	// 4. Profile store and database

	log.Info("Topic Lab stopped")
	return nil
}

// openDatabase opens the sqlite database and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Storage.SQLite.Path,
		WALMode:     cfg.Storage.SQLite.WALMode,
		BusyTimeout: cfg.Storage.SQLite.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// autoConnect opens the last used connection when its profile allows it,
// then subscribes to the profile's saved filters. Failures are logged; the
// server keeps running either way.
func autoConnect(ctx context.Context, log *logging.Logger, store profile.Store, sess *session.Session) {
	data, err := store.Load(ctx)
	if err != nil {
		log.Error("auto-connect: loading profiles", "error", err)
		return
	}

	conn, ok := data.LastConnection()
	if !ok {
		log.Info("auto-connect: no last used connection")
		return
	}
	if !conn.AutoConnect {
		log.Info("auto-connect: disabled for connection", "id", conn.ID)
		return
	}

	if err := sess.Connect(ctx, conn.SessionConfig()); err != nil {
		log.Error("auto-connect failed", "id", conn.ID, "error", err)
		return
	}

	if !waitForStatus(ctx, sess, session.StatusConnected, connectWait) {
		log.Warn("auto-connect: broker not connected, skipping saved subscriptions",
			"id", conn.ID,
			"status", sess.Status(),
		)
		return
	}

	subscribeAll(ctx, log, sess, conn.ResolvedSubscriptions())
	log.Info("auto-connect complete", "id", conn.ID, "subscriptions", len(sess.Subscriptions()))
}

// subscribeAll subscribes to each filter at QoS 0, logging failures.
func subscribeAll(ctx context.Context, log *logging.Logger, sess *session.Session, topics []string) {
	for _, topic := range topics {
		if err := sess.Subscribe(ctx, topic, mqtt.AtMostOnce); err != nil {
			log.Warn("subscribe failed", "topic", topic, "error", err)
		}
	}
}

// waitForStatus polls the session until it reports want, the timeout
// passes or ctx is done.
func waitForStatus(ctx context.Context, sess *session.Session, want session.Status, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if sess.Status() == want {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
