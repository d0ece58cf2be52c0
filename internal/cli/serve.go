package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"awakening-quiz-engine/internal/catalog"
	"awakening-quiz-engine/internal/config"
	"awakening-quiz-engine/internal/engine"
	infraMemory "awakening-quiz-engine/internal/infra/memory"
	infraPostgres "awakening-quiz-engine/internal/infra/postgres"
	infraRedis "awakening-quiz-engine/internal/infra/redis"
	transport "awakening-quiz-engine/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the websocket host.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve quiz sessions over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader catalog.DatasetLoader = catalog.NewFileLoader(cfg.Dataset.Path)
	if pool != nil {
		loader = infraPostgres.NewDatasetLoader(pool)
	}

	provider := catalog.NewProvider(loader)
	cat, err := provider.Catalog(ctx)
	if err != nil {
		return err
	}
	for _, report := range cat.Report() {
		if report.CountMismatch() {
			log.Printf("book %s: declared %d questions, parsed %d", report.BookID, report.DeclaredCount, report.ActualCount)
		}
		for _, m := range report.Malformed {
			log.Printf("book %s: quarantined question %s/%s: %s", m.Key.BookID, m.Key.ChapterID, m.Key.ID, m.Reason)
		}
	}

	var store engine.ProgressStore = infraMemory.NewProgressStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = infraRedis.NewProgressStore(client)
	}

	eng := engine.New(cat, store, engine.Config{
		SessionLength:   cfg.Engine.SessionLength,
		AdvanceStreak:   cfg.Engine.AdvanceStreak,
		UnlockAccuracy:  cfg.Engine.UnlockAccuracy,
		UnlockMinScored: cfg.Engine.UnlockMinScored,
	})
	wsHandler := transport.NewWSHandler(eng)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/books", wsHandler.ServeBooks)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz engine host on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
