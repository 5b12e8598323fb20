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

	"github.com/chepyr/go-forum/internal/auth"
	"github.com/chepyr/go-forum/internal/config"
	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/handlers"
	"github.com/chepyr/go-forum/internal/logging"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 5 * time.Second
	loginAttempts   = 5
	loginWindow     = 15 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Fatalf("%v", err)
	}
}

// app carries the configuration loaded before any subcommand runs.
type app struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "forum",
		Short:         "A discussion forum with boards, topics and markdown posts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			logging.SetLevel(cfg.LogLevel)
			a.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(a.serveCmd())
	cmd.AddCommand(a.migrateCmd())
	cmd.AddCommand(a.boardCmd())
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve the forum over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			dbConn, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer dbConn.Close()

			handler := initHandlers(a.cfg, dbConn)
			defer handler.RateLimiter.Stop()
			server := &http.Server{
				Addr:              ":" + a.cfg.ServerPort,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return startServer(server)
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateDatabase(); err != nil {
				return err
			}
			dbConn, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer dbConn.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}

// openDB connects with the configured driver and brings the schema up to date.
func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dbConn, err := db.Connect(a.cfg.DBDriver, a.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return dbConn, nil
}

func initHandlers(cfg *config.Config, dbConn *sqlx.DB) *handlers.Handler {
	return &handlers.Handler{
		UserRepo:       db.NewUserRepository(dbConn),
		BoardRepo:      db.NewBoardRepository(dbConn),
		TopicRepo:      db.NewTopicRepository(dbConn),
		PostRepo:       db.NewPostRepository(dbConn),
		Tokens:         auth.NewTokenManager(cfg.JWTSecret),
		RateLimiter:    handlers.NewRateLimiter(loginAttempts, loginWindow),
		WSHub:          handlers.NewWSHub(),
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
		CSRFKey:        cfg.CSRFSecret(),
	}
}

func startServer(server *http.Server) error {
	logging.Infof("starting forum server on %s", server.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}
	logging.Infof("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logging.Infof("server stopped")
	return nil
}
