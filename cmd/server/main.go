package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/simple_mysql_go/internal/api"
	"github.com/simple_mysql_go/internal/config"
	"github.com/simple_mysql_go/internal/logging"
	"github.com/simple_mysql_go/internal/metrics"
	"github.com/simple_mysql_go/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	configPath string
	verbosity  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "simple-mysql",
		Short:        "MySQL helper with an HTTP console",
		Long:         `simple-mysql opens one MySQL session and exposes query, fetch, insert, update, delete and count operations over HTTP or from the command line.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set CONFIG_PATH env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP console",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "query <sql> [args...]",
			Short: "Run a statement and print the rows as JSON",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runQuery,
		},
		&cobra.Command{
			Use:   "count <table> [condition]",
			Short: "Count the rows of a table",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  runCount,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("simple-mysql %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, applies logging and opens the session.
func setup(ctx context.Context) (*config.Config, *store.Helper, error) {
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level := logging.LevelFromVerbosity(verbosity); level != "" {
		cfg.Log.Level = level
	}
	logging.Apply(cfg.Log)

	helper := store.New(
		store.WithDialect(dialectFor(cfg.Database.Driver)),
		store.WithTablePrefix(cfg.Database.TablePrefix),
		store.WithLineBreaks(cfg.Database.LineBreaksEnabled()),
	)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = helper.Connect(connectCtx, store.Credentials{
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
	})
	var charsetErr *store.CharsetError
	switch {
	case errors.As(err, &charsetErr):
		log.Warn().Err(err).Msg("Continuing without charset negotiation")
	case err != nil:
		return nil, nil, err
	}

	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.Name).
		Str("host", cfg.Database.Host).
		Msg("Connected to database")
	return cfg, helper, nil
}

func dialectFor(driver string) store.Dialect {
	if driver == config.DriverSQLite {
		return store.SQLite{}
	}
	return store.MySQL{}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, helper, err := setup(ctx)
	if err != nil {
		return err
	}
	defer helper.Close()

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(helper, cfg.HTTP.RequestTimeout).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down HTTP server")
	}
	log.Info().Msg("Server stopped")
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	_, helper, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer helper.Close()

	queryArgs := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		queryArgs = append(queryArgs, a)
	}

	set, err := helper.Table(cmd.Context(), args[0], store.WithArgs(queryArgs...))
	if errors.Is(err, store.ErrNoRows) {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return nil
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(set.Rows)
}

func runCount(cmd *cobra.Command, args []string) error {
	_, helper, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer helper.Close()

	condition := ""
	if len(args) == 2 {
		condition = args[1]
	}
	n, err := helper.CountRecords(cmd.Context(), args[0], condition)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
