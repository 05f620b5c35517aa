// Package serve implements the command that runs the review HTTP server.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/beelab/dancereview/internal/api"
	"github.com/beelab/dancereview/internal/buildinfo"
	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/journal"
	"github.com/beelab/dancereview/internal/logger"
	"github.com/beelab/dancereview/internal/observability"
	"github.com/beelab/dancereview/internal/review"
)

// Command creates the serve command.
func Command(info *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the review server",
		Long:  "Start the HTTP review server. The configured directory, if any, is loaded before the server accepts requests.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, conf.Setting(), afero.NewOsFs(), info)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("listen", "", "Listen address and port of the review server")
	cmd.Flags().Bool("journal", false, "Record committed corrections in the journal database")

	if err := viper.BindPFlag("webserver.listen", cmd.Flags().Lookup("listen")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("journal.enabled", cmd.Flags().Lookup("journal")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// Run wires the session, journal, metrics and HTTP server together and
// serves until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings, fs afero.Fs, info *buildinfo.Context) error {
	log := logger.Global().Module("main")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	category, err := settings.Category()
	if err != nil {
		return err
	}

	sessionOpts := review.Options{
		Fs:       fs,
		Layout:   settings.Dataset.Layout(),
		Grid:     review.Grid{Rows: settings.Review.Rows, Columns: settings.Review.Columns},
		Category: category,
		Recorder: metrics.Review,
	}
	serverOpts := []api.ServerOption{
		api.WithFs(fs),
		api.WithMetrics(metrics),
		api.WithBuildInfo(info),
	}

	if settings.Journal.Enabled {
		store, err := journal.Open(&settings.Journal, settings.Debug)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("Failed to close journal", logger.Error(err))
			}
		}()
		sessionOpts.Observer = store
		serverOpts = append(serverOpts, api.WithHistory(store))
	}

	session, err := review.NewSession(sessionOpts)
	if err != nil {
		return err
	}

	if dir := settings.Review.Directory; dir != "" {
		if err := session.Load(ctx, dir); err != nil {
			return err
		}
		log.Info("Review directory loaded",
			logger.String("directory", dir),
			logger.Int("records", len(session.Dataset().Records)))
	}

	srv, err := api.New(settings, session, serverOpts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		// gctx is already done; the shutdown gets a fresh deadline.
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Review server stopped")
	return nil
}
