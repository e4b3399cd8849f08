package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/app"
	"github.com/kapu/lyricsense-go/internal/config"
	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/service/lyrics"
	"github.com/kapu/lyricsense-go/internal/service/romanize"
	"github.com/kapu/lyricsense-go/internal/util"
)

type rootFlags struct {
	envFile  string
	logLevel string
	port     int
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "lyricsense",
		Short: "Lyric discovery and enrichment backend",
		Long: `lyricsense finds songs on Spotify, scrapes lyrics from Genius and
enriches them with translation, romanization, word explanations,
cultural analysis and speech synthesis.

Examples:
  lyricsense serve --port 8000
  lyricsense romanize 사랑해
  lyricsense lyrics --title "Love wins all" --artist IU`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerRootFlags(rootCmd.PersistentFlags(), flags)

	rootCmd.AddCommand(
		newServeCommand(flags),
		newRomanizeCommand(),
		newLyricsCommand(flags),
	)
	return rootCmd
}

// registerRootFlags declares the shared flags and binds them to the environment
// keys config.Load reads, so a flag set on the command line wins over the env.
func registerRootFlags(fs *pflag.FlagSet, flags *rootFlags) {
	fs.StringVar(&flags.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	fs.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.IntVar(&flags.port, "port", 0, "HTTP listen port")

	_ = viper.BindPFlag("LOG_LEVEL", fs.Lookup("log-level"))
	_ = viper.BindPFlag("PORT", fs.Lookup("port"))
}

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(flags)
		},
	}
}

func runServe(flags *rootFlags) error {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("LyricSense starting...",
		zap.String("version", version),
		zap.String("log_level", cfg.Logging.Level),
		zap.Int("port", cfg.Server.Port),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}

	srv, err := container.NewServer()
	if err != nil {
		logger.Error("Failed to initialize server", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
			return err
		}
		return nil
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.Timeouts.ShutdownGrace)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

func newRomanizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "romanize [text...]",
		Short: "Romanize Hangul text offline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), romanize.Romanize(strings.Join(args, " ")))
			return nil
		},
	}
}

func newLyricsCommand(flags *rootFlags) *cobra.Command {
	var title, artist string

	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Fetch lyrics for a song from Genius",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.envFile != "" {
				if err := godotenv.Load(flags.envFile); err != nil {
					return fmt.Errorf("load env file %s: %w", flags.envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}
			viper.AutomaticEnv()

			token := viper.GetString("GENIUS_API_TOKEN")
			if token == "" {
				return errors.New("GENIUS_API_TOKEN is required")
			}

			logger, err := util.NewLogger(viper.GetString("LOG_LEVEL"), "")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			resolver := lyrics.NewGeniusResolver(lyrics.GeniusOptions{APIToken: token}, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.Timeouts.ProviderCall*2)
			defer cancel()

			doc, err := resolver.ResolveLyrics(ctx, title, artist)
			if err != nil {
				return err
			}
			if !doc.Found() {
				fmt.Fprintf(cmd.OutOrStdout(), "no lyrics found for %q\n", title)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "song title")
	cmd.Flags().StringVar(&artist, "artist", "", "artist name")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
