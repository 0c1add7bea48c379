package main

import (
	"fmt"
	"os"

	"image-converter-go/internal/config"
	"image-converter-go/internal/history"
	"image-converter-go/internal/logger"
	"image-converter-go/internal/metadata"
	"image-converter-go/internal/preferences"
	"image-converter-go/internal/session"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	version = "dev"
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "image-converter",
	Short: "Batch-convert images between formats",
	Long: `image-converter converts a set of images from their source format to a
destination format chosen per source format.

Features:
- Per-format conversion rules (png -> webp, bmp -> png, ...), default jpg
- Quality setting for JPEG and WEBP output
- Preferences persisted between runs
- One line per file in the conversion log
- Run history and a web interface with live progress`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(outputDirCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// app bundles everything a command needs. Fields not used by a command stay nil.
type app struct {
	cfg        *config.Config
	log        *logrus.Logger
	state      *preferences.State
	session    *session.Session
	outcomeLog *logger.OutcomeLog
	history    *history.Database
}

// newApp loads config, logging and preferences. withBatch also opens the
// conversion log, the history database and the metadata copier.
func newApp(withBatch bool) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, log: setupLogger(cfg)}
	a.state = preferences.LoadState(preferences.NewStore(cfg.PreferencesFile, a.log), a.log)

	var opts []session.Option
	if withBatch {
		a.outcomeLog, err = logger.NewOutcomeLog(logger.OutcomeLogConfig{
			FilePath:   cfg.ConversionLog.FilePath,
			MaxSize:    cfg.ConversionLog.MaxSize,
			MaxBackups: cfg.ConversionLog.MaxBackups,
			MaxAge:     cfg.ConversionLog.MaxAge,
			Compress:   cfg.ConversionLog.Compress,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open conversion log: %w", err)
		}
		opts = append(opts, session.WithSink(a.outcomeLog))

		if cfg.History.Enabled {
			if a.history, err = history.Open(cfg.History.DatabasePath); err != nil {
				a.log.Warnf("Run history disabled: %v", err)
			} else {
				opts = append(opts, session.WithRecorder(a.history))
			}
		}

		if cfg.Metadata.Preserve {
			copier := metadata.NewExiftoolCopier(cfg.Metadata.ExiftoolPath)
			if copier.Available() {
				opts = append(opts, session.WithMetadataCopier(copier))
			} else {
				a.log.Warnf("metadata.preserve is set but %s was not found; tags will not be copied", cfg.Metadata.ExiftoolPath)
			}
		}
	}

	a.session = session.New(a.state, a.log, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.outcomeLog != nil {
		if err := a.outcomeLog.Close(); err != nil {
			a.log.Errorf("Failed to close conversion log: %v", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Errorf("Failed to close history database: %v", err)
		}
	}
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    verbose,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
		log.Warnf("Falling back to console logging: %v", err)
	}

	return log
}

// printf writes to stdout unless --quiet is set.
func printf(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
