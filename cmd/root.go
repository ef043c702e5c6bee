package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/lyrics/internal/adapters/engine"
	service "github.com/okian/lyrics/internal/app"
	"github.com/okian/lyrics/internal/config"
	"github.com/okian/lyrics/pkg/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli carries the state shared by subcommands after bootstrap.
type cli struct {
	cfg *config.Config

	configFile string
	logLevel   string
	corpusDir  string
	modelDir   string
	classifier string
}

// getRootCmd returns the root command with every subcommand attached.
// Extracted as a function to facilitate testing.
func getRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:     "lyrics",
		Version: version,
		Short:   "Lyrics genre classifier",
		Long: `Train a genre classifier on a lyrics corpus and predict the genre of new lyrics.

Configuration is layered: defaults, then the YAML file named by LYRICS_CONFIG
(or --config), then LYRICS_* environment variables, then flags.`,
		PersistentPreRunE: c.bootstrap,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configFile, "config", "c", "", "YAML config file")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.corpusDir, "corpus-dir", "", "corpus root with one directory per genre")
	pf.StringVar(&c.modelDir, "model-dir", "", "directory models are saved under")
	pf.StringVar(&c.classifier, "classifier", "", "naive_bayes, logistic_regression or nearest_centroid")

	rootCmd.AddCommand(
		getServeCmd(c),
		getTrainCmd(c),
		getPredictCmd(c),
	)
	return rootCmd
}

// bootstrap loads configuration, applies flag overrides and initializes
// logging on the command's error stream.
func (c *cli) bootstrap(cmd *cobra.Command, _ []string) error {
	if c.configFile != "" {
		if err := os.Setenv(config.EnvConfigFile, c.configFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("corpus-dir") {
		cfg.CorpusDir = c.corpusDir
	}
	if flags.Changed("model-dir") {
		cfg.ModelDir = c.modelDir
	}
	if flags.Changed("classifier") {
		cfg.Classifier = c.classifier
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

// service builds the lyrics service from the loaded configuration.
func (c *cli) service() (*service.Service, error) {
	reg, err := c.cfg.GenreRegistry()
	if err != nil {
		return nil, err
	}
	mode, err := c.cfg.Mode()
	if err != nil {
		return nil, err
	}
	lg := logger.Get()
	svc, err := service.New(
		service.WithLogger(lg.Named("service")),
		service.WithRegistry(reg),
		service.WithEngine(engine.NewLocal(
			engine.WithParallelism(c.cfg.Parallelism),
			engine.WithLogger(lg.Named("engine")),
		)),
		service.WithCorpusDir(c.cfg.CorpusDir),
		service.WithMergedFile(c.cfg.MergedFile),
		service.WithModelDir(c.cfg.ModelDir),
		service.WithClassifier(c.cfg.Classifier),
		service.WithMetric(c.cfg.Metric),
		service.WithFolds(c.cfg.Folds),
		service.WithSeed(c.cfg.Seed),
		service.WithWorkerCount(c.cfg.WorkerCount),
		service.WithGrid(c.cfg.Grid),
		service.WithSaveMode(mode),
	)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	return svc, nil
}
