package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is HappyML's process-wide configuration: where the repo's
// datasets/tasks/models directories live, training and ingest settings
// (see TrainingConfig), and the log level for the CLI's slog handler.
type Config struct {
	RepoRoot string         `mapstructure:"repo_root"`
	Training TrainingConfig `mapstructure:"training"`
	LogLevel string         `mapstructure:"log_level"`
}

// TrainingConfig holds training and ingest settings. Only Seed reaches the
// DSL, where it seeds the session's random source; `execute task` trains
// with a batch size of 8 and `.txt` ingest packs rows of 4000 characters,
// whatever BatchSize and TextIngestLineLimit hold.
type TrainingConfig struct {
	BatchSize           int   `mapstructure:"batch_size"`
	Seed                int64 `mapstructure:"seed"`
	TextIngestLineLimit int   `mapstructure:"text_ingest_line_limit"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		RepoRoot: ".",
		Training: TrainingConfig{
			BatchSize:           8,
			Seed:                1,
			TextIngestLineLimit: 4000,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("repo-root", defaults.RepoRoot, "Repository root containing datasets/, tasks/, and models/")
	fs.Int("batch-size", defaults.Training.BatchSize, "Mini-batch size setting (not read by execute task, which trains with batch size 8)")
	fs.Int64("seed", defaults.Training.Seed, "Random seed for dataset shuffling and weight initialization")
	fs.Int("text-ingest-line-limit", defaults.Training.TextIngestLineLimit, "Character limit setting for .txt ingest (not read by create dataset, which packs rows of 4000 characters)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("HAPPYML")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("happyml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("repo_root", c.RepoRoot)
	v.SetDefault("training.batch_size", c.Training.BatchSize)
	v.SetDefault("training.seed", c.Training.Seed)
	v.SetDefault("training.text_ingest_line_limit", c.Training.TextIngestLineLimit)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("repo_root", "repo-root")
	v.RegisterAlias("training.batch_size", "batch-size")
	v.RegisterAlias("training.seed", "seed")
	v.RegisterAlias("training.text_ingest_line_limit", "text-ingest-line-limit")
	v.RegisterAlias("log_level", "log-level")
}
