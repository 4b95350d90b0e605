package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/ai"
	"github.com/openmixer/mixer/internal/ai/gemini"
	"github.com/openmixer/mixer/internal/enrich"
	"github.com/openmixer/mixer/internal/linkedin"
	"github.com/openmixer/mixer/internal/logger"
	"github.com/openmixer/mixer/internal/match"
	"github.com/openmixer/mixer/internal/secrets"
)

const (
	app = "mixer"
)

type Config struct {
	Database string         `mapstructure:"database"`
	Server   *ServerConfig  `mapstructure:"server"`
	Match    *match.Config  `mapstructure:"match"`
	Scraper  *ScraperConfig `mapstructure:"scraper"`
	AI       *AIConfig      `mapstructure:"ai"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ScraperConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	TokenFile string `mapstructure:"token-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string  `mapstructure:"api-key"`
	APIKeyFile        string  `mapstructure:"api-key-file"`
	Model             string  `mapstructure:"model"`
	EmbeddingModel    string  `mapstructure:"embedding-model"`
	MaxRetries        int     `mapstructure:"max-retries"`
	MaxLogLength      int     `mapstructure:"max-log-length"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "mixer matches event attendees by their give/ask networking profiles",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is mixer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("database", "mixer.db", "path to the sqlite database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional. Flags and env cover the defaults.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Match == nil {
		config.Match = &match.Config{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{Addr: ":8080"}
	}
	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newOracles wires the Gemini generator into the similarity and judgment
// oracles plus the extraction calls used at registration time.
func newOracles(ctx context.Context, cfg *AIConfig, lg *zap.Logger) (ai.SimilarityOracle, ai.JudgmentOracle, ai.Extractor, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, nil, nil, fmt.Errorf("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	aiLogger := logger.WithCommonFields(lg, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, gemini.GeneratorConfig{
		APIKey:            apiKey,
		Model:             cfg.Gemini.Model,
		EmbeddingModel:    cfg.Gemini.EmbeddingModel,
		MaxRetries:        cfg.Gemini.MaxRetries,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
	}, aiLogger)
	if err != nil {
		return nil, nil, nil, err
	}

	judge := gemini.NewJudge(generator, aiLogger, cfg.Gemini.MaxLogLength)
	embedder := gemini.NewEmbedder(generator)
	extractor := gemini.NewExtractor(generator, aiLogger)

	return embedder, judge, extractor, nil
}

func newEnricher(config *Config, extractor ai.Extractor, lg *zap.Logger) (*enrich.Enricher, error) {
	var fetcher linkedin.Fetcher
	if config.Scraper != nil && strings.TrimSpace(config.Scraper.Endpoint) != "" {
		token := ""
		if strings.TrimSpace(config.Scraper.TokenFile) != "" {
			loaded, err := secrets.Load(secrets.Source{
				Name: "scraper token",
				File: config.Scraper.TokenFile,
			})
			if err != nil {
				return nil, err
			}
			token = loaded
		}
		fetcher = linkedin.New(config.Scraper.Endpoint, token, lg)
	}

	return enrich.New(fetcher, extractor, lg), nil
}
