package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/match"
	"github.com/openmixer/mixer/internal/server"
	"github.com/openmixer/mixer/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mixer HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (overrides server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the mixer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, err := store.Open(viper.GetString("database"))
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer st.Close()

	similarity, judgment, extractor, err := newOracles(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai oracles", zap.Error(err))
	}

	enricher, err := newEnricher(config, extractor, logger)
	if err != nil {
		logger.Fatal("building enricher", zap.Error(err))
	}

	engine := match.NewEngine(similarity, judgment, *config.Match, logger)

	srv := server.New(st, enricher, engine, logger)

	addr := config.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	if err := srv.Run(ctx, addr); err != nil {
		logger.Fatal("running the server", zap.Error(err))
	}
}
