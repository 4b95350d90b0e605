package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/profile"
	"github.com/openmixer/mixer/internal/store"
)

var registerCmd = &cobra.Command{
	Use:   "register <form.json>",
	Short: "Register an attendee profile from a JSON form file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		register(args[0])
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func register(path string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the form file", zap.Error(err))
	}

	var form map[string]any
	if err := json.Unmarshal(data, &form); err != nil {
		logger.Fatal("parsing the form file", zap.Error(err))
	}

	p, err := profile.FromForm(form)
	if err != nil {
		logger.Fatal("decoding the form", zap.Error(err))
	}

	if err := p.Validate(); err != nil {
		logger.Fatal("validating the profile", zap.Error(err))
	}
	p.EnsureID()

	_, _, extractor, err := newOracles(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai oracles", zap.Error(err))
	}

	enricher, err := newEnricher(config, extractor, logger)
	if err != nil {
		logger.Fatal("building enricher", zap.Error(err))
	}

	report, err := enricher.Enrich(ctx, *p)
	if err != nil {
		logger.Fatal("enriching the profile", zap.Error(err))
	}

	st, err := store.Open(viper.GetString("database"))
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer st.Close()

	if err := st.UpsertProfile(ctx, report.Profile); err != nil {
		logger.Fatal("saving the profile", zap.Error(err))
	}

	logger.Info("registered the profile",
		zap.String("user_id", report.Profile.Key()),
		zap.String("name", report.Profile.Name),
		zap.Bool("linkedin_fetched", report.Fetched),
	)

	if report.Evaluation != nil {
		fmt.Printf("Give/take compatibility: %.2f (%s)\n",
			report.Evaluation.CompatibilityScore, report.Evaluation.MatchPotential)
	}
}
