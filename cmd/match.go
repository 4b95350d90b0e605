package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/match"
	"github.com/openmixer/mixer/internal/pool"
	"github.com/openmixer/mixer/internal/store"
)

const (
	PromptSave         = "Save the result"
	PromptShowJSON     = "Show the JSON report"
	PromptResultToFile = "Dump the result to file"
	PromptQuit         = "Quit"
)

var errExit = errors.New("exit requested")

var reviewPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptSave, PromptShowJSON, PromptResultToFile, PromptQuit},
}

var matchCmd = &cobra.Command{
	Use:   "match <user-id>",
	Short: "Find networking matches for a registered user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runMatch(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolP("auto-save", "y", false, "save the result without asking")
}

func runMatch(cmd *cobra.Command, userID string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st, err := store.Open(viper.GetString("database"))
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer st.Close()

	user, err := st.GetProfile(ctx, userID)
	if err != nil {
		logger.Fatal("loading the user profile",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("hint", "register the profile first with the register command"),
		)
	}

	attendees, err := st.ListProfiles(ctx)
	if err != nil {
		logger.Fatal("listing registered profiles", zap.Error(err))
	}

	logger.Info("loaded the candidate pool", zap.Int("count", len(attendees)))

	candidates, err := pool.Run(logger, pool.Defaults(), attendees)
	if err != nil {
		logger.Fatal("filtering the candidate pool", zap.Error(err))
	}

	similarity, judgment, _, err := newOracles(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai oracles", zap.Error(err))
	}

	engine := match.NewEngine(similarity, judgment, *config.Match, logger)

	result, err := engine.FindMatches(ctx, *user, candidates)
	if err != nil {
		logger.Fatal("matchmaking failed", zap.Error(err))
	}

	fmt.Println(match.RenderText(result))

	response := match.Format(result)

	if cmd.Flag("auto-save").Value.String() == "true" {
		if err := st.SaveMatchResult(ctx, user.Key(), response); err != nil {
			logger.Fatal("saving the result", zap.Error(err))
		}
		logger.Info("saved the result", zap.String("user_id", user.Key()))
		return
	}

	for {
		_, action, err := reviewPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleReviewAction(ctx, action, st, user.Key(), response, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleReviewAction(ctx context.Context, action string, st *store.Store, userID string, response *match.Response, logger *zap.Logger) error {
	switch action {
	case PromptSave:
		if err := st.SaveMatchResult(ctx, userID, response); err != nil {
			return fmt.Errorf("save the result: %w", err)
		}
		logger.Info("saved the result", zap.String("user_id", userID))
		return errExit
	case PromptShowJSON:
		pretty, _ := json.MarshalIndent(response, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptResultToFile:
		filename, err := dumpToTmpFile(response)
		if err != nil {
			return fmt.Errorf("dump the result to file: %w", err)
		}
		logger.Info("dumped the result to file", zap.String("filename", filename))
		return nil
	case PromptQuit:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dumpToTmpFile(response *match.Response) (string, error) {
	file, err := os.CreateTemp("", app+"-matches-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return "", err
	}

	return file.Name(), nil
}
