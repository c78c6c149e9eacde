package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/careline/dispatch/config"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/core/priority"
)

var intakePath string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an intake file offline against the configured triage policy",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&intakePath, "intake", "i", "", "JSON intake file")
	if err := scoreCmd.MarkFlagRequired("intake"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	raw, err := os.ReadFile(intakePath)
	if err != nil {
		return fmt.Errorf("read intake: %w", err)
	}
	var in model.Intake
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("decode intake: %w", err)
	}
	tier, score := priority.New(cfg.Priority).Score(in)
	fmt.Fprintf(cmd.OutOrStdout(), "tier=%s score=%.1f\n", tier, score)
	return nil
}
