package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/tverify/formatter"
	tt "github.com/gnoverse/tverify/internal/types"
	"github.com/gnoverse/tverify/verify"
)

var inspectStep int

var showCmd = &cobra.Command{
	Use:   "show <database> <label>",
	Short: "Show the steps of a proof and the formula each one computes",
	Long: `Verifies one theorem and lists its proof steps.
Example) tverify show prop.yaml mpd --step 4`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := verify.LoadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		engine, err := verify.New(args[0], config, logger)
		if err != nil {
			logger.Fatal("Failed to load database", zap.Error(err))
		}

		run, err := engine.Inspect(args[1], inspectStep, nil)
		if err != nil {
			logger.Error("Error verifying statement", zap.String("label", args[1]), zap.Error(err))
			os.Exit(1)
		}
		if inspectStep >= len(run.Proof) {
			logger.Warn("Step out of range", zap.Int("step", inspectStep), zap.Int("steps", len(run.Proof)))
		}

		fmt.Print(formatter.FormatSteps(engine.Table(), run))
		fmt.Println()
		result := run.Result()
		fmt.Print(formatter.FormatResult(result))
		fmt.Printf("%s: %s\n", result.Label, result.Verdict)
		if result.Verdict >= tt.SeverityError {
			os.Exit(1)
		}
	},
}

func init() {
	showCmd.Flags().IntVar(&inspectStep, "step", -1, "Step whose substitutions are shown")
}
