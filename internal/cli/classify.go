package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/raphaelgruber/scamdetect/internal/config"
	"github.com/raphaelgruber/scamdetect/internal/prompt"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify a message without starting a chat",
	Long: `Classify a message as scam or safe and print the verdict table.

Examples:
  scamdetect classify "You won a free cruise, click here!"
  scamdetect classify Your parcel is held at customs, pay the fee here`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	text := strings.Join(args, " ")

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.Level())
	defer cleanup()

	c, err := classifier.New(cfg, logger)
	if err != nil {
		return err
	}

	verdict, err := c.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "| Label | Possibility |")
	fmt.Fprintln(out, "|---|---|")
	fmt.Fprintln(out, prompt.TableRow(verdict))
	if verdict.Label == classifier.LabelScam {
		fmt.Fprintln(out, "\nThis looks like a scam. Do not click links or send money.")
	}
	return nil
}
