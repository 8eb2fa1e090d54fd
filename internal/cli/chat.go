package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/scamdetect/internal/app"
	"github.com/raphaelgruber/scamdetect/internal/client"
	"github.com/raphaelgruber/scamdetect/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	chatServer string
	chatPlain  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a triage chat",
	Long: `Start a triage chat. Paste a suspicious message and the assistant
classifies it and explains the verdict. Follow-up questions stay in the
same room; open a new room for a new message.

On a terminal this opens the interactive UI:
  Enter        send message
  Ctrl+N       new room
  Ctrl+L       clear current room
  Ctrl+R       retry a failed reply
  Tab          next room (Shift+Tab: previous)
  Ctrl+C       quit

Otherwise, or with --plain, it reads one line per message and accepts
/new, /clear, /room N, /rooms and /quit.

Examples:
  scamdetect chat
  echo "You won a free cruise, click here!" | scamdetect chat
  scamdetect chat --server http://localhost:8501`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServer, "server", "", "drive a remote scamdetect-server session (line mode)")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use line mode even on a terminal")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if chatServer != "" {
		c := client.New(chatServer)
		if err := c.Connect(ctx); err != nil {
			return err
		}
		defer c.Close()
		return runLines(ctx, remoteDriver{c}, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	interactive := !chatPlain && term.IsTerminal(int(os.Stdin.Fd()))

	// The TUI owns the terminal, so logs go to the file only
	setup := config.SetupLogger
	if interactive {
		setup = config.SetupFileLogger
	}
	logger, cleanup := setup(cfg.LogFile, cfg.Level())
	defer func() {
		if err := cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	sess, err := app.NewSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if interactive {
		return runTUI(ctx, sess)
	}
	return runLines(ctx, localDriver{sess}, cmd.InOrStdin(), cmd.OutOrStdout())
}
