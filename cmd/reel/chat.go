package main

import (
	"os"

	"github.com/aretw0/reel"
	"github.com/aretw0/reel/internal/cli"
	"github.com/aretw0/reel/internal/presentation/tui"
	"github.com/aretw0/reel/pkg/conversation"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the agent on the terminal",
	Long:  `Starts an interactive dialogue. Say hello to start over; say bye to finish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer e.Close()

		a, err := e.components.NewAgent(0)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		out := cmd.OutOrStdout()
		opts := []conversation.ChatOption{conversation.WithChatLogger(e.components.Logger)}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			tui.PrintBanner(out, reel.Version)
			system := tui.Speaker(out, "SYSTEM")
			opts = append(opts,
				conversation.WithPrompt(tui.Speaker(out, "USER")+" > "),
				conversation.WithRenderer(func(s string) string { return system + " > " + s }),
			)
		} else {
			opts = append(opts, conversation.WithPrompt(""))
		}

		err = conversation.Chat(ctx, a, cmd.InOrStdin(), out, opts...)
		if ctx.Signal() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
