package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/reel/internal/cli"
	"github.com/aretw0/reel/internal/presentation/tui"
	"github.com/aretw0/reel/pkg/conversation"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run dialogues between the agent and simulated users",
	Long: `Samples an agenda and a profile for each simulated user and lets it talk to the
agent. Results are written as JSON; the transcripts can also be rendered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		e, err := setupWith(cmd, func(e *env) {
			s := e.settings
			if flags.Changed("mode") {
				s.Simulation.Mode, _ = flags.GetString("mode")
			}
			if flags.Changed("agenda") {
				s.Simulation.Agenda, _ = flags.GetString("agenda")
			}
			if flags.Changed("parallel") {
				s.Simulation.Parallelism, _ = flags.GetInt("parallel")
			}
			if flags.Changed("output") {
				s.Simulation.Output, _ = flags.GetString("output")
			}
			if flags.Changed("templates") {
				s.Simulation.TemplatesPath, _ = flags.GetString("templates")
			}
		})
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		sim, err := cli.NewSimulator(ctx, e.components)
		if err != nil {
			return err
		}
		if watch, _ := flags.GetBool("watch"); watch {
			path := e.settings.Simulation.TemplatesPath
			if path == "" {
				return errors.New("--watch needs a templates file")
			}
			logger := e.components.Logger
			w := nlg.NewWatcher(path, sim.Templates, nlg.WithWatchLogger(logger))
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Warn("template watcher stopped", "err", err)
				}
			}()
		}

		dialogues := e.settings.Dialogue.NumDialogues
		if flags.Changed("dialogues") {
			dialogues, _ = flags.GetInt("dialogues")
		}
		persona, _ := flags.GetBool("persona")

		results, err := sim.Run(ctx, dialogues, persona)
		if err != nil {
			if ctx.Signal() != nil {
				return fmt.Errorf("interrupted by %v: %w", ctx.Signal(), err)
			}
			return err
		}

		if show, _ := flags.GetBool("transcript"); show {
			render := tui.NewRenderer()
			for i, res := range results {
				out, err := render(tui.Transcript(i, res))
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
		}
		summarize(cmd, e, results)
		return writeResults(e.settings.Simulation.Output, results)
	},
}

func summarize(cmd *cobra.Command, e *env, results []*conversation.Result) {
	terminated, turns := 0, 0
	for _, res := range results {
		if res.Terminated {
			terminated++
		}
		turns += res.Turns()
	}
	mean := 0.0
	if len(results) > 0 {
		mean = float64(turns) / float64(len(results))
	}
	e.components.Logger.Info("simulation finished",
		"dialogues", len(results),
		"completed", terminated,
		"mean_turns", mean,
	)
	fmt.Fprintf(cmd.ErrOrStderr(), ">>> %d dialogues, %d completed, %.1f turns on average\n", len(results), terminated, mean)
}

func writeResults(path string, results []*conversation.Result) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntP("dialogues", "n", 1, "Number of dialogues")
	simulateCmd.Flags().StringP("mode", "m", "ms", "Simulation mode: ms, mb or ac")
	simulateCmd.Flags().String("agenda", "ours", "Agenda kind: ours, qrfa or qrfa-test")
	simulateCmd.Flags().Bool("persona", true, "Answer offers from the user's profile")
	simulateCmd.Flags().Int("parallel", 4, "Dialogues run concurrently")
	simulateCmd.Flags().StringP("output", "o", "", "Write results as JSON to this file")
	simulateCmd.Flags().Bool("transcript", false, "Render the transcripts")
	simulateCmd.Flags().String("templates", "", "User templates file (YAML or JSON) instead of the built-in set")
	simulateCmd.Flags().Bool("watch", false, "Reload the templates file while dialogues run")
}
