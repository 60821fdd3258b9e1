package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/aretw0/reel/pkg/simulation"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dialogue statistics of a corpus",
	Long:  `Builds the transition tables the simulated user samples from and prints a summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		path := s.Simulation.CorpusPath
		if len(args) > 0 {
			path = args[0]
		}
		corpus, err := simulation.LoadCorpus(path)
		if err != nil {
			return err
		}
		stats := simulation.BuildStats(corpus)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Fprintf(out, "dialogues: %d\nranked agendas: %d\nknown agent utterances: %d\n\n",
			len(stats.Agendas), len(stats.Ranked), len(stats.IntentMap))
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FROM\tTO\tCOUNT")
		for _, from := range sortedKeys(stats.Coarse) {
			d := stats.Coarse[from]
			for i, to := range d.Labels {
				fmt.Fprintf(w, "%s\t%s\t%d\n", from, to, d.Counts[i])
			}
		}
		return w.Flush()
	},
}

func sortedKeys(t simulation.Transitions) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Print every table as JSON")
	statsCmd.Args = cobra.MaximumNArgs(1)
}
