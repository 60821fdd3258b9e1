package main

import (
	"github.com/aretw0/reel/internal/cli"
	"github.com/aretw0/reel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long: `Serves chat sessions over a JSON API. Sessions are kept in memory, on disk or in
Redis; metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		flags := cmd.Flags()
		e, err := setupHooksWith(cmd, metrics, func(e *env) {
			if flags.Changed("addr") {
				e.settings.Server.Addr, _ = flags.GetString("addr")
			}
			if flags.Changed("sessions") {
				e.settings.Sessions.Backend, _ = flags.GetString("sessions")
			}
		})
		if err != nil {
			return err
		}
		defer e.Close()

		sessions, closer, err := cli.NewSessions(e.settings, e.components)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()
		return cli.Serve(ctx, e.components, sessions, e.settings.Server.Addr, reg)
	},
}

func setupHooksWith(cmd *cobra.Command, m *observability.Metrics, override func(*env)) (*env, error) {
	return setupHooks(cmd, m.Hooks(), override)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("sessions", "memory", "Session backend: memory, file or redis")
}
