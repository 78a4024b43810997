// posture - seated posture monitor
// Consumes pose landmarks from a detector, debounces bad posture, tracks
// sitting time and drives sound cues and a repeating alarm.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/internal/log"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	envFile  string
	logLevel string
	debug    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "posture",
		Short:         "Seated posture monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Read environment variables from this file if it exists")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Check the alert invariant on every frame")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newReplayCmd(g))
	return root
}

// loadSettings reads .env and the environment, then applies global flags.
// Validation is left to monitor.New so subcommand flags can still fill in
// or override values first.
func loadSettings(cmd *cobra.Command, g *globalFlags) (config.Settings, error) {
	if err := config.LoadDotEnv(g.envFile); err != nil {
		return config.Settings{}, err
	}
	s, err := config.Load()
	if err != nil {
		return s, fmt.Errorf("configuration error: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		s.LogLevel = g.logLevel
	}
	if cmd.Flags().Changed("debug") {
		s.Debug = g.debug
	}
	log.Init(s.LogLevel)
	return s, nil
}
