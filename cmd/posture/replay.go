package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/monitor"
	"github.com/teslashibe/go-posture/pkg/replay"
)

func newReplayCmd(g *globalFlags) *cobra.Command {
	var (
		speed   float64
		player  string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "replay <recording.jsonl|->",
		Short: "Run a recorded pose stream through the monitor and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, g)
			if err != nil {
				return err
			}
			s.Player = player
			s.FrameTimeout = 0
			if !publish {
				s.RedisAddr, s.MQTTBroker = "", ""
			}

			in, err := openRecording(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			app, err := monitor.New(s, monitor.WithoutWeb(), monitor.WithLogger(log.L()))
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := app.Init(ctx); err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer app.Shutdown()

			stats, err := replay.Run(ctx, in, app.ProcessFrame, replay.Options{Speed: speed})
			if err != nil {
				return fmt.Errorf("replay %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 0, "Real-time pacing factor; 0 replays as fast as possible")
	cmd.Flags().StringVar(&player, "player", config.PlayerNone, "Audio output: local, robot or none")
	cmd.Flags().BoolVar(&publish, "publish", false, "Also publish to the configured Redis and MQTT sinks")
	return cmd
}

func openRecording(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return f, nil
}
