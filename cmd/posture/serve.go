package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/monitor"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		port         string
		player       string
		robotIP      string
		soundDir     string
		redisAddr    string
		mqttBroker   string
		frameTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept pose frames over WebSocket and monitor posture",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, g)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				s.Port = port
			}
			if flags.Changed("player") {
				s.Player = player
			}
			if flags.Changed("robot-ip") {
				s.RobotIP = robotIP
			}
			if flags.Changed("sound-dir") {
				s.SoundDir = soundDir
			}
			if flags.Changed("redis") {
				s.RedisAddr = redisAddr
			}
			if flags.Changed("mqtt") {
				s.MQTTBroker = mqttBroker
			}
			if flags.Changed("frame-timeout") {
				s.FrameTimeout = frameTimeout
			}

			app, err := monitor.New(s, monitor.WithLogger(log.L()))
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := app.Init(ctx); err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer app.Shutdown()

			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides POSTURE_PORT)")
	cmd.Flags().StringVar(&player, "player", "", "Audio output: local, robot or none (overrides AUDIO_PLAYER)")
	cmd.Flags().StringVar(&robotIP, "robot-ip", "", "Robot IP for --player robot (overrides ROBOT_IP)")
	cmd.Flags().StringVar(&soundDir, "sound-dir", "", "Directory holding the sound clips (overrides SOUND_DIR)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for the event stream (overrides REDIS_ADDR)")
	cmd.Flags().StringVar(&mqttBroker, "mqtt", "", "MQTT broker URL (overrides MQTT_BROKER)")
	cmd.Flags().DurationVar(&frameTimeout, "frame-timeout", 0, "Treat the detector as silent after this long; 0 disables (overrides FRAME_TIMEOUT)")
	return cmd
}
