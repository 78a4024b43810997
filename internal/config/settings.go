// Package config loads go-posture settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/lpernett/godotenv"
)

// Audio output modes.
const (
	PlayerLocal = "local" // afplay/aplay on this machine
	PlayerRobot = "robot" // streamed to the robot speaker over SSH
	PlayerNone  = "none"  // silent
)

// ErrInvalidSetting is returned when an environment value cannot be used.
var ErrInvalidSetting = errors.New("config: invalid setting")

// Settings holds process-level configuration.
type Settings struct {
	Port     string
	LogLevel string

	// Audio
	SoundDir string
	Player   string
	RobotIP  string
	SSHUser  string
	SSHPass  string

	// Posture thresholds
	VisibilityThreshold float64
	PostureThreshold    float64
	StandThreshold      float64
	SitLimit            time.Duration
	Debug               bool

	// Input watchdog; zero disables it
	FrameTimeout time.Duration

	// Redis sink; empty address disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MQTT sink; empty broker disables it
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Port:                "8080",
		LogLevel:            "info",
		SoundDir:            "sounds",
		Player:              PlayerLocal,
		SSHUser:             DefaultSSHUser,
		SSHPass:             DefaultSSHPass,
		VisibilityThreshold: 0.5,
		PostureThreshold:    130,
		StandThreshold:      170,
		SitLimit:            time.Hour,
		FrameTimeout:        2 * time.Second,
		MQTTClientID:        "go-posture",
		MQTTTopicPrefix:     "posture",
	}
}

// LoadDotEnv reads .env style files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds Settings from defaults overlaid with environment variables.
// It reports malformed values only; call Validate once any command line
// overrides have been applied.
func Load() (Settings, error) {
	s := Defaults()
	var errs []error

	s.Port = envString("POSTURE_PORT", s.Port)
	s.LogLevel = envString("LOG_LEVEL", s.LogLevel)

	s.SoundDir = envString("SOUND_DIR", s.SoundDir)
	s.Player = envString("AUDIO_PLAYER", s.Player)
	s.RobotIP = RobotIP(s.RobotIP)
	s.SSHUser = SSHUser()
	s.SSHPass = SSHPass()

	s.VisibilityThreshold = envFloat("VISIBILITY_THRESHOLD", s.VisibilityThreshold, &errs)
	s.PostureThreshold = envFloat("POSTURE_THRESHOLD", s.PostureThreshold, &errs)
	s.StandThreshold = envFloat("STAND_THRESHOLD", s.StandThreshold, &errs)
	s.SitLimit = envDuration("SIT_LIMIT", s.SitLimit, &errs)
	s.Debug = envBool("POSTURE_DEBUG", s.Debug, &errs)
	s.FrameTimeout = envDuration("FRAME_TIMEOUT", s.FrameTimeout, &errs)

	s.RedisAddr = envString("REDIS_ADDR", s.RedisAddr)
	s.RedisPassword = envString("REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = envInt("REDIS_DB", s.RedisDB, &errs)

	s.MQTTBroker = envString("MQTT_BROKER", s.MQTTBroker)
	s.MQTTClientID = envString("MQTT_CLIENT_ID", s.MQTTClientID)
	s.MQTTUsername = envString("MQTT_USERNAME", s.MQTTUsername)
	s.MQTTPassword = envString("MQTT_PASSWORD", s.MQTTPassword)
	s.MQTTTopicPrefix = envString("MQTT_TOPIC_PREFIX", s.MQTTTopicPrefix)

	return s, errors.Join(errs...)
}

// Validate checks values that the individual packages do not.
func (s Settings) Validate() error {
	switch s.Player {
	case PlayerLocal, PlayerNone:
	case PlayerRobot:
		if s.RobotIP == "" {
			return fmt.Errorf("%w: AUDIO_PLAYER=robot requires ROBOT_IP", ErrInvalidSetting)
		}
	default:
		return fmt.Errorf("%w: AUDIO_PLAYER %q (want local, robot or none)", ErrInvalidSetting, s.Player)
	}
	if s.Port == "" {
		return fmt.Errorf("%w: empty port", ErrInvalidSetting)
	}
	if s.FrameTimeout < 0 {
		return fmt.Errorf("%w: FRAME_TIMEOUT must not be negative", ErrInvalidSetting)
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64, errs *[]error) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v))
		return def
	}
	return f
}

func envInt(key string, def int, errs *[]error) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v))
		return def
	}
	return n
}

func envBool(key string, def bool, errs *[]error) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v))
		return def
	}
	return b
}

// envDuration accepts Go durations ("90s") or plain seconds ("3600").
func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(sec * float64(time.Second))
	}
	*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v))
	return def
}
