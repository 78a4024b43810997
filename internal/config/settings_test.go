package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"POSTURE_PORT", "AUDIO_PLAYER", "SIT_LIMIT", "REDIS_ADDR", "MQTT_BROKER", "ROBOT_IP"} {
		t.Setenv(k, "")
	}

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Defaults()
	if s.Port != want.Port || s.Player != want.Player || s.SitLimit != want.SitLimit {
		t.Errorf("Load() = %+v, want defaults", s)
	}
	if s.RedisAddr != "" || s.MQTTBroker != "" {
		t.Error("sinks should be disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POSTURE_PORT", "9090")
	t.Setenv("AUDIO_PLAYER", "robot")
	t.Setenv("ROBOT_IP", "192.168.68.80")
	t.Setenv("SIT_LIMIT", "45m")
	t.Setenv("FRAME_TIMEOUT", "0.5")
	t.Setenv("POSTURE_THRESHOLD", "120")
	t.Setenv("POSTURE_DEBUG", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Port != "9090" {
		t.Errorf("Port = %q, want 9090", s.Port)
	}
	if s.Player != PlayerRobot || s.RobotIP != "192.168.68.80" {
		t.Errorf("Player/RobotIP = %q/%q", s.Player, s.RobotIP)
	}
	if s.SitLimit != 45*time.Minute {
		t.Errorf("SitLimit = %v, want 45m", s.SitLimit)
	}
	if s.FrameTimeout != 500*time.Millisecond {
		t.Errorf("FrameTimeout = %v, want 500ms", s.FrameTimeout)
	}
	if s.PostureThreshold != 120 {
		t.Errorf("PostureThreshold = %v, want 120", s.PostureThreshold)
	}
	if !s.Debug {
		t.Error("Debug should be true")
	}
	if s.RedisAddr != "localhost:6379" || s.RedisDB != 2 {
		t.Errorf("Redis = %q db %d", s.RedisAddr, s.RedisDB)
	}
	if s.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker = %q", s.MQTTBroker)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad float", "POSTURE_THRESHOLD", "steep"},
		{"bad duration", "SIT_LIMIT", "forever"},
		{"bad bool", "POSTURE_DEBUG", "maybe"},
		{"bad int", "REDIS_DB", "one"},
		{"bad player", "AUDIO_PLAYER", "bluetooth"},
		{"negative timeout", "FRAME_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUDIO_PLAYER", "")
			t.Setenv(tt.key, tt.val)
			s, err := Load()
			if err == nil {
				err = s.Validate()
			}
			if !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("Load()+Validate() error = %v, want ErrInvalidSetting", err)
			}
		})
	}
}

func TestLoadDefersValidation(t *testing.T) {
	t.Setenv("AUDIO_PLAYER", "robot")
	t.Setenv("ROBOT_IP", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil until Validate", err)
	}
	if err := s.Validate(); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("Validate() error = %v, want ErrInvalidSetting", err)
	}
	s.RobotIP = "192.168.1.20"
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() after setting the robot IP = %v", err)
	}
}

func TestRobotPlayerRequiresIP(t *testing.T) {
	s := Defaults()
	s.Player = PlayerRobot
	if err := s.Validate(); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("Validate() error = %v, want ErrInvalidSetting", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("POSTURE_TEST_DOTENV=from-file\nPOSTURE_TEST_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POSTURE_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("POSTURE_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("POSTURE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("POSTURE_TEST_DOTENV = %q, want from-file", got)
	}
	if got := os.Getenv("POSTURE_TEST_KEEP"); got != "from-env" {
		t.Errorf("POSTURE_TEST_KEEP = %q, want the existing env value", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
