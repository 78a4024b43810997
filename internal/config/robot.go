package config

import "os"

// Default robot configuration.
const (
	DefaultSSHUser = "pollen"
	DefaultSSHPass = "root"
)

// RobotIP returns the robot IP from ROBOT_IP env var.
// Falls back to the provided default if not set.
func RobotIP(defaultIP string) string {
	if ip := os.Getenv("ROBOT_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// SSHUser returns the SSH username from SSH_USER env var or default.
func SSHUser() string {
	if user := os.Getenv("SSH_USER"); user != "" {
		return user
	}
	return DefaultSSHUser
}

// SSHPass returns the SSH password from SSH_PASS env var or default.
func SSHPass() string {
	if pass := os.Getenv("SSH_PASS"); pass != "" {
		return pass
	}
	return DefaultSSHPass
}
