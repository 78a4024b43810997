package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Player plays a clip to completion. Play blocks until the clip has finished
// or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, clip Clip) error
}

// CommandPlayer plays clips on the local machine through a command line
// player such as aplay or afplay.
type CommandPlayer struct {
	lib     *Library
	command string
	args    []string
}

// NewCommandPlayer creates a local player. With an empty command the
// platform default is used.
func NewCommandPlayer(lib *Library, command string, args ...string) *CommandPlayer {
	if command == "" {
		command, args = DefaultCommand()
	}
	return &CommandPlayer{lib: lib, command: command, args: args}
}

// DefaultCommand returns the platform's command line player.
func DefaultCommand() (string, []string) {
	if runtime.GOOS == "darwin" {
		return "afplay", nil
	}
	return "aplay", []string{"-q"}
}

// Play runs the player command on the clip's file and waits for it to exit.
func (p *CommandPlayer) Play(ctx context.Context, clip Clip) error {
	path, err := p.lib.Path(clip)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, p.command, p.commandArgs(path)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("play %s: %w (%s)", clip, err, out)
	}
	return nil
}

func (p *CommandPlayer) commandArgs(path string) []string {
	args := make([]string, 0, len(p.args)+1)
	args = append(args, p.args...)
	return append(args, path)
}

// robotPipeline decodes whatever arrives on stdin and plays it on the robot speaker.
const robotPipeline = `gst-launch-1.0 -q fdsrc fd=0 ! decodebin ! audioconvert ! audioresample ! alsasink device=default`

// RobotPlayer streams clips over SSH to a GStreamer pipeline on the robot.
type RobotPlayer struct {
	lib     *Library
	robotIP string
	sshUser string
	sshPass string
}

// NewRobotPlayer creates a player for the robot at robotIP.
func NewRobotPlayer(lib *Library, robotIP, sshUser, sshPass string) *RobotPlayer {
	return &RobotPlayer{
		lib:     lib,
		robotIP: robotIP,
		sshUser: sshUser,
		sshPass: sshPass,
	}
}

// Play sends the clip to the robot and waits for the remote pipeline to finish.
func (p *RobotPlayer) Play(ctx context.Context, clip Clip) error {
	path, err := p.lib.Path(clip)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	cmd := exec.CommandContext(ctx, "sshpass", p.sshArgs()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	_, copyErr := io.Copy(stdin, f)
	stdin.Close()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("robot playback: %w", err)
	}
	if copyErr != nil {
		return fmt.Errorf("send clip: %w", copyErr)
	}
	return nil
}

func (p *RobotPlayer) sshArgs() []string {
	return []string{
		"-p", p.sshPass,
		"ssh", "-o", "StrictHostKeyChecking=no",
		fmt.Sprintf("%s@%s", p.sshUser, p.robotIP),
		robotPipeline,
	}
}

// Silent is a Player that plays nothing.
type Silent struct{}

// Play returns immediately.
func (Silent) Play(ctx context.Context, clip Clip) error {
	return ctx.Err()
}
