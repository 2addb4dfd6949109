// Package ptyio opens a pseudo-terminal and execs the user's shell inside
// it, the byte source/sink collaborator that sits below the parser stack
// (vtcore's terminal.Terminal never talks to a PTY directly). Adapted from
// RavenTerminal's shell/pty.go.
package ptyio

import (
	"io"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/javanhut/vtcore/config"
)

// Session manages a pseudo-terminal connection to a shell. Each Session
// carries a UUID so multiple concurrent sessions are distinguishable in
// logs.
type Session struct {
	ID       uuid.UUID
	cmd      *exec.Cmd
	pty      *os.File
	mu       sync.Mutex
	exited   bool
	exitedMu sync.Mutex
}

// NewSession starts an interactive shell attached to a new PTY of the given
// size.
func NewSession(cols, rows uint16) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	shell := findShell(cfg)

	currentUser, err := user.Current()
	if err != nil {
		return nil, errors.Wrap(err, "ptyio: resolve current user")
	}

	shellBase := shell
	if idx := strings.LastIndex(shell, "/"); idx >= 0 {
		shellBase = shell[idx+1:]
	}

	var cmd *exec.Cmd
	if cfg.Shell.SourceRC {
		switch shellBase {
		case "bash":
			cmd = exec.Command(shell, "-i")
		case "zsh":
			cmd = exec.Command(shell, "-i")
		case "fish":
			cmd = exec.Command(shell, "-i")
		default:
			cmd = exec.Command(shell, "-i")
		}
	} else {
		switch shellBase {
		case "bash":
			cmd = exec.Command(shell, "--noprofile", "--norc", "-i")
		case "zsh":
			cmd = exec.Command(shell, "--no-rcs", "-i")
		case "fish":
			cmd = exec.Command(shell, "--no-config", "-i")
		default:
			cmd = exec.Command(shell, "-i")
		}
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		xdgRuntimeDir = "/run/user/" + currentUser.Uid
	}

	env := []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin:" + os.Getenv("PATH"),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"VTCORE=1",
		"HOME=" + currentUser.HomeDir,
		"USER=" + currentUser.Username,
		"SHELL=" + shell,
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
		"XDG_RUNTIME_DIR=" + xdgRuntimeDir,
	}

	if display := os.Getenv("DISPLAY"); display != "" {
		env = append(env, "DISPLAY="+display)
	}
	if waylandDisplay := os.Getenv("WAYLAND_DISPLAY"); waylandDisplay != "" {
		env = append(env, "WAYLAND_DISPLAY="+waylandDisplay)
		env = append(env, "XDG_SESSION_TYPE=wayland")
	}

	for k, v := range cfg.Shell.AdditionalEnv {
		env = append(env, k+"="+v)
	}

	cmd.Env = env
	cmd.Dir = currentUser.HomeDir

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ptyio: start shell")
	}

	session := &Session{
		ID:     uuid.New(),
		cmd:    cmd,
		pty:    ptmx,
		exited: false,
	}

	go func() {
		cmd.Wait()
		session.exitedMu.Lock()
		session.exited = true
		session.exitedMu.Unlock()
	}()

	return session, nil
}

// findShell picks the shell to run, preferring the configured path, then
// the user's /etc/passwd entry, then a list of common shells.
func findShell(cfg *config.Config) string {
	if cfg.Shell.Path != "" {
		if _, err := os.Stat(cfg.Shell.Path); err == nil {
			return cfg.Shell.Path
		}
	}

	currentUser, err := user.Current()
	if err == nil {
		if shell := getUserShell(currentUser.Username); shell != "" {
			if _, err := os.Stat(shell); err == nil {
				return shell
			}
		}
	}

	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/zsh", "/usr/bin/zsh", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// getUserShell reads the user's shell from /etc/passwd.
func getUserShell(username string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}

// Read reads bytes produced by the shell.
func (s *Session) Read(buf []byte) (int, error) {
	return s.pty.Read(buf)
}

// Write sends bytes to the shell, e.g. keyboard-translated sequences.
func (s *Session) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pty.Write(data)
}

// Resize updates the PTY's window size, typically in response to a
// terminal.Terminal.Resize call.
func (s *Session) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(pty.Setsize(s.pty, &pty.Winsize{Cols: cols, Rows: rows}), "ptyio: resize")
}

// HasExited reports whether the shell process has exited.
func (s *Session) HasExited() bool {
	s.exitedMu.Lock()
	defer s.exitedMu.Unlock()
	return s.exited
}

// Close terminates the shell and releases the PTY.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	return s.pty.Close()
}

// Reader returns an io.Reader for the PTY master side.
func (s *Session) Reader() io.Reader {
	return s.pty
}

// Writer returns an io.Writer for the PTY master side.
func (s *Session) Writer() io.Writer {
	return s.pty
}
