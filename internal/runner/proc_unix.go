//go:build unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// killProcessGroup starts the command in its own process group and makes
// context cancellation terminate the whole group, so children spawned by
// the command (hooks, pagers, credential helpers) die with it. The group
// gets SIGTERM first, which lets git remove its lock files, then SIGKILL
// after grace. The returned func must be called once Wait has returned.
func killProcessGroup(cmd *exec.Cmd, grace time.Duration) (done func()) {
	var (
		mu     sync.Mutex
		exited bool
		timer  *time.Timer
	)
	signalGroup := func(sig unix.Signal) error {
		mu.Lock()
		defer mu.Unlock()
		if exited || cmd.Process == nil {
			return os.ErrProcessDone
		}
		err := unix.Kill(-cmd.Process.Pid, sig)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := signalGroup(unix.SIGTERM)
		if err != nil {
			return err
		}
		mu.Lock()
		timer = time.AfterFunc(grace, func() { _ = signalGroup(unix.SIGKILL) })
		mu.Unlock()
		return nil
	}
	return func() {
		mu.Lock()
		defer mu.Unlock()
		// The leader is reaped, so its pid may be reused; stop signalling.
		// Stragglers that outlive a graceful exit get the kill now.
		if timer != nil && timer.Stop() && cmd.Process != nil {
			_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		}
		exited = true
	}
}

// IsPermissionError reports whether err is a spawn failure caused by
// missing execute or access permission.
func IsPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}
