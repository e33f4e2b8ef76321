//go:build !unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"time"
)

// killProcessGroup falls back to killing only the direct child; process
// groups are a unix concept.
func killProcessGroup(*exec.Cmd, time.Duration) func() { return func() {} }

// IsPermissionError reports whether err is a spawn failure caused by
// missing execute or access permission.
func IsPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission)
}
