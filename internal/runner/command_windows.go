//go:build windows

package runner

import (
	"context"
	"os"
	"os/exec"
	"syscall"
)

// buildCommand hands line to cmd.exe untouched so built-ins such as dir
// and type work.  CmdLine bypasses Go's argument quoting, which cmd.exe
// would otherwise misread.
func buildCommand(ctx context.Context, line string) (*exec.Cmd, error) {
	shell := os.Getenv("COMSPEC")
	if shell == "" {
		shell = "cmd.exe"
	}
	cmd := exec.CommandContext(ctx, shell)
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: `cmd.exe /C ` + line}
	return cmd, nil
}
