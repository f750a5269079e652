//go:build !windows

package runner

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/google/shlex"
)

// buildCommand splits line with POSIX shell quoting rules and runs the
// first word directly.  No shell is involved, so pipes and redirects
// are passed through as literal arguments.
func buildCommand(ctx context.Context, line string) (*exec.Cmd, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("split: no command in %q", line)
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...), nil
}
