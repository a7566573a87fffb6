// Package metrics implements the per-resource metric source ports.
//
// CPU reads host tick counters through gopsutil; RAM, disk, and GPU shell
// out to OS utilities and parse their text output, with system-API
// fallbacks where one exists. All subprocess calls run under the caller's
// context so an expired deadline force-terminates the child.
package metrics

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/doeshing/notchd/internal/ports"
)

// ExecRunner spawns OS utilities on the host.
type ExecRunner struct{}

// NewExecRunner builds the default command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements ports.CommandRunner. The subprocess is killed when ctx
// expires; a timeout is a failure, never a hang.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w (%s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

var _ ports.CommandRunner = (*ExecRunner)(nil)
