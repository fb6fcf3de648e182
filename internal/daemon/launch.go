package daemon

import (
	"context"
	"errors"
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"os"
	"os/exec"
)

// IsDeveloperMode reports whether the developer mode marker file exists
func IsDeveloperMode(path string) bool {
	if len(path) <= 0 {
		return false
	}
	return util.FileExists(path)
}

// Launch runs the daemon in the foreground and returns its exit code.
// The process is killed when ctx is cancelled.
func Launch(ctx context.Context, invocation Invocation) (int, error) {
	return launch(ctx, invocation, util.CheckFilePermissionsForExecution)
}

func launch(ctx context.Context, invocation Invocation, checkPermissions func(string) (bool, error)) (int, error) {
	if _, err := checkPermissions(invocation.Executable); err != nil {
		return 1, fmt.Errorf("cannot execute %s: %w", invocation.Executable, err)
	}

	ui.Info("Starting %s", invocation)
	cmd := exec.CommandContext(ctx, invocation.Executable, invocation.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			ui.Warning("%s was stopped: %v", invocation.Executable, ctx.Err())
			return 1, ctx.Err()
		}
		return exitErr.ExitCode(), nil
	}
	return 1, err
}
