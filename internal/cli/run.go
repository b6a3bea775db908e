package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/cruciblehq/ctrstep/internal/paths"
	"github.com/cruciblehq/ctrstep/internal/step"
)

// Represents the 'ctrstep run' command.
type RunCmd struct {
	File   string `arg:"" help:"Step file (YAML)." type:"existingfile"`
	DryRun bool   `short:"n" name:"dryrun" help:"Print the command lines instead of running them."`
}

// Executes the run command.
//
// Step output is streamed to stdout. Steps run from the current directory,
// which is also what gets mounted at /data.
func (c *RunCmd) Run(ctx context.Context) error {
	f, err := step.Load(c.File)
	if err != nil {
		return err
	}

	result, err := step.Run(ctx, f, step.Options{
		CacheDir:    RootCmd.CacheDir,
		Checker:     checker(),
		DryRun:      c.DryRun,
		Output:      os.Stdout,
		HostWorkdir: paths.WorkingDir(),
	})
	if err != nil {
		return err
	}

	slog.Info("steps completed", "steps", result.Steps, "image", result.Image)
	return nil
}
