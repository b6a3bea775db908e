package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/ctrstep/internal/runtime"
)

// Represents the 'ctrstep shellcmd' command.
type ShellcmdCmd struct {
	Image   string            `arg:"" help:"Image path, as printed by pull."`
	Command string            `arg:"" help:"Command to run inside the container."`
	Args    string            `help:"Extra arguments for the container CLI." placeholder:"ARGS"`
	Env     map[string]string `short:"e" help:"Environment variable for the container (repeatable)." placeholder:"NAME=VALUE"`
	Shell   string            `help:"Shell to run the command with inside the container." placeholder:"SHELL"`
	Workdir string            `short:"w" help:"Working directory inside the container; mounts the current directory at /data." placeholder:"DIR"`
	Script  bool              `help:"Mount the ctrstep search path at /mnt/snakemake."`
}

// Executes the shellcmd command.
func (c *ShellcmdCmd) Run(ctx context.Context) error {
	fmt.Println(runtime.ShellCommand(c.Image, c.Command, runtime.ShellOptions{
		Runtime:          RootCmd.Runtime,
		Args:             c.Args,
		Env:              c.Env,
		ShellExecutable:  c.Shell,
		ContainerWorkdir: c.Workdir,
		IsScript:         c.Script,
	}))
	return nil
}
