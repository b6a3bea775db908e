package cli

import (
	"context"
	"fmt"
)

// Represents the 'ctrstep check' command.
type CheckCmd struct{}

// Executes the check command.
//
// Prints the CLI name and detected version on success.
func (c *CheckCmd) Run(ctx context.Context) error {
	chk := checker()
	if err := chk.Check(ctx); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", chk.CLI(), chk.Version())
	return nil
}
