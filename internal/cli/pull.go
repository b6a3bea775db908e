package cli

import (
	"context"
	"fmt"
)

// Represents the 'ctrstep pull' command.
type PullCmd struct {
	URL           string `arg:"" help:"Image reference (registry reference, docker:// or file:// URL)."`
	DryRun        bool   `short:"n" name:"dryrun" help:"Only report what would be pulled."`
	Containerized bool   `help:"The workflow itself runs in this image."`
}

// Executes the pull command.
//
// Prints the local image path once the image is available.
func (c *PullCmd) Run(ctx context.Context) error {
	img, err := newImage(c.URL, c.Containerized)
	if err != nil {
		return err
	}

	if err := img.Pull(ctx, c.DryRun); err != nil {
		return err
	}

	if !c.DryRun {
		fmt.Println(img.Path())
	}
	return nil
}
