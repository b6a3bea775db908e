package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Represents the 'ctrstep inspect' command.
type InspectCmd struct {
	URL string `arg:"" help:"Image reference to inspect."`
}

// JSON document printed by inspect.
type inspection struct {
	URL        string              `json:"url"`
	Local      bool                `json:"local"`
	Hash       string              `json:"hash"`
	Path       string              `json:"path"`
	Cached     bool                `json:"cached"`
	Reference  string              `json:"reference,omitempty"`
	Descriptor *ocispec.Descriptor `json:"descriptor,omitempty"`
}

// Executes the inspect command.
//
// Nothing is pulled and the container CLI is not invoked. The descriptor is
// included only when the image file exists.
func (c *InspectCmd) Run(ctx context.Context) error {
	img, err := newImage(c.URL, false)
	if err != nil {
		return err
	}

	out := inspection{
		URL:    img.URL(),
		Local:  img.IsLocal(),
		Hash:   img.Hash(),
		Path:   img.Path(),
		Cached: img.Cached(),
	}

	if !img.IsLocal() {
		if named, err := img.Reference(); err == nil {
			out.Reference = named.String()
		}
	}

	if out.Cached {
		desc, err := img.Describe()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err == nil {
			out.Descriptor = &desc
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
