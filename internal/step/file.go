package step

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// A parsed step file.
type File struct {
	Image         string            `yaml:"image"`         // Image URL, local or remote.
	Containerized bool              `yaml:"containerized"` // Whether the workflow itself runs in the image.
	Args          string            `yaml:"args"`          // Extra container CLI arguments.
	Shell         string            `yaml:"shell"`         // Shell used inside the container.
	Workdir       string            `yaml:"workdir"`       // Container working directory.
	Env           map[string]string `yaml:"env"`           // Variables set inside the container.
	Steps         []Step            `yaml:"steps"`         // Steps in execution order.
}

// One entry of a step file. A step with an empty Run is a modifier.
type Step struct {
	Name    string            `yaml:"name"`
	Run     string            `yaml:"run"`
	Args    string            `yaml:"args"`
	Shell   string            `yaml:"shell"`
	Workdir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
	Script  bool              `yaml:"script"` // Mount the host search path for helper scripts.
}

// Environment variable names accepted in env maps.
var envName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Reads and validates a step file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStepFile, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decodes and validates a step file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrStepFile)
		}
		return nil, fmt.Errorf("%w: %w", ErrStepFile, err)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Checks that the file names an image, has at least one runnable step, and
// uses only valid environment variable names.
func (f *File) validate() error {
	if strings.TrimSpace(f.Image) == "" {
		return fmt.Errorf("%w: image is required", ErrStepFile)
	}

	if err := validateEnv(f.Env); err != nil {
		return err
	}

	runnable := false
	for i, s := range f.Steps {
		if err := validateEnv(s.Env); err != nil {
			return fmt.Errorf("step %s: %w", stepLabel(s.Name, i), err)
		}
		if s.Run != "" {
			runnable = true
		}
	}
	if !runnable {
		return fmt.Errorf("%w: no step has a run command", ErrStepFile)
	}
	return nil
}

func validateEnv(env map[string]string) error {
	for k := range env {
		if !envName.MatchString(k) {
			return fmt.Errorf("%w: invalid environment variable name %q", ErrStepFile, k)
		}
	}
	return nil
}
