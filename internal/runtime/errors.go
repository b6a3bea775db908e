package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
)

var (
	ErrInvalidReference   = errors.New("invalid image reference")
	ErrToolingUnavailable = errors.New("container runtime unavailable")
	ErrUnsupportedVersion = errors.New("unsupported container runtime version")
	ErrPullFailed         = errors.New("image pull failed")
)

// Returned by [NewImage] for a URL that cannot be used as an image
// reference. Matches [ErrInvalidReference] and [errdefs.ErrInvalidArgument].
type InvalidReferenceError struct {
	URL    string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidReference, e.URL, e.Reason)
}

func (e *InvalidReferenceError) Unwrap() []error {
	return []error{ErrInvalidReference, errdefs.ErrInvalidArgument}
}

// Returned when the container CLI is missing or its version probe fails.
// Matches [ErrToolingUnavailable] and [errdefs.ErrUnavailable].
type ToolingUnavailableError struct {
	Tool    string // Executable name that was probed.
	Missing bool   // The executable was not found on PATH.
	Output  string // Captured stderr of the probe, if it ran.
	Err     error  // Underlying lookup or exec error.
}

func (e *ToolingUnavailableError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s: the %s command has to be available on PATH in order to run steps in containers", ErrToolingUnavailable, e.Tool)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: failed to get %s version", ErrToolingUnavailable, e.Tool)
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString(":\n")
		b.WriteString(out)
	}
	return b.String()
}

func (e *ToolingUnavailableError) Unwrap() []error {
	errs := []error{ErrToolingUnavailable, errdefs.ErrUnavailable}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Returned when the installed container CLI is older than required.
// Matches [ErrUnsupportedVersion] and [errdefs.ErrFailedPrecondition].
type UnsupportedVersionError struct {
	Runtime  string // Runtime family ("apptainer" or the CLI name).
	Detected string // Version reported by the CLI.
	Required string // Minimum version for the runtime family.
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: minimum %s version is %s, found %q", ErrUnsupportedVersion, e.Runtime, e.Required, e.Detected)
}

func (e *UnsupportedVersionError) Unwrap() []error {
	return []error{ErrUnsupportedVersion, errdefs.ErrFailedPrecondition}
}

// Returned when the pull subprocess fails. Output holds the combined stdout
// and stderr of the CLI. Matches [ErrPullFailed] and [errdefs.ErrUnknown].
type PullFailedError struct {
	URL    string
	Output string
	Err    error
}

func (e *PullFailedError) Error() string {
	msg := fmt.Sprintf("%s: failed to pull image from %s", ErrPullFailed, e.URL)
	if out := strings.TrimSpace(e.Output); out != "" {
		return msg + ":\n" + out
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *PullFailedError) Unwrap() []error {
	errs := []error{ErrPullFailed, errdefs.ErrUnknown}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
