package runtime

import (
	"cmp"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blang/semver/v4"
)

const (

	// Container CLI invoked when no other is configured.
	DefaultCLI = "nerdctl"

	// Output prefix identifying the alternate runtime family.
	apptainerMarker = "apptainer"

	// Minimum version when the CLI reports itself as apptainer.
	minApptainerVersion = "1.0.0"

	// Minimum version for the Docker-compatible CLI.
	minCLIVersion = "0.22.2"
)

var defaultChecker = sync.OnceValue(func() *Checker {
	return NewChecker(DefaultCLI, HostExecutor{})
})

// Returns the process-wide checker for [DefaultCLI].
//
// Every [Image] created without [WithChecker] shares it, so the version
// probe runs at most once per process.
func DefaultChecker() *Checker {
	return defaultChecker()
}

// Verifies that a container CLI is installed and recent enough.
//
// The first successful [Checker.Check] is cached for the lifetime of the
// checker; later calls return immediately without spawning anything. A failed
// check is not cached and is retried on the next call.
type Checker struct {
	cli     string     // Executable name of the container CLI.
	exec    Executor   // Spawns the version probe.
	mu      sync.Mutex // Guards checked and version.
	checked bool       // Whether a check has succeeded.
	version string     // Version reported by the CLI, valid once checked.
}

// Creates a checker for the given CLI. An empty name uses [DefaultCLI] and a
// nil executor uses [HostExecutor].
func NewChecker(cli string, exec Executor) *Checker {
	if cli == "" {
		cli = DefaultCLI
	}
	if exec == nil {
		exec = HostExecutor{}
	}
	return &Checker{cli: cli, exec: exec}
}

// Returns the executable name of the container CLI.
func (c *Checker) CLI() string {
	return c.cli
}

// Returns the detected CLI version.
//
// Panics if called before [Checker.Check] has succeeded; reading the version
// early is a programming error, not a runtime condition.
func (c *Checker) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checked {
		panic("bug: container runtime version accessed before Check() succeeded")
	}
	return c.version
}

// Ensures the CLI is on PATH and meets the minimum version.
//
// Returns a [*ToolingUnavailableError] if the executable is missing or
// "<cli> --version" fails, and a [*UnsupportedVersionError] if the reported
// version is below the minimum for its runtime family.
func (c *Checker) Check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checked {
		return nil
	}

	if _, err := c.exec.LookPath(c.cli); err != nil {
		return &ToolingUnavailableError{Tool: c.cli, Missing: true, Err: err}
	}

	result, err := c.exec.Exec(ctx, ExecRequest{Name: c.cli, Args: []string{"--version"}})
	if err != nil {
		return &ToolingUnavailableError{Tool: c.cli, Err: err}
	}
	if result.ExitCode != 0 {
		return &ToolingUnavailableError{Tool: c.cli, Output: result.Stderr}
	}

	version, err := parseVersion(c.cli, result.Stdout)
	if err != nil {
		return err
	}

	slog.Debug("container runtime checked", "cli", c.cli, "version", version)

	c.version = version
	c.checked = true
	return nil
}

// Extracts the version from "--version" output and checks it against the
// minimum for its runtime family.
//
// The version is the last whitespace-separated field. Output starting with
// "apptainer" requires 1.0.0 and is taken as-is; anything else requires
// 0.22.2 and has a leading "v" stripped.
func parseVersion(cli, output string) (string, error) {
	output = strings.TrimSpace(output)

	family, required := cli, minCLIVersion
	if strings.HasPrefix(output, apptainerMarker) {
		family, required = apptainerMarker, minApptainerVersion
	}

	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", &UnsupportedVersionError{Runtime: family, Required: required}
	}
	detected := fields[len(fields)-1]
	if family != apptainerMarker {
		detected = strings.TrimPrefix(detected, "v")
	}

	if !atLeast(detected, required) {
		return "", &UnsupportedVersionError{Runtime: family, Detected: detected, Required: required}
	}

	return detected, nil
}

// Whether version is at least minimum under loose dotted comparison.
//
// Plain releases compare as semver. Anything else (pre-release or build
// suffixes, more than three segments) compares by its leading dotted numeric
// segments, missing segments counting as zero; a suffix never lowers a
// version below its numeric part. A version without a leading number never
// satisfies the minimum.
func atLeast(version, minimum string) bool {
	if v, err := semver.ParseTolerant(version); err == nil && len(v.Pre) == 0 {
		return v.GTE(semver.MustParse(minimum))
	}

	segs := numericSegments(version)
	if len(segs) == 0 {
		return false
	}
	return compareSegments(segs, numericSegments(minimum)) >= 0
}

// Returns the leading dotted numeric segments of a version, so "1.0.0-1.el8"
// yields [1 0 0] and "v1.7.6.1" yields [1 7 6 1].
func numericSegments(version string) []uint64 {
	version = strings.TrimPrefix(version, "v")

	var segs []uint64
	for part := range strings.SplitSeq(version, ".") {
		end := strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' })
		if end == -1 {
			end = len(part)
		}
		if end == 0 {
			break
		}
		n, err := strconv.ParseUint(part[:end], 10, 64)
		if err != nil {
			break
		}
		segs = append(segs, n)
		if end < len(part) {
			break
		}
	}
	return segs
}

// Compares two segment lists, padding the shorter with zeros.
func compareSegments(a, b []uint64) int {
	for i := range max(len(a), len(b)) {
		var x, y uint64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}
