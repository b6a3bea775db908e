package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	undefined  = "(undefined)" // Placeholder for build variables left unset.
	localBuild = "(local)"     // Reported instead of a version for developer builds.
	mainBranch = "main"        // Stage omitted from version strings.
)

// Set with -ldflags "-X github.com/cruciblehq/ctrstep/internal.<name>=<value>".
var (
	version   = ""
	stage     = ""
	gitCommit = ""

	rawQuiet   = "false"
	rawDebug   = "false"
	rawVerbose = "false"
)

// Returns the release version without a leading "v", or "(undefined)".
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return undefined
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the release stage (git branch), or "(undefined)".
func Stage() string {
	return orUndefined(strings.ToLower(strings.TrimSpace(stage)))
}

// Returns the git commit the binary was built from, or "(undefined)".
func GitCommit() string {
	return orUndefined(strings.TrimSpace(gitCommit))
}

// Whether the binary was built outside the release pipeline, i.e. any of the
// version, stage or commit variables is missing.
func IsLocal() bool {
	for _, v := range []string{version, stage, gitCommit} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Returns "<version>[+<stage>] <commit> [<arch>]", or "(local)" for
// developer builds. The stage is omitted for main.
func VersionString() string {
	if IsLocal() {
		return localBuild
	}

	suffix := ""
	if s := Stage(); s != mainBranch {
		suffix = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), suffix, GitCommit(), runtime.GOARCH)
}

func orUndefined(s string) string {
	if s == "" {
		return undefined
	}
	return s
}
