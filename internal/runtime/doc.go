// Package runtime drives a Docker-compatible container CLI (nerdctl by
// default) to run workflow steps inside containers.
//
// A [Checker] verifies once per process that the CLI is installed and recent
// enough. An [Image] represents one requested image: it knows whether the
// reference is a local file or a remote registry coordinate, derives a
// deterministic cache path from the URL, and pulls through the CLI when the
// cached file is missing. [ShellCommand] renders the command line that runs a
// user command inside the image; executing it is left to the caller.
//
// All subprocesses are spawned through an [Executor]. Errors are typed
// ([*InvalidReferenceError], [*ToolingUnavailableError],
// [*UnsupportedVersionError], [*PullFailedError]) and also match the package
// sentinels and the corresponding containerd errdefs classes.
//
// Example usage:
//
//	img, err := runtime.NewImage("docker.io/library/alpine:3.19", cacheDir, false)
//	if err != nil {
//	    return err
//	}
//
//	if err := img.Pull(ctx, false); err != nil {
//	    return err
//	}
//
//	line := runtime.ShellCommand(img.Path(), "echo 'hello'", runtime.ShellOptions{
//	    Env:              map[string]string{"GREETING": "hi"},
//	    ContainerWorkdir: "/data",
//	})
package runtime
