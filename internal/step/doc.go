// Package step runs workflow steps inside a container image.
//
// A step file names one image and an ordered list of shell steps. The image
// is pulled once through the runtime package, then each step's command line
// is built with [runtime.ShellCommand] and executed by the host shell. Steps
// run strictly in order and the first failure stops the run.
//
// Modifiers (shell, workdir, env, args) set at file level persist across all
// steps. A step that carries a run command may override them for itself only;
// a step without a run command is a pure modifier and updates the persistent
// values for every step after it.
//
// Env variables are set inside the container through "-e" flags on the
// container CLI. A containerized file is one whose workflow already runs
// inside the image; its steps skip the pull and run directly in the host
// shell with the variables in its environment.
//
// Example step file:
//
//	image: docker.io/library/alpine:3.19
//	workdir: /data
//	env:
//	  GREETING: hello
//	steps:
//	  - run: echo "$GREETING" > out.txt
//	  - env: {GREETING: bye}
//	  - name: again
//	    run: echo "$GREETING" >> out.txt
//	    shell: /bin/ash
//
// Example usage:
//
//	f, err := step.Load("steps.yaml")
//	if err != nil {
//	    return err
//	}
//
//	result, err := step.Run(ctx, f, step.Options{CacheDir: paths.Images()})
//	if err != nil {
//	    return err
//	}
package step
