package runtime

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Records calls and answers them from canned results keyed by the first
// argument ("--version", "pull").
type fakeExecutor struct {
	missing bool
	results map[string]*ExecResult
	errs    map[string]error
	calls   []ExecRequest
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		results: map[string]*ExecResult{},
		errs:    map[string]error{},
	}
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.missing {
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeExecutor) Exec(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	f.calls = append(f.calls, req)

	key := ""
	if len(req.Args) > 0 {
		key = req.Args[0]
	}
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if r, ok := f.results[key]; ok {
		return r, nil
	}
	return nil, errors.New("unexpected command: " + req.Name + " " + strings.Join(req.Args, " "))
}

// Number of calls whose first argument is key.
func (f *fakeExecutor) count(key string) int {
	n := 0
	for _, c := range f.calls {
		if len(c.Args) > 0 && c.Args[0] == key {
			n++
		}
	}
	return n
}

// Returns a fake whose CLI reports the given version output.
func versionExecutor(output string) *fakeExecutor {
	f := newFakeExecutor()
	f.results["--version"] = &ExecResult{Stdout: output}
	return f
}
