package step

import "maps"

// Tracks accumulated modifiers during step execution.
//
// State flows linearly through the step list. Modifier steps update the state
// permanently via apply. Run steps read the effective values for a single
// step via resolve without modifying the persistent state.
type stepState struct {
	args    string
	shell   string
	workdir string
	env     map[string]string
}

// Creates a [stepState] seeded with the file-level modifiers.
func newStepState(f *File) *stepState {
	s := &stepState{
		args:    f.Args,
		shell:   f.Shell,
		workdir: f.Workdir,
		env:     make(map[string]string, len(f.Env)),
	}
	maps.Copy(s.env, f.Env)
	return s
}

// Persists modifier fields from a step into the state.
func (s *stepState) apply(step Step) {
	if step.Args != "" {
		s.args = step.Args
	}
	if step.Shell != "" {
		s.shell = step.Shell
	}
	if step.Workdir != "" {
		s.workdir = step.Workdir
	}
	maps.Copy(s.env, step.Env)
}

// Returns a new [stepState] with step-level modifiers overlaid on the
// persistent state. The receiver is not modified.
func (s *stepState) resolve(step Step) *stepState {
	resolved := &stepState{
		args:    s.args,
		shell:   s.shell,
		workdir: s.workdir,
		env:     make(map[string]string, len(s.env)+len(step.Env)),
	}
	maps.Copy(resolved.env, s.env)
	resolved.apply(step)
	return resolved
}
