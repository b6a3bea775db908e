package step

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `
image: docker.io/library/alpine:3.19
args: --net host
workdir: /data
env:
  GREETING: hello
steps:
  - run: echo "$GREETING"
  - env: {GREETING: bye}
  - name: again
    run: echo 'done'
    shell: /bin/ash
    script: true
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	assert.Equal(t, "docker.io/library/alpine:3.19", f.Image)
	assert.Equal(t, "--net host", f.Args)
	assert.Equal(t, "/data", f.Workdir)
	assert.Equal(t, map[string]string{"GREETING": "hello"}, f.Env)
	require.Len(t, f.Steps, 3)
	assert.Equal(t, "again", f.Steps[2].Name)
	assert.True(t, f.Steps[2].Script)
	assert.Equal(t, "bye", f.Steps[1].Env["GREETING"])
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "missing image", data: "steps: [{run: 'true'}]"},
		{name: "no run step", data: "image: alpine\nsteps: [{env: {A: '1'}}]"},
		{name: "unknown key", data: "image: alpine\nimage_url: x\nsteps: [{run: 'true'}]"},
		{name: "malformed", data: "image: [unterminated"},
		{name: "env name with space", data: "image: alpine\nenv: {'A B': x}\nsteps: [{run: 'true'}]"},
		{name: "step env name with metacharacter", data: "image: alpine\nsteps: [{run: 'true', env: {'A;id': x}}]"},
		{name: "env name starting with digit", data: "image: alpine\nenv: {1A: x}\nsteps: [{run: 'true'}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrStepFile)
		})
	}
}

func TestParseEnvValuesUnrestricted(t *testing.T) {
	f, err := Parse([]byte("image: alpine\nenv: {GREETING: hello world; $(id)}\nsteps: [{run: 'true'}]"))
	require.NoError(t, err)
	assert.Equal(t, "hello world; $(id)", f.Env["GREETING"])
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Steps, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrStepFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
