package runtime

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Returns an image wired to a fake CLI reporting a supported version.
func newTestImage(t *testing.T, url string) (*Image, *fakeExecutor) {
	t.Helper()
	f := versionExecutor("nerdctl version 1.7.6")
	f.results["pull"] = &ExecResult{Stdout: "pulled"}
	img, err := NewImage(url, t.TempDir(), false, WithChecker(NewChecker("nerdctl", f)), WithExecutor(f))
	require.NoError(t, err)
	return img, f
}

func TestNewImageRejectsSpaces(t *testing.T) {
	for _, url := range []string{"alpine latest", " alpine", "docker://a/b c", "/tmp/my image.simg"} {
		t.Run(url, func(t *testing.T) {
			img, err := NewImage(url, t.TempDir(), false)
			require.Nil(t, img)

			var rerr *InvalidReferenceError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, url, rerr.URL)
			assert.ErrorIs(t, err, ErrInvalidReference)
			assert.True(t, errdefs.IsInvalidArgument(err))
		})
	}
}

func TestImageHash(t *testing.T) {
	url := "docker.io/library/alpine:3.19"
	sum := md5.Sum([]byte(url))
	want := hex.EncodeToString(sum[:])

	a, err := NewImage(url, "/cache/a", false)
	require.NoError(t, err)
	b, err := NewImage(url, "/cache/b", true)
	require.NoError(t, err)

	assert.Equal(t, want, a.Hash())
	assert.Equal(t, a.Hash(), a.Hash())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Key(), b.Key())

	c, err := NewImage("docker.io/library/alpine:3.20", "/cache/a", false)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestImageEqual(t *testing.T) {
	a, _ := NewImage("alpine:3.19", "/cache/a", false)
	b, _ := NewImage("alpine:3.19", "/cache/b", true)
	c, _ := NewImage("docker.io/library/alpine:3.19", "/cache/a", false)

	assert.True(t, a.Equal(b), "cache dir and containerized flag do not matter")
	assert.False(t, a.Equal(c), "equality is on URL text, not normalized reference")
	assert.False(t, a.Equal(nil))
}

func TestImageIsLocal(t *testing.T) {
	tests := []struct {
		url   string
		local bool
		path  string
	}{
		{url: "file:///images/tool.simg", local: true, path: "/images/tool.simg"},
		{url: "/images/tool.simg", local: true, path: "/images/tool.simg"},
		{url: "./tool.simg", local: true, path: "./tool.simg"},
		{url: "../tool.simg", local: true, path: "../tool.simg"},
		{url: "images/tool.simg", local: true, path: "images/tool.simg"},
		{url: "tool.sif", local: true, path: "tool.sif"},
		{url: "docker://alpine:3.19", local: false},
		{url: "alpine:3.19", local: false},
		{url: "ghcr.io/org/tool@sha256:0123", local: false},
		{url: "https://example.com/tool.simg", local: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			img, err := NewImage(tt.url, "/cache", false)
			require.NoError(t, err)
			assert.Equal(t, tt.local, img.IsLocal())
			if tt.local {
				assert.Equal(t, tt.path, img.Path())
			} else {
				assert.Equal(t, filepath.Join("/cache", img.Hash()+".simg"), img.Path())
			}
		})
	}
}

func TestImageIsLocalExistingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll("images", 0755))
	require.NoError(t, os.WriteFile(filepath.Join("images", "tool"), []byte("image"), 0644))

	img, err := NewImage("images/tool", "/cache", false)
	require.NoError(t, err)
	assert.True(t, img.IsLocal())
	assert.Equal(t, "images/tool", img.Path())

	dir, err := NewImage("images", "/cache", false)
	require.NoError(t, err)
	assert.False(t, dir.IsLocal(), "directories are not image files")
}

func TestPullLocalNeverInvokesPull(t *testing.T) {
	img, f := newTestImage(t, "file:///images/tool.simg")

	require.NoError(t, img.Pull(context.Background(), false))
	assert.Equal(t, 0, f.count("pull"))
}

func TestPullExistingPathIsNoOp(t *testing.T) {
	img, f := newTestImage(t, "alpine:3.19")
	require.NoError(t, os.WriteFile(img.Path(), []byte("image"), 0644))

	require.NoError(t, img.Pull(context.Background(), false))
	require.NoError(t, img.Pull(context.Background(), false))
	assert.Equal(t, 0, f.count("pull"))
}

func TestPullDryRun(t *testing.T) {
	img, f := newTestImage(t, "alpine:3.19")

	require.NoError(t, img.Pull(context.Background(), true))
	assert.Equal(t, 0, f.count("pull"))
	assert.Equal(t, 1, f.count("--version"), "the CLI is still validated")
	assert.False(t, img.Cached())
}

func TestPullRunsCLI(t *testing.T) {
	img, f := newTestImage(t, "docker://docker.io/library/alpine:3.19")

	require.NoError(t, img.Pull(context.Background(), false))
	require.Equal(t, 1, f.count("pull"))

	var pull ExecRequest
	for _, c := range f.calls {
		if c.Args[0] == "pull" {
			pull = c
		}
	}
	assert.Equal(t, "nerdctl", pull.Name)
	assert.Equal(t, []string{"pull", "docker.io/library/alpine:3.19"}, pull.Args)
	assert.Equal(t, img.cacheDir, pull.Dir)
	assert.True(t, pull.Combine)
}

func TestPullFailure(t *testing.T) {
	img, f := newTestImage(t, "alpine:does-not-exist")
	f.results["pull"] = &ExecResult{ExitCode: 1, Stdout: "manifest unknown"}

	err := img.Pull(context.Background(), false)

	var perr *PullFailedError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "alpine:does-not-exist", perr.URL)
	assert.Equal(t, "manifest unknown", perr.Output)
	assert.ErrorIs(t, err, ErrPullFailed)
	assert.Contains(t, err.Error(), "manifest unknown")
	assert.Contains(t, err.Error(), "alpine:does-not-exist")
}

func TestPullPropagatesCheckError(t *testing.T) {
	f := versionExecutor("0.20.0")
	img, err := NewImage("alpine:3.19", t.TempDir(), false, WithChecker(NewChecker("nerdctl", f)), WithExecutor(f))
	require.NoError(t, err)

	err = img.Pull(context.Background(), false)

	var verr *UnsupportedVersionError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, f.count("pull"))
}

func TestPullCreatesCacheDir(t *testing.T) {
	f := versionExecutor("0.22.2")
	f.results["pull"] = &ExecResult{}
	cache := filepath.Join(t.TempDir(), "nested", "images")

	img, err := NewImage("alpine:3.19", cache, false, WithChecker(NewChecker("nerdctl", f)), WithExecutor(f))
	require.NoError(t, err)
	require.NoError(t, img.Pull(context.Background(), false))

	info, err := os.Stat(cache)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestImageReference(t *testing.T) {
	img, err := NewImage("docker://alpine", "/cache", false)
	require.NoError(t, err)

	named, err := img.Reference()
	require.NoError(t, err)
	assert.Equal(t, "docker.io/library/alpine:latest", named.String())

	local, err := NewImage("/images/tool.simg", "/cache", false)
	require.NoError(t, err)
	_, err = local.Reference()
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestImageDescribe(t *testing.T) {
	img, _ := newTestImage(t, "alpine:3.19")

	_, err := img.Describe()
	require.ErrorIs(t, err, os.ErrNotExist)

	content := []byte("image bytes")
	require.NoError(t, os.WriteFile(img.Path(), content, 0644))

	desc, err := img.Describe()
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(content), desc.Digest)
	assert.Equal(t, int64(len(content)), desc.Size)
	assert.Equal(t, "alpine:3.19", desc.Annotations[ocispec.AnnotationRefName])
}
