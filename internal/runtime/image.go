package runtime

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cruciblehq/ctrstep/internal/paths"
	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (

	// Suffix of cached image files.
	imageExt = ".simg"

	// Suffix of SIF image files.
	sifExt = ".sif"

	// Scheme marking a local file reference.
	fileScheme = "file://"

	// Scheme accepted on remote references and removed before pulling.
	dockerScheme = "docker://"

	// Media type reported for cached image files, whose format is owned by
	// the container CLI.
	cachedImageMediaType = "application/octet-stream"
)

// A container image requested by a workflow step.
//
// Remote images are cached under the cache directory as "<hash>.simg",
// where hash is the MD5 of the URL text. The key is the URL, not the image
// content, so two URLs naming identical images occupy two cache entries.
type Image struct {
	url           string   // Reference as given by the caller.
	cacheDir      string   // Directory holding pulled images.
	containerized bool     // Whether the workflow itself runs in this image.
	hash          string   // Hex MD5 of url.
	local         bool     // Whether url names a local file.
	checker       *Checker // Validates the CLI before pulling.
	exec          Executor // Spawns the pull.
}

// Configures an [Image].
type ImageOption func(*Image)

// Uses the given checker instead of [DefaultChecker]. The checker's CLI is
// also the one used to pull.
func WithChecker(c *Checker) ImageOption {
	return func(img *Image) {
		img.checker = c
	}
}

// Uses the given executor to spawn the pull.
func WithExecutor(e Executor) ImageOption {
	return func(img *Image) {
		img.exec = e
	}
}

// Creates an image reference.
//
// Returns an [*InvalidReferenceError] if url contains a space. No subprocess
// is started.
func NewImage(url, cacheDir string, containerized bool, opts ...ImageOption) (*Image, error) {
	if strings.Contains(url, " ") {
		return nil, &InvalidReferenceError{URL: url, Reason: "image URL contains whitespace"}
	}

	img := &Image{
		url:           url,
		cacheDir:      cacheDir,
		containerized: containerized,
		hash:          hashURL(url),
		local:         isLocalURL(url),
	}

	for _, opt := range opts {
		opt(img)
	}

	if img.checker == nil {
		img.checker = DefaultChecker()
	}
	if img.exec == nil {
		img.exec = HostExecutor{}
	}

	return img, nil
}

// Returns the URL the image was created with.
func (img *Image) URL() string {
	return img.url
}

// Whether the workflow itself runs inside this image.
func (img *Image) IsContainerized() bool {
	return img.containerized
}

// Whether the URL names a file on the local filesystem. Decided once, when
// the image is created.
func (img *Image) IsLocal() bool {
	return img.local
}

// True for "file://" URLs and for scheme-less URLs that look like filesystem
// paths: explicit path prefixes ("/", "./", "../", "~/"), image file suffixes
// (".simg", ".sif"), or an existing regular file. Scheme-less registry
// references such as "alpine:3.19" are remote.
func isLocalURL(url string) bool {
	if strings.HasPrefix(url, fileScheme) {
		return true
	}
	if strings.Contains(url, "://") {
		return false
	}
	for _, prefix := range []string{"/", "./", "../", "~/"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	if strings.HasSuffix(url, imageExt) || strings.HasSuffix(url, sifExt) {
		return true
	}
	info, err := os.Stat(url)
	return err == nil && info.Mode().IsRegular()
}

// Returns the hex MD5 digest of the URL.
//
// Used only as a cache key; it is not a content checksum.
func (img *Image) Hash() string {
	return img.hash
}

// Returns the identity key for maps and sets. Equal images have equal keys.
func (img *Image) Key() string {
	return img.hash
}

// Whether both images have the same URL. The cache directory and the
// containerized flag do not take part.
func (img *Image) Equal(other *Image) bool {
	if img == nil || other == nil {
		return img == other
	}
	return img.url == other.url
}

// Returns where the image lives on disk.
//
// Local images resolve to their own path. Remote images resolve to
// "<cacheDir>/<hash>.simg", which is where the CLI is expected to materialize
// them.
func (img *Image) Path() string {
	if img.IsLocal() {
		return strings.TrimPrefix(img.url, fileScheme)
	}
	return filepath.Join(img.cacheDir, img.hash) + imageExt
}

// Returns the reference passed to "<cli> pull".
func (img *Image) pullRef() string {
	return strings.TrimPrefix(img.url, dockerScheme)
}

// Returns the normalized registry reference of a remote image, e.g.
// "docker.io/library/alpine:latest" for "alpine".
func (img *Image) Reference() (reference.Named, error) {
	if img.IsLocal() {
		return nil, &InvalidReferenceError{URL: img.url, Reason: "local images have no registry reference"}
	}
	named, err := reference.ParseNormalizedNamed(img.pullRef())
	if err != nil {
		return nil, &InvalidReferenceError{URL: img.url, Reason: err.Error()}
	}
	return reference.TagNameOnly(named), nil
}

// Makes the image available locally.
//
// The CLI is validated first and its errors are returned unchanged. Local
// images need nothing further. With dryrun set, the pull is only announced.
// Otherwise, if [Image.Path] does not exist yet, "<cli> pull <ref>" runs in
// the cache directory; a non-zero exit yields a [*PullFailedError] carrying
// the combined output. An existing file is never refreshed.
func (img *Image) Pull(ctx context.Context, dryrun bool) error {
	if err := img.checker.Check(ctx); err != nil {
		return err
	}

	if img.IsLocal() {
		return nil
	}

	if dryrun {
		slog.Info("container image will be pulled", "url", img.url)
		return nil
	}

	path := img.Path()
	slog.Debug("container image location", "path", path)

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	slog.Info("pulling container image", "url", img.url)

	if err := os.MkdirAll(img.cacheDir, paths.DefaultDirMode); err != nil {
		return &PullFailedError{URL: img.url, Err: err}
	}

	result, err := img.exec.Exec(ctx, ExecRequest{
		Name:    img.checker.CLI(),
		Args:    []string{"pull", img.pullRef()},
		Dir:     img.cacheDir,
		Combine: true,
	})
	if err != nil {
		return &PullFailedError{URL: img.url, Err: err}
	}
	if result.ExitCode != 0 {
		return &PullFailedError{
			URL:    img.url,
			Output: result.Stdout,
			Err:    fmt.Errorf("exit code %d", result.ExitCode),
		}
	}

	return nil
}

// Whether the image file is present on disk.
func (img *Image) Cached() bool {
	_, err := os.Stat(img.Path())
	return err == nil
}

// Describes the on-disk image file as an OCI descriptor.
//
// The digest is the sha256 of the file content. Returns an error wrapping
// [os.ErrNotExist] if the image has not been pulled.
func (img *Image) Describe() (ocispec.Descriptor, error) {
	f, err := os.Open(img.Path())
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if info.IsDir() {
		return ocispec.Descriptor{}, errors.New("image path is a directory")
	}

	dgst, err := digest.Canonical.FromReader(f)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	return ocispec.Descriptor{
		MediaType: cachedImageMediaType,
		Digest:    dgst,
		Size:      info.Size(),
		Annotations: map[string]string{
			ocispec.AnnotationRefName: img.url,
		},
	}, nil
}

// Hex MD5 of a URL.
func hashURL(url string) string {
	h := md5.Sum([]byte(url))
	return hex.EncodeToString(h[:])
}
