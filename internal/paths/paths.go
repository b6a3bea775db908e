package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cruciblehq/ctrstep/internal"
)

// Default permission mode for directories.
const DefaultDirMode os.FileMode = 0755

// Directory under which pulled images are cached.
//
//	Linux:   $XDG_CACHE_HOME/ctrstep/images or ~/.cache/ctrstep/images
//	macOS:   ~/Library/Caches/ctrstep/images
func Images() string {
	return filepath.Join(xdg.CacheHome, internal.Name, "images")
}

// Host directory mounted into containers for script steps.
//
// This is the directory holding the running executable, so helper files
// shipped next to the binary are visible inside the container. Falls back to
// the current working directory if the executable cannot be located.
func SearchPath() string {
	exe, err := os.Executable()
	if err != nil {
		return WorkingDir()
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Returns the current working directory, or "." if it cannot be determined.
func WorkingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
