package paths

import (
	"path/filepath"
	"testing"

	"github.com/cruciblehq/ctrstep/internal"
)

func TestImages(t *testing.T) {
	dir := Images()
	if filepath.Base(dir) != "images" {
		t.Fatalf("Images() = %q, want .../images", dir)
	}
	if filepath.Base(filepath.Dir(dir)) != internal.Name {
		t.Fatalf("Images() = %q, want parent %q", dir, internal.Name)
	}
}

func TestSearchPathAbsolute(t *testing.T) {
	if p := SearchPath(); !filepath.IsAbs(p) {
		t.Fatalf("SearchPath() = %q, want absolute path", p)
	}
}
