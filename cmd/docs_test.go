package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func Test_makeDocs(t *testing.T) {
	dir := t.TempDir()
	if err := makeDocs(dir); err != nil {
		t.Fatal(err)
	}

	for _, page := range []string{"ncortho.md", "ncortho_search.md", "ncortho_calibrate.md"} {
		data, err := os.ReadFile(filepath.Join(dir, page))
		if err != nil {
			t.Fatalf("missing page %s: %v", page, err)
		}
		if !strings.HasPrefix(string(data), "---\nlayout: default\n") {
			t.Errorf("%s is missing its front matter", page)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "ncortho_docs.md")); err == nil {
		t.Error("hidden docs command was documented")
	}
}

func Test_linkHandler(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ncortho.md", "/"},
		{"ncortho_search.md", "ncortho_search"},
	}
	for _, tt := range tests {
		if got := linkHandler(tt.in); got != tt.want {
			t.Errorf("linkHandler(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
