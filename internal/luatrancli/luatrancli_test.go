// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luatrancli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, out, want string
	}{
		{input: "foo.lua", out: "", want: "foo.py"},
		{input: "a/b/foo.lua", out: "", want: "a/b/foo.py"},
		{input: "foo.lua", out: "bar.py", want: "bar.py"},
	}
	for _, tt := range tests {
		got := outputPath(tt.input, tt.out)
		if filepath.ToSlash(got) != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.input, tt.out, got, tt.want)
		}
	}
}

func TestOutputPathIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	got := outputPath("src/foo.lua", dir)
	want := filepath.Join(dir, "foo.py")
	if got != want {
		t.Errorf("outputPath() = %q, want %q", got, want)
	}
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lua"), "")
	writeFile(t, filepath.Join(dir, "b.txt"), "")
	subdir := filepath.Join(dir, "sub")
	mkdir(t, subdir)
	writeFile(t, filepath.Join(subdir, "c.lua"), "")

	files, err := discoverFiles([]string{dir})
	if err != nil {
		t.Fatalf("discoverFiles(): %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("discoverFiles() = %v, want 2 .lua files", files)
	}
}

func TestLoadConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.jsonc"))
	if err != nil {
		t.Fatalf("loadConfig(): %v", err)
	}
	if cfg.Strict {
		t.Error("loadConfig() of a missing file: Strict = true, want zero value")
	}
}

func TestLoadConfigHuJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	writeFile(t, path, `{
		// allow comments and trailing commas
		"strict": true,
		"importOverrides": {
			"os": "import os as _os",
		},
	}`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig(): %v", err)
	}
	if !cfg.Strict {
		t.Error("cfg.Strict = false, want true")
	}
	if cfg.ImportOverrides["os"] != "import os as _os" {
		t.Errorf("cfg.ImportOverrides[os] = %q, want %q", cfg.ImportOverrides["os"], "import os as _os")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
}
