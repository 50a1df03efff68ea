package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"replays/", "replays"},
		{"replays/./sub/..", "replays"},
		{"/data//osu", "/data/osu"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePath(tt.in); got != filepath.FromSlash(tt.want) {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/osu/.cache", filepath.Join(home, "osu", ".cache")},
		{"/abs/.cache", "/abs/.cache"},
		{"rel/~file", "rel/~file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandHome(tt.in)
			if err != nil {
				t.Fatalf("ExpandHome(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("ConfigDir() = %q, want it to end in %q", dir, AppName)
	}
}

func TestIdentity(t *testing.T) {
	got := Identity("replays/", "a.osr")
	want := filepath.Join("replays", "a.osr")
	if got != want {
		t.Errorf("Identity() = %q, want %q", got, want)
	}

	// same root spelled differently maps to the same identity
	if Identity("./replays", "a.osr") != Identity("replays", "a.osr") {
		t.Error("Identity should not depend on redundant path elements")
	}
}
