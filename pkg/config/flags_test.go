package config

import (
	"path/filepath"
	"testing"
)

func TestConfigDirAndFile(t *testing.T) {
	d := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", d)

	got := configFile()
	want := filepath.Join(d, DirName, ConfigFileName)
	if got.SourceURI() != want {
		t.Errorf("configFile() = %q, want %q", got.SourceURI(), want)
	}
}

func TestFlagsUnique(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	names := map[string]bool{}
	for _, f := range Flags() {
		for _, n := range f.Names() {
			if names[n] {
				t.Errorf("duplicate flag name %q", n)
			}
			names[n] = true
		}
	}

	for _, n := range []string{"github-token", "data-file-patterns", "team-slug-suffix", "thrippy-link-id", "webhook-secret"} {
		if !names[n] {
			t.Errorf("missing flag %q", n)
		}
	}
}
