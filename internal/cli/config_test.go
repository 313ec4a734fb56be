package cli

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
binary_codec = "json"

[store]
url = "redis://localhost:6379/2"
namespace = "team-a"
`)

	cfg, unknown, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig() error: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unexpected unknown keys %v", unknown)
	}
	want := DefaultConfig()
	want.LogLevel = "debug"
	want.BinaryCodec = "json"
	want.Store = StoreConfig{URL: "redis://localhost:6379/2", Namespace: "team-a"}
	if cfg != want {
		t.Errorf("ReadConfig() = %+v, want %+v", cfg, want)
	}
}

func TestReadConfigUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
indent = 4
colour = "blue"

[server]
addr = ":9090"
tls = true
`)

	cfg, unknown, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig() error: %v", err)
	}
	if cfg.Indent != 4 || cfg.Server.Addr != ":9090" {
		t.Errorf("known keys not applied: %+v", cfg)
	}
	slices.Sort(unknown)
	if want := []string{"colour", "server.tls"}; !slices.Equal(unknown, want) {
		t.Errorf("unknown = %v, want %v", unknown, want)
	}
}

func TestReadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "log_level = "},
		{"wrong type", `indent = "two"`},
		{"negative indent", "indent = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	_, _, err := ReadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("default file missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		c := New(&bytes.Buffer{}, LogInfo)
		if err := c.loadConfig(); err != nil {
			t.Fatalf("loadConfig() error: %v", err)
		}
		if c.Config != DefaultConfig() {
			t.Errorf("Config = %+v, want defaults", c.Config)
		}
	})

	t.Run("default file applied", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", base)
		if err := os.MkdirAll(filepath.Join(base, appName), 0755); err != nil {
			t.Fatal(err)
		}
		content := []byte("log_level = \"debug\"\nindent = 0\n")
		if err := os.WriteFile(filepath.Join(base, appName, configFile), content, 0644); err != nil {
			t.Fatal(err)
		}

		c := New(&bytes.Buffer{}, LogInfo)
		if err := c.loadConfig(); err != nil {
			t.Fatalf("loadConfig() error: %v", err)
		}
		if c.Config.Indent != 0 {
			t.Errorf("Indent = %d, want 0", c.Config.Indent)
		}
		if c.Logger.GetLevel() != log.DebugLevel {
			t.Errorf("level = %v, want debug", c.Logger.GetLevel())
		}
	})

	t.Run("explicit file missing", func(t *testing.T) {
		c := New(&bytes.Buffer{}, LogInfo)
		c.configPath = filepath.Join(t.TempDir(), "missing.toml")
		if err := c.loadConfig(); err == nil {
			t.Error("expected an error for a missing --config file")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		c := New(&bytes.Buffer{}, LogInfo)
		c.configPath = writeConfig(t, `log_level = "chatty"`)
		if err := c.loadConfig(); err == nil {
			t.Error("expected an error for an unknown log level")
		}
	})

	t.Run("unknown keys warned", func(t *testing.T) {
		var logs bytes.Buffer
		c := New(&logs, LogInfo)
		c.configPath = writeConfig(t, `colour = "blue"`)
		if err := c.loadConfig(); err != nil {
			t.Fatalf("loadConfig() error: %v", err)
		}
		if !strings.Contains(logs.String(), "colour") {
			t.Errorf("expected a warning naming the key, got %q", logs.String())
		}
	})
}
