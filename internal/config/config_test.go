package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netmagis/netmagis-ui/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.UI.Listen != DefaultUIListen {
		t.Errorf("UI.Listen = %q, want %q", cfg.UI.Listen, DefaultUIListen)
	}
	if cfg.UI.Language != DefaultLanguage {
		t.Errorf("UI.Language = %q, want %q", cfg.UI.Language, DefaultLanguage)
	}
	if cfg.Backend.Prefix != DefaultPrefix {
		t.Errorf("Backend.Prefix = %q, want %q", cfg.Backend.Prefix, DefaultPrefix)
	}
	if cfg.Backend.Language != "en" {
		t.Errorf("Backend.Language = %q, want en", cfg.Backend.Language)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want text", cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.HasCode(err, "N100") {
		t.Fatalf("Load(empty dir) error = %v, want N100", err)
	}

	configJSON := `{
  "ui": {
    "listen": "127.0.0.1:9000",
    "page": "https://netmagis.example.org/nm/index.html",
    "timeout": "5s",
    "discardSuperseded": true
  },
  "backend": {
    "prefix": "/nm",
    "languages": ["fr", "en"],
    "users": {"alice": {"password": "$2a$10$abc", "capabilities": ["admin"]}}
  },
  "log": {"level": "debug", "format": "json"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.UI.Listen != "127.0.0.1:9000" {
		t.Errorf("UI.Listen = %q", cfg.UI.Listen)
	}
	if !cfg.UI.DiscardSuperseded {
		t.Error("UI.DiscardSuperseded should be true")
	}
	if cfg.UI.Language != DefaultLanguage {
		t.Errorf("UI.Language = %q, want default", cfg.UI.Language)
	}
	if cfg.Backend.Prefix != "/nm/" {
		t.Errorf("Backend.Prefix = %q, want /nm/", cfg.Backend.Prefix)
	}
	if cfg.Backend.Language != "fr" {
		t.Errorf("Backend.Language = %q, want first listed language", cfg.Backend.Language)
	}
	if got := cfg.Backend.Users["alice"].Capabilities; len(got) != 1 || got[0] != "admin" {
		t.Errorf("alice capabilities = %v", got)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}

	d, err := cfg.Timeout()
	if err != nil || d != 5*time.Second {
		t.Errorf("Timeout() = %v, %v", d, err)
	}
	lvl, err := cfg.LogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, %v", lvl, err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"ui": `), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.HasCode(err, "N101") {
		t.Errorf("LoadFile(truncated) error = %v, want N101", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault without file: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("defaults should have no path, got %q", cfg.Path())
	}

	if err := os.WriteFile(ConfigFileName, []byte(`{"ui": {"title": "NM"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault with file: %v", err)
	}
	if cfg.UI.Title != "NM" {
		t.Errorf("UI.Title = %q, want NM", cfg.UI.Title)
	}

	if _, err := LoadOrDefault(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	if err := cfg.Save(); err == nil {
		t.Error("Save without path should fail")
	}

	cfg.UI.Timeout = "2s"
	cfg.Backend.Bundles.S3.Bucket = "netmagis-bundles"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.UI.Timeout != "2s" || loaded.Backend.Bundles.S3.Bucket != "netmagis-bundles" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"relative page", func(c *Config) { c.UI.Page = "/app/" }},
		{"bad timeout", func(c *Config) { c.UI.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.UI.Timeout = "-1s" }},
		{"zero session ttl", func(c *Config) { c.Backend.SessionTTL = "0s" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"prefix outside page directory", func(c *Config) {
			c.UI.Page = "https://netmagis.example.org/nm/index.html"
			c.Backend.Prefix = "/app/"
		}},
		{"user without hash", func(c *Config) {
			c.Backend.Users = map[string]UserConfig{"bob": {}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.HasCode(err, "N102") {
				t.Errorf("Validate() = %v, want N102", err)
			}
		})
	}
}

func TestBackendPrefixFollowsPage(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantPage   string
		wantPrefix string
	}{
		{
			name:       "defaults",
			json:       `{}`,
			wantPage:   "http://localhost:8081/app/",
			wantPrefix: "/app/",
		},
		{
			name:       "from page",
			json:       `{"ui": {"page": "https://netmagis.example.org/nm/index.html?x=1"}}`,
			wantPage:   "https://netmagis.example.org/nm/index.html?x=1",
			wantPrefix: "/nm/",
		},
		{
			name:       "page from prefix and listen",
			json:       `{"backend": {"listen": "127.0.0.1:9001", "prefix": "nm"}}`,
			wantPage:   "http://localhost:9001/nm/",
			wantPrefix: "/nm/",
		},
		{
			name:       "page at root",
			json:       `{"ui": {"page": "http://localhost:8081/index.html"}}`,
			wantPage:   "http://localhost:8081/index.html",
			wantPrefix: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.json), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if cfg.UI.Page != tt.wantPage {
				t.Errorf("UI.Page = %q, want %q", cfg.UI.Page, tt.wantPage)
			}
			if cfg.Backend.Prefix != tt.wantPrefix {
				t.Errorf("Backend.Prefix = %q, want %q", cfg.Backend.Prefix, tt.wantPrefix)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestSetPage(t *testing.T) {
	cfg := New()
	cfg.SetPage("https://netmagis.example.org/nm/index.html")
	if cfg.Backend.Prefix != "/nm/" {
		t.Errorf("derived prefix = %q, want /nm/", cfg.Backend.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"backend": {"prefix": "/app/"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg.SetPage("https://netmagis.example.org/nm/index.html")
	if cfg.Backend.Prefix != "/app/" {
		t.Errorf("explicit prefix changed to %q", cfg.Backend.Prefix)
	}
	if err := cfg.Validate(); !errors.HasCode(err, "N102") {
		t.Errorf("Validate() = %v, want N102", err)
	}
}
