package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/netmagis/netmagis-ui/internal/errors"
	"github.com/netmagis/netmagis-ui/pkg/remote"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "netmagis-ui.json"

	// DefaultUIListen is the default listen address of the UI host.
	DefaultUIListen = ":8080"

	// DefaultBackendListen is the default listen address of the development backend.
	DefaultBackendListen = ":8081"

	// DefaultPrefix is the path under which the backend serves its resources.
	DefaultPrefix = "/app/"

	// DefaultLanguage is the session language before the first capability fetch.
	DefaultLanguage = "C"

	// DefaultSessionTTL is the lifetime of a development backend session cookie.
	DefaultSessionTTL = "12h"
)

// Config represents the complete netmagis-ui.json configuration.
type Config struct {
	// UI configures the UI host started by "netmagis-ui serve".
	UI UIConfig `json:"ui"`

	// Backend configures the development backend started by "netmagis-ui backend".
	Backend BackendConfig `json:"backend"`

	// Log configures the process logger.
	Log LogConfig `json:"log"`

	configPath    string
	prefixDerived bool
}

// UIConfig contains UI host settings.
type UIConfig struct {
	// Listen is the address the UI host binds to.
	Listen string `json:"listen,omitempty"`

	// Page is the URL of the application page. The backend base is
	// derived from it by dropping the last path segment.
	Page string `json:"page,omitempty"`

	// Title is the HTML page title.
	Title string `json:"title,omitempty"`

	// Language is the session language before the first capability fetch.
	Language string `json:"language,omitempty"`

	// Languages are offered by the language switcher.
	Languages []string `json:"languages,omitempty"`

	// Timeout bounds each backend request (e.g., "10s"). Empty means none.
	Timeout string `json:"timeout,omitempty"`

	// DiscardSuperseded drops responses that a newer request of the same
	// kind has overtaken.
	DiscardSuperseded bool `json:"discardSuperseded,omitempty"`

	// Metrics exposes /metrics on the UI host.
	Metrics bool `json:"metrics,omitempty"`

	// TracerName names the OpenTelemetry tracer of backend requests.
	// Empty keeps the library default.
	TracerName string `json:"tracerName,omitempty"`

	// AllowedOrigins restricts websocket origins. Empty allows same host only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// BackendConfig contains development backend settings.
type BackendConfig struct {
	// Listen is the address the backend binds to.
	Listen string `json:"listen,omitempty"`

	// Prefix is the path the backend resources live under. It must be the
	// directory of ui.page, which is also the path of the session cookie.
	// Empty derives it from ui.page.
	Prefix string `json:"prefix,omitempty"`

	// Secret signs session cookies.
	Secret string `json:"secret,omitempty"`

	// SessionTTL is the lifetime of a session cookie (e.g., "12h").
	SessionTTL string `json:"sessionTTL,omitempty"`

	// Language is answered when neither cookie nor Accept-Language match.
	Language string `json:"language,omitempty"`

	// Languages are the languages with a translation bundle.
	Languages []string `json:"languages,omitempty"`

	// Bundles locates the translation bundles.
	Bundles BundlesConfig `json:"bundles"`

	// Users maps user names to credentials and capabilities.
	Users map[string]UserConfig `json:"users,omitempty"`
}

// BundlesConfig selects the bundle source. S3 wins when a bucket is set.
type BundlesConfig struct {
	// Dir is a directory of <lang>.json or <lang>.yaml files.
	Dir string `json:"dir,omitempty"`

	// S3 reads bundles from an object store.
	S3 S3Config `json:"s3"`
}

// S3Config contains object store settings for translation bundles.
type S3Config struct {
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
}

// UserConfig describes one development backend account.
type UserConfig struct {
	// Password is a bcrypt hash.
	Password string `json:"password"`

	// Capabilities are granted to the user on login.
	Capabilities []string `json:"capabilities,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for netmagis-ui.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("N100").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Pass --config with an existing file or run without one to use defaults")
		}
		return nil, errors.New("N101").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("N101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads path when it is set. Otherwise it loads
// netmagis-ui.json from the working directory if present and falls back
// to defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return New(), nil
	}
	if !Exists(cwd) {
		return New(), nil
	}
	return Load(cwd)
}

// Exists reports whether dir contains a configuration file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("N103").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("N103").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// SetPage replaces ui.page. A backend prefix that was not set explicitly
// follows the new page.
func (c *Config) SetPage(page string) {
	c.UI.Page = page
	if c.prefixDerived {
		c.Backend.Prefix = pagePrefix(page)
	}
}

// pagePrefix returns the directory of page, or DefaultPrefix when page is
// not an absolute URL.
func pagePrefix(page string) string {
	base, err := remote.BaseURL(page)
	if err != nil {
		return DefaultPrefix
	}
	return base.Path
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// UI
	if c.UI.Listen == "" {
		c.UI.Listen = DefaultUIListen
	}
	if c.UI.Title == "" {
		c.UI.Title = "Netmagis"
	}
	if c.UI.Language == "" {
		c.UI.Language = DefaultLanguage
	}
	if c.UI.Languages == nil {
		c.UI.Languages = []string{"en", "fr"}
	}

	// Backend
	if c.Backend.Listen == "" {
		c.Backend.Listen = DefaultBackendListen
	}
	if c.Backend.Prefix != "" {
		if !strings.HasPrefix(c.Backend.Prefix, "/") {
			c.Backend.Prefix = "/" + c.Backend.Prefix
		}
		if !strings.HasSuffix(c.Backend.Prefix, "/") {
			c.Backend.Prefix += "/"
		}
	}

	// Page and prefix describe the same path; fill either from the other.
	if c.UI.Page == "" {
		prefix := c.Backend.Prefix
		if prefix == "" {
			prefix = DefaultPrefix
		}
		c.UI.Page = "http://localhost:" + listenPort(c.Backend.Listen) + prefix
	}
	if c.Backend.Prefix == "" {
		c.Backend.Prefix = pagePrefix(c.UI.Page)
		c.prefixDerived = true
	}
	if c.Backend.SessionTTL == "" {
		c.Backend.SessionTTL = DefaultSessionTTL
	}
	if len(c.Backend.Languages) == 0 {
		c.Backend.Languages = []string{"en", "fr"}
	}
	if c.Backend.Language == "" {
		c.Backend.Language = c.Backend.Languages[0]
	}
	if c.Backend.Bundles.Dir == "" {
		c.Backend.Bundles.Dir = "bundles"
	}
	if c.Backend.Bundles.S3.Region == "" {
		c.Backend.Bundles.S3.Region = "us-east-1"
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// listenPort returns the port of a listen address, or the default backend
// port when addr has none.
func listenPort(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		_, port, _ = net.SplitHostPort(DefaultBackendListen)
	}
	return port
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	base, err := remote.BaseURL(c.UI.Page)
	if err != nil {
		return errors.New("N102").
			WithDetail("ui.page must be an absolute URL, got " + c.UI.Page)
	}
	if base.Path != c.Backend.Prefix {
		return errors.New("N102").
			WithDetail("backend.prefix " + c.Backend.Prefix + " is not the directory of ui.page (" + base.Path + "); the session cookie would not be cleared on disconnect").
			WithSuggestion("Set backend.prefix to " + base.Path + " or leave it empty")
	}
	if _, err := c.Timeout(); err != nil {
		return errors.New("N102").
			WithDetail("ui.timeout: " + err.Error())
	}
	if _, err := c.SessionTTL(); err != nil {
		return errors.New("N102").
			WithDetail("backend.sessionTTL: " + err.Error())
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("N102").
			WithDetail("log.level: " + err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("N102").
			WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	for name, u := range c.Backend.Users {
		if u.Password == "" {
			return errors.New("N102").
				WithDetail("backend.users." + name + " has no password hash")
		}
	}
	return nil
}

// Timeout returns the per-request timeout. Zero means none.
func (c *Config) Timeout() (time.Duration, error) {
	if c.UI.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.UI.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Newf(errors.CategoryConfig, "negative duration %s", c.UI.Timeout)
	}
	return d, nil
}

// SessionTTL returns the lifetime of a development backend session.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Backend.SessionTTL)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Newf(errors.CategoryConfig, "duration must be positive, got %s", c.Backend.SessionTTL)
	}
	return d, nil
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}
