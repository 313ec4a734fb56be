package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config is the contents of config.toml. Keys missing from the file keep
// their defaults.
//
//	log_level    = "info"
//	indent       = 2
//	binary_codec = "msgpack"
//
//	[store]
//	url       = "redis://localhost:6379/0"
//	namespace = "team-a"
//
//	[server]
//	addr = ":8080"
type Config struct {
	LogLevel    string       `toml:"log_level"`
	Indent      int          `toml:"indent"`
	BinaryCodec string       `toml:"binary_codec"`
	Store       StoreConfig  `toml:"store"`
	Server      ServerConfig `toml:"server"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	// URL is passed to store.Open. Empty means a file store below the
	// XDG data directory.
	URL string `toml:"url"`

	// Namespace scopes every key, so several users can share one store.
	Namespace string `toml:"namespace"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Indent:      2,
		BinaryCodec: "msgpack",
		Server:      ServerConfig{Addr: ":8080"},
	}
}

// ReadConfig decodes the TOML file at path over the defaults. Unknown keys
// are returned so callers can warn about them.
func ReadConfig(path string) (Config, []string, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if cfg.Indent < 0 {
		return cfg, nil, fmt.Errorf("read config %s: indent must not be negative", path)
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	return cfg, unknown, nil
}

// loadConfig reads the --config file, or the default file if it exists,
// and applies its log level.
func (c *CLI) loadConfig() error {
	path := c.configPath
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(dir, configFile)
	}

	cfg, unknown, err := ReadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			c.Logger.Debug("no config file", "path", path)
			return nil
		}
		return err
	}
	for _, k := range unknown {
		c.Logger.Warn("unknown config key", "key", k, "path", path)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	c.Config = cfg
	c.SetLogLevel(level)
	c.Logger.Debug("loaded config", "path", path)
	return nil
}
