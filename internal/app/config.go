package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"codequest/internal/remote"
	"codequest/internal/workspace"
)

const envPrefix = "CODEQUEST_"

// Config controls runtime behavior for the workspace.
type Config struct {
	APIURL      string `yaml:"api_url" env:"API_URL"`
	Token       string `yaml:"token" env:"TOKEN"`
	TokenFile   string `yaml:"token_file" env:"TOKEN_FILE"`
	DataDir     string `yaml:"data_dir" env:"DATA_DIR"`
	LogPath     string `yaml:"log_path" env:"LOG_PATH"`
	ExportDir   string `yaml:"export_dir" env:"EXPORT_DIR"`
	Offline     bool   `yaml:"offline" env:"OFFLINE"`
	PacksDir    string `yaml:"packs_dir" env:"PACKS_DIR"`
	DebugLayout bool   `yaml:"debug_layout" env:"DEBUG_LAYOUT"`

	Remote RemoteConfig `yaml:"remote" envPrefix:"REMOTE_"`
	UI     UIConfig     `yaml:"ui" envPrefix:"UI_"`
}

type RemoteConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Retries int           `yaml:"retries" env:"RETRIES"`
	Breaker bool          `yaml:"breaker" env:"BREAKER"`
}

type UIConfig struct {
	ASCII             bool   `yaml:"ascii" env:"ASCII"`
	CompactBreakpoint int    `yaml:"compact_breakpoint" env:"COMPACT_BREAKPOINT"`
	StyleVariant      string `yaml:"style_variant" env:"STYLE_VARIANT"`
	MotionLevel       string `yaml:"motion_level" env:"MOTION_LEVEL"`
	MouseScope        string `yaml:"mouse_scope" env:"MOUSE_SCOPE"`
}

func DefaultConfig() Config {
	return Config{
		APIURL:    "http://localhost:8000",
		ExportDir: ".",
		Remote: RemoteConfig{
			Timeout: remote.DefaultTimeout,
			Retries: 2,
			Breaker: true,
		},
		UI: UIConfig{
			CompactBreakpoint: workspace.DefaultCompactBreakpoint,
			StyleVariant:      "midnight",
			MotionLevel:       "full",
			MouseScope:        "scoped",
		},
	}
}

// DefaultConfigPath is ~/.config/codequest/config.yaml, or empty when the
// user config directory cannot be resolved.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codequest", "config.yaml")
}

// LoadConfig layers the YAML file at path, the dotenv file and CODEQUEST_*
// environment variables over the defaults. A missing file is an error only
// when its path was given explicitly.
func LoadConfig(path, envFile string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	dotenvExplicit := envFile != ""
	if !dotenvExplicit {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && (dotenvExplicit || !errors.Is(err, fs.ErrNotExist)) {
		return cfg, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.APIURL = strings.TrimSpace(c.APIURL)
	if !c.Offline {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api url %q", c.APIURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("unsupported api url scheme %q", u.Scheme)
		}
	}

	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = remote.DefaultTimeout
	}
	if c.Remote.Retries < 0 {
		return fmt.Errorf("invalid remote retries %d", c.Remote.Retries)
	}
	if c.UI.CompactBreakpoint <= 0 {
		c.UI.CompactBreakpoint = workspace.DefaultCompactBreakpoint
	}

	switch c.UI.StyleVariant {
	case "", "midnight", "daylight", "retro":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "midnight"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	switch c.UI.MouseScope {
	case "", "off", "scoped", "full":
	default:
		return fmt.Errorf("invalid ui mouse scope %q", c.UI.MouseScope)
	}
	if c.UI.MouseScope == "" {
		c.UI.MouseScope = "scoped"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "codequest")
	}
	if c.TokenFile == "" && c.Token == "" && !c.Offline {
		dir, err := os.UserConfigDir()
		if err == nil {
			c.TokenFile = filepath.Join(dir, "codequest", "token")
		}
	}
	if c.ExportDir == "" {
		c.ExportDir = "."
	}
	return nil
}
