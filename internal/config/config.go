package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Source     Source     `yaml:"source"`
	Classifier Classifier `yaml:"classifier"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	Notify     Notify     `yaml:"notify"`
	Media      Media      `yaml:"media"`
	Cleanup    Cleanup    `yaml:"cleanup"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Source struct {
	Platform     string   `yaml:"platform"`
	AccountURL   string   `yaml:"account_url"`
	FeedURL      string   `yaml:"feed_url"`
	LinkPatterns []string `yaml:"link_patterns"`
	MaxPosts     int      `yaml:"max_posts"`
}

type Classifier struct {
	Model       string        `yaml:"model"`
	Endpoint    string        `yaml:"endpoint"`
	APIKeysEnv  string        `yaml:"api_keys_env"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type Pipeline struct {
	Pacing       time.Duration `yaml:"pacing"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type Notify struct {
	Email    Email    `yaml:"email"`
	Telegram Telegram `yaml:"telegram"`
}

type Email struct {
	Enabled     bool     `yaml:"enabled"`
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	UsernameEnv string   `yaml:"username_env"`
	PasswordEnv string   `yaml:"password_env"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to"`
}

type Telegram struct {
	Enabled   bool   `yaml:"enabled"`
	TokenEnv  string `yaml:"token_env"`
	ChatIDEnv string `yaml:"chat_id_env"`
}

type Media struct {
	VideoCommand []string      `yaml:"video_command"`
	ImageTimeout time.Duration `yaml:"image_timeout"`
}

type Cleanup struct {
	Enabled    bool `yaml:"enabled"`
	PurgeCache bool `yaml:"purge_cache"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// platformLinks are the post link fragments of each supported platform.
var platformLinks = map[string][]string{
	"instagram": {"/p/", "/reel/"},
	"facebook":  {"/posts/", "/pfbid", "/reel/", "/videos/"},
}

// ConfigDir returns the XDG config directory for adwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "adwatch")
}

// DataDir returns the XDG data directory for adwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "adwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/adwatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'adwatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Source: Source{
			Platform: "instagram",
			MaxPosts: 12,
		},
		Classifier: Classifier{
			Model:       "gemini-2.5-flash",
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta",
			APIKeysEnv:  "GEMINI_API_KEYS",
			Timeout:     120 * time.Second,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Pipeline: Pipeline{
			Pacing:       30 * time.Second,
			FetchTimeout: 30 * time.Second,
		},
		Notify: Notify{
			Email: Email{
				Enabled:     true,
				Host:        "smtp.gmail.com",
				Port:        587,
				UsernameEnv: "SMTP_USERNAME",
				PasswordEnv: "SMTP_PASSWORD",
			},
			Telegram: Telegram{
				TokenEnv:  "TELEGRAM_BOT_TOKEN",
				ChatIDEnv: "TELEGRAM_CHAT_ID",
			},
		},
		Media: Media{
			ImageTimeout: 30 * time.Second,
		},
		Cleanup: Cleanup{Enabled: true, PurgeCache: true},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Source.Platform = strings.ToLower(strings.TrimSpace(cfg.Source.Platform))
	return cfg, nil
}

// Validate reports configuration that cannot produce a run.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := platformLinks[c.Source.Platform]; !ok {
		errs = append(errs, fmt.Errorf("unknown platform %q", c.Source.Platform))
	}
	if c.Source.AccountURL == "" && c.Source.FeedURL == "" {
		errs = append(errs, errors.New("source needs account_url or feed_url"))
	}
	if c.Classifier.MaxAttempts < 1 {
		errs = append(errs, errors.New("classifier.max_attempts must be at least 1"))
	}
	if c.Notify.Email.Enabled && c.Notify.Email.Host == "" {
		errs = append(errs, errors.New("notify.email.host is required when email is enabled"))
	}
	return errors.Join(errs...)
}

// LinkPatterns returns the configured post link patterns, or the platform's defaults.
func (c *Config) LinkPatterns() []string {
	if len(c.Source.LinkPatterns) > 0 {
		return c.Source.LinkPatterns
	}
	return platformLinks[c.Source.Platform]
}

// APIKeys reads the classifier key pool from the environment. The single-key
// GEMINI_API_KEY variable is used when the pool variable is unset.
func (c *Config) APIKeys() []string {
	raw := os.Getenv(c.Classifier.APIKeysEnv)
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv("GEMINI_API_KEY")
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the checkpoint database location.
func (c *Config) DBPath() string { return filepath.Join(c.GetDataDir(), "adwatch.db") }

// CacheDir returns the classifier response cache directory.
func (c *Config) CacheDir() string { return filepath.Join(c.GetDataDir(), "cache") }

// PostsDir returns the directory for post records and downloaded images.
func (c *Config) PostsDir() string { return filepath.Join(c.GetDataDir(), "posts") }

// DownloadsDir returns the working directory of the video extractor.
func (c *Config) DownloadsDir() string { return filepath.Join(c.GetDataDir(), "downloads") }

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
