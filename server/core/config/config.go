package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override, e.g. SOUNDPOST_PORT.
const EnvPrefix = "SOUNDPOST_"

// Config holds the configuration for the upload server
type Config struct {
	ServerAddr         string   `json:"server_addr"`
	ServerPort         int      `json:"server_port"`
	MaxUploadMegabytes int      `json:"max_upload_megabytes"`
	VerifyVideoContent bool     `json:"verify_video_content"`
	TrustedProxies     []string `json:"trusted_proxies,omitempty"`

	DatabasePath string `json:"database_path"`
	LogPath      string `json:"log_path"`
	LogLevel     string `json:"log_level"`

	TempDir   string `json:"temp_dir"`
	SoundsDir string `json:"sounds_dir"`

	FFmpegPath        string `json:"ffmpeg_path"`
	MixTimeoutSeconds int    `json:"mix_timeout_seconds"`

	Publisher PublisherSettings `json:"publisher"`

	Notifications *NotificationSettings `json:"notifications,omitempty"`
}

// PublisherSettings describes where the external publishing tool lives and what
// directory layout it expects.
type PublisherSettings struct {
	WorkDir               string `json:"work_dir"`
	Interpreter           string `json:"interpreter"`
	Entrypoint            string `json:"entrypoint"`
	VideosDir             string `json:"videos_dir"`
	CookiesDir            string `json:"cookies_dir"`
	CredentialFilePattern string `json:"credential_file_pattern"`
	LockDir               string `json:"lock_dir"`
	TimeoutSeconds        int    `json:"timeout_seconds"`
	SerializeAccounts     bool   `json:"serialize_accounts"`
}

// NotificationSettings configures e-mail alerts about repeated publish failures
type NotificationSettings struct {
	Recipient          string `json:"recipient"`
	SmtpHost           string `json:"smtp_host"`
	SmtpPort           int    `json:"smtp_port"`
	SmtpUser           string `json:"smtp_user"`
	SmtpPass           string `json:"smtp_pass"`
	SmtpSender         string `json:"smtp_sender"`
	FailureThreshold   int    `json:"failure_threshold"`
	WindowMinutes      int    `json:"window_minutes"`
	MinIntervalMinutes int    `json:"min_interval_minutes"`
}

// DefaultConfig returns a new Config with the container layout the publisher ships with
func DefaultConfig() *Config {
	return &Config{
		ServerAddr:         "0.0.0.0",
		ServerPort:         8048,
		MaxUploadMegabytes: 512,
		DatabasePath:       filepath.Join("data", "soundpost.db"),
		LogPath:            "logs",
		LogLevel:           "info",
		TempDir:            os.TempDir(),
		SoundsDir:          "/app/sounds",
		FFmpegPath:         "ffmpeg",
		MixTimeoutSeconds:  300,
		Publisher: PublisherSettings{
			WorkDir:               "/app/TiktokAutoUploader",
			Interpreter:           "python",
			Entrypoint:            "cli.py",
			VideosDir:             "/app/VideosDirPath",
			CookiesDir:            "/app/CookiesDir",
			CredentialFilePattern: "tiktok_session-{account}.cookie",
			LockDir:               filepath.Join(os.TempDir(), "soundpost-locks"),
			TimeoutSeconds:        600,
			SerializeAccounts:     true,
		},
	}
}

// LoadConfig loads the configuration from a JSON file, then applies .env and
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		file, err := os.Open(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err == nil {
			defer file.Close()
			if err := json.NewDecoder(file).Decode(config); err != nil {
				return nil, fmt.Errorf("failed to decode config file: %w", err)
			}
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &c.ServerAddr)
	str("DATABASE_PATH", &c.DatabasePath)
	str("LOG_PATH", &c.LogPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("TEMP_DIR", &c.TempDir)
	str("SOUNDS_DIR", &c.SoundsDir)
	str("FFMPEG_PATH", &c.FFmpegPath)
	str("PUBLISHER_WORK_DIR", &c.Publisher.WorkDir)
	str("PUBLISHER_INTERPRETER", &c.Publisher.Interpreter)
	str("PUBLISHER_ENTRYPOINT", &c.Publisher.Entrypoint)
	str("PUBLISHER_VIDEOS_DIR", &c.Publisher.VideosDir)
	str("PUBLISHER_COOKIES_DIR", &c.Publisher.CookiesDir)
	str("PUBLISHER_LOCK_DIR", &c.Publisher.LockDir)

	for key, dst := range map[string]*int{
		"PORT":                      &c.ServerPort,
		"MAX_UPLOAD_MB":             &c.MaxUploadMegabytes,
		"MIX_TIMEOUT_SECONDS":       &c.MixTimeoutSeconds,
		"PUBLISHER_TIMEOUT_SECONDS": &c.Publisher.TimeoutSeconds,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	if err := flag("VERIFY_VIDEO_CONTENT", &c.VerifyVideoContent); err != nil {
		return err
	}
	return flag("PUBLISHER_SERIALIZE_ACCOUNTS", &c.Publisher.SerializeAccounts)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.ServerPort)
	}
	if c.MaxUploadMegabytes <= 0 {
		return fmt.Errorf("max_upload_megabytes must be positive")
	}
	if c.TempDir == "" {
		return fmt.Errorf("temp_dir is required")
	}
	if c.SoundsDir == "" {
		return fmt.Errorf("sounds_dir is required")
	}
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path is required")
	}
	if c.MixTimeoutSeconds < 0 || c.Publisher.TimeoutSeconds < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}

	p := c.Publisher
	if p.WorkDir == "" || p.Entrypoint == "" {
		return fmt.Errorf("publisher work_dir and entrypoint are required")
	}
	if p.VideosDir == "" || p.CookiesDir == "" {
		return fmt.Errorf("publisher videos_dir and cookies_dir are required")
	}
	if !strings.Contains(p.CredentialFilePattern, "{account}") {
		return fmt.Errorf("publisher credential_file_pattern must contain {account}")
	}
	if p.SerializeAccounts && p.LockDir == "" {
		return fmt.Errorf("publisher lock_dir is required when serialize_accounts is enabled")
	}

	if n := c.Notifications; n != nil {
		if n.Recipient == "" || n.SmtpHost == "" {
			return fmt.Errorf("notifications require recipient and smtp_host")
		}
		if n.SmtpPort <= 0 || n.SmtpPort > 65535 {
			return fmt.Errorf("invalid smtp port: %d", n.SmtpPort)
		}
	}

	return nil
}

// MixTimeout returns the ffmpeg timeout as a duration
func (c *Config) MixTimeout() time.Duration {
	return time.Duration(c.MixTimeoutSeconds) * time.Second
}

// PublishTimeout returns the publisher timeout as a duration
func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.Publisher.TimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the request body limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMegabytes) << 20
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	return nil
}
