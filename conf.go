package studyplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "STUDYPLAN_"

	DefaultHost            = "localhost"
	DefaultPort            = 3000
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "INFO"
	DefaultTokenTTL        = 7 * 24 * time.Hour
	DefaultAssistantModel  = "gpt-4o-mini"
	DefaultMaxTokens       = 350
	DefaultAssistantTO     = 20 * time.Second
	DefaultRateLimit       = 1.0
	DefaultBurst           = 3
	DefaultServerURL       = "http://localhost:3000"
	DefaultClientTimeout   = 5 * time.Second

	maxConfigFileSize = 1024 * 1024
)

var (
	userHome, _        = os.UserHomeDir()
	DefaultDatabaseURL = path.Join(userHome, ".studyplan", "studyplan.db")
	DefaultCachePath   = path.Join(userHome, ".studyplan", "board.json")
	DefaultTokenPath   = path.Join(userHome, ".studyplan", "token")
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Auth      AuthConfig      `koanf:"auth"`
	Assistant AssistantConfig `koanf:"assistant"`
	Client    ClientConfig    `koanf:"client"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowOrigins    []string      `koanf:"allow_origins"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	Path  string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret  Secret        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

type AssistantConfig struct {
	APIKey    Secret        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	BaseURL   string        `koanf:"base_url"`
	MaxTokens int           `koanf:"max_tokens"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

type ClientConfig struct {
	ServerURL string        `koanf:"server_url"`
	Timeout   time.Duration `koanf:"timeout"`
	CachePath string        `koanf:"cache_path"`
	TokenPath string        `koanf:"token_path"`
}

type LoadOptions struct {
	// ConfigPath is an optional YAML file.
	ConfigPath string
	// EnvFile is a dotenv file merged into the environment. Defaults to .env
	// in the working directory; a missing file is not an error.
	EnvFile string
}

// LoadConfig merges, from lowest to highest precedence: defaults, the YAML
// file, and STUDYPLAN_* environment variables (including those from the
// dotenv file). Env names map SECTION_FIELD_NAME -> section.field_name.
func LoadConfig(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	if opts.ConfigPath != "" {
		content, err := readConfigFile(opts.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", opts.ConfigPath, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyLegacyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps STUDYPLAN_AUTH_JWT_SECRET to auth.jwt_secret.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return io.ReadAll(f)
}

// applyLegacyEnv honours the unprefixed variable names older deployments use.
func applyLegacyEnv(cfg *Config) error {
	if cfg.Server.Port == 0 {
		if v := os.Getenv("PORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid PORT %q: %w", v, err)
			}
			cfg.Server.Port = port
		}
	}
	if !cfg.Auth.JWTSecret.IsSet() {
		cfg.Auth.JWTSecret = Secret(os.Getenv("JWT_SECRET"))
	}
	if cfg.Auth.TokenTTL == 0 {
		if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
			ttl, err := ParseTTL(v)
			if err != nil {
				return fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", v, err)
			}
			cfg.Auth.TokenTTL = ttl
		}
	}
	if !cfg.Assistant.APIKey.IsSet() {
		cfg.Assistant.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	}
	return nil
}

var daysRe = regexp.MustCompile(`^(\d+)d$`)

// ParseTTL accepts Go durations plus a whole-day form such as "7d".
func ParseTTL(s string) (time.Duration, error) {
	if m := daysRe.FindStringSubmatch(s); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"*"}
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = DefaultDatabaseURL
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}

	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = DefaultAssistantModel
	}
	if cfg.Assistant.MaxTokens == 0 {
		cfg.Assistant.MaxTokens = DefaultMaxTokens
	}
	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = DefaultAssistantTO
	}
	if cfg.Assistant.RateLimit == 0 {
		cfg.Assistant.RateLimit = DefaultRateLimit
	}
	if cfg.Assistant.Burst == 0 {
		cfg.Assistant.Burst = DefaultBurst
	}

	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = DefaultServerURL
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = DefaultClientTimeout
	}
	if cfg.Client.CachePath == "" {
		cfg.Client.CachePath = DefaultCachePath
	}
	if cfg.Client.TokenPath == "" {
		cfg.Client.TokenPath = DefaultTokenPath
	}
}

// Validate checks settings shared by every binary.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("token ttl cannot be negative")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Assistant.RateLimit < 0 {
		return fmt.Errorf("assistant rate limit cannot be negative")
	}
	return nil
}

// ValidateServer checks settings the API server cannot run without.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.Auth.JWTSecret.IsSet() {
		return fmt.Errorf("auth.jwt_secret is required (set %sAUTH_JWT_SECRET or JWT_SECRET)", EnvPrefix)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	return nil
}

// Secret wraps strings that must not appear in logs or serialized config.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// Value returns the raw secret.
func (s Secret) Value() string {
	return string(s)
}

func (s Secret) IsSet() bool {
	return s != ""
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
