package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	Mail        MailConfig        `mapstructure:"mail"`
	Submissions SubmissionsConfig `mapstructure:"submissions"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr          string   `mapstructure:"addr"`
	Port          string   `mapstructure:"port"` // legacy PORT; wins over addr when set
	AllowOrigins  []string `mapstructure:"allow_origins"`
	ServeFrontend bool     `mapstructure:"serve_frontend"`
	BodyLimit     string   `mapstructure:"body_limit"` // echo size string, e.g. 100K
}

// ListenAddr returns the address the HTTP server binds to.
func (h HTTPConfig) ListenAddr() string {
	if p := strings.TrimSpace(h.Port); p != "" {
		return ":" + strings.TrimPrefix(p, ":")
	}
	return h.Addr
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MailConfig struct {
	Driver          string        `mapstructure:"driver"` // smtp | log
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	SSL             bool          `mapstructure:"ssl"`
	TLSPolicy       string        `mapstructure:"tls_policy"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	From            string        `mapstructure:"from"`
	Recipient       string        `mapstructure:"recipient"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	GreetingTimeout time.Duration `mapstructure:"greeting_timeout"`
	SocketTimeout   time.Duration `mapstructure:"socket_timeout"`
}

// Sender returns the envelope From; falls back to the SMTP username like the
// old Gmail setup did.
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.Username
}

type SubmissionsConfig struct {
	Dir            string `mapstructure:"dir"`
	RecentLimit    int    `mapstructure:"recent_limit"`
	MessagePreview int    `mapstructure:"message_preview"`
}

// legacyEnv maps config keys to the env names the old deployment used.
var legacyEnv = map[string]string{
	"http.port":      "PORT",
	"mail.username":  "EMAIL_USER",
	"mail.password":  "EMAIL_PASS",
	"mail.recipient": "RECIPIENT_EMAIL",
}

// Load reads .env (if present), embedded defaults, merges user YAML (if provided),
// and applies env overrides (CONTACT_*, plus the legacy names above).
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	// user config; a missing file is fine, a broken one is not
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil && !isNotFound(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (CONTACT_*)
	v.SetEnvPrefix("CONTACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "CONTACT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &nf)
}
