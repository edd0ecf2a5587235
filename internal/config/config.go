package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/ieshan/bit2"
	"github.com/ieshan/bit2/internal/build"
	"github.com/spf13/viper"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	Debug       bool
	LogFormat   string
	Platform    string
	GitProvider string
	PrivateRepo bool
	Turso       Turso
	DB          DB
	// ConfigFileUsed is empty when no config file was found.
	ConfigFileUsed string
	// Warnings collects invalid values that were replaced by defaults.
	Warnings []string
}

type Turso struct {
	// Group is the placement group passed to "turso db create".
	Group string
}

type DB struct {
	LocalPath string
	Schema    string
	Seed      string
	OnError   bit2.ErrorPolicy
}

// definition mirrors the config file layout.
type definition struct {
	Debug       bool   `mapstructure:"debug"`
	LogFormat   string `mapstructure:"log_format"`
	Platform    string `mapstructure:"platform"`
	GitProvider string `mapstructure:"git_provider"`
	PrivateRepo bool   `mapstructure:"private_repo"`
	Turso       struct {
		Group string `mapstructure:"group"`
	} `mapstructure:"turso"`
	DB struct {
		LocalPath string `mapstructure:"local_path"`
		Schema    string `mapstructure:"schema"`
		Seed      string `mapstructure:"seed"`
		OnError   string `mapstructure:"on_error"`
	} `mapstructure:"db"`
}

var (
	validPlatforms    = []string{"cloudflare", "vercel", "netlify", "node"}
	validGitProviders = []string{"github", "gitlab"}
)

// ValidatePlatform checks a hosting platform name.
func ValidatePlatform(name string) error {
	if !slices.Contains(validPlatforms, strings.ToLower(name)) {
		return fmt.Errorf("invalid platform %q (want one of %s)", name, strings.Join(validPlatforms, ", "))
	}
	return nil
}

// ValidateGitProvider checks a git provider name.
func ValidateGitProvider(name string) error {
	if !slices.Contains(validGitProviders, strings.ToLower(name)) {
		return fmt.Errorf("invalid git provider %q (want one of %s)", name, strings.Join(validGitProviders, ", "))
	}
	return nil
}

// Loader reads configuration from a file, BIT2_* environment variables and
// defaults, in increasing order of precedence: defaults, file, env.
type Loader struct {
	v          *viper.Viper
	configFile string
	configDir  string
	warnings   []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigFile uses the given file instead of searching the config dir.
func WithConfigFile(configFile string) LoaderOption {
	return func(l *Loader) {
		l.configFile = configFile
	}
}

// WithConfigDir overrides the directory searched for config.yaml.
func WithConfigDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.configDir = dir
	}
}

// NewLoader creates a Loader backed by v.
func NewLoader(v *viper.Viper, opts ...LoaderOption) *Loader {
	l := &Loader{
		v:         v,
		configDir: filepath.Join(xdg.ConfigHome, build.Slug),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the configuration with a fresh viper instance.
func Load(opts ...LoaderOption) (*Config, error) {
	return NewLoader(viper.New(), opts...).Load()
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	l.configureViper()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var def definition
	if err := l.v.Unmarshal(&def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg := l.build(def)
	cfg.ConfigFileUsed = l.v.ConfigFileUsed()
	cfg.Warnings = l.warnings
	return cfg, nil
}

func (l *Loader) configureViper() {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.AddConfigPath(l.configDir)
		l.v.SetConfigName("config")
	}
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(strings.ToUpper(build.Slug))
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("debug", false)
	l.v.SetDefault("log_format", "text")
	l.v.SetDefault("platform", "cloudflare")
	l.v.SetDefault("git_provider", "github")
	l.v.SetDefault("private_repo", true)
	l.v.SetDefault("turso.group", "")
	l.v.SetDefault("db.local_path", "local.db")
	l.v.SetDefault("db.schema", filepath.Join("db", "schema.sql"))
	l.v.SetDefault("db.seed", filepath.Join("db", "seed.sql"))
	l.v.SetDefault("db.on_error", "abort")
}

func (l *Loader) build(def definition) *Config {
	cfg := &Config{
		Debug:       def.Debug || os.Getenv("DEBUG") != "",
		LogFormat:   def.LogFormat,
		Platform:    strings.ToLower(def.Platform),
		GitProvider: strings.ToLower(def.GitProvider),
		PrivateRepo: def.PrivateRepo,
		Turso:       Turso{Group: def.Turso.Group},
		DB: DB{
			LocalPath: def.DB.LocalPath,
			Schema:    def.DB.Schema,
			Seed:      def.DB.Seed,
		},
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		l.warnf("Invalid log_format value: %s", def.LogFormat)
		cfg.LogFormat = "text"
	}
	if ValidatePlatform(cfg.Platform) != nil {
		l.warnf("Invalid platform value: %s", def.Platform)
		cfg.Platform = "cloudflare"
	}
	if ValidateGitProvider(cfg.GitProvider) != nil {
		l.warnf("Invalid git_provider value: %s", def.GitProvider)
		cfg.GitProvider = "github"
	}

	policy, err := bit2.ParseErrorPolicy(def.DB.OnError)
	if err != nil {
		l.warnf("Invalid db.on_error value: %s", def.DB.OnError)
	}
	cfg.DB.OnError = policy

	return cfg
}

func (l *Loader) warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
