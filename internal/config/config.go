// Package config loads qadmin settings from ~/.qadmin.yaml, QADMIN_* environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qadmin/internal/format"
	"qadmin/internal/perm"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "QADMIN"
	fileName  = ".qadmin"

	DefaultBaseURL  = "http://127.0.0.1:8080/api/v1"
	DefaultPageSize = 10
	DefaultTimeout  = 30 * time.Second
	DefaultAddr     = "127.0.0.1:8080"
	DefaultDBPath   = "~/.qadmin/qadmin.sqlite"
)

type Config struct {
	BaseURL  string
	Token    string
	PageSize int
	Timeout  time.Duration
	LogFile  string
	Verbose  bool
	Format   string

	// Permissions holds one grant per action name (create, update, ...).
	Permissions map[perm.Action]bool

	Import ImportConfig
	Serve  ServeConfig

	// File is the config file that was read, empty when none was found.
	File string
}

type ImportConfig struct {
	BatchSize int
	Rate      float64
}

type ServeConfig struct {
	Addr  string
	DB    string
	Token string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("token", "")
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)
	v.SetDefault("format", format.JSON)
	for _, a := range perm.Actions {
		v.SetDefault(permKey(a), a != perm.ActionAll)
	}
	v.SetDefault("import.batch_size", 100)
	v.SetDefault("import.rate", 2.0)
	v.SetDefault("serve.addr", DefaultAddr)
	v.SetDefault("serve.db", DefaultDBPath)
	v.SetDefault("serve.token", "")
}

func permKey(a perm.Action) string {
	return "permissions." + strings.ToLower(string(a))
}

// Load reads configuration. An explicit path must exist; otherwise ~/.qadmin.yaml
// and ./.qadmin.yaml are optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		p, err := ExpandPath(path)
		if err != nil {
			return Config{}, err
		}
		v.SetConfigFile(p)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		if override := os.Getenv(EnvPrefix + "_CONFIG_PATH"); override != "" {
			v.AddConfigPath(override)
		}
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		BaseURL:     strings.TrimRight(strings.TrimSpace(v.GetString("base_url")), "/"),
		Token:       strings.TrimSpace(v.GetString("token")),
		PageSize:    v.GetInt("page_size"),
		Timeout:     v.GetDuration("timeout"),
		Verbose:     v.GetBool("verbose"),
		Format:      strings.ToLower(strings.TrimSpace(v.GetString("format"))),
		Permissions: map[perm.Action]bool{},
		Import: ImportConfig{
			BatchSize: v.GetInt("import.batch_size"),
			Rate:      v.GetFloat64("import.rate"),
		},
		Serve: ServeConfig{
			Addr:  strings.TrimSpace(v.GetString("serve.addr")),
			Token: strings.TrimSpace(v.GetString("serve.token")),
		},
		File: v.ConfigFileUsed(),
	}
	for _, a := range perm.Actions {
		cfg.Permissions[a] = v.GetBool(permKey(a))
	}

	var err error
	if cfg.LogFile, err = ExpandPath(v.GetString("log_file")); err != nil {
		return Config{}, err
	}
	if cfg.Serve.DB, err = ExpandPath(v.GetString("serve.db")); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if !format.Valid(c.Format) {
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("config: import.batch_size must be positive, got %d", c.Import.BatchSize)
	}
	if c.Import.Rate < 0 {
		return fmt.Errorf("config: import.rate must not be negative, got %v", c.Import.Rate)
	}
	return nil
}

// Checker turns the permission grants into a perm.Checker for the quality domain.
func (c Config) Checker() perm.Checker {
	var grants []perm.Grant
	for _, a := range perm.Actions {
		if c.Permissions[a] {
			grants = append(grants, perm.Grant{Domain: perm.DomainQuality, Resource: perm.ResourceRejectionCode, Action: a})
		}
	}
	return perm.Static{Grants: grants}
}

// ExpandPath expands a leading ~ and cleans the path. Empty stays empty.
func ExpandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return filepath.Clean(out), nil
}
