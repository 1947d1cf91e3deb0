package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// CacheSize bounds the URL verdict cache; 0 disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// DisableCache turns the verdict cache off regardless of CacheSize.
	DisableCache bool `koanf:"disable_cache"`

	// CacheFile is the plain-text filter-list cache, one raw rule per line.
	CacheFile string `koanf:"cache_file" validate:"required"`

	// CacheTTLHours is how long the cache file stays fresh before sources
	// are refetched.
	CacheTTLHours int `koanf:"cache_ttl_hours" validate:"required,gte=1"`

	// FetchTimeoutSeconds bounds a single filter-list download.
	FetchTimeoutSeconds int `koanf:"fetch_timeout_seconds" validate:"required,gte=1"`

	// Sources is the list of filter-list URLs to fetch and merge.
	Sources []string `koanf:"sources" validate:"required,dive,http_url"`

	// Overrides are always-blocked URL substrings checked before the
	// compiled rules.
	Overrides []string `koanf:"overrides"`

	// MetaDB is the path of the source-metadata database; empty disables
	// conditional refetching.
	MetaDB string `koanf:"meta_db"`

	// UpgradeHTTPS reissues main-frame http:// navigations over https.
	UpgradeHTTPS bool `koanf:"upgrade_https"`
}

// DEFAULT_APP_CONFIG defines the default configuration for the filtering
// engine, including the stock public blocklists the browser ships with.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                 "prod",
	LogLevel:            "info",
	CacheSize:           1000,
	DisableCache:        false,
	CacheFile:           "filters_cache.txt",
	CacheTTLHours:       24,
	FetchTimeoutSeconds: 10,
	Sources: []string{
		"https://easylist.to/easylist/easylist.txt",
		"https://easylist.to/easylist/easyprivacy.txt",
		"https://secure.fanboy.co.nz/fanboy-annoyance.txt",
		"https://secure.fanboy.co.nz/fanboy-social.txt",
	},
	Overrides:    nil,
	MetaDB:       "",
	UpgradeHTTPS: false,
}

// envLoader loads environment variables with the prefix "SHIELD_",
// lowercasing keys and splitting space/comma separated values into slices.
// It is a var so tests can substitute it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "SHIELD_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "SHIELD_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads default values using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
