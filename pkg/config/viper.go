package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/openhemicycle/hemicycle/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the HEMICYCLE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindPFlag on the subcommand)
//  2. Environment variables (HEMICYCLE_STORAGE_SQLITE_PATH, HEMICYCLE_CLASSIFIER_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: HEMICYCLE_STORAGE_SQLITE_PATH, HEMICYCLE_EVENTS_BROKERS, etc.
	v.SetEnvPrefix("HEMICYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	// Fetch
	v.SetDefault("fetch.document_url", d.Fetch.DocumentURL)
	v.SetDefault("fetch.index_url", d.Fetch.IndexURL)

	// Classifier
	v.SetDefault("classifier.provider", d.Classifier.Provider)
	v.SetDefault("classifier.model", d.Classifier.Model)
	v.SetDefault("classifier.base_url", d.Classifier.BaseURL)
	v.SetDefault("classifier.rpm", d.Classifier.RPM)
	v.SetDefault("classifier.batch_size", d.Classifier.BatchSize)

	// Linker
	v.SetDefault("linker.surname_fallback", d.Linker.SurnameFallback)

	// Ingest
	v.SetDefault("ingest.keep_raw", d.Ingest.KeepRaw)

	// Events
	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
