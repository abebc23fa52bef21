package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent hemicycle configuration stored as
// config.toml in the .hemicycle/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Storage    StorageConfig    `toml:"storage"`
	Fetch      FetchConfig      `toml:"fetch"`
	Classifier ClassifierConfig `toml:"classifier"`
	Linker     LinkerConfig     `toml:"linker"`
	Ingest     IngestConfig     `toml:"ingest"`
	Events     EventsConfig     `toml:"events"`
}

// StorageConfig holds the SQLite database location.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// FetchConfig holds the upstream verbatim-report endpoints.
type FetchConfig struct {
	DocumentURL string `toml:"document_url,omitempty"`
	IndexURL    string `toml:"index_url,omitempty"`
}

// ClassifierConfig holds the LLM provider settings for topic classification.
type ClassifierConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Model     string `toml:"model,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
	RPM       int    `toml:"rpm,omitempty"`
	BatchSize int    `toml:"batch_size,omitempty"`
}

// LinkerConfig holds speaker-to-MEP linking settings.
type LinkerConfig struct {
	SurnameFallback bool `toml:"surname_fallback,omitempty"`
}

// IngestConfig holds ingestion behavior settings.
type IngestConfig struct {
	KeepRaw bool `toml:"keep_raw,omitempty"`
}

// EventsConfig holds Kafka event publishing settings.
type EventsConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"fetch.document_url": {
		get: func(c *Config) string { return c.Fetch.DocumentURL },
		set: func(c *Config, v string) error { c.Fetch.DocumentURL = v; return nil },
	},
	"fetch.index_url": {
		get: func(c *Config) string { return c.Fetch.IndexURL },
		set: func(c *Config, v string) error { c.Fetch.IndexURL = v; return nil },
	},
	"classifier.provider": {
		get: func(c *Config) string { return c.Classifier.Provider },
		set: func(c *Config, v string) error { c.Classifier.Provider = v; return nil },
	},
	"classifier.model": {
		get: func(c *Config) string { return c.Classifier.Model },
		set: func(c *Config, v string) error { c.Classifier.Model = v; return nil },
	},
	"classifier.base_url": {
		get: func(c *Config) string { return c.Classifier.BaseURL },
		set: func(c *Config, v string) error { c.Classifier.BaseURL = v; return nil },
	},
	"classifier.rpm": {
		get: func(c *Config) string {
			if c.Classifier.RPM == 0 {
				return ""
			}
			return strconv.Itoa(c.Classifier.RPM)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for classifier.rpm: %w", err)
			}
			c.Classifier.RPM = n
			return nil
		},
	},
	"classifier.batch_size": {
		get: func(c *Config) string {
			if c.Classifier.BatchSize == 0 {
				return ""
			}
			return strconv.Itoa(c.Classifier.BatchSize)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for classifier.batch_size: %w", err)
			}
			c.Classifier.BatchSize = n
			return nil
		},
	},
	"linker.surname_fallback": {
		get: func(c *Config) string { return strconv.FormatBool(c.Linker.SurnameFallback) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for linker.surname_fallback: %w", err)
			}
			c.Linker.SurnameFallback = b
			return nil
		},
	},
	"ingest.keep_raw": {
		get: func(c *Config) string { return strconv.FormatBool(c.Ingest.KeepRaw) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for ingest.keep_raw: %w", err)
			}
			c.Ingest.KeepRaw = b
			return nil
		},
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
