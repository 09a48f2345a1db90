package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config drives the host adapter. Values come from the optional YAML file,
// then environment variables, then CLI flags, in increasing precedence.
type Config struct {
	// Origin URL requests are intercepted for.
	Origin string `yaml:"origin" env:"OFFLINE_CACHE_ORIGIN"`
	// Port to listen on.
	Port int `yaml:"port" env:"OFFLINE_CACHE_PORT"`
	// Store DB file name ("memory" for an in-memory db).
	DB string `yaml:"db" env:"OFFLINE_CACHE_DB"`
	// Cache version. Bumping it forces re-seeding on install and
	// eviction of the previous namespaces on activation.
	Version string `yaml:"version" env:"OFFLINE_CACHE_VERSION"`
	// Namespace name prefix, e.g. "app" yields app-static-v1.
	Prefix string `yaml:"prefix" env:"OFFLINE_CACHE_PREFIX"`
	// App-shell paths seeded on install. Engine defaults if empty.
	SeedPaths []string `yaml:"seedPaths"`
}

func loadConfig(filename string) (Config, error) {
	config := Config{
		Port:    8080,
		DB:      "offline-cache.db",
		Version: "1",
		Prefix:  "app",
	}
	if filename != "" {
		configBytes, err := os.ReadFile(filename)
		if err != nil {
			return config, err
		}
		if err := yaml.Unmarshal(configBytes, &config); err != nil {
			return config, err
		}
	}
	if err := env.Parse(&config); err != nil {
		return config, err
	}
	return config, nil
}

func (c Config) staticNamespace() string {
	return fmt.Sprintf("%s-static-v%s", c.Prefix, c.Version)
}

func (c Config) runtimeNamespace() string {
	return fmt.Sprintf("%s-runtime-v%s", c.Prefix, c.Version)
}
