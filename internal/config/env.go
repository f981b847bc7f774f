package config

import (
	"fmt"
	"sort"

	"github.com/joho/godotenv"
)

// loadEnvFile reads store tuning overrides from a dotenv file into
// cfg.StoreEnv. The keys are opaque to the harness; they are passed
// verbatim into the environment of every spawned store process
// (JAVA_OPTIONS for the JVM heap, Virtuoso buffer settings, ...).
func loadEnvFile(cfg *Config) error {
	env, err := godotenv.Read(cfg.EnvFile)
	if err != nil {
		return fmt.Errorf("env file %s: %w", cfg.EnvFile, err)
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cfg.StoreEnv = append(cfg.StoreEnv, k+"="+env[k])
	}
	return nil
}
