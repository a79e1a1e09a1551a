// Config loading for the airbase CLI. The config directory holds
// config.yaml (connection settings) and secrets.yaml (per-base API keys).
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/airbase/internal/rest"
	"github.com/mesh-intelligence/airbase/pkg/types"
)

const (
	configFileName  = "config"
	secretsFileName = "secrets"
	configFileType  = "yaml"
	configFileExt   = "config.yaml"

	cfgKeyAPIRoot     = "api_root"
	cfgKeyMinInterval = "min_request_interval"
)

// envAPIKey overrides secrets.yaml with a single key for all bases.
const envAPIKey = "AIRBASE_API_KEY"

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Airbase CLI configuration

# REST API root URL
api_root: https://api.airtable.com/v0

# Minimum delay between consecutive requests
min_request_interval: 200ms
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyAPIRoot, types.DefaultAPIRoot)
	v.SetDefault(cfgKeyMinInterval, rest.DefaultMinInterval.String())
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// loadTokens builds the token source for API calls. The AIRBASE_API_KEY
// environment variable takes precedence; otherwise secrets.yaml maps
// base IDs to API keys. Base IDs are case-sensitive, so the file is
// parsed directly rather than through Viper.
func loadTokens(configDir string) (rest.TokenSource, error) {
	if key := os.Getenv(envAPIKey); key != "" {
		return rest.StaticToken(key), nil
	}

	path := filepath.Join(configDir, secretsFileName+"."+configFileType)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no API keys: set %s or create %s", envAPIKey, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}

	tokens := rest.TokenMap{}
	if err := yaml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}
	return tokens, nil
}

// newClient builds a REST client from the resolved config directory.
func newClient() (*rest.Client, error) {
	configDir := resolveConfigDir()

	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}

	tokens, err := loadTokens(configDir)
	if err != nil {
		return nil, err
	}

	opts := []rest.Option{rest.WithRoot(cfg.GetString(cfgKeyAPIRoot))}
	if raw := cfg.GetString(cfgKeyMinInterval); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgKeyMinInterval, err)
		}
		opts = append(opts, rest.WithMinInterval(interval))
	}

	return rest.New(tokens, opts...), nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
