package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/pixelcheck/errors"
)

// EnvPrefix prefixes every environment override, e.g. PIXELCHECK_FIGMA_TOKEN
const EnvPrefix = "PIXELCHECK"

// ConfigFileName is the file searched for at every precedence level
const ConfigFileName = "am.toml"

var (
	globalMu      sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper
)

// Load reads the configuration once and caches it.
// Precedence (lowest to highest): defaults < /etc/pixelcheck/am.toml <
// ~/.pixelcheck/am.toml < project am.toml < environment.
func Load() (*Config, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViperLocked())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for flag binding and key lookups
func GetViper() *viper.Viper {
	globalMu.Lock()
	defer globalMu.Unlock()
	return initViperLocked()
}

// LoadWithViper unmarshals and validates configuration from v
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WithHint(err, "check am.toml or PIXELCHECK_* environment variables")
	}
	return &config, nil
}

// LoadFromFile loads defaults plus one specific file, ignoring the
// environment and the precedence search
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
	viperInstance = nil
}

// NewViper builds a fresh Viper with defaults, config files and environment
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)

	SetDefaults(v)
	mergeConfigFiles(v, configPaths())
	return v
}

func initViperLocked() *viper.Viper {
	if viperInstance == nil {
		viperInstance = NewViper()
	}
	return viperInstance
}

// SearchPaths lists the candidate config files, lowest precedence first.
// Files that do not exist are skipped at load time.
func SearchPaths() []string {
	return configPaths()
}

func configPaths() []string {
	paths := []string{filepath.Join("/etc/pixelcheck", ConfigFileName)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pixelcheck", ConfigFileName))
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// UserConfigPath is ~/.pixelcheck/am.toml
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".pixelcheck", ConfigFileName), nil
}

// findProjectConfig walks up from the working directory to the first am.toml
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges each readable file in order. MergeConfigMap keeps
// nested tables from earlier files and stays below the environment layer.
func mergeConfigFiles(v *viper.Viper, paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tmp := viper.New()
		tmp.SetConfigFile(path)
		tmp.SetConfigType("toml")
		if err := tmp.ReadInConfig(); err != nil {
			continue
		}
		_ = v.MergeConfigMap(tmp.AllSettings())
	}
}
