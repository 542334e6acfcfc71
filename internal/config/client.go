package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ClientConfig configures the focus terminal client.
type ClientConfig struct {
	ServerURL string `mapstructure:"server_url"`
	DataDir   string `mapstructure:"data_dir"`
	LogLevel  string `mapstructure:"log_level"`
	LogFile   string `mapstructure:"log_file"`
}

// DefaultClientDir is ~/.focus, or .focus when the home dir is unknown.
func DefaultClientDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focus"
	}
	return filepath.Join(home, ".focus")
}

// LoadClient merges defaults, the optional YAML file at path (or
// <DefaultClientDir>/config.yaml when path is empty) and FOCUS_* variables.
func LoadClient(path string) (ClientConfig, error) {
	dir := DefaultClientDir()

	v := viper.New()
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("data_dir", dir)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetEnvPrefix("FOCUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return ClientConfig{}, fmt.Errorf("read client config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return ClientConfig{}, fmt.Errorf("stat client config: %w", err)
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse client config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return cfg, nil
}
