package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var ErrInvalidParams = errors.New("invalid store parameters")

// Params are the fixed capacities of one store instance.
type Params struct {
	MaxInodeCount     int `yaml:"max_inode_count" mapstructure:"max_inode_count"`
	MaxBlockCount     int `yaml:"max_block_count" mapstructure:"max_block_count"`
	MaxOpenFilesCount int `yaml:"max_open_files_count" mapstructure:"max_open_files_count"`
	BlockSize         int `yaml:"block_size" mapstructure:"block_size"`
}

func DefaultParams() Params {
	return Params{
		MaxInodeCount:     64,
		MaxBlockCount:     1024,
		MaxOpenFilesCount: 16,
		BlockSize:         1024,
	}
}

func (p Params) Validate() error {
	switch {
	case p.MaxInodeCount <= 0:
		return fmt.Errorf("%w: max_inode_count must be positive, got %d", ErrInvalidParams, p.MaxInodeCount)
	case p.MaxBlockCount <= 0:
		return fmt.Errorf("%w: max_block_count must be positive, got %d", ErrInvalidParams, p.MaxBlockCount)
	case p.MaxOpenFilesCount <= 0:
		return fmt.Errorf("%w: max_open_files_count must be positive, got %d", ErrInvalidParams, p.MaxOpenFilesCount)
	case p.BlockSize <= 0:
		return fmt.Errorf("%w: block_size must be positive, got %d", ErrInvalidParams, p.BlockSize)
	}
	return nil
}

type ServerConfig struct {
	NodeID     string `yaml:"node_id" mapstructure:"node_id"`
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
	DataDir    string `yaml:"data_dir" mapstructure:"data_dir"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

type Config struct {
	Store  Params       `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

func Default() *Config {
	return &Config{
		Store: DefaultParams(),
		Server: ServerConfig{
			NodeID:     "node1",
			ListenAddr: ":8080",
			DataDir:    "./data",
		},
		Log: LogConfig{Level: "INFO"},
	}
}

// Load reads a YAML config file. When the file does not exist a default one is
// written at path and returned. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetDefaults registers every default on v so that environment variables and
// bound flags can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("store.max_inode_count", d.Store.MaxInodeCount)
	v.SetDefault("store.max_block_count", d.Store.MaxBlockCount)
	v.SetDefault("store.max_open_files_count", d.Store.MaxOpenFilesCount)
	v.SetDefault("store.block_size", d.Store.BlockSize)
	v.SetDefault("server.node_id", d.Server.NodeID)
	v.SetDefault("server.listen_addr", d.Server.ListenAddr)
	v.SetDefault("server.data_dir", d.Server.DataDir)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadViper resolves the config from defaults, an optional YAML file at path
// and TINYFS_* environment variables (TINYFS_STORE_BLOCK_SIZE and so on).
// Flags bound on v by the caller take precedence over all of them.
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("TINYFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
