package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// DefaultLogLevel 默认日志级别
	DefaultLogLevel = "info"

	LogFormatPlain = "plain"
	LogFormatJSON  = "json"

	defaultConfigDir      = "config"
	defaultConfigFileName = "config.toml"

	// 主网的默认配置
	defaultCheckpointZero    = int64(1602666000)
	defaultCheckpointsPeriod = uint16(45)
)

var (
	// DefaultHomeDir 默认的home目录名
	DefaultHomeDir = ".epochbft"

	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config 节点的全部配置
type Config struct {
	BaseConfig `mapstructure:",squash"`

	Epoch *EpochConfig `mapstructure:"epoch" toml:"epoch"`
	RPC   *RPCConfig   `mapstructure:"rpc" toml:"rpc"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseConfig: DefaultBaseConfig(),
		Epoch:      DefaultEpochConfig(),
		RPC:        DefaultRPCConfig(),
	}
}

// TestConfig 测试使用的配置，RPC监听随机端口
func TestConfig() *Config {
	return &Config{
		BaseConfig: TestBaseConfig(),
		Epoch:      TestEpochConfig(),
		RPC:        TestRPCConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation and returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Epoch.ValidateBasic(); err != nil {
		return errors.Wrap(err, "error in [epoch] section")
	}
	if err := cfg.RPC.ValidateBasic(); err != nil {
		return errors.Wrap(err, "error in [rpc] section")
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

type BaseConfig struct {
	// 由--home设置，不写入配置文件
	RootDir string `mapstructure:"home" toml:"-"`

	Moniker string `mapstructure:"moniker" toml:"moniker"`

	// "main:info,epoch:debug,*:error"的形式
	LogLevel string `mapstructure:"log_level" toml:"log_level"`

	// plain或者json
	LogFormat string `mapstructure:"log_format" toml:"log_format"`
}

func DefaultBaseConfig() BaseConfig {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return BaseConfig{
		Moniker:   moniker,
		LogLevel:  DefaultLogLevel,
		LogFormat: LogFormatPlain,
	}
}

func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.Moniker = "test-node"
	return cfg
}

// ConfigFile returns the full path to the config.toml file
func (cfg BaseConfig) ConfigFile() string {
	return rootify(defaultConfigFilePath, cfg.RootDir)
}

func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.Errorf("unknown log_format (must be '%s' or '%s')", LogFormatPlain, LogFormatJSON)
	}
	return nil
}

//-----------------------------------------------------------------------------
// EpochConfig

// EpochConfig checkpoint zero和checkpoint周期
// checkpoints_period为0时会被修正为1
type EpochConfig struct {
	CheckpointZeroTimestamp int64  `mapstructure:"checkpoint_zero_timestamp" toml:"checkpoint_zero_timestamp"`
	CheckpointsPeriod       uint16 `mapstructure:"checkpoints_period" toml:"checkpoints_period"`
}

func DefaultEpochConfig() *EpochConfig {
	return &EpochConfig{
		CheckpointZeroTimestamp: defaultCheckpointZero,
		CheckpointsPeriod:       defaultCheckpointsPeriod,
	}
}

func TestEpochConfig() *EpochConfig {
	return &EpochConfig{
		CheckpointZeroTimestamp: 0,
		CheckpointsPeriod:       1,
	}
}

func (cfg *EpochConfig) ValidateBasic() error {
	if cfg.CheckpointZeroTimestamp < 0 {
		return errors.New("checkpoint_zero_timestamp can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// RPCConfig

type RPCConfig struct {
	// 为空时不启动RPC服务
	ListenAddress string `mapstructure:"laddr" toml:"laddr"`

	MaxOpenConnections int `mapstructure:"max_open_connections" toml:"max_open_connections"`
}

func DefaultRPCConfig() *RPCConfig {
	return &RPCConfig{
		ListenAddress:      "tcp://127.0.0.1:26657",
		MaxOpenConnections: 900,
	}
}

func TestRPCConfig() *RPCConfig {
	cfg := DefaultRPCConfig()
	cfg.ListenAddress = "tcp://127.0.0.1:0"
	return cfg
}

func (cfg *RPCConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	return nil
}

// IsRPCEnabled returns true if the RPC server is enabled.
func (cfg *RPCConfig) IsRPCEnabled() bool {
	return cfg.ListenAddress != ""
}

func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
