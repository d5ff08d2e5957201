package config

import (
	"bytes"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	tmos "github.com/tendermint/tendermint/libs/os"
)

const defaultDirPerm = 0700

// EnsureRoot 创建home目录和config目录，配置文件不存在时写入默认配置
func EnsureRoot(rootDir string) error {
	if err := tmos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		return err
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		return err
	}

	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if !tmos.FileExists(configFilePath) {
		return WriteConfigFile(configFilePath, DefaultConfig())
	}
	return nil
}

// WriteConfigFile 以toml格式写入配置文件
func WriteConfigFile(configFilePath string, config *Config) error {
	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(config); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return tmos.WriteFile(configFilePath, buffer.Bytes(), 0644)
}

// loadConfigFile 读取toml配置文件，没有出现的字段保留默认值
func loadConfigFile(configFilePath string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(configFilePath, config); err != nil {
		return nil, errors.Wrapf(err, "decode config file %s", configFilePath)
	}
	return config, nil
}
