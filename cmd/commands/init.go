package commands

import (
	"github.com/spf13/cobra"

	cfg "epochbft/config"
)

// InitFilesCmd writes the default config file into the home directory.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the node home directory",
	RunE:  initFiles,
}

func initFiles(cmd *cobra.Command, args []string) error {
	return initFilesWithConfig(config)
}

// ParseConfig已经创建了默认的配置文件，这里只负责输出
func initFilesWithConfig(config *cfg.Config) error {
	if err := cfg.EnsureRoot(config.RootDir); err != nil {
		return err
	}
	logger.Info("Found config file", "path", config.ConfigFile(),
		"checkpointZero", config.Epoch.CheckpointZeroTimestamp,
		"checkpointsPeriod", config.Epoch.CheckpointsPeriod)
	return nil
}
