package taskledger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// InitConfig sets up our Viper config object from rootDir/config.yaml, creating both if they do not exist.
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		LogCLI(err.Error(), 0)
	}
	SetDefaults(config, filepath.Join(homeDir, "taskledger"))
	config.SetConfigType("yaml")
	config.SetConfigFile(filepath.Join(config.GetString("rootDir"), "config.yaml"))
	err = config.ReadInConfig()
	if err != nil {
		LogCLI(err.Error(), 4)
	}
	initRootDir(config)
	if err := Touch(filepath.Join(config.GetString("rootDir"), "config.yaml")); err != nil {
		LogCLI(err.Error(), 0)
	}
	err = config.WriteConfig()
	if err != nil {
		LogCLI(err.Error(), 0)
	}
}

// SetDefaults registers every key the ledger reads, rooted at rootDir.
func SetDefaults(config *viper.Viper, rootDir string) {
	config.SetDefault("rootDir", rootDir)
	config.SetDefault("firstRun", true)
	config.SetDefault("flatFileDir", "data")
	config.SetDefault("backupDir", "backup")
	config.SetDefault("logLevel", 4)
	config.SetDefault("logActors", false)
	config.SetDefault("devMode", false)
	config.SetDefault("websocketAddr", "127.0.0.1:1031")
	config.SetDefault("httpAddr", "127.0.0.1:1032")
	//empty means the local wallet is the admin
	config.SetDefault("adminAccount", "")
	//write a snapshot for every state hash, not just on shutdown
	config.SetDefault("persist", false)
	config.SetDefault("replayCapacity", 10000)
	config.SetDefault("deadlockTimeout", 30*time.Second)
	config.SetDefault("shutdownGrace", 120*time.Second)
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			LogCLI(err, 0)
		}
	}
}
