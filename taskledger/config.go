package taskledger

import (
	"os"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"
)

var conf *viper.Viper
var confMutex = &deadlock.Mutex{}

// MakeOrGetConfig returns the process configuration. If nothing has been set yet an in-memory
// configuration holding only the defaults is created, so that packages work without a config file.
func MakeOrGetConfig() *viper.Viper {
	confMutex.Lock()
	defer confMutex.Unlock()
	if conf == nil {
		c := viper.New()
		SetDefaults(c, os.TempDir())
		conf = c
	}
	return conf
}

func SetConfig(config *viper.Viper) {
	confMutex.Lock()
	defer confMutex.Unlock()
	conf = config
}

var shutdown chan struct{}
var shutdownMutex = &deadlock.Mutex{}

// Shutdown closes the channel registered with RegisterShutdownChan. If the registered goroutines have not
// finished within the grace period the process exits anyway.
func Shutdown() {
	shutdownMutex.Lock()
	defer shutdownMutex.Unlock()
	if shutdown == nil {
		return
	}
	select {
	case <-shutdown:
		return
	default:
		close(shutdown)
	}
	LogCLI("Calling Shutdown", 2)
	go func() {
		grace := MakeOrGetConfig().GetDuration("shutdownGrace")
		time.Sleep(grace)
		println("Something didn't shutdown cleanly, the ledger snapshot on disk may be stale.")
		os.Exit(1)
	}()
}

func RegisterShutdownChan(c chan struct{}) {
	shutdownMutex.Lock()
	defer shutdownMutex.Unlock()
	shutdown = c
}
