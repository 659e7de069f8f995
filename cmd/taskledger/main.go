package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"

	"taskledger/consensus/conductor"
	"taskledger/consensus/escrow"
	"taskledger/messaging/nostrelay"
	"taskledger/taskledger"
)

func main() {
	// Various aspects of this application require global and local settings. To keep things
	// clean and tidy we put these settings in a Viper configuration.
	conf := viper.New()
	taskledger.InitConfig(conf)
	taskledger.SetConfig(conf)

	deadlock.Opts.DisableLockOrderDetection = true
	deadlock.Opts.DeadlockTimeout = conf.GetDuration("deadlockTimeout")

	if conf.GetBool("firstRun") {
		scanner := bufio.NewScanner(strings.NewReader(taskledger.Banner()))
		for scanner.Scan() {
			time.Sleep(time.Millisecond * 60)
			fmt.Println(scanner.Text())
		}
		fmt.Println()
	} else {
		fmt.Printf("\n%s\n", taskledger.Banner())
	}

	admin := conf.GetString("adminAccount")
	if len(admin) == 0 {
		admin = taskledger.MyWallet().Account
	}

	bank := escrow.NewBank()
	ledger, err := conductor.New(admin, bank, conductor.WithReplayCapacity(uint(conf.GetInt("replayCapacity"))))
	if err != nil {
		taskledger.LogCLI(err.Error(), 0)
		os.Exit(1)
	}
	taskledger.LogCLI("Ledger admin is "+ledger.Admin(), 4)

	// the terminator channel blocks until shutdown, anything requiring a clean shutdown should
	// wait on this channel and clean up when it stops blocking.
	terminator := make(chan struct{})

	// anything requiring a clean shutdown adds to this waitgroup and removes itself when it has
	// cleanly shut down.
	wg := &sync.WaitGroup{}

	// interrupt: see cliListener
	interrupt := make(chan struct{})
	taskledger.RegisterShutdownChan(interrupt)

	if err := ledger.Start(terminator, wg); err != nil {
		taskledger.LogCLI(err.Error(), 0)
		os.Exit(1)
	}

	// the relay stops first so that nothing is being applied while the ledger writes its final snapshot
	relayTerminator := make(chan struct{})
	relayWg := &sync.WaitGroup{}
	nostrelay.New(ledger).Start(relayTerminator, relayWg)

	go cliListener(ledger, bank)

	taskledger.LogCLI("Waiting for terminate signal, press q to quit", 4)
	<-interrupt

	conf.Set("firstRun", false)
	if err := conf.WriteConfig(); err != nil {
		taskledger.LogCLI(err.Error(), 3)
	}
	close(relayTerminator)
	relayWg.Wait()
	close(terminator)
	wg.Wait()
	os.Exit(0)
}
