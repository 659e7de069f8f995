package taskledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/mborders/logmatic"
)

var logger = newLogger()

func newLogger() *logmatic.Logger {
	l := logmatic.NewLogger()
	l.SetLevel(logmatic.TRACE)
	// level 0 shuts the ledger down cleanly through Shutdown instead
	l.ExitOnFatal = false
	return l
}

// LogCLI writes message to the terminal. Levels:
//  0 fatal, prints a stack and calls Shutdown so that the ledger persists before exiting
//  1 error, prints a stack (failed snapshots, encoding bugs)
//  2 warning (failed payouts, bad clients)
//  3 debug (every applied or rejected operation)
//  4 info (startup and shutdown)
//  5 trace, prints a stack
// Anything above the logLevel config key is dropped, fatal errors never are.
func LogCLI(message interface{}, level int) {
	if level > 0 && level > MakeOrGetConfig().GetInt("logLevel") {
		return
	}
	msg := fmt.Sprint(message)
	switch level {
	case 0:
		debug.PrintStack()
		logger.Error("%s", msg)
		Shutdown()
	case 1:
		debug.PrintStack()
		logger.Error("%s", msg)
	case 2:
		logger.Warn("%s", msg)
	case 3:
		logger.Debug("%s", msg)
	case 4:
		logger.Info("%s", msg)
	default:
		debug.PrintStack()
		logger.Trace("%s", msg)
	}
}

// LogMind appends an operation record to rootDir/actorMessages.log when logActors is set.
// It reports false if the record could not be written.
func LogMind(log MindLog) bool {
	conf := MakeOrGetConfig()
	if !conf.GetBool("logActors") {
		return true
	}
	f, err := os.OpenFile(filepath.Join(conf.GetString("rootDir"), "actorMessages.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		LogCLI(err, 2)
		return false
	}
	defer f.Close()
	_, err = io.WriteString(f, fmt.Sprintf("%s %s/%s: %#v\n", time.Now().UTC().Format(time.RFC3339), log.MindName, log.Comment, log.Message))
	return err == nil
}
