/*
Package database is the flat-file store behind every Mind-state. Each Mind gets a directory under
rootDir/flatFileDir and each state is a file in it, usually named "current" or by its state hash.
*/
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/otiai10/copy"

	"taskledger/taskledger"
)

func root() string {
	conf := taskledger.MakeOrGetConfig()
	return filepath.Join(conf.GetString("rootDir"), conf.GetString("flatFileDir"))
}

func path(mind, name string) (string, error) {
	for _, s := range []string{mind, name} {
		if len(s) == 0 || strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
			return "", fmt.Errorf("invalid database path element %q", s)
		}
	}
	return filepath.Join(root(), mind, name), nil
}

// Open opens the named file of a Mind for reading. The caller closes it.
func Open(mind, name string) (*os.File, bool) {
	p, err := path(mind, name)
	if err != nil {
		taskledger.LogCLI(err.Error(), 1)
		return nil, false
	}
	f, err := os.Open(p)
	if err != nil {
		if !os.IsNotExist(err) {
			taskledger.LogCLI(err.Error(), 1)
		}
		return nil, false
	}
	return f, true
}

// Write replaces the named file of a Mind. The data is written to a temporary file first and renamed
// into place so that a crash never leaves a half written state behind.
func Write(mind, name string, b []byte) error {
	p, err := path(mind, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Backup copies the whole flat-file directory into rootDir/backupDir/<unix time> and returns the destination.
func Backup() (string, error) {
	conf := taskledger.MakeOrGetConfig()
	dst := filepath.Join(conf.GetString("rootDir"), conf.GetString("backupDir"), fmt.Sprintf("%d", time.Now().UnixNano()))
	if _, err := os.Stat(root()); os.IsNotExist(err) {
		return "", fmt.Errorf("nothing to back up at %s", root())
	}
	if err := copy.Copy(root(), dst); err != nil {
		return "", err
	}
	return dst, nil
}
