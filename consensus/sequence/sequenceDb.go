package sequence

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"taskledger/database"
	"taskledger/taskledger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Persist writes the current sequences to the flat-file database.
func (t *Tracker) Persist() error {
	return Write(t.AllSequences())
}

// Write replaces the persisted sequences with s.
func Write(s []Sequence) error {
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	return database.Write("sequence", "current", b)
}

// RestoreFromDisk loads the sequences written by Persist. It is not an error if nothing has been persisted yet.
func (t *Tracker) RestoreFromDisk() error {
	f, ok := database.Open("sequence", "current")
	if !ok {
		return nil
	}
	defer f.Close()
	var s []Sequence
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("restoring sequences: %w", err)
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for _, seq := range s {
		if !taskledger.ValidAccount(seq.Account) {
			return fmt.Errorf("restoring sequences: invalid account %q", seq.Account)
		}
		t.data[seq.Account] = seq
	}
	return nil
}
