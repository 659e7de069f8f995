package conductor

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"taskledger/auxiliarium/payouts"
	"taskledger/consensus/ledger"
	"taskledger/consensus/sequence"
	"taskledger/database"
	"taskledger/taskledger"
)

// Persist writes the Projects, Tasks, sequences and payout journal to the flat-file database.
// They are captured together while no operation is being applied. With persist enabled every state
// is also kept under its hash.
func (l *Ledger) Persist() error {
	l.persistMutex.Lock()
	defer l.persistMutex.Unlock()
	l.applying.Lock()
	books := l.state.Books()
	sequences := l.sequences.AllSequences()
	paid := l.journal.All()
	l.applying.Unlock()

	b, err := json.MarshalIndent(books, "", " ")
	if err != nil {
		return err
	}
	if err := database.Write("ledger", "current", b); err != nil {
		return err
	}
	if taskledger.MakeOrGetConfig().GetBool("persist") {
		if err := database.Write("ledger", stateHash(books, sequences).Hash, b); err != nil {
			return err
		}
	}
	if err := sequence.Write(sequences); err != nil {
		return err
	}
	return payouts.Write(paid)
}

// persistIfEnabled is called after every applied operation.
func (l *Ledger) persistIfEnabled() {
	if !taskledger.MakeOrGetConfig().GetBool("persist") {
		return
	}
	if err := l.Persist(); err != nil {
		taskledger.LogCLI(fmt.Sprintf("Conductor: failed to persist state: %s", err), 1)
	}
}

// Restore loads whatever Persist wrote. An empty database leaves the Ledger empty.
func (l *Ledger) Restore() error {
	if f, ok := database.Open("ledger", "current"); ok {
		var books []ledger.Book
		err := json.NewDecoder(f).Decode(&books)
		f.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("restoring ledger: %w", err)
		}
		if err := l.state.Restore(books); err != nil {
			return err
		}
	}
	if err := l.sequences.RestoreFromDisk(); err != nil {
		return err
	}
	if err := l.journal.RestoreFromDisk(); err != nil {
		return err
	}
	taskledger.LogCLI(fmt.Sprintf("Conductor: restored %d projects, state %s", l.state.Len(), l.StateHash().Hash), 4)
	return nil
}

// Start restores the Ledger and keeps it running until terminate is closed, then persists it.
// It blocks until the Ledger is ready to accept events.
func (l *Ledger) Start(terminate chan struct{}, wg *sync.WaitGroup) error {
	taskledger.LogCLI("Starting the Conductor", 4)
	if err := l.Restore(); err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		taskledger.LogCLI("Conductor: I'm now accepting Events", 4)
		<-terminate
		taskledger.LogCLI("Conductor: I received terminate signal, shutting down", 4)
		if err := l.Persist(); err != nil {
			taskledger.LogCLI(err.Error(), 1)
		}
		if dst, err := database.Backup(); err != nil {
			taskledger.LogCLI(err.Error(), 2)
		} else {
			taskledger.LogCLI("Conductor: backed up the database to "+dst, 4)
		}
		taskledger.LogCLI("Conductor: shutdown complete", 4)
	}()
	return nil
}
