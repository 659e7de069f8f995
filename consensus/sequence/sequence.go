package sequence

import (
	"fmt"
	"sort"

	"github.com/sasha-s/go-deadlock"

	"taskledger/taskledger"
)

// ErrOutOfSequence is returned when an event does not carry the next sequence number of its signer.
var ErrOutOfSequence = fmt.Errorf("%w: out of sequence", taskledger.ErrInvalidInput)

type Sequence struct {
	Account  taskledger.Account `json:"account"`
	Sequence int64              `json:"sequence"`
}

// Tracker holds the last accepted sequence number of every Account.
// Events from one Account are applied one at a time, events from different Accounts do not wait on each other.
type Tracker struct {
	mutex *deadlock.Mutex
	data  map[taskledger.Account]Sequence
	locks map[taskledger.Account]*deadlock.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{
		mutex: &deadlock.Mutex{},
		data:  make(map[taskledger.Account]Sequence),
		locks: make(map[taskledger.Account]*deadlock.Mutex),
	}
}

//GetSequence SHOULD be called when producing an event locally.
//it MUST NOT be used to validate the current sequence, use Apply for that.
func (t *Tracker) GetSequence(account taskledger.Account) int64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.data[account].Sequence
}

func (t *Tracker) lockFor(account taskledger.Account) *deadlock.Mutex {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	l, ok := t.locks[account]
	if !ok {
		l = &deadlock.Mutex{}
		t.locks[account] = l
	}
	return l
}

// Apply runs fn if seq is exactly one more than the last sequence accepted from account.
// The sequence only advances when fn succeeds, so a rejected operation can be retried with the same number.
func (t *Tracker) Apply(account taskledger.Account, seq int64, fn func() error) error {
	l := t.lockFor(account)
	l.Lock()
	defer l.Unlock()
	current := t.GetSequence(account)
	if seq != current+1 {
		return fmt.Errorf("%w: got %d, current sequence is %d", ErrOutOfSequence, seq, current)
	}
	if err := fn(); err != nil {
		return err
	}
	t.mutex.Lock()
	t.data[account] = Sequence{Account: account, Sequence: seq}
	t.mutex.Unlock()
	return nil
}

// AllSequences returns every known Account's sequence ordered by Account.
func (t *Tracker) AllSequences() (s []Sequence) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for _, sequence := range t.data {
		s = append(s, sequence)
	}
	sort.Slice(s, func(i, j int) bool {
		return s[i].Account < s[j].Account
	})
	return
}

// HashSeq fingerprints the tracker. Sequence is the total number of events accepted.
func (t *Tracker) HashSeq() taskledger.HashSeq {
	return HashSequences(t.AllSequences())
}

// HashSequences fingerprints sequences, which must be ordered by Account as AllSequences returns them.
func HashSequences(sequences []Sequence) (hs taskledger.HashSeq) {
	hs.Mind = "sequence"
	for _, s := range sequences {
		hs.Sequence += s.Sequence
		if err := hs.AppendData(s.Account); err != nil {
			taskledger.LogCLI(err, 1)
		}
		if err := hs.AppendData(s.Sequence); err != nil {
			taskledger.LogCLI(err, 1)
		}
	}
	hs.S256()
	return
}
