/*
Package escrow custodies the funds attached to a project verification and pays the owed rewards out.

A Task is only paid when it is completed, and its verified flag is published before the transfer is
attempted. Its rewarded flag is published as soon as the transfer succeeds, so a Task can never be
selected for payment twice.
*/
package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"

	"taskledger/auxiliarium/payouts"
	"taskledger/consensus/ledger"
	"taskledger/taskledger"
)

// Transferer moves value to a payee. A Transferer must not call back into the Vault for the same Project.
type Transferer interface {
	Transfer(ctx context.Context, to taskledger.Account, amount taskledger.Amount) error
}

type FailedPayout struct {
	Task   uint64 `json:"task"`
	Reason string `json:"reason"`
}

// Settlement is the outcome of one verification.
type Settlement struct {
	Project   uint64            `json:"project"`
	Attached  taskledger.Amount `json:"attached"`
	Owed      taskledger.Amount `json:"owed"`
	Paid      []uint64          `json:"paid"`
	Failed    []FailedPayout    `json:"failed,omitempty"`
	Disbursed taskledger.Amount `json:"disbursed"`
	Refund    taskledger.Amount `json:"refund"`
	Completed bool              `json:"completed"`
}

// PartialFailure reports whether any transfer failed. The failed Tasks stay unpaid and are picked up
// again by the next verification.
func (s Settlement) PartialFailure() bool {
	return len(s.Failed) > 0
}

type Vault struct {
	state      *ledger.State
	transferer Transferer
	journal    *payouts.Journal
	now        func() time.Time
	mutex      *deadlock.Mutex
	custody    map[uint64]taskledger.Amount
}

// NewVault returns a Vault paying out of state through transferer. journal may be nil.
func NewVault(state *ledger.State, transferer Transferer, journal *payouts.Journal) *Vault {
	return &Vault{
		state:      state,
		transferer: transferer,
		journal:    journal,
		now:        time.Now,
		mutex:      &deadlock.Mutex{},
		custody:    make(map[uint64]taskledger.Amount),
	}
}

// Custody returns the funds currently held for a Project. It is only non-zero while a verification is running.
func (v *Vault) Custody(project uint64) taskledger.Amount {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.custody[project]
}

func (v *Vault) hold(project uint64, amount taskledger.Amount) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.custody[project] = amount
}

func (v *Vault) debit(project uint64, amount taskledger.Amount) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.custody[project] -= amount
}

func (v *Vault) release(project uint64) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	delete(v.custody, project)
}

// Settle pays every completed and unpaid Task of the Project from funds, in task id order, and returns
// what was not disbursed as the refund. The whole payout loop runs under the Project's lock.
// A failed transfer is recorded in the Settlement and does not stop the loop.
func (v *Vault) Settle(ctx context.Context, project uint64, funds taskledger.Amount) (Settlement, error) {
	s := Settlement{Project: project, Attached: funds, Paid: []uint64{}}
	err := v.state.Mutate(project, func(tx *ledger.Txn) error {
		if tx.Book.Project.Completed {
			return fmt.Errorf("%w: project %d has already been verified", taskledger.ErrInvalidState, project)
		}
		s.Owed = tx.Book.Owed()
		if funds < s.Owed {
			return fmt.Errorf("%w: project %d owes %d but %d was attached", taskledger.ErrInsufficientFunds, project, s.Owed, funds)
		}
		v.hold(project, funds)
		defer v.release(project)
		for i := range tx.Book.Tasks {
			t := &tx.Book.Tasks[i]
			if !t.Owed() {
				continue
			}
			if err := t.MarkVerified(); err != nil {
				return err
			}
			tx.Commit()
			p := payouts.Payout{Project: project, Task: t.ID, To: t.AssignedTo, Amount: t.Reward}
			if err := v.transferer.Transfer(ctx, t.AssignedTo, t.Reward); err != nil {
				taskledger.LogCLI(fmt.Sprintf("escrow: transfer for task %d/%d failed: %s", project, t.ID, err), 2)
				s.Failed = append(s.Failed, FailedPayout{Task: t.ID, Reason: err.Error()})
				p.Reason = err.Error()
				v.record(p)
				continue
			}
			if err := t.MarkRewarded(); err != nil {
				return err
			}
			tx.Commit()
			v.debit(project, t.Reward)
			s.Paid = append(s.Paid, t.ID)
			s.Disbursed += t.Reward
			p.Paid = true
			v.record(p)
		}
		if tx.Book.AllRewarded() {
			tx.Book.Project.Completed = true
		}
		s.Completed = tx.Book.Project.Completed
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	s.Refund = funds - s.Disbursed
	return s, nil
}

func (v *Vault) record(p payouts.Payout) {
	if v.journal == nil {
		return
	}
	p.At = v.now()
	v.journal.Record(p)
}
