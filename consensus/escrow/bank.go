package escrow

import (
	"context"
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"taskledger/taskledger"
)

// Bank is an in-memory Transferer that credits balances. Payees can be made to fail for testing and for
// running the ledger without a payment rail attached.
type Bank struct {
	mutex    *deadlock.Mutex
	balances map[taskledger.Account]taskledger.Amount
	failing  map[taskledger.Account]error
}

func NewBank() *Bank {
	return &Bank{
		mutex:    &deadlock.Mutex{},
		balances: make(map[taskledger.Account]taskledger.Amount),
		failing:  make(map[taskledger.Account]error),
	}
}

func (b *Bank) Transfer(ctx context.Context, to taskledger.Account, amount taskledger.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err, ok := b.failing[to]; ok {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("refusing to transfer nothing to %s", to)
	}
	b.balances[to] += amount
	return nil
}

// FailFor makes every transfer to account fail with err until Recover is called.
func (b *Bank) FailFor(account taskledger.Account, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.failing[account] = err
}

func (b *Bank) Recover(account taskledger.Account) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.failing, account)
}

func (b *Bank) Balance(account taskledger.Account) taskledger.Amount {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.balances[account]
}

// Balances returns a copy of every non-zero balance.
func (b *Bank) Balances() map[taskledger.Account]taskledger.Amount {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	m := make(map[taskledger.Account]taskledger.Amount, len(b.balances))
	for a, v := range b.balances {
		m[a] = v
	}
	return m
}
