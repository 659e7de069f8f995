package ledger

import (
	"fmt"

	"taskledger/auxiliarium/tasks"
	"taskledger/taskledger"
)

// Txn is a mutation in progress on one Project. Book is the private working copy.
type Txn struct {
	cell *cell
	Book *Book
}

// Task returns a pointer into the working copy so that the Task can be modified in place.
func (tx *Txn) Task(id uint64) (*tasks.Task, error) {
	if id >= uint64(len(tx.Book.Tasks)) {
		return nil, fmt.Errorf("%w: task %d in project %d", taskledger.ErrNotFound, id, tx.Book.Project.ID)
	}
	return &tx.Book.Tasks[id], nil
}

// Append adds a Task whose id has just been allocated from the working copy's Project.
func (tx *Txn) Append(t tasks.Task) error {
	if t.ID != uint64(len(tx.Book.Tasks)) || t.ProjectID != tx.Book.Project.ID {
		return fmt.Errorf("task %d/%d does not follow the tasks of project %d", t.ProjectID, t.ID, tx.Book.Project.ID)
	}
	tx.Book.Tasks = append(tx.Book.Tasks, t)
	return nil
}

// Commit publishes the working copy. Work can continue on the Txn afterwards, a later failure of the
// enclosing Mutate only discards what changed after the last Commit.
func (tx *Txn) Commit() {
	tx.cell.book.Store(tx.Book.clone())
}
