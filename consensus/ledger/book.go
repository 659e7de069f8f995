package ledger

import (
	"fmt"

	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/taskledger"
)

// Book is one Project together with its Tasks. Tasks[i] is the Task with id i.
// A Book that has been published by a commit is never modified again.
type Book struct {
	Project projects.Project `json:"project"`
	Tasks   []tasks.Task     `json:"tasks"`
}

func (b *Book) clone() *Book {
	t := make([]tasks.Task, len(b.Tasks))
	copy(t, b.Tasks)
	return &Book{Project: b.Project, Tasks: t}
}

// Task returns a copy of the Task with the given id.
func (b *Book) Task(id uint64) (tasks.Task, error) {
	if id >= uint64(len(b.Tasks)) {
		return tasks.Task{}, fmt.Errorf("%w: task %d in project %d", taskledger.ErrNotFound, id, b.Project.ID)
	}
	return b.Tasks[id], nil
}

// Owed sums the rewards of every completed Task that has not been paid yet.
func (b *Book) Owed() (owed taskledger.Amount) {
	for _, t := range b.Tasks {
		if t.Owed() {
			owed += t.Reward
		}
	}
	return
}

// AllRewarded is true when the Book has Tasks and every one of them has been paid.
func (b *Book) AllRewarded() bool {
	if len(b.Tasks) == 0 {
		return false
	}
	for _, t := range b.Tasks {
		if !t.Rewarded {
			return false
		}
	}
	return true
}

// Consistent checks the invariants that must hold for every published Book.
func (b *Book) Consistent() error {
	if err := b.Project.Consistent(); err != nil {
		return err
	}
	if len(b.Tasks) != b.Project.TaskCount {
		return fmt.Errorf("project %d: task count %d but %d tasks", b.Project.ID, b.Project.TaskCount, len(b.Tasks))
	}
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if t.ID != uint64(i) || t.ProjectID != b.Project.ID {
			return fmt.Errorf("project %d: task at %d has id %d/%d", b.Project.ID, i, t.ProjectID, t.ID)
		}
		if err := t.Consistent(); err != nil {
			return err
		}
		if !b.Project.IsMember(t.AssignedTo) {
			return fmt.Errorf("project %d: task %d assigned to non member", b.Project.ID, t.ID)
		}
	}
	if b.Project.Completed && !b.AllRewarded() {
		return fmt.Errorf("project %d is completed with unpaid tasks", b.Project.ID)
	}
	return nil
}
