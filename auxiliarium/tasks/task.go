/*
Package tasks holds the Task record and the transitions of its lifecycle flags:

	completed -> verified -> rewarded

A flag is only ever set after the one before it, and rewarded is never cleared.
*/
package tasks

import (
	"fmt"
	"time"

	"taskledger/auxiliarium/projects"
	"taskledger/consensus/identity"
	"taskledger/taskledger"
)

// New validates a createTask request against the Project and allocates the Task its id.
// The Project is only modified when the Task is valid.
func New(p *projects.Project, description string, assignee taskledger.Account, deadline time.Time, reward taskledger.Amount, now time.Time) (Task, error) {
	if p.Completed {
		return Task{}, fmt.Errorf("%w: project %d is completed", taskledger.ErrInvalidState, p.ID)
	}
	a, err := identity.Normalize(assignee)
	if err != nil {
		return Task{}, err
	}
	if !p.IsMember(a) {
		return Task{}, fmt.Errorf("%w: %s is not a member of project %d", taskledger.ErrInvalidInput, a, p.ID)
	}
	if reward == 0 {
		return Task{}, fmt.Errorf("%w: reward must be greater than zero", taskledger.ErrInvalidInput)
	}
	if !deadline.After(now) {
		return Task{}, fmt.Errorf("%w: deadline %s is not in the future", taskledger.ErrInvalidInput, deadline.UTC().Format(time.RFC3339))
	}
	return Task{
		ProjectID:   p.ID,
		ID:          p.AllocateTaskID(),
		Description: description,
		AssignedTo:  a,
		Deadline:    deadline.UTC(),
		Reward:      reward,
	}, nil
}

func (t *Task) Complete() error {
	if t.Completed {
		return fmt.Errorf("%w: task %d/%d is already completed", taskledger.ErrInvalidState, t.ProjectID, t.ID)
	}
	t.Completed = true
	return nil
}

// Owed reports whether the Task is waiting for its reward.
func (t *Task) Owed() bool {
	return t.Completed && !t.Rewarded
}

func (t *Task) MarkVerified() error {
	if !t.Completed {
		return fmt.Errorf("%w: task %d/%d is not completed", taskledger.ErrInvalidState, t.ProjectID, t.ID)
	}
	t.Verified = true
	return nil
}

func (t *Task) MarkRewarded() error {
	if !t.Verified {
		return fmt.Errorf("%w: task %d/%d is not verified", taskledger.ErrInvalidState, t.ProjectID, t.ID)
	}
	if t.Rewarded {
		return fmt.Errorf("%w: task %d/%d has already been rewarded", taskledger.ErrInvalidState, t.ProjectID, t.ID)
	}
	t.Rewarded = true
	return nil
}

// Consistent checks rewarded => verified => completed.
func (t *Task) Consistent() error {
	if t.Rewarded && !t.Verified {
		return fmt.Errorf("task %d/%d rewarded without verification", t.ProjectID, t.ID)
	}
	if t.Verified && !t.Completed {
		return fmt.Errorf("task %d/%d verified without completion", t.ProjectID, t.ID)
	}
	return nil
}

func (t *Task) View() View {
	return View{
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Completed:   t.Completed,
		Verified:    t.Verified,
		Deadline:    t.Deadline,
		Reward:      t.Reward,
		Rewarded:    t.Rewarded,
	}
}
