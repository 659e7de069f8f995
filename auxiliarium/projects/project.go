/*
Package projects holds the Project record: its team, the ids of its Tasks and its completion flag.
*/
package projects

import (
	"fmt"
	"strings"

	"taskledger/consensus/identity"
	"taskledger/taskledger"
)

// New validates the inputs of createProject and returns the new record.
func New(id uint64, name string, members []taskledger.Account) (Project, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return Project{}, fmt.Errorf("%w: project name is empty", taskledger.ErrInvalidInput)
	}
	if len(members) == 0 {
		return Project{}, fmt.Errorf("%w: project has no members", taskledger.ErrInvalidInput)
	}
	team, err := identity.Dedupe(members)
	if err != nil {
		return Project{}, err
	}
	p := Project{
		ID:        id,
		Name:      name,
		Members:   team,
		TaskIDs:   []uint64{},
		TeamSize:  len(team),
		TaskCount: 0,
	}
	p.Reindex()
	return p, nil
}

// Reindex rebuilds the member lookup table, it is needed after a Project has been decoded from disk.
func (p *Project) Reindex() {
	p.memberIndex = make(map[taskledger.Account]struct{}, len(p.Members))
	for _, m := range p.Members {
		p.memberIndex[m] = struct{}{}
	}
}

// Consistent reports whether the maintained counters agree with the underlying collections.
func (p *Project) Consistent() error {
	if p.TeamSize != len(p.Members) || p.TeamSize != len(p.memberIndex) {
		return fmt.Errorf("project %d: team size %d but %d members", p.ID, p.TeamSize, len(p.Members))
	}
	if p.TaskCount != len(p.TaskIDs) {
		return fmt.Errorf("project %d: task count %d but %d task ids", p.ID, p.TaskCount, len(p.TaskIDs))
	}
	if uint64(p.TaskCount) != p.NextTaskID {
		return fmt.Errorf("project %d: next task id %d with %d tasks", p.ID, p.NextTaskID, p.TaskCount)
	}
	return nil
}

func (p *Project) IsMember(account taskledger.Account) bool {
	_, ok := p.memberIndex[strings.ToLower(account)]
	return ok
}

// AddMember appends account to the team. Adding somebody who is already a member changes nothing
// and reports false.
func (p *Project) AddMember(account taskledger.Account) (bool, error) {
	if p.Completed {
		return false, fmt.Errorf("%w: project %d is completed", taskledger.ErrInvalidState, p.ID)
	}
	a, err := identity.Normalize(account)
	if err != nil {
		return false, err
	}
	if p.IsMember(a) {
		return false, nil
	}
	members := make([]taskledger.Account, len(p.Members), len(p.Members)+1)
	copy(members, p.Members)
	p.Members = append(members, a)
	index := make(map[taskledger.Account]struct{}, len(p.memberIndex)+1)
	for m := range p.memberIndex {
		index[m] = struct{}{}
	}
	index[a] = struct{}{}
	p.memberIndex = index
	p.TeamSize++
	return true, nil
}

// AllocateTaskID hands out the next task id of this Project and records it.
func (p *Project) AllocateTaskID() uint64 {
	id := p.NextTaskID
	p.NextTaskID++
	ids := make([]uint64, len(p.TaskIDs), len(p.TaskIDs)+1)
	copy(ids, p.TaskIDs)
	p.TaskIDs = append(ids, id)
	p.TaskCount++
	return id
}

func (p *Project) Info() Info {
	return Info{
		Name:      p.Name,
		TeamSize:  p.TeamSize,
		TaskCount: p.TaskCount,
		Completed: p.Completed,
	}
}

// MembersCopy returns the team in the order members joined.
func (p *Project) MembersCopy() []taskledger.Account {
	m := make([]taskledger.Account, len(p.Members))
	copy(m, p.Members)
	return m
}

func (p *Project) TaskIDsCopy() []uint64 {
	ids := make([]uint64, len(p.TaskIDs))
	copy(ids, p.TaskIDs)
	return ids
}
