package conductor

import (
	"fmt"

	"taskledger/auxiliarium/payouts"
	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/consensus/ledger"
	"taskledger/consensus/sequence"
	"taskledger/taskledger"
)

func (l *Ledger) GetProjectIds() []uint64 {
	return l.state.IDs()
}

// ProjectIds returns the Project id at position index of GetProjectIds.
func (l *Ledger) ProjectIds(index uint64) (uint64, error) {
	ids := l.state.IDs()
	if index >= uint64(len(ids)) {
		return 0, fmt.Errorf("%w: no project at index %d", taskledger.ErrNotFound, index)
	}
	return ids[index], nil
}

func (l *Ledger) GetProjectInfo(projectID uint64) (projects.Info, error) {
	b, err := l.state.Load(projectID)
	if err != nil {
		return projects.Info{}, err
	}
	return b.Project.Info(), nil
}

func (l *Ledger) GetTeamMembers(projectID uint64) ([]taskledger.Account, error) {
	b, err := l.state.Load(projectID)
	if err != nil {
		return nil, err
	}
	return b.Project.MembersCopy(), nil
}

func (l *Ledger) GetTaskIds(projectID uint64) ([]uint64, error) {
	b, err := l.state.Load(projectID)
	if err != nil {
		return nil, err
	}
	return b.Project.TaskIDsCopy(), nil
}

func (l *Ledger) GetTask(projectID, taskID uint64) (tasks.View, error) {
	b, err := l.state.Load(projectID)
	if err != nil {
		return tasks.View{}, err
	}
	t, err := b.Task(taskID)
	if err != nil {
		return tasks.View{}, err
	}
	return t.View(), nil
}

// Payouts returns every transfer attempted for a Project.
func (l *Ledger) Payouts(projectID uint64) ([]payouts.Payout, error) {
	if _, err := l.state.Load(projectID); err != nil {
		return nil, err
	}
	return l.journal.ForProject(projectID), nil
}

func (l *Ledger) PayoutSummary(projectID uint64) (payouts.Summary, error) {
	p, err := l.Payouts(projectID)
	if err != nil {
		return payouts.Summary{}, err
	}
	return payouts.Summarize(p), nil
}

// Sequence is the last accepted event sequence of account, signers use it to number their next event.
func (l *Ledger) Sequence(account taskledger.Account) int64 {
	return l.sequences.GetSequence(account)
}

// StateHash fingerprints the Projects, Tasks and event sequences.
func (l *Ledger) StateHash() taskledger.HashSeq {
	return combine(l.state.HashSeq(), l.sequences.HashSeq())
}

func stateHash(books []*ledger.Book, sequences []sequence.Sequence) taskledger.HashSeq {
	return combine(ledger.HashBooks(books), sequence.HashSequences(sequences))
}

func combine(state, seq taskledger.HashSeq) (hs taskledger.HashSeq) {
	hs.Mind = "conductor"
	hs.Sequence = state.Sequence + seq.Sequence
	for _, h := range []string{state.Hash, seq.Hash} {
		if err := hs.AppendData(h); err != nil {
			taskledger.LogCLI(err, 1)
		}
	}
	hs.S256()
	return
}
