package conductor

import (
	"context"
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"

	"taskledger/auxiliarium/payouts"
	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/consensus/escrow"
	"taskledger/consensus/guard"
	"taskledger/consensus/identity"
	"taskledger/consensus/ledger"
	"taskledger/consensus/sequence"
	"taskledger/taskledger"
)

// Ledger is the single entry point to the task ledger. Every mutation passes the guard first and then
// runs under the lock of the Project it touches. Reads never lock.
// Mutations hold applying for reading so that a snapshot, which holds it for writing, never sees one half done.
type Ledger struct {
	applying     *deadlock.RWMutex
	persistMutex *deadlock.Mutex
	registry     *identity.Registry
	state        *ledger.State
	vault        *escrow.Vault
	journal      *payouts.Journal
	sequences    *sequence.Tracker
	kinds        *taskledger.KindRegister
	bloom        func(interface{}) bool
	bloomMutex   *deadlock.Mutex
	now          func() time.Time
}

type Option func(*Ledger)

// WithClock replaces the clock used to decide whether a deadline is in the future.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithReplayCapacity sizes the filter that drops events which have already been seen.
func WithReplayCapacity(capacity uint) Option {
	return func(l *Ledger) {
		l.bloom = taskledger.MakeNewInverseBloomFilter(capacity)
	}
}

// New creates an empty Ledger administered by admin, paying rewards through transferer.
func New(admin taskledger.Account, transferer escrow.Transferer, opts ...Option) (*Ledger, error) {
	registry, err := identity.NewRegistry(admin)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		applying:     &deadlock.RWMutex{},
		persistMutex: &deadlock.Mutex{},
		registry:     registry,
		state:        ledger.New(),
		journal:      payouts.NewJournal(),
		sequences:    sequence.NewTracker(),
		kinds:        taskledger.NewKindRegister(),
		bloom:        taskledger.MakeNewInverseBloomFilter(uint(taskledger.MakeOrGetConfig().GetInt("replayCapacity"))),
		bloomMutex:   &deadlock.Mutex{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.vault = escrow.NewVault(l.state, transferer, l.journal)
	if err := l.registerKinds(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Admin() taskledger.Account {
	return l.registry.Admin()
}

func (l *Ledger) CreateProject(caller taskledger.Account, name string, members []taskledger.Account) (id uint64, err error) {
	err = l.apply(func() (err error) {
		id, err = l.createProject(caller, name, members)
		return
	})
	return
}

func (l *Ledger) createProject(caller taskledger.Account, name string, members []taskledger.Account) (uint64, error) {
	if err := guard.RequireAdmin(l.registry, caller); err != nil {
		return 0, err
	}
	id, err := l.state.Create(func(id uint64) (projects.Project, error) {
		return projects.New(id, name, members)
	})
	if err != nil {
		return 0, err
	}
	l.trace("projects", fmt.Sprintf("created project %d", id), name)
	return id, nil
}

// AddTeamMember adds member to the team. Adding an existing member succeeds without changing anything.
func (l *Ledger) AddTeamMember(caller taskledger.Account, projectID uint64, member taskledger.Account) error {
	return l.apply(func() error {
		return l.addTeamMember(caller, projectID, member)
	})
}

func (l *Ledger) addTeamMember(caller taskledger.Account, projectID uint64, member taskledger.Account) error {
	if err := guard.RequireAdmin(l.registry, caller); err != nil {
		return err
	}
	var added bool
	err := l.state.Mutate(projectID, func(tx *ledger.Txn) (err error) {
		added, err = tx.Book.Project.AddMember(member)
		return
	})
	if err == nil && added {
		l.trace("projects", fmt.Sprintf("added member to project %d", projectID), member)
	}
	return err
}

func (l *Ledger) CreateTask(caller taskledger.Account, projectID uint64, description string, assignee taskledger.Account, deadline time.Time, reward taskledger.Amount) (id uint64, err error) {
	err = l.apply(func() (err error) {
		id, err = l.createTask(caller, projectID, description, assignee, deadline, reward)
		return
	})
	return
}

func (l *Ledger) createTask(caller taskledger.Account, projectID uint64, description string, assignee taskledger.Account, deadline time.Time, reward taskledger.Amount) (uint64, error) {
	if err := guard.RequireAdmin(l.registry, caller); err != nil {
		return 0, err
	}
	var id uint64
	err := l.state.Mutate(projectID, func(tx *ledger.Txn) error {
		t, err := tasks.New(&tx.Book.Project, description, assignee, deadline, reward, l.now())
		if err != nil {
			return err
		}
		id = t.ID
		return tx.Append(t)
	})
	if err != nil {
		return 0, err
	}
	l.trace("tasks", fmt.Sprintf("created task %d/%d", projectID, id), description)
	return id, nil
}

// CompleteTask can only be called by the Task's assignee.
func (l *Ledger) CompleteTask(caller taskledger.Account, projectID, taskID uint64) error {
	return l.apply(func() error {
		return l.completeTask(caller, projectID, taskID)
	})
}

func (l *Ledger) completeTask(caller taskledger.Account, projectID, taskID uint64) error {
	err := l.state.Mutate(projectID, func(tx *ledger.Txn) error {
		t, err := tx.Task(taskID)
		if err != nil {
			return err
		}
		if err := guard.RequireAssignee(t, caller); err != nil {
			return err
		}
		return t.Complete()
	})
	if err == nil {
		l.trace("tasks", fmt.Sprintf("completed task %d/%d", projectID, taskID), caller)
	}
	return err
}

// VerifyProject pays out every completed Task that has not been paid yet and returns the Settlement.
// Transfer failures are reported in Settlement.Failed rather than as an error.
func (l *Ledger) VerifyProject(ctx context.Context, caller taskledger.Account, projectID uint64, funds taskledger.Amount) (s escrow.Settlement, err error) {
	err = l.apply(func() (err error) {
		s, err = l.verifyProject(ctx, caller, projectID, funds)
		return
	})
	return
}

func (l *Ledger) verifyProject(ctx context.Context, caller taskledger.Account, projectID uint64, funds taskledger.Amount) (escrow.Settlement, error) {
	if err := guard.RequireAdmin(l.registry, caller); err != nil {
		return escrow.Settlement{}, err
	}
	s, err := l.vault.Settle(ctx, projectID, funds)
	if err != nil {
		return s, err
	}
	l.trace("escrow", fmt.Sprintf("verified project %d", projectID), s)
	return s, nil
}

// apply runs fn as one mutation. Once fn succeeds the new state is persisted if persist is set.
func (l *Ledger) apply(fn func() error) error {
	l.applying.RLock()
	err := fn()
	l.applying.RUnlock()
	if err != nil {
		return err
	}
	l.persistIfEnabled()
	return nil
}

func (l *Ledger) trace(mind, comment string, message interface{}) {
	taskledger.LogCLI(fmt.Sprintf("%s: %s", mind, comment), 3)
	taskledger.LogMind(taskledger.MindLog{MindName: mind, Comment: comment, Message: message})
}
