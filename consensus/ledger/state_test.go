package ledger

import (
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/taskledger"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newAccount(t require.TestingT) taskledger.Account {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return hex.EncodeToString(schnorr.SerializePubKey(sk.PubKey()))
}

func create(t require.TestingT, s *State, members ...taskledger.Account) uint64 {
	id, err := s.Create(func(id uint64) (projects.Project, error) {
		return projects.New(id, "Website", members)
	})
	require.NoError(t, err)
	return id
}

func addTask(t require.TestingT, s *State, pid uint64, assignee taskledger.Account, reward taskledger.Amount) uint64 {
	var tid uint64
	err := s.Mutate(pid, func(tx *Txn) error {
		task, err := tasks.New(&tx.Book.Project, "d", assignee, now.Add(time.Hour), reward, now)
		if err != nil {
			return err
		}
		tid = task.ID
		return tx.Append(task)
	})
	require.NoError(t, err)
	return tid
}

func TestCreateAllocatesSequentialIDs(t *testing.T) {
	s := New()
	a := newAccount(t)
	require.Equal(t, uint64(0), create(t, s, a))
	require.Equal(t, uint64(1), create(t, s, a))

	_, err := s.Create(func(id uint64) (projects.Project, error) {
		return projects.New(id, "", []taskledger.Account{a})
	})
	require.ErrorIs(t, err, taskledger.ErrInvalidInput)
	require.Equal(t, uint64(2), create(t, s, a), "a failed create must not consume an id")
	require.Equal(t, []uint64{0, 1, 2}, s.IDs())
}

func TestLoadUnknownProject(t *testing.T) {
	s := New()
	_, err := s.Load(7)
	require.ErrorIs(t, err, taskledger.ErrNotFound)
	require.ErrorIs(t, s.Mutate(7, func(tx *Txn) error { return nil }), taskledger.ErrNotFound)
}

func TestMutateDiscardsOnError(t *testing.T) {
	s := New()
	a := newAccount(t)
	pid := create(t, s, a)
	tid := addTask(t, s, pid, a, 10)

	before, err := s.Load(pid)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Mutate(pid, func(tx *Txn) error {
		task, err := tx.Task(tid)
		require.NoError(t, err)
		require.NoError(t, task.Complete())
		_, err = tx.Book.Project.AddMember(newAccount(t))
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := s.Load(pid)
	require.NoError(t, err)
	require.Same(t, before, after)
	require.False(t, after.Tasks[tid].Completed)
	require.Equal(t, 1, after.Project.TeamSize)
}

func TestCommitPublishesIntermediateState(t *testing.T) {
	s := New()
	a := newAccount(t)
	pid := create(t, s, a)
	first := addTask(t, s, pid, a, 10)
	second := addTask(t, s, pid, a, 20)

	err := s.Mutate(pid, func(tx *Txn) error {
		t1, _ := tx.Task(first)
		require.NoError(t, t1.Complete())
		tx.Commit()

		t2, _ := tx.Task(second)
		require.NoError(t, t2.Complete())
		return errors.New("stop")
	})
	require.Error(t, err)

	b, err := s.Load(pid)
	require.NoError(t, err)
	require.True(t, b.Tasks[first].Completed)
	require.False(t, b.Tasks[second].Completed)
}

func TestPublishedBooksAreNotAliased(t *testing.T) {
	s := New()
	a := newAccount(t)
	pid := create(t, s, a)
	tid := addTask(t, s, pid, a, 10)

	snapshot, err := s.Load(pid)
	require.NoError(t, err)
	require.NoError(t, s.Mutate(pid, func(tx *Txn) error {
		task, _ := tx.Task(tid)
		return task.Complete()
	}))
	require.False(t, snapshot.Tasks[tid].Completed)
	latest, _ := s.Load(pid)
	require.True(t, latest.Tasks[tid].Completed)
}

func TestReadersNeverSeeTornState(t *testing.T) {
	s := New()
	a := newAccount(t)
	pid := create(t, s, a)

	done := make(chan struct{})
	wg := &sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				b, err := s.Load(pid)
				if err != nil {
					t.Error(err)
					return
				}
				if err := b.Consistent(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		addTask(t, s, pid, a, 1)
	}
	close(done)
	wg.Wait()
	b, _ := s.Load(pid)
	require.Len(t, b.Tasks, 200)
}

func TestRestoreAndHash(t *testing.T) {
	s := New()
	a, b := newAccount(t), newAccount(t)
	pid := create(t, s, a, b)
	addTask(t, s, pid, b, 30)
	create(t, s, b)

	var books []Book
	for _, book := range s.Books() {
		books = append(books, *book)
	}
	restored := New()
	require.NoError(t, restored.Restore(books))
	require.Equal(t, s.HashSeq().Hash, restored.HashSeq().Hash)
	require.Equal(t, int64(3), restored.HashSeq().Sequence)

	rb, err := restored.Load(pid)
	require.NoError(t, err)
	require.True(t, rb.Project.IsMember(b))

	addTask(t, restored, pid, a, 1)
	require.NotEqual(t, s.HashSeq().Hash, restored.HashSeq().Hash)
}

func TestRestoreRejectsBrokenBooks(t *testing.T) {
	a := newAccount(t)
	p, err := projects.New(1, "Website", []taskledger.Account{a})
	require.NoError(t, err)
	require.Error(t, New().Restore([]Book{{Project: p}}))

	p, err = projects.New(0, "Website", []taskledger.Account{a})
	require.NoError(t, err)
	p.Completed = true
	require.Error(t, New().Restore([]Book{{Project: p}}), "a completed project needs rewarded tasks")
}

func TestRandomOperationsKeepBooksConsistent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New()
		accounts := []taskledger.Account{newAccount(rt), newAccount(rt), newAccount(rt)}
		create(rt, s, accounts[0])
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			pid := rapid.Uint64Range(0, uint64(s.Len())).Draw(rt, "project")
			who := rapid.SampledFrom(accounts).Draw(rt, "who")
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				_, _ = s.Create(func(id uint64) (projects.Project, error) {
					return projects.New(id, "p", []taskledger.Account{who})
				})
			case 1:
				_ = s.Mutate(pid, func(tx *Txn) error {
					_, err := tx.Book.Project.AddMember(who)
					return err
				})
			case 2:
				reward := rapid.Uint64Range(0, 5).Draw(rt, "reward")
				_ = s.Mutate(pid, func(tx *Txn) error {
					task, err := tasks.New(&tx.Book.Project, "t", who, now.Add(time.Minute), reward, now)
					if err != nil {
						return err
					}
					return tx.Append(task)
				})
			case 3:
				tid := rapid.Uint64Range(0, 5).Draw(rt, "task")
				_ = s.Mutate(pid, func(tx *Txn) error {
					task, err := tx.Task(tid)
					if err != nil {
						return err
					}
					return task.Complete()
				})
			}
		}
		for _, b := range s.Books() {
			if err := b.Consistent(); err != nil {
				rt.Fatalf("inconsistent book: %v", err)
			}
		}
	})
}
