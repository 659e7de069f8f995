/*
Package ledger holds the Mind-state of every Project and its Tasks.

Each Project lives in its own cell. Mutations of a Project are serialized by the cell's mutex and work on a
private copy of the Book, which is published atomically on Commit. Readers only ever load published Books,
so they never block and never see a half applied operation.
*/
package ledger

import (
	"fmt"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"

	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/taskledger"
)

type cell struct {
	mutex *deadlock.Mutex
	book  atomic.Pointer[Book]
}

type index struct {
	ids   []uint64
	cells map[uint64]*cell
}

type State struct {
	mutex *deadlock.Mutex // serializes project creation
	index atomic.Pointer[index]
}

func New() *State {
	s := &State{mutex: &deadlock.Mutex{}}
	s.index.Store(&index{ids: []uint64{}, cells: map[uint64]*cell{}})
	return s
}

// Create allocates the next Project id and stores the Project returned by build.
// Nothing is allocated if build fails.
func (s *State) Create(build func(id uint64) (projects.Project, error)) (uint64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	current := s.index.Load()
	id := uint64(len(current.ids))
	p, err := build(id)
	if err != nil {
		return 0, err
	}
	if p.ID != id {
		return 0, fmt.Errorf("project built with id %d, expected %d", p.ID, id)
	}
	c := &cell{mutex: &deadlock.Mutex{}}
	c.book.Store(&Book{Project: p, Tasks: []tasks.Task{}})
	s.index.Store(current.with(id, c))
	return id, nil
}

func (i *index) with(id uint64, c *cell) *index {
	ids := make([]uint64, len(i.ids), len(i.ids)+1)
	copy(ids, i.ids)
	cells := make(map[uint64]*cell, len(i.cells)+1)
	for k, v := range i.cells {
		cells[k] = v
	}
	cells[id] = c
	return &index{ids: append(ids, id), cells: cells}
}

// IDs returns every Project id in creation order.
func (s *State) IDs() []uint64 {
	ids := s.index.Load().ids
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

func (s *State) Len() int {
	return len(s.index.Load().ids)
}

func (s *State) cell(id uint64) (*cell, error) {
	c, ok := s.index.Load().cells[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %d", taskledger.ErrNotFound, id)
	}
	return c, nil
}

// Load returns the latest published Book of a Project. The Book must not be modified.
func (s *State) Load(id uint64) (*Book, error) {
	c, err := s.cell(id)
	if err != nil {
		return nil, err
	}
	return c.book.Load(), nil
}

// Books returns the latest published Book of every Project in id order.
func (s *State) Books() []*Book {
	idx := s.index.Load()
	books := make([]*Book, 0, len(idx.ids))
	for _, id := range idx.ids {
		books = append(books, idx.cells[id].book.Load())
	}
	return books
}

// Mutate runs fn while holding the Project's lock. fn works on a private copy of the Book.
// If fn returns nil the copy is committed, otherwise everything since the last Commit is discarded.
// fn must not call Mutate on the same Project.
func (s *State) Mutate(id uint64, fn func(tx *Txn) error) error {
	c, err := s.cell(id)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	tx := &Txn{cell: c, Book: c.book.Load().clone()}
	if err := fn(tx); err != nil {
		return err
	}
	tx.Commit()
	return nil
}

// Restore replaces the whole State with books, which must be in id order starting at 0.
func (s *State) Restore(books []Book) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	idx := &index{ids: make([]uint64, 0, len(books)), cells: make(map[uint64]*cell, len(books))}
	for i := range books {
		b := books[i].clone()
		if b.Project.ID != uint64(i) {
			return fmt.Errorf("restoring ledger: project at %d has id %d", i, b.Project.ID)
		}
		b.Project.Reindex()
		if err := b.Consistent(); err != nil {
			return fmt.Errorf("restoring ledger: %w", err)
		}
		c := &cell{mutex: &deadlock.Mutex{}}
		c.book.Store(b)
		idx.ids = append(idx.ids, b.Project.ID)
		idx.cells[b.Project.ID] = c
	}
	s.index.Store(idx)
	return nil
}
