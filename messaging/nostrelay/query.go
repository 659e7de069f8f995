package nostrelay

import (
	"fmt"

	"github.com/spf13/cast"

	"taskledger/taskledger"
)

// Query is a read request. It arrives as the filter of a REQ or is built from an HTTP path.
// The numeric fields are coerced, so clients may send them as numbers or strings.
type Query struct {
	Query   string      `json:"query"`
	Project interface{} `json:"project,omitempty"`
	Task    interface{} `json:"task,omitempty"`
	Index   interface{} `json:"index,omitempty"`
	Account string      `json:"account,omitempty"`
}

func (r *Relay) answer(q Query) (interface{}, error) {
	switch q.Query {
	case "admin":
		return r.ledger.Admin(), nil
	case "projects":
		return r.ledger.GetProjectIds(), nil
	case "projectIndex":
		i, err := number("index", q.Index)
		if err != nil {
			return nil, err
		}
		return r.ledger.ProjectIds(i)
	case "kinds":
		return r.ledger.Kinds(), nil
	case "state":
		hs := r.ledger.StateHash()
		return map[string]interface{}{"hash": hs.Hash, "sequence": hs.Sequence}, nil
	case "sequence":
		if !taskledger.ValidAccount(q.Account) {
			return nil, fmt.Errorf("%w: %q is not a valid account", taskledger.ErrInvalidInput, q.Account)
		}
		return r.ledger.Sequence(q.Account), nil
	}
	pid, err := number("project", q.Project)
	if err != nil {
		return nil, err
	}
	switch q.Query {
	case "project":
		return r.ledger.GetProjectInfo(pid)
	case "members":
		return r.ledger.GetTeamMembers(pid)
	case "tasks":
		return r.ledger.GetTaskIds(pid)
	case "payouts":
		return r.ledger.Payouts(pid)
	case "summary":
		return r.ledger.PayoutSummary(pid)
	case "task":
		tid, err := number("task", q.Task)
		if err != nil {
			return nil, err
		}
		return r.ledger.GetTask(pid, tid)
	}
	return nil, fmt.Errorf("%w: unknown query %q", taskledger.ErrInvalidInput, q.Query)
}

func number(name string, v interface{}) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", taskledger.ErrInvalidInput, name)
	}
	n, err := cast.ToUint64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s", taskledger.ErrInvalidInput, name, err)
	}
	return n, nil
}
