package conductor

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/consensus/escrow"
	"taskledger/taskledger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	KindCreateProject int64 = 650100
	KindAddTeamMember int64 = 650102
	KindCreateTask    int64 = 650104
	KindCompleteTask  int64 = 650106
	KindVerifyProject int64 = 650108
)

// Receipt is returned for every event that has been applied.
type Receipt struct {
	EventID   string      `json:"event_id"`
	Kind      int64       `json:"kind"`
	Sequence  int64       `json:"sequence"`
	StateHash string      `json:"state_hash"`
	Result    interface{} `json:"result,omitempty"`
}

func (l *Ledger) registerKinds() error {
	if err := l.kinds.RegisterMind([]int64{KindCreateProject, KindAddTeamMember}, "projects"); err != nil {
		return err
	}
	if err := l.kinds.RegisterMind([]int64{KindCreateTask, KindCompleteTask}, "tasks"); err != nil {
		return err
	}
	return l.kinds.RegisterMind([]int64{KindVerifyProject}, "escrow")
}

// Kinds returns every event kind the Ledger accepts and the Mind that handles it.
func (l *Ledger) Kinds() map[int64]string {
	return l.kinds.GetAllKinds()
}

// HandleEvent is the entry point for signed operations. The signer of the event is the caller.
// The event must carry the next sequence number of its signer, which only advances if the operation applies.
// Events that have been seen before are dropped.
func (l *Ledger) HandleEvent(ctx context.Context, e taskledger.Event) (Receipt, error) {
	n := e.Nostr()
	if e.ID != n.GetID() {
		return Receipt{}, fmt.Errorf("%w: event id %s does not match its content", taskledger.ErrPermissionDenied, e.ID)
	}
	if ok, _ := e.CheckSignature(); !ok {
		return Receipt{}, fmt.Errorf("%w: invalid signature on event %s", taskledger.ErrPermissionDenied, e.ID)
	}
	if _, ok := l.kinds.WhichMindForKind(e.Kind); !ok {
		return Receipt{}, fmt.Errorf("%w: kind %d is not handled here", taskledger.ErrInvalidInput, e.Kind)
	}
	if !l.firstSighting(e.ID) {
		return Receipt{}, fmt.Errorf("%w: event %s has already been seen", taskledger.ErrInvalidInput, e.ID)
	}
	var result interface{}
	l.applying.RLock()
	err := l.sequences.Apply(e.PubKey, e.Sequence(), func() (err error) {
		result, err = l.dispatch(ctx, e)
		return
	})
	l.applying.RUnlock()
	if err != nil {
		taskledger.LogCLI(fmt.Sprintf("event %s rejected: %s", e.ID, err), 3)
		return Receipt{}, err
	}
	l.persistIfEnabled()
	hs := l.StateHash()
	return Receipt{
		EventID:   e.ID,
		Kind:      e.Kind,
		Sequence:  hs.Sequence,
		StateHash: hs.Hash,
		Result:    result,
	}, nil
}

func (l *Ledger) firstSighting(id string) bool {
	l.bloomMutex.Lock()
	defer l.bloomMutex.Unlock()
	return l.bloom(id)
}

func (l *Ledger) dispatch(ctx context.Context, e taskledger.Event) (interface{}, error) {
	caller := e.PubKey
	switch e.Kind {
	case KindCreateProject:
		var c projects.Kind650100
		if err := unmarshal(e, &c); err != nil {
			return nil, err
		}
		id, err := l.createProject(caller, c.Name, c.Members)
		if err != nil {
			return nil, err
		}
		return map[string]uint64{"project": id}, nil
	case KindAddTeamMember:
		var c projects.Kind650102
		if err := unmarshal(e, &c); err != nil {
			return nil, err
		}
		return nil, l.addTeamMember(caller, c.Project, c.Member)
	case KindCreateTask:
		var c tasks.Kind650104
		if err := unmarshal(e, &c); err != nil {
			return nil, err
		}
		id, err := l.createTask(caller, c.Project, c.Description, c.AssignedTo, time.Unix(c.Deadline, 0), c.Reward)
		if err != nil {
			return nil, err
		}
		return map[string]uint64{"project": c.Project, "task": id}, nil
	case KindCompleteTask:
		var c tasks.Kind650106
		if err := unmarshal(e, &c); err != nil {
			return nil, err
		}
		return nil, l.completeTask(caller, c.Project, c.Task)
	case KindVerifyProject:
		var c escrow.Kind650108
		if err := unmarshal(e, &c); err != nil {
			return nil, err
		}
		s, err := l.verifyProject(ctx, caller, c.Project, c.Funds)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: kind %d", taskledger.ErrInvalidInput, e.Kind)
}

func unmarshal(e taskledger.Event, v interface{}) error {
	if err := json.Unmarshal([]byte(e.Content), v); err != nil {
		return fmt.Errorf("%w: content of event %s: %s", taskledger.ErrInvalidInput, e.ID, err)
	}
	return nil
}
