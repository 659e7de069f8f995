package conductor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskledger/consensus/escrow"
	"taskledger/taskledger"
)

func (p participant) sign(t *testing.T, kind int64, seq int64, content string) taskledger.Event {
	e, err := taskledger.SignEvent(p.priv, kind, seq, content, now)
	require.NoError(t, err)
	return e
}

func TestHandleEventAppliesOperations(t *testing.T) {
	admin, a := newParticipant(t), newParticipant(t)
	l, bank := newLedger(t, admin)
	ctx := context.Background()

	r, err := l.HandleEvent(ctx, admin.sign(t, KindCreateProject, 1,
		fmt.Sprintf(`{"name":"Website","members":["%s"]}`, a.account)))
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"project": 0}, r.Result)
	require.Equal(t, l.StateHash().Hash, r.StateHash)

	deadline := now.Add(time.Hour).Unix()
	r, err = l.HandleEvent(ctx, admin.sign(t, KindCreateTask, 2,
		fmt.Sprintf(`{"project":0,"description":"landing page","assigned_to":"%s","deadline":%d,"reward":100}`, a.account, deadline)))
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"project": 0, "task": 0}, r.Result)

	_, err = l.HandleEvent(ctx, a.sign(t, KindCompleteTask, 1, `{"project":0,"task":0}`))
	require.NoError(t, err)

	r, err = l.HandleEvent(ctx, admin.sign(t, KindVerifyProject, 3, `{"project":0,"funds":120}`))
	require.NoError(t, err)
	s, ok := r.Result.(escrow.Settlement)
	require.True(t, ok)
	require.Equal(t, taskledger.Amount(20), s.Refund)
	require.Equal(t, taskledger.Amount(100), bank.Balance(a.account))

	require.Equal(t, int64(3), l.Sequence(admin.account))
	require.Equal(t, int64(1), l.Sequence(a.account))
}

func TestHandleEventSequence(t *testing.T) {
	admin, a := newParticipant(t), newParticipant(t)
	l, _ := newLedger(t, admin)
	ctx := context.Background()
	create := fmt.Sprintf(`{"name":"Website","members":["%s"]}`, a.account)

	_, err := l.HandleEvent(ctx, admin.sign(t, KindCreateProject, 2, create))
	require.ErrorIs(t, err, taskledger.ErrInvalidInput)
	require.Empty(t, l.GetProjectIds())

	_, err = l.HandleEvent(ctx, admin.sign(t, KindCreateProject, 1, `{"name":"","members":[]}`))
	require.ErrorIs(t, err, taskledger.ErrInvalidInput)
	require.Equal(t, int64(0), l.Sequence(admin.account), "rejected operations do not consume a sequence")

	_, err = l.HandleEvent(ctx, admin.sign(t, KindCreateProject, 1, create))
	require.NoError(t, err)
	_, err = l.HandleEvent(ctx, admin.sign(t, KindCreateProject, 1, `{"name":"Other","members":["`+a.account+`"]}`))
	require.ErrorIs(t, err, taskledger.ErrInvalidInput)
	require.Len(t, l.GetProjectIds(), 1)
}

func TestHandleEventRejects(t *testing.T) {
	admin, a := newParticipant(t), newParticipant(t)
	l, _ := newLedger(t, admin)
	ctx := context.Background()

	e := admin.sign(t, KindCreateProject, 1, fmt.Sprintf(`{"name":"Website","members":["%s"]}`, a.account))
	tampered := e
	tampered.Content = `{"name":"Evil","members":["` + a.account + `"]}`
	_, err := l.HandleEvent(ctx, tampered)
	require.ErrorIs(t, err, taskledger.ErrPermissionDenied)

	_, err = l.HandleEvent(ctx, admin.sign(t, 1, 1, "hello"))
	require.ErrorIs(t, err, taskledger.ErrInvalidInput)

	_, err = l.HandleEvent(ctx, admin.sign(t, KindAddTeamMember, 1, "not json"))
	require.ErrorIs(t, err, taskledger.ErrInvalidInput)

	_, err = l.HandleEvent(ctx, a.sign(t, KindCreateProject, 1, fmt.Sprintf(`{"name":"Mine","members":["%s"]}`, a.account)))
	require.ErrorIs(t, err, taskledger.ErrPermissionDenied)

	_, err = l.HandleEvent(ctx, e)
	require.NoError(t, err)
	_, err = l.HandleEvent(ctx, e)
	require.ErrorIs(t, err, taskledger.ErrInvalidInput, "replayed events are dropped")
	require.Len(t, l.GetProjectIds(), 1)
}

func TestHandleEventRejectsForgedID(t *testing.T) {
	admin, a := newParticipant(t), newParticipant(t)
	l, _ := newLedger(t, admin)
	ctx := context.Background()

	e := admin.sign(t, KindCreateProject, 1, fmt.Sprintf(`{"name":"Website","members":["%s"]}`, a.account))
	forged := e
	forged.ID = "not-the-real-id"
	r, err := l.HandleEvent(ctx, forged)
	require.ErrorIs(t, err, taskledger.ErrPermissionDenied)
	require.Empty(t, r.EventID)
	require.Empty(t, l.GetProjectIds())
	require.Equal(t, int64(0), l.Sequence(admin.account))

	_, err = l.HandleEvent(ctx, e)
	require.NoError(t, err, "a rejected forgery does not burn the real id")

	// any other id on the same signed body is refused as well
	forged.ID = e.ID + "00"
	_, err = l.HandleEvent(ctx, forged)
	require.ErrorIs(t, err, taskledger.ErrPermissionDenied)
	require.Len(t, l.GetProjectIds(), 1)
}

func TestKinds(t *testing.T) {
	l, _ := newLedger(t, newParticipant(t))
	require.Equal(t, map[int64]string{
		KindCreateProject: "projects",
		KindAddTeamMember: "projects",
		KindCreateTask:    "tasks",
		KindCompleteTask:  "tasks",
		KindVerifyProject: "escrow",
	}, l.Kinds())
}
