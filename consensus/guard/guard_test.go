package guard

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"

	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/consensus/identity"
	"taskledger/taskledger"
)

func newAccount(t *testing.T) taskledger.Account {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return hex.EncodeToString(schnorr.SerializePubKey(sk.PubKey()))
}

func TestRequireAdmin(t *testing.T) {
	admin, other := newAccount(t), newAccount(t)
	r, err := identity.NewRegistry(admin)
	require.NoError(t, err)

	require.NoError(t, RequireAdmin(r, admin))
	require.ErrorIs(t, RequireAdmin(r, other), taskledger.ErrPermissionDenied)
	require.ErrorIs(t, RequireAdmin(r, ""), taskledger.ErrPermissionDenied)
}

func TestRequireAssignee(t *testing.T) {
	a, b := newAccount(t), newAccount(t)
	p, err := projects.New(0, "Website", []taskledger.Account{a, b})
	require.NoError(t, err)
	now := time.Now()
	task, err := tasks.New(&p, "d", a, now.Add(time.Hour), 10, now)
	require.NoError(t, err)

	require.NoError(t, RequireAssignee(&task, a))
	require.ErrorIs(t, RequireAssignee(&task, b), taskledger.ErrPermissionDenied)
}
