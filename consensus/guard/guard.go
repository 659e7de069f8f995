/*
Package guard holds the capability checks that every mutating ledger operation runs before touching state.
Each check returns nil or an error wrapping taskledger.ErrPermissionDenied.
*/
package guard

import (
	"fmt"

	"taskledger/auxiliarium/tasks"
	"taskledger/consensus/identity"
	"taskledger/taskledger"
)

// RequireAdmin passes only for the ledger admin.
func RequireAdmin(r *identity.Registry, caller taskledger.Account) error {
	if !r.IsAdmin(caller) {
		return fmt.Errorf("%w: %s is not the admin", taskledger.ErrPermissionDenied, short(caller))
	}
	return nil
}

// RequireAssignee passes only for the Account the Task is assigned to.
func RequireAssignee(t *tasks.Task, caller taskledger.Account) error {
	if !identity.Equal(t.AssignedTo, caller) {
		return fmt.Errorf("%w: task %d/%d is not assigned to %s", taskledger.ErrPermissionDenied, t.ProjectID, t.ID, short(caller))
	}
	return nil
}

func short(a taskledger.Account) string {
	if len(a) > 12 {
		return a[:12]
	}
	if len(a) == 0 {
		return "<anonymous>"
	}
	return a
}
