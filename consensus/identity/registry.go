/*
Package identity resolves and compares participant identities and holds the ledger admin.
*/
package identity

import (
	"fmt"
	"strings"

	"taskledger/taskledger"
)

// Registry knows which Account is the admin. The admin is fixed when the Registry is created.
type Registry struct {
	admin taskledger.Account
}

func NewRegistry(admin taskledger.Account) (*Registry, error) {
	a, err := Normalize(admin)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	return &Registry{admin: a}, nil
}

func (r *Registry) Admin() taskledger.Account {
	return r.admin
}

func (r *Registry) IsAdmin(account taskledger.Account) bool {
	return Equal(r.admin, account)
}

// Normalize lowercases account and checks it is a valid public key.
func Normalize(account taskledger.Account) (taskledger.Account, error) {
	a := strings.ToLower(strings.TrimSpace(account))
	if !taskledger.ValidAccount(a) {
		return "", fmt.Errorf("%w: %q is not a valid account", taskledger.ErrInvalidInput, account)
	}
	return a, nil
}

// Equal compares two accounts the way the ledger does, ignoring hex case.
func Equal(a, b taskledger.Account) bool {
	return len(a) > 0 && strings.EqualFold(a, b)
}

// Dedupe normalizes accounts and drops repeats, keeping the order in which each account was first seen.
func Dedupe(accounts []taskledger.Account) ([]taskledger.Account, error) {
	seen := make(map[taskledger.Account]struct{}, len(accounts))
	out := make([]taskledger.Account, 0, len(accounts))
	for _, account := range accounts {
		a, err := Normalize(account)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}
