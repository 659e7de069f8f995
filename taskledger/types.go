package taskledger

import (
	"bytes"
)

// Account is a participant identity: the hex encoded x-only public key of the wallet that signs on its behalf.
type Account = string

type S256Hash = string

// Amount is a reward value in the smallest indivisible unit (sats).
type Amount = uint64

type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

type MindLog struct {
	MindName string
	Comment  string
	Message  interface{}
}

// HashSeq is a deterministic fingerprint of a Mind-state together with the total number of
// operations that produced it.
type HashSeq struct {
	Hash     S256Hash
	Sequence int64
	Mind     string
	Data     bytes.Buffer
	EventID  S256Hash //optional
}
