package taskledger

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stackerstan/go-nostr"
)

// Event is our local view of a signed Nostr event carrying a ledger operation.
type Event struct {
	ID        string
	PubKey    string
	CreatedAt time.Time
	Kind      int64
	Tags      nostr.Tags
	Content   string
	Sig       string
}

//GetSingleTag returns the value of the first tag that matches t string.
func (e *Event) GetSingleTag(t string) (value string, ok bool) {
	for _, tag := range e.Tags {
		if len(tag) > 1 {
			if tag[0] == t {
				if len(tag[1]) > 0 {
					return tag[1], true
				}
			}
		}
	}
	return
}

// Sequence returns the value of the sequence tag, or 0 if there isn't a valid one.
func (e *Event) Sequence() int64 {
	if seq, ok := e.GetSingleTag("sequence"); ok {
		if s, err := strconv.ParseInt(seq, 10, 64); err == nil {
			return s
		}
	}
	return 0
}

func (e *Event) CheckSignature() (bool, error) {
	n := e.Nostr()
	return n.CheckSignature()
}

func (e *Event) Nostr() nostr.Event {
	return nostr.Event{
		ID:        e.ID,
		PubKey:    e.PubKey,
		CreatedAt: e.CreatedAt,
		Kind:      int(e.Kind),
		Tags:      e.Tags,
		Content:   e.Content,
		Sig:       e.Sig,
	}
}

//ConvertToInternalEvent parses a nostr event and converts it to a locally Typed event
func ConvertToInternalEvent(evt *nostr.Event) Event {
	return Event{
		ID:        evt.ID,
		PubKey:    evt.PubKey,
		CreatedAt: evt.CreatedAt,
		Kind:      int64(evt.Kind),
		Tags:      evt.Tags,
		Content:   evt.Content,
		Sig:       evt.Sig,
	}
}

// SignEvent builds an event of kind carrying content and the given sequence tag, and signs it with privateKey.
func SignEvent(privateKey string, kind int64, sequence int64, content string, createdAt time.Time) (Event, error) {
	pubkey, err := PubKey(privateKey)
	if err != nil {
		return Event{}, err
	}
	n := nostr.Event{
		PubKey:    pubkey,
		CreatedAt: createdAt,
		Kind:      int(kind),
		Tags:      nostr.Tags{[]string{"sequence", strconv.FormatInt(sequence, 10)}},
		Content:   content,
	}
	n.ID = n.GetID()
	if err := n.Sign(privateKey); err != nil {
		return Event{}, fmt.Errorf("signing kind %d: %w", kind, err)
	}
	return ConvertToInternalEvent(&n), nil
}
