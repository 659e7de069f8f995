package taskledger

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// KindRegister routes event kinds to the Mind that consumes them.
type KindRegister struct {
	validKinds map[int64]string
	mutex      *deadlock.Mutex
}

func NewKindRegister() *KindRegister {
	return &KindRegister{
		validKinds: make(map[int64]string),
		mutex:      &deadlock.Mutex{},
	}
}

func (k *KindRegister) WhichMindForKind(kind int64) (string, bool) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	mind, ok := k.validKinds[kind]
	return mind, ok
}

// RegisterMind claims kinds for mind. It fails without registering anything if any kind is already taken.
func (k *KindRegister) RegisterMind(kinds []int64, mind string) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	for _, kind := range kinds {
		if _mind, ok := k.validKinds[kind]; ok {
			return fmt.Errorf("kind %d has already been registered by %s", kind, _mind)
		}
	}
	for _, kind := range kinds {
		k.validKinds[kind] = mind
	}
	return nil
}

func (k *KindRegister) GetAllKinds() map[int64]string {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	m := make(map[int64]string, len(k.validKinds))
	for kind, mind := range k.validKinds {
		m[kind] = mind
	}
	return m
}
