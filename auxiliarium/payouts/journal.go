/*
Package payouts keeps a journal of every reward transfer the escrow attempted, successful or not.
It is an audit trail only, the ledger itself never reads it back.
*/
package payouts

import (
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/montanaflynn/stats"
	"github.com/sasha-s/go-deadlock"

	"taskledger/database"
	"taskledger/taskledger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Payout struct {
	Project uint64             `json:"project"`
	Task    uint64             `json:"task"`
	To      taskledger.Account `json:"to"`
	Amount  taskledger.Amount  `json:"amount"`
	Paid    bool               `json:"paid"`
	Reason  string             `json:"reason,omitempty"` // why the transfer failed
	At      time.Time          `json:"at"`
}

type Summary struct {
	Transfers int               `json:"transfers"`
	Failed    int               `json:"failed"`
	Total     taskledger.Amount `json:"total"`
	Mean      float64           `json:"mean"`
	Median    float64           `json:"median"`
	Largest   taskledger.Amount `json:"largest"`
}

type Journal struct {
	mutex *deadlock.Mutex
	data  []Payout
}

func NewJournal() *Journal {
	return &Journal{mutex: &deadlock.Mutex{}}
}

func (j *Journal) Record(p Payout) {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.data = append(j.data, p)
	taskledger.LogMind(taskledger.MindLog{
		MindName: "payouts",
		Comment:  fmt.Sprintf("transfer for task %d/%d", p.Project, p.Task),
		Message:  p,
	})
}

// All returns every Payout in the order they were attempted.
func (j *Journal) All() []Payout {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	out := make([]Payout, len(j.data))
	copy(out, j.data)
	return out
}

func (j *Journal) ForProject(id uint64) (out []Payout) {
	for _, p := range j.All() {
		if p.Project == id {
			out = append(out, p)
		}
	}
	return
}

// Summarize reports on the given Payouts. Mean, median and largest only consider successful transfers.
func Summarize(payouts []Payout) (s Summary) {
	var amounts []float64
	for _, p := range payouts {
		s.Transfers++
		if !p.Paid {
			s.Failed++
			continue
		}
		s.Total += p.Amount
		amounts = append(amounts, float64(p.Amount))
	}
	if len(amounts) == 0 {
		return
	}
	var err error
	if s.Mean, err = stats.Mean(amounts); err != nil {
		taskledger.LogCLI(err.Error(), 2)
	}
	if s.Median, err = stats.Median(amounts); err != nil {
		taskledger.LogCLI(err.Error(), 2)
	}
	largest, err := stats.Max(amounts)
	if err != nil {
		taskledger.LogCLI(err.Error(), 2)
	}
	s.Largest = taskledger.Amount(largest)
	return
}

func (j *Journal) Persist() error {
	return Write(j.All())
}

// Write replaces the persisted journal with payouts.
func Write(payouts []Payout) error {
	b, err := json.MarshalIndent(payouts, "", " ")
	if err != nil {
		return err
	}
	return database.Write("payouts", "current", b)
}

func (j *Journal) RestoreFromDisk() error {
	f, ok := database.Open("payouts", "current")
	if !ok {
		return nil
	}
	defer f.Close()
	var data []Payout
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("restoring payouts: %w", err)
	}
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.data = data
	return nil
}
