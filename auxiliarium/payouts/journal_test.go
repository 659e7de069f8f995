package payouts

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"taskledger/database"
	"taskledger/taskledger"
)

func TestSummarize(t *testing.T) {
	require.Equal(t, Summary{}, Summarize(nil))

	s := Summarize([]Payout{
		{Project: 0, Task: 0, Amount: 100, Paid: true},
		{Project: 0, Task: 1, Amount: 10, Paid: true},
		{Project: 0, Task: 2, Amount: 40, Paid: true},
		{Project: 0, Task: 3, Amount: 1000, Paid: false, Reason: "payee offline"},
	})
	require.Equal(t, 4, s.Transfers)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, taskledger.Amount(150), s.Total)
	require.InDelta(t, 50.0, s.Mean, 1e-9)
	require.InDelta(t, 40.0, s.Median, 1e-9)
	require.Equal(t, taskledger.Amount(100), s.Largest)
}

func TestJournal(t *testing.T) {
	conf := viper.New()
	taskledger.SetDefaults(conf, t.TempDir())
	taskledger.SetConfig(conf)

	j := NewJournal()
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	j.Record(Payout{Project: 0, Task: 0, Amount: 5, Paid: true, At: at})
	j.Record(Payout{Project: 1, Task: 0, Amount: 7, Paid: true, At: at})
	j.Record(Payout{Project: 0, Task: 1, Amount: 9, Reason: "nope", At: at})

	require.Len(t, j.All(), 3)
	require.Len(t, j.ForProject(0), 2)
	require.Empty(t, j.ForProject(2))

	require.NoError(t, j.Persist())
	restored := NewJournal()
	require.NoError(t, restored.RestoreFromDisk())
	require.Equal(t, j.All(), restored.All())
}

func TestRestoreFromEmptyFile(t *testing.T) {
	conf := viper.New()
	taskledger.SetDefaults(conf, t.TempDir())
	taskledger.SetConfig(conf)

	require.NoError(t, database.Write("payouts", "current", nil))
	j := NewJournal()
	require.NoError(t, j.RestoreFromDisk())
	require.Empty(t, j.All())

	require.NoError(t, database.Write("payouts", "current", []byte("not json")))
	require.Error(t, j.RestoreFromDisk())
}
