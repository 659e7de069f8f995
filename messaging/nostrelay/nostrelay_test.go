package nostrelay

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskledger/consensus/conductor"
	"taskledger/consensus/escrow"
	"taskledger/taskledger"
)

type participant struct {
	priv    string
	account taskledger.Account
}

func newParticipant(t *testing.T) participant {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return participant{
		priv:    hex.EncodeToString(sk.Serialize()),
		account: hex.EncodeToString(schnorr.SerializePubKey(sk.PubKey())),
	}
}

type fixture struct {
	admin, member participant
	ledger        *conductor.Ledger
	relay         *Relay
	server        *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{admin: newParticipant(t), member: newParticipant(t)}
	l, err := conductor.New(f.admin.account, escrow.NewBank())
	require.NoError(t, err)
	f.ledger = l
	f.relay = New(l)
	f.server = httptest.NewServer(f.relay.Handler())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHTTPReads(t *testing.T) {
	f := newFixture(t)
	pid, err := f.ledger.CreateProject(f.admin.account, "Website", []taskledger.Account{f.member.account})
	require.NoError(t, err)
	_, err = f.ledger.CreateTask(f.admin.account, pid, "landing page", f.member.account, time.Now().Add(time.Hour), 100)
	require.NoError(t, err)

	tests := []struct {
		path     string
		code     int
		contains string
	}{
		{"/admin", http.StatusOK, f.admin.account},
		{"/projects", http.StatusOK, "[0]"},
		{"/projects/index/0", http.StatusOK, "0"},
		{"/projects/index/1", http.StatusNotFound, `"error":"not-found"`},
		{"/projects/0", http.StatusOK, `"team_size":1`},
		{"/projects/0/members", http.StatusOK, f.member.account},
		{"/projects/0/tasks", http.StatusOK, "[0]"},
		{"/projects/0/tasks/0", http.StatusOK, `"description":"landing page"`},
		{"/projects/0/tasks/1", http.StatusNotFound, "not-found"},
		{"/projects/0/payouts", http.StatusOK, "null"},
		{"/projects/0/summary", http.StatusOK, `"transfers":0`},
		{"/projects/7", http.StatusNotFound, "not-found"},
		{"/projects/abc", http.StatusBadRequest, "invalid-input"},
		{"/state", http.StatusOK, `"hash"`},
		{"/sequence/" + f.member.account, http.StatusOK, "0"},
		{"/sequence/nobody", http.StatusBadRequest, "invalid-input"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			code, body := f.get(t, tc.path)
			assert.Equal(t, tc.code, code, body)
			assert.Contains(t, body, tc.contains)
		})
	}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v interface{}) {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func receive(t *testing.T, conn *websocket.Conn) []interface{} {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg []interface{}
	require.NoError(t, json.Unmarshal(b, &msg))
	return msg
}

func TestWebsocketEventsAndQueries(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	e, err := taskledger.SignEvent(f.admin.priv, conductor.KindCreateProject, 1,
		fmt.Sprintf(`{"name":"Website","members":["%s"]}`, f.member.account), time.Now())
	require.NoError(t, err)
	send(t, conn, []interface{}{"EVENT", e.Nostr()})
	ok := receive(t, conn)
	require.Equal(t, "OK", ok[0])
	require.Equal(t, e.ID, ok[1])
	require.Equal(t, true, ok[2], ok[3])
	require.Equal(t, []uint64{0}, f.ledger.GetProjectIds())

	send(t, conn, []interface{}{"EVENT", e.Nostr()})
	ok = receive(t, conn)
	require.Equal(t, false, ok[2])

	bad, err := taskledger.SignEvent(f.member.priv, conductor.KindCreateProject, 1,
		fmt.Sprintf(`{"name":"Mine","members":["%s"]}`, f.member.account), time.Now())
	require.NoError(t, err)
	send(t, conn, []interface{}{"EVENT", bad.Nostr()})
	ok = receive(t, conn)
	require.Equal(t, false, ok[2])
	require.True(t, strings.HasPrefix(ok[3].(string), "permission-denied"), ok[3])

	send(t, conn, []interface{}{"REQ", "sub1", map[string]interface{}{"query": "project", "project": "0"}, map[string]interface{}{"query": "members", "project": 0}})
	first := receive(t, conn)
	require.Equal(t, "EVENT", first[0])
	require.Equal(t, "sub1", first[1])
	require.Equal(t, "Website", first[2].(map[string]interface{})["name"])
	second := receive(t, conn)
	require.Equal(t, []interface{}{f.member.account}, second[2])
	require.Equal(t, []interface{}{"EOSE", "sub1"}, receive(t, conn))

	send(t, conn, []interface{}{"REQ", "sub2", map[string]interface{}{"query": "task", "project": 0, "task": 3}})
	closed := receive(t, conn)
	require.Equal(t, "CLOSED", closed[0])
	require.True(t, strings.HasPrefix(closed[2].(string), "not-found"))

	send(t, conn, []interface{}{"HELLO", "x"})
	require.Equal(t, "NOTICE", receive(t, conn)[0])
}

func TestWebsocketRejectsMismatchedID(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	e, err := taskledger.SignEvent(f.admin.priv, conductor.KindCreateProject, 1,
		fmt.Sprintf(`{"name":"Website","members":["%s"]}`, f.member.account), time.Now())
	require.NoError(t, err)
	n := e.Nostr()
	n.ID = strings.Repeat("0", 64)
	send(t, conn, []interface{}{"EVENT", n})
	ok := receive(t, conn)
	require.Equal(t, false, ok[2])
	require.True(t, strings.HasPrefix(ok[3].(string), "permission-denied"), ok[3])
	require.Empty(t, f.ledger.GetProjectIds())
}

func TestDrainClosesWebsockets(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	e, err := taskledger.SignEvent(f.admin.priv, conductor.KindCreateProject, 1,
		fmt.Sprintf(`{"name":"Website","members":["%s"]}`, f.member.account), time.Now())
	require.NoError(t, err)
	send(t, conn, []interface{}{"EVENT", e.Nostr()})
	require.Equal(t, true, receive(t, conn)[2])

	drained := make(chan struct{})
	go func() {
		f.relay.drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("drain did not return")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	late := f.dial(t)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = late.ReadMessage()
	require.Error(t, err, "websockets opened while draining are closed straight away")
}
