/*
Package nostrelay exposes the Ledger to clients. Signed operations and queries travel over a Nostr style
websocket on "/", and the read operations are also served as plain JSON over HTTP.
*/
package nostrelay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/cors"
	"github.com/sasha-s/go-deadlock"

	"taskledger/consensus/conductor"
	"taskledger/taskledger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Relay struct {
	ledger   *conductor.Ledger
	router   *mux.Router
	upgrader websocket.Upgrader

	// open websockets, and a count of their readers so that drain can wait for them
	sockets      map[*WebSocket]struct{}
	socketsMutex *deadlock.Mutex
	closing      bool
	readers      sync.WaitGroup
}

func New(ledger *conductor.Ledger) *Relay {
	r := &Relay{
		ledger:       ledger,
		router:       mux.NewRouter(),
		sockets:      make(map[*WebSocket]struct{}),
		socketsMutex: &deadlock.Mutex{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	// catch the websocket call before anything else
	r.router.Path("/").Headers("Upgrade", "websocket").HandlerFunc(r.handleWebsocket)
	r.routes()
	return r
}

// Handler returns the router wrapped with permissive CORS so that browser frontends can use it.
func (r *Relay) Handler() http.Handler {
	return cors.Default().Handler(r.router)
}

// Start serves the Relay on websocketAddr and httpAddr until terminate is closed. wg is released once
// the servers have stopped and every event that was being handled has been applied or rejected.
func (r *Relay) Start(terminate chan struct{}, wg *sync.WaitGroup) {
	conf := taskledger.MakeOrGetConfig()
	addrs := []string{conf.GetString("websocketAddr")}
	if h := conf.GetString("httpAddr"); len(h) > 0 && h != addrs[0] {
		addrs = append(addrs, h)
	}
	var servers []*http.Server
	for _, addr := range addrs {
		srv := &http.Server{
			Handler:           r.Handler(),
			Addr:              addr,
			WriteTimeout:      10 * time.Second,
			ReadTimeout:       10 * time.Second,
			IdleTimeout:       30 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
		}
		servers = append(servers, srv)
		go func() {
			taskledger.LogCLI("listening on "+srv.Addr, 4)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				taskledger.LogCLI(err.Error(), 0)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-terminate
		for _, srv := range servers {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := srv.Shutdown(ctx); err != nil {
				taskledger.LogCLI(fmt.Sprintf("shutting down %s: %s", srv.Addr, err), 2)
			}
			cancel()
		}
		r.drain()
		taskledger.LogCLI("relay: shutdown complete", 4)
	}()
}

// track registers a new websocket and its reader. It reports false once the Relay is draining.
func (r *Relay) track(ws *WebSocket) bool {
	r.socketsMutex.Lock()
	defer r.socketsMutex.Unlock()
	if r.closing {
		return false
	}
	r.sockets[ws] = struct{}{}
	r.readers.Add(1)
	return true
}

func (r *Relay) untrack(ws *WebSocket) {
	r.socketsMutex.Lock()
	delete(r.sockets, ws)
	r.socketsMutex.Unlock()
	r.readers.Done()
}

// drain closes every websocket and waits until their readers have finished the message in hand.
// Hijacked connections are not covered by http.Server.Shutdown.
func (r *Relay) drain() {
	r.socketsMutex.Lock()
	r.closing = true
	for ws := range r.sockets {
		ws.conn.Close()
	}
	r.socketsMutex.Unlock()
	r.readers.Wait()
}
