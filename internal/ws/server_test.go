package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridduel/internal/arena"
)

type receivedEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer()
	coord := arena.New(srv, 20*time.Millisecond)
	srv.SetDispatcher(coord)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// waitFor reads events until one of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, eventType string) receivedEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, raw, err := conn.ReadMessage()
		require.NoErrorf(t, err, "waiting for %q", eventType)
		var ev receivedEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		if ev.Type == eventType {
			return ev
		}
	}
}

func findMatch(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, `{"type":"find_match"}`)
}

type matchFoundData struct {
	Room      string    `json:"room"`
	Symbol    string    `json:"symbol"`
	FirstTurn string    `json:"first_turn"`
	Board     [9]string `json:"board"`
}

// pairClients connects two clients and matches them, returning the
// connection holding X first.
func pairClients(t *testing.T, ts *httptest.Server) (xConn, oConn *websocket.Conn, room string) {
	t.Helper()
	a := dial(t, ts)
	b := dial(t, ts)
	waitFor(t, a, "connected")
	waitFor(t, b, "connected")

	findMatch(t, a)
	waitFor(t, a, "searching")
	findMatch(t, b)

	var mfA, mfB matchFoundData
	require.NoError(t, json.Unmarshal(waitFor(t, a, "match_found").Data, &mfA))
	require.NoError(t, json.Unmarshal(waitFor(t, b, "match_found").Data, &mfB))
	require.Equal(t, mfA.Room, mfB.Room)
	require.Equal(t, "X", mfA.FirstTurn)
	require.NotEqual(t, mfA.Symbol, mfB.Symbol)

	if mfA.Symbol == "X" {
		return a, b, mfA.Room
	}
	return b, a, mfA.Room
}

func TestConnectAck(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)

	ev := waitFor(t, conn, "connected")
	assert.JSONEq(t, `{"ok":true}`, string(ev.Data))
}

func TestMatchAndMoveRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	xConn, oConn, _ := pairClients(t, ts)

	send(t, xConn, `{"type":"make_move","position":4}`)

	for _, conn := range []*websocket.Conn{xConn, oConn} {
		ev := waitFor(t, conn, "game_update")
		var upd struct {
			Board [9]string `json:"board"`
			Turn  string    `json:"turn"`
		}
		require.NoError(t, json.Unmarshal(ev.Data, &upd))
		assert.Equal(t, "X", upd.Board[4])
		assert.Equal(t, "O", upd.Turn)
	}
}

func TestMoveRejectedForWrongTurn(t *testing.T) {
	ts := newTestServer(t)
	_, oConn, _ := pairClients(t, ts)

	send(t, oConn, `{"type":"make_move","position":0}`)

	ev := waitFor(t, oConn, "move_rejected")
	assert.JSONEq(t, `{"reason":"not your turn"}`, string(ev.Data))
}

func TestStringPositionAccepted(t *testing.T) {
	ts := newTestServer(t)
	xConn, _, _ := pairClients(t, ts)

	send(t, xConn, `{"type":"make_move","position":"4"}`)

	ev := waitFor(t, xConn, "game_update")
	var upd struct {
		Board [9]string `json:"board"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &upd))
	assert.Equal(t, "X", upd.Board[4])
}

func TestWinGameOverAndRematch(t *testing.T) {
	ts := newTestServer(t)
	xConn, oConn, _ := pairClients(t, ts)

	moves := []struct {
		conn *websocket.Conn
		pos  string
	}{
		{xConn, "0"}, {oConn, "3"}, {xConn, "1"}, {oConn, "4"}, {xConn, "2"},
	}
	for _, m := range moves {
		send(t, m.conn, `{"type":"make_move","position":`+m.pos+`}`)
		waitFor(t, m.conn, "game_update")
	}

	ev := waitFor(t, oConn, "game_over")
	assert.JSONEq(t, `{"winner":"X","draw":false}`, string(ev.Data))

	// Rematch announcement with the reset public state.
	ev = waitFor(t, oConn, "rematch_started")
	var st struct {
		Board  [9]string `json:"board"`
		Turn   string    `json:"turn"`
		Over   bool      `json:"over"`
		Winner *string   `json:"winner"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &st))
	assert.Equal(t, [9]string{}, st.Board)
	assert.Equal(t, "X", st.Turn)
	assert.False(t, st.Over)
	assert.Nil(t, st.Winner)
	waitFor(t, xConn, "rematch_started")
}

func TestDisconnectNotifiesOpponent(t *testing.T) {
	ts := newTestServer(t)
	xConn, oConn, _ := pairClients(t, ts)

	require.NoError(t, xConn.Close())

	waitFor(t, oConn, "opponent_left")
}

func TestLeaveGameAck(t *testing.T) {
	ts := newTestServer(t)
	xConn, oConn, _ := pairClients(t, ts)

	send(t, xConn, `{"type":"leave_game"}`)

	ev := waitFor(t, xConn, "left_game")
	assert.JSONEq(t, `{"ok":true}`, string(ev.Data))
	waitFor(t, oConn, "opponent_left")
}

func TestCancelSearch(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	waitFor(t, conn, "connected")

	findMatch(t, conn)
	waitFor(t, conn, "searching")
	send(t, conn, `{"type":"cancel_search"}`)

	ev := waitFor(t, conn, "search_canceled")
	assert.JSONEq(t, `{"ok":true}`, string(ev.Data))
}

// serverSideConn upgrades a throwaway connection and hands back the
// server half, so a test can build a Client around a real socket.
func serverSideConn(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	sc := <-conns
	t.Cleanup(func() { _ = sc.Close() })
	return sc
}

func TestBroadcastToStalledMemberDoesNotBlock(t *testing.T) {
	srv := NewServer()
	stalled := &Client{id: "stalled", conn: serverSideConn(t), send: make(chan []byte, 1)}
	stalled.send <- []byte(`{}`) // buffer full, no write loop draining it
	srv.mu.Lock()
	srv.clients[stalled.id] = stalled
	srv.groups["room"] = map[string]*Client{stalled.id: stalled}
	srv.mu.Unlock()

	done := make(chan struct{})
	go func() {
		srv.Broadcast("room", "game_update", map[string]any{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a stalled member")
	}

	// The stalled connection was closed so its read loop tears it down.
	err := stalled.conn.WriteMessage(websocket.TextMessage, []byte("x"))
	assert.Error(t, err)
}

func TestMoveOutsideGameIsError(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	waitFor(t, conn, "connected")

	send(t, conn, `{"type":"make_move","position":0}`)

	ev := waitFor(t, conn, "error")
	assert.JSONEq(t, `{"message":"not in a game"}`, string(ev.Data))
}
