package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writeWait bounds a single frame write so a stalled peer errors out
// instead of wedging the write loop.
const writeWait = 10 * time.Second

// Dispatcher receives every inbound event together with the handle of
// the originating connection. The arena coordinator implements it.
type Dispatcher interface {
	OnConnect(handle string)
	OnFindMatch(handle string)
	OnCancelSearch(handle string)
	OnMakeMove(handle string, rawPosition json.RawMessage)
	OnPlayAgain(handle string)
	OnLeaveGame(handle string)
	OnDisconnect(handle string)
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Server owns the live connections and the room groups. It delivers
// inbound events to the dispatcher in per-connection order and exposes
// the emit/broadcast primitives the dispatcher answers through.
type Server struct {
	upgrader   websocket.Upgrader
	mu         sync.Mutex
	clients    map[string]*Client
	groups     map[string]map[string]*Client
	dispatcher Dispatcher
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[string]*Client{},
		groups:   map[string]map[string]*Client{},
	}
}

// SetDispatcher wires the event sink. Must happen before HandleWS serves
// traffic.
func (s *Server) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 16)}
	s.mu.Lock()
	s.clients[client.id] = client
	s.mu.Unlock()
	log.Debug().Str("handle", client.id).Msg("connection opened")

	go s.writeLoop(client)
	s.dispatcher.OnConnect(client.id)
	s.readLoop(client)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		s.dispatcher.OnDisconnect(c.id)
		log.Debug().Str("handle", c.id).Msg("connection closed")
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "find_match":
			s.dispatcher.OnFindMatch(c.id)
		case "cancel_search":
			s.dispatcher.OnCancelSearch(c.id)
		case "make_move":
			s.dispatcher.OnMakeMove(c.id, msg.Position)
		case "play_again":
			s.dispatcher.OnPlayAgain(c.id)
		case "leave_game":
			s.dispatcher.OnLeaveGame(c.id)
		default:
			log.Debug().Str("handle", c.id).Str("type", msg.Type).Msg("unknown message type")
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.conn.Close()
			return
		}
	}
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	if s.clients[c.id] == c {
		delete(s.clients, c.id)
	}
	for roomID, group := range s.groups {
		if group[c.id] == c {
			delete(group, c.id)
			if len(group) == 0 {
				delete(s.groups, roomID)
			}
		}
	}
	s.mu.Unlock()
	safeClose(c.send)
	_ = c.conn.Close()
}

// Join adds the handle's connection to a room group.
func (s *Server) Join(roomID, handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.clients[handle]
	if c == nil {
		return
	}
	group := s.groups[roomID]
	if group == nil {
		group = map[string]*Client{}
		s.groups[roomID] = group
	}
	group[handle] = c
}

// Leave removes the handle from a room group. Unknown rooms or handles
// are a no-op.
func (s *Server) Leave(roomID, handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.groups[roomID]
	if group == nil {
		return
	}
	delete(group, handle)
	if len(group) == 0 {
		delete(s.groups, roomID)
	}
}

// Emit sends one event to one handle. Gone handles are dropped silently.
func (s *Server) Emit(handle, event string, payload any) {
	msg, err := json.Marshal(envelope{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal outbound event")
		return
	}
	s.mu.Lock()
	c := s.clients[handle]
	s.mu.Unlock()
	if c == nil {
		return
	}
	safeSend(c, msg)
}

// Broadcast sends one event to every member of a room group. A torn-down
// room has no group, so the broadcast reaches no one.
func (s *Server) Broadcast(roomID, event string, payload any) {
	msg, err := json.Marshal(envelope{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal outbound event")
		return
	}
	s.mu.Lock()
	for _, c := range s.groups[roomID] {
		safeSend(c, msg)
	}
	s.mu.Unlock()
}

// Connections reports the number of live connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

// safeSend queues msg without blocking and survives a racing close of
// the channel. A full buffer means the peer stopped reading: the
// message is dropped and the connection is closed, so the read loop
// tears the client down instead of the sender waiting on it.
func safeSend(c *Client, msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("handle", c.id).Msg("send buffer full, dropping slow client")
		_ = c.conn.Close()
	}
}
