// Package presence relays chat messages and the online-user list to every
// connected WebSocket client.
package presence

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Options configures a Hub.
type Options struct {
	// AllowedOrigins lists browser origins allowed to upgrade; "*" allows any.
	AllowedOrigins []string
	// Location renders chat timestamps. Defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// OnChat, when set, receives every broadcast chat frame on a goroutine of
	// its own. Frames are dropped while chatBuffer of them are waiting.
	OnChat func(ChatFrame)
}

const chatBuffer = 64

type session struct {
	identity *Identity
	// loginSeq orders the user list by first login.
	loginSeq uint64
}

type inbound struct {
	client *Client
	raw    []byte
}

// Hub owns the registry of live connections. Every registry mutation happens
// on the Run goroutine; mu only guards readers on other goroutines.
type Hub struct {
	clients    map[*Client]*session
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	mu         sync.RWMutex
	loginSeq   uint64

	origins  originPolicy
	loc      *time.Location
	now      func() time.Time
	onChat   func(ChatFrame)
	chats    chan ChatFrame
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub; call Run to start it.
func NewHub(opts Options) *Hub {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[*Client]*session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		origins:    newOriginPolicy(opts.AllowedOrigins),
		loc:        opts.Location,
		now:        opts.Now,
		onChat:     opts.OnChat,
		chats:      make(chan ChatFrame, chatBuffer),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.upgrader = newUpgrader(h.origins)
	return h
}

// Run processes connection lifecycle events and inbound frames until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	if h.onChat != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.relayChats()
		}()
	}

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.attach(client)
			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.detach(client)

		case in := <-h.inbound:
			h.handleFrame(in.client, in.raw)
		}
	}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = &session{}
	n := len(h.clients)
	h.mu.Unlock()

	connectionsGauge.Inc()
	log.Printf("ws %s connected from %s, %d open", c.id, c.addr, n)
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	sess, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	close(c.send)
	connectionsGauge.Dec()
	log.Printf("ws %s disconnected, %d open", c.id, n)

	if sess.identity != nil {
		onlineUsersGauge.Dec()
		h.broadcastUserList()
	}
}

// handleFrame applies one client frame. Malformed or unknown frames are logged and dropped.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		framesRejected.Inc()
		log.Printf("ws %s sent malformed frame: %v", c.id, err)
		return
	}

	switch f.Type {
	case TypeLogin:
		h.login(c, Identity{UserID: f.UserID, Username: f.Username})
		h.broadcastUserList()

	case TypeMessage:
		username := f.Username
		if username == "" {
			if id := h.identityOf(c); id != nil {
				username = id.Username
			}
		}
		frame := ChatFrame{
			Type:     TypeMessage,
			Username: username,
			Content:  f.Content,
			Time:     h.now().In(h.loc).Format("15:04"),
		}
		h.broadcast(TypeMessage, frame)
		if h.onChat != nil {
			select {
			case h.chats <- frame:
			default:
				framesSkipped.WithLabelValues(kindArchive).Inc()
				log.Printf("ws chat relay full, dropping line from %q", username)
			}
		}

	default:
		framesRejected.Inc()
		log.Printf("ws %s sent unknown frame type %q", c.id, f.Type)
	}
}

// relayChats hands queued chat frames to OnChat until Shutdown.
func (h *Hub) relayChats() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case f := <-h.chats:
			h.onChat(f)
		}
	}
}

func (h *Hub) login(c *Client, id Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.clients[c]
	if !ok {
		return
	}
	if sess.identity == nil {
		h.loginSeq++
		sess.loginSeq = h.loginSeq
		onlineUsersGauge.Inc()
	}
	sess.identity = &id
}

func (h *Hub) identityOf(c *Client) *Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if sess, ok := h.clients[c]; ok {
		return sess.identity
	}
	return nil
}

// Users returns the identities of logged-in connections in login order.
func (h *Hub) Users() []Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := make([]*session, 0, len(h.clients))
	for _, sess := range h.clients {
		if sess.identity != nil {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].loginSeq < sessions[j].loginSeq })

	users := make([]Identity, 0, len(sessions))
	for _, sess := range sessions {
		users = append(users, *sess.identity)
	}
	return users
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastUserList() {
	h.broadcast(TypeUserList, UserListFrame{Type: TypeUserList, Users: h.Users()})
}

// broadcast queues v to every registered connection and returns how many
// accepted it. Connections whose buffer is full are skipped for this frame.
func (h *Hub) broadcast(kind string, v any) int {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws marshal %s frame: %v", kind, err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		select {
		case c.send <- payload:
			delivered++
		default:
			framesSkipped.WithLabelValues(kind).Inc()
			log.Printf("ws %s send buffer full, skipping %s frame", c.id, kind)
		}
	}
	framesDelivered.WithLabelValues(kind).Add(float64(delivered))
	return delivered
}

func (h *Hub) shutdownClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if c.conn == nil {
			continue
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("ws %s close: %v", c.id, err)
		}
	}
	connectionsGauge.Sub(float64(len(clients)))
	log.Printf("closed %d websocket connections", len(clients))
}

// Shutdown stops Run, closes every connection and waits for the pumps to exit.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
