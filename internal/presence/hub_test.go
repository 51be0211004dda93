package presence

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 16, 2, 5, 0, 0, time.UTC) }

func TestBroadcastReachesEveryAttachedClient(t *testing.T) {
	h := NewHub(Options{})
	clients := make([]*Client, 4)
	for i := range clients {
		clients[i] = newClient(h, nil, "test")
		h.attach(clients[i])
	}
	h.detach(clients[3])

	n := h.broadcast(TypeMessage, ChatFrame{Type: TypeMessage, Content: "hi"})
	assert.Equal(t, 3, n)
	for _, c := range clients[:3] {
		assert.Len(t, c.send, 1)
	}
	_, open := <-clients[3].send
	assert.False(t, open, "detached client's channel is closed")
}

func TestBroadcastSkipsFullBuffer(t *testing.T) {
	h := NewHub(Options{})
	slow := newClient(h, nil, "slow")
	fast := newClient(h, nil, "fast")
	h.attach(slow)
	h.attach(fast)
	for i := 0; i < sendBuffer; i++ {
		slow.send <- []byte("x")
	}

	n := h.broadcast(TypeMessage, ChatFrame{Type: TypeMessage})
	assert.Equal(t, 1, n)
	assert.Len(t, fast.send, 1)
	assert.Equal(t, 2, h.Count(), "a slow connection is skipped, not dropped")
}

func TestUsersInLoginOrder(t *testing.T) {
	h := NewHub(Options{})
	a, b, c := newClient(h, nil, "a"), newClient(h, nil, "b"), newClient(h, nil, "c")
	h.attach(a)
	h.attach(b)
	h.attach(c)

	h.handleFrame(b, []byte(`{"type":"login","userId":"2","username":"bob"}`))
	h.handleFrame(a, []byte(`{"type":"login","userId":"1","username":"alice"}`))
	assert.Equal(t, []Identity{{UserID: "2", Username: "bob"}, {UserID: "1", Username: "alice"}}, h.Users())

	// Re-login keeps the first login position.
	h.handleFrame(b, []byte(`{"type":"login","userId":"2","username":"bobby"}`))
	assert.Equal(t, []Identity{{UserID: "2", Username: "bobby"}, {UserID: "1", Username: "alice"}}, h.Users())

	h.detach(b)
	assert.Equal(t, []Identity{{UserID: "1", Username: "alice"}}, h.Users())

	var last UserListFrame
	for len(c.send) > 0 {
		require.NoError(t, json.Unmarshal(<-c.send, &last))
	}
	assert.Equal(t, TypeUserList, last.Type)
	assert.Equal(t, []Identity{{UserID: "1", Username: "alice"}}, last.Users)
}

func TestHandleFrameIgnoresBadInput(t *testing.T) {
	h := NewHub(Options{})
	c := newClient(h, nil, "c")
	h.attach(c)

	h.handleFrame(c, []byte(`not json`))
	h.handleFrame(c, []byte(`{"type":"dance"}`))
	assert.Empty(t, c.send)
	assert.Equal(t, 1, h.Count())
}

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"https://school.example"}, "", true},
		{"wildcard", []string{"*"}, "https://anywhere.example", true},
		{"listed", []string{"https://School.example"}, "https://school.example", true},
		{"unlisted", []string{"https://school.example"}, "https://evil.example", false},
		{"invalid origin", []string{"https://school.example"}, "::", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, newOriginPolicy(tt.allowed).check(r))
		})
	}
}

type testFrame struct {
	Type     string     `json:"type"`
	Username string     `json:"username"`
	Content  string     `json:"content"`
	Time     string     `json:"time"`
	Users    []Identity `json:"users"`
}

func startHub(t *testing.T, opts Options) (*Hub, string) {
	t.Helper()
	h := NewHub(opts)
	go h.Run()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(func() {
		_ = h.Shutdown(2 * time.Second)
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f testFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestChatAndPresenceOverWebSocket(t *testing.T) {
	var (
		mu      sync.Mutex
		archive []ChatFrame
	)
	h, url := startHub(t, Options{
		Location: time.UTC,
		Now:      fixedNow,
		OnChat: func(f ChatFrame) {
			mu.Lock()
			archive = append(archive, f)
			mu.Unlock()
		},
	})

	alice := dial(t, url)
	bob := dial(t, url)
	require.Eventually(t, func() bool { return h.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	send(t, alice, `{"type":"login","userId":"1","username":"alice"}`)
	for _, conn := range []*websocket.Conn{alice, bob} {
		f := readFrame(t, conn)
		assert.Equal(t, TypeUserList, f.Type)
		assert.Equal(t, []Identity{{UserID: "1", Username: "alice"}}, f.Users)
	}

	send(t, bob, `{"type":"login","userId":"2","username":"bob"}`)
	for _, conn := range []*websocket.Conn{alice, bob} {
		f := readFrame(t, conn)
		assert.Equal(t, []Identity{{UserID: "1", Username: "alice"}, {UserID: "2", Username: "bob"}}, f.Users)
	}

	send(t, alice, `{"type":"message","username":"alice","content":"hello class"}`)
	for _, conn := range []*websocket.Conn{alice, bob} {
		f := readFrame(t, conn)
		assert.Equal(t, testFrame{Type: TypeMessage, Username: "alice", Content: "hello class", Time: "02:05"}, f)
	}

	// The malformed frame is dropped; the next thing alice sees is bob's chat.
	send(t, alice, `{"type":`)
	send(t, bob, `{"type":"message","content":"still here"}`)
	f := readFrame(t, alice)
	assert.Equal(t, TypeMessage, f.Type)
	assert.Equal(t, "bob", f.Username, "falls back to the login identity")
	assert.Equal(t, "still here", f.Content)
	readFrame(t, bob)

	require.NoError(t, bob.Close())
	f = readFrame(t, alice)
	assert.Equal(t, TypeUserList, f.Type)
	assert.Equal(t, []Identity{{UserID: "1", Username: "alice"}}, f.Users)
	assert.Eventually(t, func() bool { return h.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(archive) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBlockedArchiveDoesNotStallBroadcast(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	var archived atomic.Int32
	_, url := startHub(t, Options{OnChat: func(ChatFrame) {
		<-release
		archived.Add(1)
	}})
	t.Cleanup(func() { once.Do(func() { close(release) }) })

	alice := dial(t, url)
	send(t, alice, `{"type":"login","userId":"1","username":"alice"}`)
	assert.Equal(t, TypeUserList, readFrame(t, alice).Type)

	lines := chatBuffer + 8
	for i := 0; i < lines; i++ {
		send(t, alice, `{"type":"message","content":"line"}`)
	}
	for i := 0; i < lines; i++ {
		f := readFrame(t, alice)
		require.Equal(t, TypeMessage, f.Type)
		assert.Equal(t, "alice", f.Username)
	}

	// One line is held by the blocked callback, chatBuffer wait behind it, the rest are dropped.
	once.Do(func() { close(release) })
	assert.Eventually(t, func() bool {
		n := archived.Load()
		return n >= chatBuffer && n <= chatBuffer+1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, archived.Load(), int32(chatBuffer+1))
}

func TestShutdownClosesConnections(t *testing.T) {
	h := NewHub(Options{})
	go h.Run()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.Eventually(t, func() bool { return h.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Shutdown(2*time.Second))
	assert.Equal(t, 0, h.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
