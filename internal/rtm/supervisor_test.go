package rtm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/rmarinn/slacksync/internal/bus"
	"github.com/rmarinn/slacksync/internal/events"
	"github.com/rmarinn/slacksync/internal/status"
	"github.com/rmarinn/slacksync/internal/store"
	"github.com/rmarinn/slacksync/internal/webapi"
)

func bareSupervisor(t *testing.T, opts Options) (*Supervisor, *store.Store, *status.Machine) {
	t.Helper()
	b := bus.New()
	st := store.New()
	machine := status.NewMachine(b)
	router := events.NewRouter(st, b, zap.NewNop())
	api := webapi.NewClient("xoxb-test", "http://127.0.0.1:0", zap.NewNop())
	s := NewSupervisor(api, st, router, machine, b, zap.NewNop())
	s.opts = opts
	return s, st, machine
}

func TestNextIDMonotonic(t *testing.T) {
	s, _, _ := bareSupervisor(t, Options{})
	prev := s.nextID()
	for i := 0; i < 100; i++ {
		id := s.nextID()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestProbeOverdue(t *testing.T) {
	now := time.Now()

	t.Run("no timeout configured always passes", func(t *testing.T) {
		s, _, _ := bareSupervisor(t, Options{PingInterval: time.Second})
		s.lastPingID = 1
		s.lastPingSent = now.Add(-time.Hour)
		if s.probeOverdue(now) {
			t.Error("overdue with zero timeout")
		}
	})

	t.Run("no probe sent yet", func(t *testing.T) {
		s, _, _ := bareSupervisor(t, Options{PingTimeout: 50 * time.Millisecond})
		if s.probeOverdue(now) {
			t.Error("overdue before any probe")
		}
	})

	t.Run("unanswered past timeout", func(t *testing.T) {
		s, _, _ := bareSupervisor(t, Options{PingTimeout: 50 * time.Millisecond})
		s.lastPingID = 3
		s.lastPingSent = now.Add(-100 * time.Millisecond)
		if !s.probeOverdue(now) {
			t.Error("not overdue despite late reply")
		}
	})

	t.Run("unanswered within timeout", func(t *testing.T) {
		s, _, _ := bareSupervisor(t, Options{PingTimeout: 50 * time.Millisecond})
		s.lastPingID = 3
		s.lastPingSent = now.Add(-10 * time.Millisecond)
		if s.probeOverdue(now) {
			t.Error("overdue before timeout elapsed")
		}
	})

	t.Run("answered probe passes", func(t *testing.T) {
		s, _, _ := bareSupervisor(t, Options{PingTimeout: 50 * time.Millisecond})
		s.lastPingID = 3
		s.lastPingSent = now.Add(-100 * time.Millisecond)
		s.onPong(3)
		if s.probeOverdue(now) {
			t.Error("overdue despite recorded pong")
		}
	})

	t.Run("pong for stale id is ignored", func(t *testing.T) {
		s, _, _ := bareSupervisor(t, Options{PingTimeout: 50 * time.Millisecond})
		s.lastPingID = 4
		s.lastPingSent = now.Add(-100 * time.Millisecond)
		s.onPong(2)
		if !s.probeOverdue(now) {
			t.Error("stale pong satisfied a newer probe")
		}
	})
}

// fakeService runs an in-process rtm.start endpoint plus websocket server.
type fakeService struct {
	srv    *httptest.Server
	frames chan []byte // frames received from the client
	push   chan []byte // frames injected toward the client

	mu     sync.Mutex
	starts int
	conn   *websocket.Conn
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{
		frames: make(chan []byte, 64),
		push:   make(chan []byte, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rtm.start", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.starts++
		f.mu.Unlock()
		wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/socket"
		snap := fmt.Sprintf(`{
			"ok": true,
			"url": %q,
			"self": {"id":"U1","name":"me"},
			"team": {"id":"T1","name":"acme"},
			"users": [{"id":"U1","name":"me"},{"id":"U2","name":"bob"}],
			"channels": [{"id":"C1","name":"general","is_member":true}]
		}`, wsURL)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(snap))
	})
	mux.HandleFunc("/socket", func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = c
		f.mu.Unlock()
		ctx := r.Context()
		go func() {
			for {
				select {
				case data := <-f.push:
					_ = c.Write(ctx, websocket.MessageText, data)
				case <-ctx.Done():
					return
				}
			}
		}()
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"hello"}`))
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"message","channel":"C1","user":"U2","ts":"100.1","text":"hi"}`))
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			f.frames <- data

			var frame struct {
				ID   int64  `json:"id"`
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &frame) != nil {
				continue
			}
			switch frame.Type {
			case "ping":
				reply, _ := json.Marshal(map[string]any{"type": "pong", "reply_to": frame.ID})
				_ = c.Write(ctx, websocket.MessageText, reply)
			case "message":
				reply, _ := json.Marshal(map[string]any{"ok": true, "reply_to": frame.ID, "ts": "300.1"})
				_ = c.Write(ctx, websocket.MessageText, reply)
			}
		}
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// inject sends a frame to the currently connected client.
func (f *fakeService) inject(frame string) {
	f.push <- []byte(frame)
}

// dropSocket closes the active socket from the server side.
func (f *fakeService) dropSocket() {
	f.mu.Lock()
	c := f.conn
	f.mu.Unlock()
	if c != nil {
		_ = c.Close(websocket.StatusGoingAway, "server restart")
	}
}

func liveSupervisor(t *testing.T, f *fakeService, opts Options) (*Supervisor, *store.Store, *status.Machine) {
	t.Helper()
	b := bus.New()
	st := store.New()
	machine := status.NewMachine(b)
	router := events.NewRouter(st, b, zap.NewNop())
	api := webapi.NewClient("xoxb-test", f.srv.URL, zap.NewNop())
	s := NewSupervisor(api, st, router, machine, b, zap.NewNop())
	t.Cleanup(s.Disconnect)
	return s, st, machine
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestConnectLoadsSnapshotAndGoesLive(t *testing.T) {
	f := newFakeService(t)
	s, st, machine := liveSupervisor(t, f, Options{})

	if err := s.Connect(context.Background(), Options{}); err != nil {
		t.Fatalf("Connect error = %v", err)
	}

	// Snapshot is in the mirror before any event could need it.
	if _, err := st.Channel("C1"); err != nil {
		t.Fatalf("snapshot not loaded: %v", err)
	}

	waitFor(t, "connected state", func() bool { return machine.Current() == status.Connected })

	// The hello-gated connection also delivered the first live event.
	waitFor(t, "live message", func() bool {
		c, err := st.Channel("C1")
		if err != nil {
			return false
		}
		_, ok := c.Messages["100.1"]
		return ok
	})
}

func TestSendMessageEchoReconciliation(t *testing.T) {
	f := newFakeService(t)
	s, st, machine := liveSupervisor(t, f, Options{})

	if err := s.Connect(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "connected state", func() bool { return machine.Current() == status.Connected })

	id, err := s.SendMessage("C1", "outbound")
	if err != nil {
		t.Fatalf("SendMessage error = %v", err)
	}
	if id == 0 {
		t.Fatal("zero correlation id")
	}

	waitFor(t, "ack promotion", func() bool {
		c, err := st.Channel("C1")
		if err != nil {
			return false
		}
		_, ok := c.Messages["300.1"]
		return ok && st.PendingCount() == 0
	})

	c, _ := st.Channel("C1")
	if got := c.Messages["300.1"].Text; got != "outbound" {
		t.Errorf("promoted text = %q, want outbound", got)
	}
}

func TestConnectFailureDoesNotRetry(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.NSConnection, 16)
	defer unsub()

	st := store.New()
	machine := status.NewMachine(b)
	router := events.NewRouter(st, b, zap.NewNop())
	api := webapi.NewClient("xoxb-test", "http://127.0.0.1:0", zap.NewNop())
	s := NewSupervisor(api, st, router, machine, b, zap.NewNop())

	if err := s.Connect(context.Background(), Options{}); err == nil {
		t.Fatal("expected connect failure")
	}
	if machine.Current() != status.Disconnected {
		t.Errorf("state = %s, want disconnected", machine.Current())
	}

	failed := false
	deadline := time.After(time.Second)
	for !failed {
		select {
		case evt := <-ch:
			if evt.Kind == "connection.failed" {
				failed = true
			}
		case <-deadline:
			t.Fatal("no connection.failed notification")
		}
	}
}

func TestDisconnectClearsSelfAndState(t *testing.T) {
	f := newFakeService(t)
	s, st, machine := liveSupervisor(t, f, Options{})

	if err := s.Connect(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "connected state", func() bool { return machine.Current() == status.Connected })
	if st.Self() == nil {
		t.Fatal("no self after connect")
	}

	// Disconnect returns only after teardown, so the post-state is
	// observable immediately.
	s.Disconnect()
	if machine.Current() != status.Disconnected {
		t.Errorf("state = %s after Disconnect returned, want disconnected", machine.Current())
	}
	if st.Self() != nil {
		t.Error("self still set after Disconnect returned")
	}
}

func TestReconnectAfterUnexpectedClose(t *testing.T) {
	f := newFakeService(t)
	s, st, machine := liveSupervisor(t, f, Options{})

	opts := Options{Reconnect: true, MaxReconnectWait: 100 * time.Millisecond}
	if err := s.Connect(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "connected state", func() bool { return machine.Current() == status.Connected })
	before := f.startCount()

	f.dropSocket()

	waitFor(t, "reconnect", func() bool {
		return f.startCount() > before && machine.Current() == status.Connected
	})
	if st.Self() == nil {
		t.Error("no self after reconnect")
	}
}

func TestMigrationTriggersReconnect(t *testing.T) {
	f := newFakeService(t)
	s, st, machine := liveSupervisor(t, f, Options{})

	if err := s.Connect(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "connected state", func() bool { return machine.Current() == status.Connected })

	// Live state from the first session must not survive the migration.
	st.AddMessage(&store.Message{Channel: "C1", Ts: "150.0", Text: "old"})
	before := f.startCount()

	f.inject(`{"type":"team_migration_started"}`)

	waitFor(t, "migration reconnect", func() bool {
		return f.startCount() > before && machine.Current() == status.Connected
	})
	waitFor(t, "fresh mirror", func() bool {
		c, err := st.Channel("C1")
		if err != nil {
			return false
		}
		_, stale := c.Messages["150.0"]
		return !stale
	})
}

func TestSendFailureLeavesNoPendingEntry(t *testing.T) {
	s, st, machine := bareSupervisor(t, Options{})
	for _, to := range []status.State{status.Connecting, status.AwaitingHello, status.Connected} {
		if err := machine.Transition(to); err != nil {
			t.Fatal(err)
		}
	}

	// Connected state but no socket: the write fails.
	if _, err := s.SendMessage("C1", "doomed"); err == nil {
		t.Fatal("expected send error with no socket")
	}
	if n := st.PendingCount(); n != 0 {
		t.Errorf("pending count = %d after failed send, want 0", n)
	}
}

func TestLivenessPingPong(t *testing.T) {
	f := newFakeService(t)
	s, _, machine := liveSupervisor(t, f, Options{})

	opts := Options{PingInterval: 30 * time.Millisecond, PingTimeout: 200 * time.Millisecond}
	if err := s.Connect(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "connected state", func() bool { return machine.Current() == status.Connected })

	// The fake service answers every ping, so several intervals later the
	// session must still be live.
	time.Sleep(200 * time.Millisecond)
	if machine.Current() != status.Connected {
		t.Errorf("state = %s after answered pings, want connected", machine.Current())
	}

	// And pings actually went out.
	sawPing := false
	for !sawPing {
		select {
		case data := <-f.frames:
			if strings.Contains(string(data), `"ping"`) {
				sawPing = true
			}
		case <-time.After(time.Second):
			t.Fatal("no ping frame observed")
		}
	}
}
