package leafletws

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/usecases"
)

// fakeConn feeds scripted inbound events and records outbound messages.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	inbound chan []byte
}

func newFakeConn(events ...string) *fakeConn {
	c := &fakeConn{inbound: make(chan []byte, len(events))}
	for _, ev := range events {
		c.inbound <- []byte(ev)
	}
	close(c.inbound)
	return c
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.inbound
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, msg, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) ops(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]string, 0, len(c.written))
	for _, raw := range c.written {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("bad command json: %v", err)
		}
		op, _ := m["op"].(string)
		ops = append(ops, op)
	}
	return ops
}

func TestBridge_QueuesUntilAttach(t *testing.T) {
	b := NewBridge("s1")

	if err := b.CreateMap(domain.MapConfig{Lat: 1, Lng: 2, Zoom: 10, ContainerID: "map"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.AddTileLayer("https://tiles.example/{z}/{x}/{y}.png", "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.AddMarker(domain.MarkerSpec{Coordinate: domain.Coordinate{Lat: 1, Lng: 2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conn := newFakeConn()
	b.Attach(conn) // returns once the scripted events run out

	ops := conn.ops(t)
	want := []string{"createMap", "addTileLayer", "addMarker"}
	if len(ops) != len(want) {
		t.Fatalf("expected %d flushed commands, got %d (%v)", len(want), len(ops), ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("command %d: expected %q, got %q", i, want[i], ops[i])
		}
	}
}

func TestBridge_DispatchesEvents(t *testing.T) {
	b := NewBridge("s1")

	var (
		readyCalled   bool
		confirmCalled bool
		clicked       domain.Coordinate
	)
	b.OnReady(func() { readyCalled = true })
	b.OnClick(func(c domain.Coordinate) { clicked = c })
	b.OnConfirm(func() { confirmCalled = true })

	conn := newFakeConn(
		`{"event":"ready"}`,
		`{"event":"click","lat":10.48,"lng":-66.90}`,
		`{"event":"confirm"}`,
		`not json`,
		`{"event":"unknown"}`,
	)
	b.Attach(conn)

	if !readyCalled {
		t.Error("ready event not dispatched")
	}
	if clicked.Lat != 10.48 || clicked.Lng != -66.90 {
		t.Errorf("click payload lost: %+v", clicked)
	}
	if !confirmCalled {
		t.Error("confirm event not dispatched")
	}
}

func TestBridge_MarkerIDsUnique(t *testing.T) {
	b := NewBridge("s1")

	a, err := b.AddMarker(domain.MarkerSpec{})
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.AddMarker(domain.MarkerSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if a == c || a == "" {
		t.Errorf("expected unique non-empty ids, got %q and %q", a, c)
	}
}

func TestBridge_ReadyLatchedForLateSubscriber(t *testing.T) {
	b := NewBridge("s1")
	b.Attach(newFakeConn(`{"event":"ready"}`))

	var called bool
	b.OnReady(func() { called = true })
	if !called {
		t.Error("handler registered after the ready event must fire immediately")
	}
}

func TestSelector_DefaultPointWhenSurfaceAlreadyReady(t *testing.T) {
	b := NewBridge("s1")

	sess := usecases.NewMapSession("s1", b, nil, nil, usecases.DefaultMapConfig())
	sess.Init(usecases.InitParams{})

	// Browser attaches and reports ready before the selector is enabled,
	// the usual ordering when sessions are driven over REST.
	b.Attach(newFakeConn(`{"event":"ready"}`))

	sess.EnableSelector(nil)

	point := sess.SelectedPoint()
	if point == nil {
		t.Fatal("default point missing after ready-before-enable ordering")
	}
	center := usecases.DefaultMapConfig().Center()
	if point.Lat != center.Lat || point.Lng != center.Lng {
		t.Errorf("default point must sit at the session center, got %+v", point.Coordinate)
	}
	if sess.SelectorState() != usecases.SelectorPointPending {
		t.Errorf("expected pointPending, got %s", sess.SelectorState())
	}
}

func TestBridge_SendAfterDetachQueuesAgain(t *testing.T) {
	b := NewBridge("s1")

	done := make(chan struct{})
	conn := newFakeConn()
	go func() {
		b.Attach(conn)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("attach did not return")
	}

	// Connection is gone; commands must queue, not fail.
	if err := b.Notice("hello"); err != nil {
		t.Errorf("expected queued send, got %v", err)
	}
	if n := len(conn.ops(t)); n != 0 {
		t.Errorf("detached conn must not receive commands, got %d", n)
	}
}
