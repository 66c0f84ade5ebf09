package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tickerfeed/internal/application/port"
)

var upgrader = websocket.Upgrader{}

// eventSink 按序收集传输事件
type eventSink struct {
	mu     sync.Mutex
	events []port.Event
	ch     chan port.Event
}

func newEventSink() *eventSink {
	return &eventSink{ch: make(chan port.Event, 32)}
}

func (s *eventSink) put(ev port.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.ch <- ev
}

func (s *eventSink) wait(t *testing.T, kind port.EventKind) port.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-s.ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v event", kind)
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialDeliversOpenMessageClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`))
		time.Sleep(50 * time.Millisecond)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}))
	defer srv.Close()

	sink := newEventSink()
	tr := NewWSDialer().Dial(context.Background(), wsURL(srv), sink.put)
	defer tr.Close()

	sink.wait(t, port.EventOpen)
	msg := sink.wait(t, port.EventMessage)
	if string(msg.Payload) != `{"hello":"world"}` {
		t.Errorf("payload = %s", msg.Payload)
	}
	sink.wait(t, port.EventClose)
}

func TestSendReachesServer(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, b, err := conn.ReadMessage()
		if err != nil {
			return
		}
		got <- string(b)
	}))
	defer srv.Close()

	sink := newEventSink()
	tr := NewWSDialer().Dial(context.Background(), wsURL(srv), sink.put)
	defer tr.Close()
	sink.wait(t, port.EventOpen)

	if err := tr.Send(map[string]any{"op": "subscribe"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case b := <-got:
		if !strings.Contains(b, `"op":"subscribe"`) {
			t.Errorf("server received %s", b)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestSendBeforeOpenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	sink := newEventSink()
	tr := NewWSDialer().Dial(context.Background(), wsURL(srv), sink.put)
	defer tr.Close()

	if err := tr.Send("too early"); err == nil {
		t.Error("Send before handshake must fail")
	}
}

func TestDialFailureReportsErrorThenClose(t *testing.T) {
	// 端口不可达
	sink := newEventSink()
	d := NewWSDialer()
	d.HandshakeTimeout = time.Second
	tr := d.Dial(context.Background(), "ws://127.0.0.1:1", sink.put)
	defer tr.Close()

	ev := sink.wait(t, port.EventError)
	if ev.Err == nil {
		t.Error("error event without error")
	}
	sink.wait(t, port.EventClose)
}

func TestServerDropEmitsClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// 不发 close frame，直接断 TCP，模拟异常断开
		conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	sink := newEventSink()
	tr := NewWSDialer().Dial(context.Background(), wsURL(srv), sink.put)
	defer tr.Close()

	sink.wait(t, port.EventOpen)
	sink.wait(t, port.EventClose)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sink := newEventSink()
	tr := NewWSDialer().Dial(context.Background(), wsURL(srv), sink.put)
	sink.wait(t, port.EventOpen)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	sink.wait(t, port.EventClose)
}
