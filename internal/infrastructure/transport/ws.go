package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tickerfeed/internal/application/port"
)

// WSDialer 基于 gorilla/websocket 的真实传输。Dial 立即返回句柄，
// 握手和读循环在后台进行，结果通过事件回调投递
type WSDialer struct {
	HandshakeTimeout time.Duration
	ReadDeadline     time.Duration
	PingInterval     time.Duration
}

func NewWSDialer() *WSDialer {
	return &WSDialer{
		HandshakeTimeout: 10 * time.Second,
		ReadDeadline:     60 * time.Second,
		PingInterval:     25 * time.Second,
	}
}

func (d *WSDialer) Dial(ctx context.Context, url string, onEvent func(port.Event)) port.Transport {
	t := &wsTransport{
		onEvent: onEvent,
		done:    make(chan struct{}),
	}
	go t.run(ctx, url, d)
	return t
}

type wsTransport struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	onEvent func(port.Event)

	done      chan struct{}
	closeOnce sync.Once
}

func (t *wsTransport) run(ctx context.Context, url string, d *WSDialer) {
	cctx, cancel := context.WithTimeout(ctx, d.HandshakeTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, url, nil)
	cancel()
	if err != nil {
		t.onEvent(port.Event{Kind: port.EventError, Err: err})
		t.onEvent(port.Event{Kind: port.EventClose})
		return
	}

	t.mu.Lock()
	select {
	case <-t.done:
		// Close 赶在握手完成之前
		t.mu.Unlock()
		_ = conn.Close()
		t.onEvent(port.Event{Kind: port.EventClose})
		return
	default:
	}
	t.conn = conn
	t.mu.Unlock()

	t.onEvent(port.Event{Kind: port.EventOpen})

	go t.pingLoop(conn, d.PingInterval)

	_ = conn.SetReadDeadline(time.Now().Add(d.ReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(d.ReadDeadline))
		return nil
	})

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.onEvent(port.Event{Kind: port.EventError, Err: err})
			}
			_ = conn.Close()
			t.onEvent(port.Event{Kind: port.EventClose})
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(d.ReadDeadline))
		t.onEvent(port.Event{Kind: port.EventMessage, Payload: b})
	}
}

func (t *wsTransport) pingLoop(conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			if err != nil {
				log.Debug().Err(err).Msg("ws ping failed")
				return
			}
		}
	}
}

func (t *wsTransport) Send(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return errors.New("websocket not connected")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, b)
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	return nil
}

var _ port.Transport = (*wsTransport)(nil)
var _ port.Dialer = (*WSDialer)(nil)
