package conn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/noisefield/internal/server/config"
	"github.com/OCharnyshevich/noisefield/internal/server/packet"
	"github.com/OCharnyshevich/noisefield/internal/server/session"
	"github.com/OCharnyshevich/noisefield/internal/server/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReplyErrorKeepsLiveSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &Connection{ctx: ctx, cancel: cancel, out: make(chan message, 1)}

	// A cancellation from below is a request failure while the session lives.
	if err := c.replyError(context.Canceled); err != nil {
		t.Fatalf("replyError on live session = %v, want nil", err)
	}
	m := <-c.out
	var e packet.Error
	if err := json.Unmarshal(m.data, &e); err != nil {
		t.Fatal(err)
	}
	if m.kind != websocket.TextMessage || e.Type != packet.TypeError {
		t.Errorf("unexpected reply kind %d %+v", m.kind, e)
	}

	cancel()
	if err := c.replyError(errors.New("boom")); !errors.Is(err, context.Canceled) {
		t.Errorf("replyError on ended session = %v, want context.Canceled", err)
	}
}

func TestIdleSessionKeptAlive(t *testing.T) {
	oldRead, oldPing := readTimeout, pingPeriod
	readTimeout, pingPeriod = 300*time.Millisecond, 100*time.Millisecond
	t.Cleanup(func() { readTimeout, pingPeriod = oldRead, oldPing })

	cfg := config.DefaultConfig()
	w, err := world.NewWorld(cfg, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		NewConnection(r.Context(), ws, cfg, testLogger(), w, sessions).Handle()
	}))
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	// The client answers pings only while reading.
	msgs := make(chan []byte, 4)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	select {
	case <-msgs:
	case <-time.After(5 * time.Second):
		t.Fatal("no hello")
	}

	time.Sleep(time.Second)

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"SAMPLE","x":0.5,"y":0.5}`)); err != nil {
		t.Fatalf("write after idle: %v", err)
	}
	select {
	case msg, ok := <-msgs:
		if !ok {
			t.Fatal("session closed while idle")
		}
		var v packet.Value
		if err := json.Unmarshal(msg, &v); err != nil || v.Type != packet.TypeValue {
			t.Errorf("unexpected reply %s (%v)", msg, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply after idle period")
	}

	ws.Close()
	deadline := time.Now().Add(5 * time.Second)
	for sessions.Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sessions.Count() != 0 {
		t.Error("session not removed after client closed")
	}
}
