package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"prism/internal/db"
	"prism/internal/logging"
	"prism/internal/provider"
	"prism/internal/realtime"
	"prism/internal/uploads"
)

// dialTestClient connects a real websocket client to a running hub
// under the given channel and user ids.
func dialTestClient(t *testing.T, hub *realtime.Hub, channelID, userID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		realtime.ServeWS(hub, conn, channelID, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Get(channelID) == nil {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

// Frames go to the channel named at submission and nowhere else. In
// particular a session with no channel id must not leak its output to
// another connection sharing the same user identity, which every
// anonymous session does.
func TestDeliveryBindsToSubmittingChannel(t *testing.T) {
	logging.Disable()
	t.Cleanup(logging.Enable)

	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	files, err := uploads.NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	hub := realtime.NewHub()
	hubCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(hubCtx)

	conn := dialTestClient(t, hub, "bystander-channel", "guest")

	gen := &fakeGenerator{scripts: [][]provider.StreamEvent{textDone("the private answer")}}
	d := NewDispatcher(store, hub, files, Providers{Chat: gen}, testConfig())
	ctx := context.Background()

	// Naming the channel streams there: first a progress frame, then
	// the terminal message.
	if _, err := d.Dispatch(ctx, &Request{UserID: "guest", ChannelID: "bystander-channel", Text: "hi"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	d.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read progress frame: %v", err)
	}
	if !strings.Contains(string(frame), realtime.EventMessageProgress) {
		t.Errorf("unexpected first frame: %s", frame)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read final frame: %v", err)
	}

	// A different session of the same user submits without a channel
	// id: the turn persists, the connected session sees nothing.
	id, err := d.Dispatch(ctx, &Request{UserID: "guest", Text: "hello again"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	d.Wait()

	msgs, err := store.ListMessages(ctx, id)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected persisted turns, got %d messages", len(msgs))
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, frame, err := conn.ReadMessage(); err == nil {
		t.Fatalf("connected session received another session's frame: %s", frame)
	}
}
