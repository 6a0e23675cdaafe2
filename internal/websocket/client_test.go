package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/mango-tracker/internal/browse"
	"github.com/vrsandeep/mango-tracker/internal/models"
	"github.com/vrsandeep/mango-tracker/internal/websocket"
)

type stubFetcher struct{}

func (stubFetcher) Browse(ctx context.Context, q models.Query) (*models.ResultPage, error) {
	return &models.ResultPage{
		Items:      []models.Book{{Title: "Solo Leveling", NewestChapter: "200"}},
		TotalCount: 1,
		Page:       q.Page,
	}, nil
}

type stateMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, hub *websocket.Hub) *gws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts := browse.Options{DebounceInterval: 10 * time.Millisecond, MinSearchLength: 2}
		if _, err := websocket.ServeBrowse(hub, w, r, stubFetcher{}, opts); err != nil {
			t.Errorf("ServeBrowse: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *gws.Conn, match func(stateMessage) bool) stateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg stateMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func TestServeBrowse_SearchRoundTrip(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	conn := dial(t, hub)

	first := readUntil(t, conn, func(m stateMessage) bool { return m.Type == "state" })
	var snap browse.Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	assert.Equal(t, browse.ViewEmpty, snap.View)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "search", "term": "Solo"}))

	readUntil(t, conn, func(m stateMessage) bool {
		if m.Type != "state" {
			return false
		}
		snap = browse.Snapshot{}
		require.NoError(t, json.Unmarshal(m.Data, &snap))
		return snap.View == browse.ViewLoaded
	})
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Solo Leveling", snap.Items[0].Title)
	assert.Equal(t, "Solo", snap.Query.SearchTerm)
}

func TestServeBrowse_UnknownCommand(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	conn := dial(t, hub)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))

	msg := readUntil(t, conn, func(m stateMessage) bool { return m.Type == "error" })
	assert.Contains(t, string(msg.Data), "unknown command")
}

func TestServeBrowse_ReceivesBroadcasts(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("genres", []string{"action", "romance"})
	msg := readUntil(t, conn, func(m stateMessage) bool { return m.Type == "genres" })

	var list []string
	require.NoError(t, json.Unmarshal(msg.Data, &list))
	assert.Equal(t, []string{"action", "romance"}, list)
}
