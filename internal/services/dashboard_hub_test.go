package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatdesk/internal/store"
)

func TestDashboardHub_Broadcast(t *testing.T) {
	hub := NewDashboardHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	joined := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := hub.Join(conn, DashboardUpdate{Stats: store.StatusCounts{Total: 1}}); err != nil {
			return
		}
		close(joined)
	}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-joined

	var first DashboardUpdate
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 1, first.Stats.Total)
	assert.Equal(t, 1, hub.Len())

	hub.Broadcast(DashboardUpdate{Stats: store.StatusCounts{Total: 3, Active: 2, Expired: 1}})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var next DashboardUpdate
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, store.StatusCounts{Total: 3, Active: 2, Expired: 1}, next.Stats)

	cancel()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
