package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"seatdesk/internal/store"
)

const hubWriteTimeout = 5 * time.Second

// DashboardUpdate is pushed to every connected dashboard.
type DashboardUpdate struct {
	CapturedAt time.Time          `json:"captured_at"`
	Stats      store.StatusCounts `json:"stats"`
}

// DashboardHub fans dashboard stats out to websocket clients.
type DashboardHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan DashboardUpdate
	logger  *slog.Logger
}

func NewDashboardHub(logger *slog.Logger) *DashboardHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan DashboardUpdate, 16),
		logger:  logger,
	}
}

func (h *DashboardHub) Run(ctx context.Context) {
	for {
		select {
		case update := <-h.ch:
			h.send(update)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Poll captures stats every interval and broadcasts them while anyone is
// listening.
func (h *DashboardHub) Poll(ctx context.Context, interval time.Duration, students *StudentService) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if h.Len() == 0 {
				continue
			}
			stats, err := students.Dashboard(ctx)
			if err != nil {
				h.logger.Warn("dashboard stats failed", "err", err)
				continue
			}
			h.Broadcast(DashboardUpdate{CapturedAt: time.Now().UTC(), Stats: stats})
		case <-ctx.Done():
			return
		}
	}
}

func (h *DashboardHub) Broadcast(update DashboardUpdate) {
	select {
	case h.ch <- update:
	default:
	}
}

// Join sends first to conn and registers it for later updates.
func (h *DashboardHub) Join(conn *websocket.Conn, first DashboardUpdate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
	if err := conn.WriteJSON(first); err != nil {
		return err
	}
	h.clients[conn] = true
	return nil
}

func (h *DashboardHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *DashboardHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *DashboardHub) send(update DashboardUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := conn.WriteJSON(update); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *DashboardHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
