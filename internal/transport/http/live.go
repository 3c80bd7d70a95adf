package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fleet-profiler/analysis/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard is served from another origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler relays a vehicle's analysis announcements from Redis pub/sub
// to dashboard websocket clients.
type LiveHandler struct {
	redis *store.RedisStore
}

func NewLiveHandler(redis *store.RedisStore) *LiveHandler {
	return &LiveHandler{redis: redis}
}

// HandleLive answers GET /api/v1/vehicles/{id}/live. The connection stays
// open until the client disconnects; each completed analysis for the
// vehicle arrives as one text frame.
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.PathValue("id")
	if vehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle id is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := h.redis.SubscribeAnalysis(r.Context(), vehicleID)
	defer sub.Close()

	// Reader goroutine: its only job is noticing the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("Websocket write failed for %s: %v", vehicleID, err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
