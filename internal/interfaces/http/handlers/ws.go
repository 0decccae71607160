package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local-only service, same-origin enforcement happens at bind time.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// VitalsStream upgrades to a websocket and pushes every replaced vitals
// snapshot to the client until it disconnects.
func (h *Handlers) VitalsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("vitals websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.Feed.Subscribe()
	defer cancel()

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// Send the current snapshot immediately, then stream updates.
	if err := conn.WriteJSON(h.Feed.Snapshot()); err != nil {
		return
	}

	for snap := range updates {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(snap); err != nil {
			log.Debug().Err(err).Msg("vitals websocket write failed, closing")
			return
		}
	}
}
