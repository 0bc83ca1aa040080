package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/grepsan/huddle/internal/config"
	"github.com/grepsan/huddle/internal/signaling"
)

// NewMux builds the HTTP surface of the signaling server:
//
//   - GET /ws      : websocket signaling
//   - GET /health  : liveness probe
//   - GET /stats   : room/member counts from the registry
//   - GET /ice     : STUN server address for clients
//   - /            : static client assets
func NewMux(cfg *config.Config, hub *signaling.Hub, registry *signaling.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/stats", handleStats(registry))
	mux.HandleFunc("/ice", handleICE(cfg))
	mux.HandleFunc("/ws", ServeWs(cfg, hub))
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// handleStats reports how many rooms are active and how many users are
// joined across all of them.
func handleStats(registry *signaling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"rooms": registry.RoomCount(),
			"users": registry.UserCount(),
		})
	}
}

// handleICE tells clients which STUN server to use for NAT traversal.
// The signaling server itself never talks to it.
func handleICE(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{
			"iceServers": {cfg.STUNServer},
		})
	}
}

// ServeWs returns an http.HandlerFunc that upgrades requests to websockets
// and hands the connection to the hub.
func ServeWs(cfg *config.Config, hub *signaling.Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin: func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "err", err)
			return
		}

		client := &signaling.Client{
			Hub:  hub,
			Conn: conn,
			Send: make(chan *signaling.Message, 256),
		}

		client.Hub.Register <- client

		// Start the client's read and write pumps in separate goroutines.
		// These handle the client's whole lifecycle.
		go client.WritePump()
		go client.ReadPump()
	}
}
