package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	streamTick    = 50 * time.Millisecond // finer than game.FlashBlank
	streamWriteTO = 5 * time.Second
)

// handleStream pushes a snapshot of the session whenever it changes, so the
// client can draw flashes and countdowns without polling. Timeouts are
// applied and persisted here exactly as on the HTTP endpoints.
func (s *Server) handleStream(origin string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			if o == "" || o == origin {
				return true
			}
			u, err := url.Parse(o)
			return err == nil && u.Host == r.Host
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		me := identity(r)
		if _, _, err := s.withGame(r.Context(), id, me, nil); err != nil {
			writeGameError(w, err)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade")
			return
		}
		defer conn.Close()

		// Reader: the client sends nothing we need, but reading notices a close.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(streamTick)
		defer ticker.Stop()
		var last []byte
		for {
			snap, _, err := s.withGame(r.Context(), id, me, nil)
			if err != nil {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game gone"),
					time.Now().Add(streamWriteTO))
				return
			}
			msg, err := json.Marshal(gameRes{Snapshot: snap})
			if err != nil {
				log.Error().Err(err).Msg("encode snapshot")
				return
			}
			if !bytes.Equal(msg, last) {
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTO))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
				last = msg
			}
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	}
}
