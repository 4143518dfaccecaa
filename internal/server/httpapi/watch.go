package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msavelyev/stocklive/internal/api"
)

const (
	// writeWait bounds a single snapshot or ping write.
	writeWait = 10 * time.Second
	// pingPeriod keeps idle sockets alive well inside the client's read
	// deadline.
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
}

// handleWatch upgrades to a websocket and streams full snapshots of the
// caller's records: one immediately, then one after every committed
// change. The stream is scoped by the access token's subject; the
// owner_id query parameter is informational only.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "watch upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(userID)
	defer s.hub.Unsubscribe(sub)

	s.log.Info(r.Context(), "watch opened", "owner_id", userID)
	defer s.log.Info(r.Context(), "watch closed", "owner_id", userID)

	// Drain the socket so close frames and pongs are processed.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.sendSnapshot(conn, userID, r); err != nil {
		return
	}

	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readerDone:
			return
		case <-sub.Dirty():
			if err := s.sendSnapshot(conn, userID, r); err != nil {
				return
			}
		case <-pings.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) sendSnapshot(conn *websocket.Conn, ownerID string, r *http.Request) error {
	recs, err := s.records.List(r.Context(), ownerID)
	if err != nil {
		s.log.Error(r.Context(), "snapshot load failed", "owner_id", ownerID, "err", err)
		return err
	}

	msg := api.SnapshotMessage{Type: api.MessageTypeSnapshot, Records: recs}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	return nil
}
