package notify

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"

	"github.com/continuum-dev/continuum/internal/logging"
)

type ackFrame struct {
	Ack string `json:"ack"`
}

// ServeWS upgrades the request, registers it with the hub, replays
// unread notifications oldest-first, then reads ack frames until the
// connection closes (spec.md section 4.9/6, `/ws/notifications`).
// userID has already been resolved by the auth collaborator from the
// query-string token.
func (s *Service) ServeWS(w http.ResponseWriter, r *http.Request, userID string, hub *Hub) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logging.Warn("notify: websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	hub.Register(userID, conn)
	defer hub.Unregister(userID, conn)

	unread, err := s.ReplayUnread(ctx, userID)
	if err != nil {
		logging.Warn("notify: replay unread failed", "user_id", userID, "error", err)
	}
	for _, n := range unread {
		payload, err := json.Marshal(n)
		if err != nil {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var frame ackFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Ack == "" {
			continue
		}
		if err := s.Ack(ctx, userID, frame.Ack); err != nil {
			logging.Warn("notify: ack failed", "user_id", userID, "notification_id", frame.Ack, "error", err)
		}
	}
}
