package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	"scholarline/internal/middleware"
	"scholarline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// clientFrame is the only inbound message shape: channel attach/detach
// requests from the connected client.
type clientFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type Handler struct {
	secret     string
	bridge     *Bridge
	authorizer *ChannelAuthorizer
}

func NewHandler(secret string, bridge *Bridge, authorizer *ChannelAuthorizer) *Handler {
	return &Handler{secret: secret, bridge: bridge, authorizer: authorizer}
}

// Connect upgrades the request, attaches the caller to their personal
// channels, and serves subscribe/unsubscribe frames until the connection
// drops.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	identity, err := middleware.ParseIdentity(token, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, identity.UserID.String())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.bridge.hub.Register(client)
	go client.WriteLoop(ctx)

	// Every connection listens on the user's own channels.
	h.bridge.Subscribe(client, events.UserChannel(identity.UserID))
	h.bridge.Subscribe(client, events.NotificationsChannel(identity.UserID))

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleFrame(c.Request.Context(), identity, client, data)
	}

	h.bridge.Disconnect(client)
}

func (h *Handler) handleFrame(ctx context.Context, identity domain.Identity, client *Client, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Channel == "" {
		return
	}
	switch frame.Action {
	case "subscribe":
		ok, err := h.authorizer.CanSubscribe(ctx, identity, frame.Channel)
		if err != nil || !ok {
			return
		}
		if !client.IsSubscribed(frame.Channel) {
			h.bridge.Subscribe(client, frame.Channel)
		}
	case "unsubscribe":
		if client.IsSubscribed(frame.Channel) {
			h.bridge.Unsubscribe(client, frame.Channel)
		}
	}
}
