package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
	"github.com/locallens/locallens-backend/internal/websocket"
)

type WebSocketController struct {
	hub            *websocket.Hub
	allowedOrigins map[string]bool
}

// NewWebSocketController creates the controller. An empty origin list accepts any origin.
func NewWebSocketController(hub *websocket.Hub, allowedOrigins []string) *WebSocketController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WebSocketController{
		hub:            hub,
		allowedOrigins: origins,
	}
}

func (ctrl *WebSocketController) checkOrigin(r *http.Request) bool {
	if len(ctrl.allowedOrigins) == 0 || ctrl.allowedOrigins["*"] {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || ctrl.allowedOrigins[origin]
}

// Connect upgrades the request and streams the user's notifications
// GET /ws?token=
func (ctrl *WebSocketController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	conn, err := websocket.Upgrade(c.Writer, c.Request, ctrl.checkOrigin)
	if err != nil {
		// the upgrader has already written the HTTP error
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	log.Info("WebSocket connected", map[string]interface{}{
		"user_id": userID,
	})
	websocket.NewClient(ctrl.hub, conn, userID).Serve()
}
