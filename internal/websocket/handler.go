package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"prism/internal/logging"
	"prism/internal/middleware"
	"prism/internal/realtime"
	"prism/internal/svc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Tighten this in production to check specific origins
		return true
	},
}

// Handler returns an HTTP handler function for WebSocket upgrades.
// Browsers cannot set headers on websocket requests, so the token
// arrives as a query parameter.
func Handler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := extractUserID(r, svcCtx.Config.Auth.AccessSecret)
		if userID == "" {
			if !svcCtx.Config.GuestAccessAllowed() {
				logging.Infof("WebSocket connection rejected: no authentication")
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			userID = middleware.GuestUserID
		}

		// Client ID is unique per connection; reconnects under the same
		// id replace the previous session.
		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			clientID = "client-" + uuid.New().String()[:8]
		}

		logging.Infof("Serving WebSocket for clientID: %s, userID: %s", clientID, userID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Errorf("WebSocket upgrade error: %v", err)
			return
		}

		realtime.ServeWS(svcCtx.Hub, conn, clientID, userID)
	}
}

// extractUserID validates the request token and returns its subject, or
// "" when no valid token is present.
func extractUserID(r *http.Request, secret string) string {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		return ""
	}
	claims, err := middleware.ValidateJWT(token, secret)
	if err != nil {
		return ""
	}
	userID, _ := claims["userId"].(string)
	return userID
}
