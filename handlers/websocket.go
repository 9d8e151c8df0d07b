package handlers

import (
	"context"
	"log"
	"net/http"

	"studyspace-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// LiveChannel is the Redis pub/sub channel carrying check-in, checkout and
// rating events. Write handlers and the aggregator publish on it; this
// handler fans the messages out to connected browsers.
const LiveChannel = "studyspace:live"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func LiveWebSocket(cache *services.CacheService, authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Browsers cannot set headers on WebSocket dials, so the token
		// rides the query string or the session cookie.
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(services.SessionCookieName)
		}
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		if _, err := authService.ValidateToken(tokenStr); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				_, _, err := conn.ReadMessage()
				if err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, LiveChannel)
		if pubsub == nil {
			// Redis is down; there is no live feed to relay.
			return
		}
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				err := conn.WriteJSON(gin.H{
					"type": "venue_update",
					"data": msg.Payload,
				})
				if err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			}
		}
	}
}
