package api

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"bookchat/internal/auth"
	"bookchat/internal/config"
)

func SetupRouter(cfg *config.Config, svc *BotService, rdb *redis.Client) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/bookchat" or any custom path, always starts with '/'

	group := r.Group(subpath)
	{
		group.GET("/healthz", healthHandler)
		group.GET("/config", configHandler(cfg))

		group.POST("/api/conversations", svc.CreateConversationHandler())
		group.POST("/api/conversations/:id/messages", auth.AuthMiddleware(cfg, rdb), svc.PostMessageHandler())
		group.DELETE("/api/conversations/:id", auth.AuthMiddleware(cfg, rdb), svc.EndConversationHandler())

		group.GET("/api/topics", svc.TopicsHandler())
		group.GET("/api/stats", svc.StatsHandler())

		// Streaming conversation endpoint, token via header or query param.
		group.GET("/ws/converse", svc.WSConverseHandler())
	}

	// Redirect /subpath/ to /subpath (no duplicate panic)
	if subpath != "" && subpath != "/" {
		r.GET(subpath+"/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, path.Clean(subpath))
		})
	}
	return r
}
