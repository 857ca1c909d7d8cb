// Package router 提供 gin 引擎的装配
// HTTP 面只有两个入口：健康检查和 WebSocket 升级
package router

import (
	"roleplay_chat_server/internal/config"
	"roleplay_chat_server/internal/gateway/websocket"
	"roleplay_chat_server/internal/handler"
	"roleplay_chat_server/internal/infrastructure/logger"
	"roleplay_chat_server/internal/infrastructure/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine 创建并装配 gin 引擎
// 空白引擎 + zap 日志/恢复中间件 + CORS，可选 TLS 重定向
func NewEngine(hub *websocket.Hub) *gin.Engine {
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	conf := config.GetConfig()
	if conf.MainConfig.ForceTLS {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	engine.GET("/", handler.HealthHandler(hub))
	engine.GET("/ws", handler.WsHandler(hub))

	return engine
}
