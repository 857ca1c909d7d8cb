// Package handler 提供 HTTP 请求处理器
// 本文件处理健康检查
package handler

import (
	"net/http"

	"roleplay_chat_server/internal/gateway/websocket"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查
// GET /
// 返回服务状态和当前连接数
func HealthHandler(hub *websocket.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"message":     "roleplay chat server is running",
			"connections": hub.SessionCount(),
			"websocket":   "/ws",
		})
	}
}
