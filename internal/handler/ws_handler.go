// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 升级
package handler

import (
	"roleplay_chat_server/internal/gateway/websocket"

	"github.com/gin-gonic/gin"
)

// WsHandler WebSocket 接入
// GET /ws
// 升级完成即登记会话，后续认证、上线都走帧协议
func WsHandler(hub *websocket.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.HandleUpgrade(c)
	}
}
