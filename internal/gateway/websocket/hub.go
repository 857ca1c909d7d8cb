// Package websocket 实现传输层网关
// hub.go
// 核心职责：连接接入与心跳
// 1. 升级 HTTP 连接并登记会话（Attach）
// 2. 每 30 秒扫描：上个周期没有任何 pong/ping 的连接被终止
// 3. 断连清理统一走 Presence Registry 的 Detach
package websocket

import (
	"net/http"
	"sync"
	"time"

	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 允许任意来源，跨域由部署层约束
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub 连接管理器
type Hub struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}

	registry   *presence.Registry
	dispatcher *Dispatcher

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub 创建连接管理器
func NewHub(registry *presence.Registry, dispatcher *Dispatcher) *Hub {
	return &Hub{
		sessions:   make(map[*Session]struct{}),
		registry:   registry,
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
}

// HandleUpgrade 升级连接并启动会话
// 升级完成即 Attach；读写泵各一协程，帧处理在读泵内串行
func (h *Hub) HandleUpgrade(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(conn, uuid.NewString())
	h.registry.Attach(s)

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	go s.writePump()
	go s.readPump(h)
	zap.L().Info("session connected", zap.String("session", s.ID()))
}

// Run 心跳主循环
// 每个周期开始时存活标志仍为假的连接被终止；否则清零标志并发
// 传输层 ping。pong 与应用层 ping 帧都会重新置位
func (h *Hub) Run() {
	ticker := time.NewTicker(constants.HEARTBEAT_INTERVAL)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			for _, s := range h.snapshot() {
				if !s.alive.Load() {
					zap.L().Info("heartbeat timeout, terminating session", zap.String("session", s.ID()))
					s.Close()
					continue
				}
				s.alive.Store(false)
				s.ping()
			}
		}
	}
}

// snapshot 会话快照，锁外遍历
func (h *Hub) snapshot() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// drop 读泵退出后的统一清理
// 注销会话、下线其持有的全部账号；在途 handler 发现会话不在
// 注册表里时不会复活 presence
func (h *Hub) drop(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()
	if !ok {
		return
	}

	h.registry.Detach(s)
	s.Close()
	zap.L().Info("session disconnected", zap.String("session", s.ID()))
}

// SessionCount 当前连接数（健康检查用）
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close 停止心跳并关闭全部会话
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		for _, s := range h.snapshot() {
			s.Close()
		}
	})
}
