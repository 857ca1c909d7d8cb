// Package websocket 实现传输层网关
// session.go
// 核心职责：单个 WebSocket 连接的生命周期
// 1. 读泵串行消费入站帧并交给 Dispatcher（保证单会话内的帧序）
// 2. 写泵消费出站通道并序列化写出
// 3. 存活标志配合 Hub 的心跳扫描
package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"roleplay_chat_server/pkg/constants"
	"roleplay_chat_server/pkg/errorx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session 一条在线连接，从 accept 到 close
// 实现 presence.Session 接口，注册表和服务层都只透过接口访问
type Session struct {
	conn *websocket.Conn
	id   string

	// sendBack 出站通道，写泵独占消费
	sendBack chan interface{}

	// alive 存活标志
	// pong 和应用层 ping 帧都会置位；心跳扫描开始时为假则断开
	alive atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

// newSession 包装一条升级完成的连接
func newSession(conn *websocket.Conn, id string) *Session {
	s := &Session{
		conn:     conn,
		id:       id,
		sendBack: make(chan interface{}, constants.CHANNEL_SIZE),
		done:     make(chan struct{}),
	}
	s.alive.Store(true)
	conn.SetPongHandler(func(string) error {
		s.alive.Store(true)
		return nil
	})
	return s
}

// ID 会话唯一标识
func (s *Session) ID() string {
	return s.id
}

// Send 投递一帧出站消息
// 入队即返回；通道满时丢弃并报错（没有显式背压，依赖传输缓冲）
func (s *Session) Send(frame interface{}) error {
	select {
	case <-s.done:
		return errorx.New(errorx.CodeInternal, "会话已关闭")
	case s.sendBack <- frame:
		return nil
	default:
		zap.L().Warn("session send buffer full, frame dropped", zap.String("session", s.id))
		return errorx.New(errorx.CodeInternal, "出站缓冲已满")
	}
}

// markAlive 重置存活标志（应用层 ping 帧走这里）
func (s *Session) markAlive() {
	s.alive.Store(true)
}

// Close 关闭连接，幂等
// 关闭后读泵出错返回，由 Hub 统一走 Detach 清理
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.conn.Close(); err != nil {
			zap.L().Debug("close session conn", zap.String("session", s.id), zap.Error(err))
		}
	})
}

// readPump 串行读取入站帧
// 帧在本协程内同步分发，单会话内的处理顺序等于到达顺序
func (s *Session) readPump(h *Hub) {
	defer h.drop(s)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Info("session read closed", zap.String("session", s.id), zap.Error(err))
			}
			return
		}
		h.dispatcher.Dispatch(s, raw)
	}
}

// writePump 消费出站通道并写出
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.sendBack:
			payload, err := json.Marshal(frame)
			if err != nil {
				zap.L().Error("marshal outbound frame failed", zap.Error(err))
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(constants.WRITE_WAIT))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				zap.L().Error("write frame failed", zap.String("session", s.id), zap.Error(err))
				s.Close()
				return
			}
		}
	}
}

// ping 发送传输层 ping 控制帧
// WriteControl 允许与写泵并发调用
func (s *Session) ping() {
	deadline := time.Now().Add(constants.WRITE_WAIT)
	if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		zap.L().Debug("ping failed", zap.String("session", s.id), zap.Error(err))
	}
}
