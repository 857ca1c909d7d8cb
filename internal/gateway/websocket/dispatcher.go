// Package websocket 实现传输层网关
// dispatcher.go
// 单一多路复用器：按入站帧的 type 标签命中唯一 handler。
// 未知 type 回 error 帧而不断连；handler 的 panic 被捕获、
// 带着肇事 type 记日志，并以通用 error 帧回给客户端
package websocket

import (
	"encoding/json"
	"errors"

	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// HandlerFunc 帧处理函数
// 返回的 error 由 Dispatcher 统一转为 error 帧写回
type HandlerFunc func(s *Session, raw []byte) error

// Dispatcher 按 type 分发的帧多路复用器
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

// NewDispatcher 创建空的分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register 注册某个 type 的 handler
func (d *Dispatcher) Register(frameType string, h HandlerFunc) {
	d.handlers[frameType] = h
}

// Dispatch 分发一帧
// 连接永不因 handler 错误被断开；错误都落成一帧 error
func (d *Dispatcher) Dispatch(s *Session, raw []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Type == "" {
		_ = s.Send(respond.NewErrorFrame("无法解析的消息"))
		return
	}

	handler, ok := d.handlers[head.Type]
	if !ok {
		_ = s.Send(respond.NewErrorFrame("未知的消息类型: " + head.Type))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("handler panic",
				zap.String("type", head.Type),
				zap.String("session", s.ID()),
				zap.Any("recover", rec))
			_ = s.Send(respond.NewErrorFrame("服务繁忙"))
		}
	}()

	if err := handler(s, raw); err != nil {
		d.writeError(s, head.Type, err)
	}
}

// writeError 把 handler 错误落成 error 帧
// 业务错误下发自身消息；内部错误只下发通用文案，细节进日志
func (d *Dispatcher) writeError(s *Session, frameType string, err error) {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) && codeErr.Code != errorx.CodeInternal {
		_ = s.Send(respond.NewErrorFrame(codeErr.Msg))
		return
	}
	zap.L().Error("handler failed",
		zap.String("type", frameType),
		zap.String("session", s.ID()),
		zap.Error(err))
	_ = s.Send(respond.NewErrorFrame("服务繁忙"))
}
