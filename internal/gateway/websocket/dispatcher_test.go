package websocket

import (
	"testing"

	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/pkg/constants"
	"roleplay_chat_server/pkg/errorx"
)

// testSession 不带真实连接的会话，只用到出站通道
func testSession() *Session {
	s := &Session{
		id:       "test",
		sendBack: make(chan interface{}, constants.CHANNEL_SIZE),
		done:     make(chan struct{}),
	}
	s.alive.Store(true)
	return s
}

// drain 取出目前积压的全部出站帧
func drain(s *Session) []interface{} {
	var out []interface{}
	for {
		select {
		case f := <-s.sendBack:
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestDispatchUnknownType(t *testing.T) {
	d := NewDispatcher()
	s := testSession()

	d.Dispatch(s, []byte(`{"type":"no_such_thing"}`))

	frames := drain(s)
	if len(frames) != 1 {
		t.Fatalf("expected 1 error frame, got %d", len(frames))
	}
	if ef, ok := frames[0].(respond.ErrorFrame); !ok || ef.Type != respond.TypeError {
		t.Fatalf("expected error frame, got %+v", frames[0])
	}
}

func TestDispatchMalformedJson(t *testing.T) {
	d := NewDispatcher()
	s := testSession()

	d.Dispatch(s, []byte(`{not json`))

	frames := drain(s)
	if len(frames) != 1 {
		t.Fatalf("expected 1 error frame, got %d", len(frames))
	}
}

// handler 的业务错误下发自身消息，内部错误只下发通用文案
func TestDispatchErrorPropagation(t *testing.T) {
	d := NewDispatcher()
	d.Register("biz", func(s *Session, raw []byte) error {
		return errorx.New(errorx.CodeConflict, "已经是好友了")
	})
	d.Register("boom", func(s *Session, raw []byte) error {
		return errorx.New(errorx.CodeInternal, "sql: connection refused")
	})
	s := testSession()

	d.Dispatch(s, []byte(`{"type":"biz"}`))
	d.Dispatch(s, []byte(`{"type":"boom"}`))

	frames := drain(s)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].(respond.ErrorFrame).Message != "已经是好友了" {
		t.Fatalf("business message must pass through: %+v", frames[0])
	}
	if frames[1].(respond.ErrorFrame).Message != "服务繁忙" {
		t.Fatalf("internal detail must not leak: %+v", frames[1])
	}
}

// handler panic 被捕获，连接不断、回通用 error 帧
func TestDispatchRecoversPanic(t *testing.T) {
	d := NewDispatcher()
	d.Register("panic", func(s *Session, raw []byte) error {
		panic("boom")
	})
	s := testSession()

	d.Dispatch(s, []byte(`{"type":"panic"}`))

	frames := drain(s)
	if len(frames) != 1 {
		t.Fatalf("expected 1 error frame, got %d", len(frames))
	}
	if frames[0].(respond.ErrorFrame).Message != "服务繁忙" {
		t.Fatalf("expected generic message, got %+v", frames[0])
	}
}

func TestDispatchInvalidPayload(t *testing.T) {
	d := NewDispatcher()
	d.Register("echo", func(s *Session, raw []byte) error {
		var req struct {
			Name string `json:"name" validate:"required"`
		}
		return decode(raw, &req)
	})
	s := testSession()

	d.Dispatch(s, []byte(`{"type":"echo"}`))

	frames := drain(s)
	if len(frames) != 1 {
		t.Fatalf("expected 1 error frame, got %d", len(frames))
	}
}
