// Package redpacket 实现红包领取协议
// 同一红包的并发领取通过进程内的每消息锁表串行化（单节点持有
// presence，进程内互斥已足够），保证 |claimed| ≤ count 和
// Σ claimedAmounts ≤ totalAmount 在任何竞态下成立
package redpacket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"roleplay_chat_server/internal/dao/mysql/repository"
	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/errorx"
	"roleplay_chat_server/pkg/util/random"
)

// PresenceChecker 账号持有检查
// 由 presence.Registry 实现
type PresenceChecker interface {
	// Owns 会话当前是否持有某账号
	Owns(s presence.Session, account string) bool
}

// GroupGateway 红包引擎需要的群聊能力
// 由 group.Service 实现
type GroupGateway interface {
	// MemberOf 成员资格检查，非成员返回 Forbidden
	MemberOf(groupUuid, account string) (*model.GroupMember, error)
	// BroadcastSystem 落库并广播一条系统消息
	BroadcastSystem(groupUuid, content string) (*respond.GroupMessageRespond, error)
	// Broadcast 向全部在线成员投递一帧
	Broadcast(groupUuid string, frame interface{}, exclude string)
	// InvalidateMessageCache 让群历史缓存失效
	InvalidateMessageCache(groupUuid string)
}

// Service 红包引擎
type Service struct {
	messages repository.GroupMessageRepository
	groups   GroupGateway
	registry PresenceChecker

	mu    sync.Mutex
	locks map[int64]*sync.Mutex // 每消息锁表

	rng func() float64 // lucky 抽取的随机源，测试时注入
}

// NewService 创建红包引擎
func NewService(messages repository.GroupMessageRepository, groups GroupGateway, registry PresenceChecker) *Service {
	return &Service{
		messages: messages,
		groups:   groups,
		registry: registry,
		locks:    make(map[int64]*sync.Mutex),
		rng:      random.Float64,
	}
}

// lockFor 取某消息的互斥锁，懒创建
// 锁表只增不减：红包消息数量有限，常驻成本可接受
func (s *Service) lockFor(messageUuid int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[messageUuid]
	if !ok {
		l = &sync.Mutex{}
		s.locks[messageUuid] = l
	}
	return l
}

// Claim 领取红包
// 协议：成员检查 → 锁内重读消息行 → 重复领取/领完/金额校验 →
// 追加领取记录并整体回写 → 广播系统播报和状态更新帧。
// 同一账号的第二次领取确定性地失败
func (s *Service) Claim(sess presence.Session, account, groupUuid, messageId string) (*respond.RedpacketClaimedFrame, error) {
	if !s.registry.Owns(sess, account) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	if _, err := s.groups.MemberOf(groupUuid, account); err != nil {
		return nil, err
	}

	msgUuid, err := strconv.ParseInt(messageId, 10, 64)
	if err != nil {
		return nil, errorx.New(errorx.CodeInvalid, "message_id 格式错误")
	}

	lock := s.lockFor(msgUuid)
	lock.Lock()
	defer lock.Unlock()

	// 锁内重读当前行，拿到最新领取状态
	msg, err := s.messages.FindByUuid(msgUuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "红包不存在")
		}
		return nil, err
	}
	if msg.GroupUuid != groupUuid || msg.MsgType != model.MsgTypeRedpacket {
		return nil, errorx.New(errorx.CodeNotFound, "红包不存在")
	}

	var content Content
	if err := json.Unmarshal([]byte(msg.Content), &content); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeInconsistent, "红包数据损坏")
	}

	if content.HasClaimed(account) {
		return nil, errorx.New(errorx.CodeAlreadyClaimed, "你已经领过这个红包了")
	}
	if content.RemainingCount() <= 0 {
		return nil, errorx.New(errorx.CodeExhausted, "红包已被领完")
	}

	amount := content.ComputeClaim(s.rng)
	if amount <= 0 || amount > content.RemainingAmount()+1e-9 {
		return nil, errorx.New(errorx.CodeInconsistent, "红包金额状态异常")
	}

	content.Record(account, amount)
	payload, err := json.Marshal(&content)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeInternal, "红包数据序列化失败")
	}
	if err := s.messages.UpdateContent(msgUuid, string(payload)); err != nil {
		return nil, err
	}

	// 系统播报 + 状态更新帧，都是群内广播
	if _, err := s.groups.BroadcastSystem(groupUuid,
		fmt.Sprintf("%s 领取了 ¥%.2f", account, amount)); err != nil {
		return nil, err
	}
	claimed := &respond.RedpacketClaimedFrame{
		Type:           respond.TypeRedpacketClaimed,
		GroupId:        groupUuid,
		MessageId:      messageId,
		WxAccount:      account,
		Amount:         amount,
		RemainingCount: content.RemainingCount(),
		Content:        string(payload),
	}
	s.groups.Broadcast(groupUuid, *claimed, "")
	s.groups.InvalidateMessageCache(groupUuid)
	return claimed, nil
}
