// Package group 实现群聊
// 群生命周期、带人设的成员关系、历史拉取、广播、输入指示
package group

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
	"unicode/utf8"

	myredis "roleplay_chat_server/internal/dao/redis"

	"roleplay_chat_server/internal/dao/mysql/repository"
	"roleplay_chat_server/internal/dto/request"
	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/internal/infrastructure/mq"
	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/constants"
	"roleplay_chat_server/pkg/errorx"
	"roleplay_chat_server/pkg/util/random"
	"roleplay_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// Service 群聊服务
type Service struct {
	repos      *repository.Repositories
	characters repository.CharacterRepository
	registry   *presence.Registry
	cache      myredis.AsyncCacheService
	archiver   *mq.Archiver
}

// NewService 创建群聊服务
// repos 整体注入是因为建群需要跨 group/group_member 的事务
func NewService(
	repos *repository.Repositories,
	registry *presence.Registry,
	cache myredis.AsyncCacheService,
	archiver *mq.Archiver,
) *Service {
	return &Service{
		repos:      repos,
		characters: repos.Character,
		registry:   registry,
		cache:      cache,
		archiver:   archiver,
	}
}

// newGroupUuid 生成 G 前缀的群 ID
func newGroupUuid() string {
	return "G" + random.String(19)
}

// truncateAvatar 群内人设头像超限时静默截断
// 按字节截到上限后再回退到合法的 UTF-8 边界
func truncateAvatar(avatar string) string {
	if len(avatar) <= constants.GROUP_AVATAR_MAX_BYTES {
		return avatar
	}
	b := []byte(avatar)[:constants.GROUP_AVATAR_MAX_BYTES]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}

// messageListKey 全量历史的缓存键
func messageListKey(groupUuid string) string {
	return "group_messagelist_" + groupUuid
}

// Create 创建群组
// 创建者必须持有 creator 账号。群行和创建者成员行在同一事务里
// 落库；在线的受邀账号收到 group_invite 推送，离线的什么都收不到
//（邀请不持久化）
func (s *Service) Create(sess presence.Session, req *request.CreateGroupRequest) (*respond.GroupRespond, error) {
	if !s.registry.Owns(sess, req.WxAccount) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", req.WxAccount)
	}

	now := model.NowMillis()
	group := &model.GroupInfo{
		Uuid:           newGroupUuid(),
		Name:           req.GroupName,
		Avatar:         req.GroupAvatar,
		CreatorAccount: req.WxAccount,
		CreatedAt:      now,
	}
	member := &model.GroupMember{
		GroupUuid:       group.Uuid,
		UserAccount:     req.WxAccount,
		CharacterName:   req.CharacterName,
		CharacterAvatar: truncateAvatar(req.CharacterAvatar),
		CharacterDesc:   req.CharacterDesc,
		JoinedAt:        now,
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Group.Create(group); err != nil {
			return err
		}
		return tx.GroupMember.Create(member)
	})
	if err != nil {
		return nil, err
	}

	groupRsp := toGroupRespond(group)

	// 只推在线的受邀账号
	invite := respond.GroupInviteFrame{
		Type:             respond.TypeGroupInvite,
		Group:            *groupRsp,
		InviterWxAccount: req.WxAccount,
	}
	for _, account := range req.InviteAccounts {
		if target := s.registry.SessionFor(account); target != nil {
			if err := target.Send(invite); err != nil {
				zap.L().Error("push group invite failed", zap.String("account", account), zap.Error(err))
			}
		}
	}
	return groupRsp, nil
}

// Join 加入群组
// 已是成员则只更新人设。向现有成员广播加入事件（加群者自己
// 由调用方回 online_group_joined）
func (s *Service) Join(sess presence.Session, req *request.JoinGroupRequest) (*respond.GroupRespond, error) {
	if !s.registry.Owns(sess, req.WxAccount) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", req.WxAccount)
	}
	group, err := s.repos.Group.FindByUuid(req.GroupId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "群组不存在")
		}
		return nil, err
	}

	member := &model.GroupMember{
		GroupUuid:       req.GroupId,
		UserAccount:     req.WxAccount,
		CharacterName:   req.CharacterName,
		CharacterAvatar: truncateAvatar(req.CharacterAvatar),
		CharacterDesc:   req.CharacterDesc,
		JoinedAt:        model.NowMillis(),
	}
	if err := s.repos.GroupMember.Upsert(member); err != nil {
		return nil, err
	}

	joined := respond.GroupMemberJoinedFrame{
		Type:    respond.TypeGroupMemberJoined,
		GroupId: req.GroupId,
		Member:  toMemberRespond(member),
	}
	s.broadcast(req.GroupId, joined, req.WxAccount)
	return toGroupRespond(group), nil
}

// Invite 邀请账号入群
// 邀请人必须是成员；受邀人在线才收到推送，邀请不持久化
func (s *Service) Invite(sess presence.Session, req *request.InviteToGroupRequest) error {
	if !s.registry.Owns(sess, req.WxAccount) {
		return errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", req.WxAccount)
	}
	if _, err := s.memberOf(req.GroupId, req.WxAccount); err != nil {
		return err
	}
	group, err := s.repos.Group.FindByUuid(req.GroupId)
	if err != nil {
		return err
	}

	if target := s.registry.SessionFor(req.ToWxAccount); target != nil {
		_ = target.Send(respond.GroupInviteFrame{
			Type:             respond.TypeGroupInvite,
			Group:            *toGroupRespond(group),
			InviterWxAccount: req.WxAccount,
		})
	}
	return nil
}

// List 某账号加入的全部群
func (s *Service) List(sess presence.Session, account string) ([]respond.GroupRespond, error) {
	if !s.registry.Owns(sess, account) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	uuids, err := s.repos.GroupMember.FindGroupUuidsByAccount(account)
	if err != nil {
		return nil, err
	}
	groups, err := s.repos.Group.FindByUuids(uuids)
	if err != nil {
		return nil, err
	}
	out := make([]respond.GroupRespond, 0, len(groups))
	for i := range groups {
		out = append(out, *toGroupRespond(&groups[i]))
	}
	return out, nil
}

// Members 群成员列表，调用方必须是成员
func (s *Service) Members(sess presence.Session, account, groupUuid string) ([]respond.GroupMemberRespond, error) {
	if !s.registry.Owns(sess, account) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	if _, err := s.memberOf(groupUuid, account); err != nil {
		return nil, err
	}
	members, err := s.repos.GroupMember.FindByGroupUuid(groupUuid)
	if err != nil {
		return nil, err
	}
	out := make([]respond.GroupMemberRespond, 0, len(members))
	for i := range members {
		out = append(out, toMemberRespond(&members[i]))
	}
	return out, nil
}

// Messages 历史拉取，三种模式
// since > 0：增量（不含边界）升序；limit > 0：最近 N 条升序交付；
// 否则全量。全量走 Redis 缓存，miss 时回源并写缓存。
// 每条消息补全发送者全局头像；character 发言再补发送者当前的群内
// 人设头像（已退群则为空）；
// system 消息原样返回
func (s *Service) Messages(sess presence.Session, req *request.GetGroupMessagesRequest) ([]respond.GroupMessageRespond, error) {
	if !s.registry.Owns(sess, req.WxAccount) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", req.WxAccount)
	}
	if _, err := s.memberOf(req.GroupId, req.WxAccount); err != nil {
		return nil, err
	}

	fullHistory := req.Since <= 0 && req.Limit <= 0
	if fullHistory && s.cache != nil {
		if cached, err := s.cache.GetOrError(context.Background(), messageListKey(req.GroupId)); err == nil {
			var list []respond.GroupMessageRespond
			if err := json.Unmarshal([]byte(cached), &list); err == nil {
				return list, nil
			}
		}
	}

	var msgs []model.GroupMessage
	var err error
	switch {
	case req.Since > 0:
		msgs, err = s.repos.GroupMessage.FindSince(req.GroupId, req.Since)
	case req.Limit > 0:
		msgs, err = s.repos.GroupMessage.FindRecent(req.GroupId, req.Limit)
	default:
		msgs, err = s.repos.GroupMessage.FindAll(req.GroupId)
	}
	if err != nil {
		return nil, err
	}

	list, err := s.decorate(req.GroupId, msgs)
	if err != nil {
		return nil, err
	}

	if fullHistory && s.cache != nil {
		payload, err := json.Marshal(list)
		if err == nil {
			s.cache.SubmitTask(func() {
				_ = s.cache.Set(context.Background(), messageListKey(req.GroupId),
					string(payload), time.Minute*constants.REDIS_TIMEOUT)
			})
		}
	}
	return list, nil
}

// Send 发送群消息
// 发送者必须是成员。character 发言时 character_name 必须等于当前
// 群内人设名，防止改名竞态下的冒名。落库后向所有成员会话广播，
// 广播尽力而为，没有群消息离线队列
func (s *Service) Send(sess presence.Session, req *request.SendGroupMessageRequest) (*respond.GroupMessageRespond, error) {
	if !s.registry.Owns(sess, req.WxAccount) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", req.WxAccount)
	}
	member, err := s.memberOf(req.GroupId, req.WxAccount)
	if err != nil {
		return nil, err
	}
	if req.SenderType == model.SenderTypeCharacter && req.CharacterName != member.CharacterName {
		return nil, errorx.Newf(errorx.CodeForbidden,
			"人设 %s 与当前群内人设不符", req.CharacterName)
	}

	msg := &model.GroupMessage{
		Uuid:          snowflake.GenerateID(),
		GroupUuid:     req.GroupId,
		SenderType:    req.SenderType,
		SenderAccount: req.WxAccount,
		SenderName:    req.SenderName,
		CharacterName: req.CharacterName,
		Content:       req.Content,
		MsgType:       req.MsgType,
		CreatedAt:     model.NowMillis(),
	}
	if err := s.repos.GroupMessage.Create(msg); err != nil {
		return nil, err
	}

	rsp := s.toMessageRespond(msg, member)
	frame := respond.GroupMessageFrame{Type: respond.TypeGroupMessage}
	frame.GroupMessageRespond = *rsp
	s.broadcast(req.GroupId, frame, "")

	s.appendToCache(req.GroupId, rsp)

	if s.archiver != nil {
		go s.archiver.Archive(mq.ArchiveRecord{
			Kind:      "group",
			MessageID: rsp.MessageId,
			From:      req.WxAccount,
			To:        req.GroupId,
			Content:   req.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return rsp, nil
}

// BroadcastSystem 以系统身份落库并广播一条群消息
// 红包领取播报等内部事件使用
func (s *Service) BroadcastSystem(groupUuid, content string) (*respond.GroupMessageRespond, error) {
	msg := &model.GroupMessage{
		Uuid:       snowflake.GenerateID(),
		GroupUuid:  groupUuid,
		SenderType: model.SenderTypeSystem,
		Content:    content,
		MsgType:    model.MsgTypeSystem,
		CreatedAt:  model.NowMillis(),
	}
	if err := s.repos.GroupMessage.Create(msg); err != nil {
		return nil, err
	}
	rsp := s.toMessageRespond(msg, nil)
	frame := respond.GroupMessageFrame{Type: respond.TypeGroupMessage}
	frame.GroupMessageRespond = *rsp
	s.broadcast(groupUuid, frame, "")
	s.appendToCache(groupUuid, rsp)
	return rsp, nil
}

// Broadcast 向群的全部在线成员会话投递一帧
// exclude 非空时跳过该账号（输入指示不回发给自己）
func (s *Service) Broadcast(groupUuid string, frame interface{}, exclude string) {
	s.broadcast(groupUuid, frame, exclude)
}

// Typing 输入指示广播
// 不落库，丢失可接受；广播给除发送者外的所有成员
func (s *Service) Typing(sess presence.Session, account, groupUuid string, start bool) error {
	if !s.registry.Owns(sess, account) {
		return errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	if _, err := s.memberOf(groupUuid, account); err != nil {
		return err
	}
	frameType := respond.TypeGroupTypingStart
	if !start {
		frameType = respond.TypeGroupTypingStop
	}
	s.broadcast(groupUuid, respond.GroupTypingFrame{
		Type:      frameType,
		GroupId:   groupUuid,
		WxAccount: account,
	}, account)
	return nil
}

// UpdatePersona 修改群内人设
// 只回执给调用方，不向群广播（客户端在下次交互时刷新）
func (s *Service) UpdatePersona(sess presence.Session, req *request.UpdateGroupCharacterRequest) (*respond.GroupMemberRespond, error) {
	if !s.registry.Owns(sess, req.WxAccount) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", req.WxAccount)
	}
	member, err := s.memberOf(req.GroupId, req.WxAccount)
	if err != nil {
		return nil, err
	}

	avatar := truncateAvatar(req.CharacterAvatar)
	if err := s.repos.GroupMember.UpdatePersona(req.GroupId, req.WxAccount,
		req.CharacterName, avatar, req.CharacterDesc); err != nil {
		return nil, err
	}

	member.CharacterName = req.CharacterName
	member.CharacterAvatar = avatar
	member.CharacterDesc = req.CharacterDesc
	rsp := toMemberRespond(member)
	return &rsp, nil
}

// MemberOf 成员资格检查（供红包引擎复用）
func (s *Service) MemberOf(groupUuid, account string) (*model.GroupMember, error) {
	return s.memberOf(groupUuid, account)
}

// memberOf 成员资格检查，不是成员返回 Forbidden
func (s *Service) memberOf(groupUuid, account string) (*model.GroupMember, error) {
	member, err := s.repos.GroupMember.FindByGroupAndAccount(groupUuid, account)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Newf(errorx.CodeForbidden, "你不是该群成员")
		}
		return nil, err
	}
	return member, nil
}

// broadcast 群内广播
func (s *Service) broadcast(groupUuid string, frame interface{}, exclude string) {
	members, err := s.repos.GroupMember.FindByGroupUuid(groupUuid)
	if err != nil {
		zap.L().Error("load members for broadcast failed",
			zap.String("group", groupUuid), zap.Error(err))
		return
	}
	for _, m := range members {
		if exclude != "" && m.UserAccount == exclude {
			continue
		}
		if target := s.registry.SessionFor(m.UserAccount); target != nil {
			if err := target.Send(frame); err != nil {
				zap.L().Error("group broadcast push failed",
					zap.String("account", m.UserAccount), zap.Error(err))
			}
		}
	}
}

// appendToCache 异步把新消息追加进全量历史缓存（缓存未热则跳过）
func (s *Service) appendToCache(groupUuid string, rsp *respond.GroupMessageRespond) {
	if s.cache == nil {
		return
	}
	msg := *rsp
	s.cache.SubmitTask(func() {
		key := messageListKey(groupUuid)
		cached, err := s.cache.GetOrError(context.Background(), key)
		if err != nil {
			return
		}
		var list []respond.GroupMessageRespond
		if err := json.Unmarshal([]byte(cached), &list); err != nil {
			return
		}
		list = append(list, msg)
		if payload, err := json.Marshal(list); err == nil {
			_ = s.cache.Set(context.Background(), key, string(payload),
				time.Minute*constants.REDIS_TIMEOUT)
		}
	})
}

// InvalidateMessageCache 红包状态变化后让全量历史缓存失效
func (s *Service) InvalidateMessageCache(groupUuid string) {
	if s.cache == nil {
		return
	}
	s.cache.SubmitTask(func() {
		_ = s.cache.Del(context.Background(), messageListKey(groupUuid))
	})
}

// decorate 给历史消息补全头像
func (s *Service) decorate(groupUuid string, msgs []model.GroupMessage) ([]respond.GroupMessageRespond, error) {
	members, err := s.repos.GroupMember.FindByGroupUuid(groupUuid)
	if err != nil {
		return nil, err
	}
	personaByAccount := make(map[string]*model.GroupMember, len(members))
	for i := range members {
		personaByAccount[members[i].UserAccount] = &members[i]
	}

	list := make([]respond.GroupMessageRespond, 0, len(msgs))
	for i := range msgs {
		list = append(list, *s.toMessageRespond(&msgs[i], personaByAccount[msgs[i].SenderAccount]))
	}
	return list, nil
}

// toMessageRespond 消息转 wire 结构
// member 可为 nil（system 消息或成员已退出）
func (s *Service) toMessageRespond(msg *model.GroupMessage, member *model.GroupMember) *respond.GroupMessageRespond {
	rsp := &respond.GroupMessageRespond{
		MessageId:     strconv.FormatInt(msg.Uuid, 10),
		GroupId:       msg.GroupUuid,
		SenderType:    msg.SenderType,
		SenderAccount: msg.SenderAccount,
		SenderName:    msg.SenderName,
		CharacterName: msg.CharacterName,
		Content:       msg.Content,
		MsgType:       msg.MsgType,
		CreatedAt:     msg.CreatedAt,
	}
	if msg.SenderType == model.SenderTypeSystem {
		return rsp // system 消息原样返回
	}
	if ch, err := s.characters.FindByAccount(msg.SenderAccount); err == nil {
		rsp.SenderAvatar = ch.Avatar
	}
	if msg.SenderType == model.SenderTypeCharacter && member != nil {
		rsp.CharacterAvatar = member.CharacterAvatar
	}
	return rsp
}

// toGroupRespond 群转 wire 摘要
func toGroupRespond(g *model.GroupInfo) *respond.GroupRespond {
	return &respond.GroupRespond{
		GroupId:        g.Uuid,
		Name:           g.Name,
		Avatar:         g.Avatar,
		CreatorAccount: g.CreatorAccount,
		CreatedAt:      g.CreatedAt,
	}
}

// toMemberRespond 成员转 wire 摘要
func toMemberRespond(m *model.GroupMember) respond.GroupMemberRespond {
	return respond.GroupMemberRespond{
		WxAccount:       m.UserAccount,
		CharacterName:   m.CharacterName,
		CharacterAvatar: m.CharacterAvatar,
		CharacterDesc:   m.CharacterDesc,
		JoinedAt:        m.JoinedAt,
	}
}
