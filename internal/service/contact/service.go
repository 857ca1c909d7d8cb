// Package contact 实现好友图谱与单聊
// 检索、好友申请生命周期、1:1 投递与离线队列、上线补投
package contact

import (
	"strconv"

	"roleplay_chat_server/internal/dao/mysql/repository"
	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/internal/infrastructure/mq"
	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/errorx"
	"roleplay_chat_server/pkg/util/snowflake"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service 单聊与好友服务
type Service struct {
	characters  repository.CharacterRepository
	friendships repository.FriendshipRepository
	requests    repository.FriendRequestRepository
	offline     repository.OfflineMessageRepository
	registry    *presence.Registry
	archiver    *mq.Archiver
}

// NewService 创建单聊与好友服务
func NewService(
	characters repository.CharacterRepository,
	friendships repository.FriendshipRepository,
	requests repository.FriendRequestRepository,
	offline repository.OfflineMessageRepository,
	registry *presence.Registry,
	archiver *mq.Archiver,
) *Service {
	return &Service{
		characters:  characters,
		friendships: friendships,
		requests:    requests,
		offline:     offline,
		registry:    registry,
		archiver:    archiver,
	}
}

// Search 按账号检索角色，大小写不敏感
// 在线状态以 Presence Registry 为准；结果不含 bio
func (s *Service) Search(account string) (*respond.CharacterSummary, error) {
	ch, err := s.characters.FindByAccountFold(account)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, nil // found=false 由调用方表达
		}
		return nil, err
	}
	return s.summaryOf(ch), nil
}

// OnlineCharacters 当前全部在线角色的摘要（大厅发现用）
// 以注册表快照为准，再批量回表取展示资料
func (s *Service) OnlineCharacters() ([]respond.CharacterSummary, error) {
	accounts := s.registry.OnlineAccounts()
	chs, err := s.characters.FindByAccounts(accounts)
	if err != nil {
		return nil, err
	}
	out := make([]respond.CharacterSummary, 0, len(chs))
	for i := range chs {
		out = append(out, respond.CharacterSummary{
			WxAccount: chs[i].WxAccount,
			Nickname:  chs[i].Nickname,
			Avatar:    chs[i].Avatar,
			IsOnline:  true,
		})
	}
	return out, nil
}

// SendFriendRequest 发起好友申请
// 发起方必须在当前会话持有 from 账号；目标必须存在；已是好友返回 Conflict。
// 目标在线时立即推送，否则等它下次上线由 DeliverPending 补投
func (s *Service) SendFriendRequest(sess presence.Session, from, to, message string) error {
	if !s.registry.Owns(sess, from) {
		return errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", from)
	}
	target, err := s.characters.FindByAccount(to)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.Newf(errorx.CodeNotFound, "账号 %s 不存在", to)
		}
		return err
	}

	exists, err := s.friendships.Exists(from, target.WxAccount)
	if err != nil {
		return err
	}
	if exists {
		return errorx.New(errorx.CodeConflict, "你们已经是好友了")
	}

	req := &model.FriendRequest{
		Uuid:        uuid.NewString(),
		FromAccount: from,
		ToAccount:   target.WxAccount,
		Message:     message,
		Status:      model.RequestPending,
		CreatedAt:   model.NowMillis(),
	}
	if err := s.requests.Create(req); err != nil {
		return err
	}

	if targetSess := s.registry.SessionFor(target.WxAccount); targetSess != nil {
		s.pushRequest(targetSess, req)
	}
	return nil
}

// AcceptFriendRequest 通过好友申请
// 必须持有申请的目标账号；pending -> accepted 只会成功一次，
// 第二次处理返回 NotFound 语义的状态错误。
// 通过后幂等建立好友关系，并向双方推送 friend_request_accepted
func (s *Service) AcceptFriendRequest(sess presence.Session, account, requestId string) error {
	req, err := s.loadOwnedRequest(sess, account, requestId)
	if err != nil {
		return err
	}

	ok, err := s.requests.Transition(requestId, model.RequestAccepted, model.NowMillis())
	if err != nil {
		return err
	}
	if !ok {
		return errorx.New(errorx.CodeNotFound, "该申请已被处理")
	}

	if err := s.friendships.Create(req.FromAccount, req.ToAccount, model.NowMillis()); err != nil {
		return err
	}

	// 双方各推一帧，携带对方的最小资料
	s.pushAccepted(req.ToAccount, req.FromAccount, requestId)
	s.pushAccepted(req.FromAccount, req.ToAccount, requestId)
	return nil
}

// RejectFriendRequest 拒绝好友申请，不发任何通知
func (s *Service) RejectFriendRequest(sess presence.Session, account, requestId string) error {
	if _, err := s.loadOwnedRequest(sess, account, requestId); err != nil {
		return err
	}
	ok, err := s.requests.Transition(requestId, model.RequestRejected, model.NowMillis())
	if err != nil {
		return err
	}
	if !ok {
		return errorx.New(errorx.CodeNotFound, "该申请已被处理")
	}
	return nil
}

// PendingRequests 拉取某账号收到的全部待处理申请
func (s *Service) PendingRequests(sess presence.Session, account string) ([]respond.FriendRequestRespond, error) {
	if !s.registry.Owns(sess, account) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	reqs, err := s.requests.FindPendingByToAccount(account)
	if err != nil {
		return nil, err
	}
	return s.toRequestResponds(reqs), nil
}

// SendMessage 发送单聊消息
// 要求持有 from 账号并与 to 存在好友关系。对端在注册表里则实时
// 推送，否则落离线队列。返回给发送方的回显帧带投递状态
func (s *Service) SendMessage(sess presence.Session, from, to, content string) (*respond.DirectMessageFrame, error) {
	if !s.registry.Owns(sess, from) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", from)
	}
	friends, err := s.friendships.Exists(from, to)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, errorx.Newf(errorx.CodeForbidden, "你和 %s 还不是好友", to)
	}

	msgId := snowflake.GenerateID()
	now := model.NowMillis()
	frame := &respond.DirectMessageFrame{
		Type:          respond.TypeMessage,
		MessageId:     strconv.FormatInt(msgId, 10),
		FromWxAccount: from,
		ToWxAccount:   to,
		Content:       content,
		CreatedAt:     now,
	}

	if targetSess := s.registry.SessionFor(to); targetSess != nil {
		if err := targetSess.Send(*frame); err != nil {
			zap.L().Error("push direct message failed", zap.String("to", to), zap.Error(err))
		}
		frame.Status = respond.StatusDelivered
	} else {
		offlineMsg := &model.OfflineMessage{
			Uuid:        msgId,
			FromAccount: from,
			ToAccount:   to,
			Content:     content,
			CreatedAt:   now,
		}
		if err := s.offline.Create(offlineMsg); err != nil {
			return nil, err
		}
		frame.Status = respond.StatusQueued
	}

	if s.archiver != nil {
		go s.archiver.Archive(mq.ArchiveRecord{
			Kind:      "direct",
			MessageID: frame.MessageId,
			From:      from,
			To:        to,
			Content:   content,
			CreatedAt: now,
		})
	}
	return frame, nil
}

// DeliverPending 账号上线后的补投
// 先按 created_at 升序推送全部未投递离线消息，推完一次性标记已投递；
// 推送成功但标记失败时下次上线会重投，接收端需容忍重复。
// 随后把待处理好友申请打包成一帧推过去
func (s *Service) DeliverPending(sess presence.Session, account string) {
	msgs, err := s.offline.FindUndelivered(account)
	if err != nil {
		zap.L().Error("load offline messages failed", zap.String("account", account), zap.Error(err))
	} else if len(msgs) > 0 {
		uuids := make([]int64, 0, len(msgs))
		for _, m := range msgs {
			frame := respond.DirectMessageFrame{
				Type:          respond.TypeMessage,
				MessageId:     strconv.FormatInt(m.Uuid, 10),
				FromWxAccount: m.FromAccount,
				ToWxAccount:   m.ToAccount,
				Content:       m.Content,
				CreatedAt:     m.CreatedAt,
			}
			if err := sess.Send(frame); err != nil {
				zap.L().Error("deliver offline message failed",
					zap.String("account", account), zap.Error(err))
				break // 推送失败就停，剩余的留到下次上线
			}
			uuids = append(uuids, m.Uuid)
		}
		if err := s.offline.MarkDelivered(uuids); err != nil {
			zap.L().Error("mark delivered failed", zap.String("account", account), zap.Error(err))
		}
	}

	reqs, err := s.requests.FindPendingByToAccount(account)
	if err != nil {
		zap.L().Error("load pending requests failed", zap.String("account", account), zap.Error(err))
		return
	}
	if len(reqs) > 0 {
		_ = sess.Send(respond.PendingFriendRequestsFrame{
			Type:     respond.TypePendingFriendRequests,
			Requests: s.toRequestResponds(reqs),
		})
	}
}

// loadOwnedRequest 加载申请并校验处理方持有目标账号
func (s *Service) loadOwnedRequest(sess presence.Session, account, requestId string) (*model.FriendRequest, error) {
	if !s.registry.Owns(sess, account) {
		return nil, errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	req, err := s.requests.FindByUuid(requestId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "申请不存在")
		}
		return nil, err
	}
	if req.ToAccount != account {
		return nil, errorx.New(errorx.CodeForbidden, "只能处理发给自己的申请")
	}
	return req, nil
}

// pushRequest 向目标会话推送好友申请
func (s *Service) pushRequest(sess presence.Session, req *model.FriendRequest) {
	frame := respond.FriendRequestFrame{Type: respond.TypeFriendRequest}
	frame.FriendRequestRespond = s.toRequestRespond(req)
	if err := sess.Send(frame); err != nil {
		zap.L().Error("push friend request failed", zap.Error(err))
	}
}

// pushAccepted 向 target 推送 accepted 事件，friend 是对方账号
func (s *Service) pushAccepted(target, friend, requestId string) {
	sess := s.registry.SessionFor(target)
	if sess == nil {
		return
	}
	summary := respond.CharacterSummary{WxAccount: friend}
	if ch, err := s.characters.FindByAccount(friend); err == nil {
		summary = *s.summaryOf(ch)
	}
	_ = sess.Send(respond.FriendRequestAcceptedFrame{
		Type:      respond.TypeFriendRequestAccepted,
		RequestId: requestId,
		Friend:    summary,
	})
}

// toRequestRespond 单条申请转 wire 摘要，带发起方资料
func (s *Service) toRequestRespond(req *model.FriendRequest) respond.FriendRequestRespond {
	from := respond.CharacterSummary{WxAccount: req.FromAccount}
	if ch, err := s.characters.FindByAccount(req.FromAccount); err == nil {
		from = *s.summaryOf(ch)
	}
	return respond.FriendRequestRespond{
		RequestId: req.Uuid,
		From:      from,
		Message:   req.Message,
		CreatedAt: req.CreatedAt,
	}
}

// toRequestResponds 批量转换
func (s *Service) toRequestResponds(reqs []model.FriendRequest) []respond.FriendRequestRespond {
	out := make([]respond.FriendRequestRespond, 0, len(reqs))
	for i := range reqs {
		out = append(out, s.toRequestRespond(&reqs[i]))
	}
	return out
}

// summaryOf 角色转摘要，在线状态查注册表
func (s *Service) summaryOf(ch *model.Character) *respond.CharacterSummary {
	return &respond.CharacterSummary{
		WxAccount: ch.WxAccount,
		Nickname:  ch.Nickname,
		Avatar:    ch.Avatar,
		IsOnline:  s.registry.SessionFor(ch.WxAccount) != nil,
	}
}
