// Package websocket 实现传输层网关
// handlers.go
// 全部入站帧的 handler 注册与服务层编排
package websocket

import (
	"roleplay_chat_server/internal/dto/request"
	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/internal/service/contact"
	"roleplay_chat_server/internal/service/group"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/internal/service/redpacket"
	"roleplay_chat_server/internal/service/user"
	"roleplay_chat_server/pkg/errorx"
)

// Services 网关依赖的服务集合
type Services struct {
	Users      *user.Service
	Contacts   *contact.Service
	Groups     *group.Service
	Redpackets *redpacket.Service
}

// RegisterHandlers 把全部帧类型挂到分发器
func RegisterHandlers(d *Dispatcher, registry *presence.Registry, svc Services) {
	g := &frameHandlers{registry: registry, svc: svc}

	d.Register("register", g.handleRegister)
	d.Register("login", g.handleLogin)
	d.Register("auth", g.handleAuth)
	d.Register("logout", g.handleLogout)

	d.Register("go_online", g.handleGoOnline)
	d.Register("register_character", g.handleGoOnline) // 建角色并立即上线，同构
	d.Register("go_offline", g.handleGoOffline)
	d.Register("get_online_characters", g.handleGetOnlineCharacters)
	d.Register("search_user", g.handleSearchUser)

	d.Register("friend_request", g.handleFriendRequest)
	d.Register("accept_friend_request", g.handleAcceptFriendRequest)
	d.Register("reject_friend_request", g.handleRejectFriendRequest)
	d.Register("get_pending_requests", g.handleGetPendingRequests)
	d.Register("message", g.handleMessage)

	d.Register("create_online_group", g.handleCreateGroup)
	d.Register("invite_to_group", g.handleInviteToGroup)
	d.Register("join_online_group", g.handleJoinGroup)
	d.Register("get_online_groups", g.handleGetGroups)
	d.Register("get_group_messages", g.handleGetGroupMessages)
	d.Register("send_group_message", g.handleSendGroupMessage)
	d.Register("get_group_members", g.handleGetGroupMembers)
	d.Register("update_group_character", g.handleUpdateGroupCharacter)
	d.Register("group_typing_start", g.handleTypingStart)
	d.Register("group_typing_stop", g.handleTypingStop)
	d.Register("claim_group_redpacket", g.handleClaimRedpacket)

	d.Register("ping", g.handlePing)
}

// frameHandlers 帧 handler 集合
type frameHandlers struct {
	registry *presence.Registry
	svc      Services
}

// requireUser 已认证会话守卫
func (g *frameHandlers) requireUser(s *Session) error {
	if _, ok := g.registry.UserOf(s); !ok {
		return errorx.ErrAuthRequired
	}
	return nil
}

// ==================== 身份 ====================

func (g *frameHandlers) handleRegister(s *Session, raw []byte) error {
	var req request.RegisterRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	token, userRsp, err := g.svc.Users.Register(s, req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return s.Send(respond.RegisterSuccessFrame{
		Type:  respond.TypeRegisterSuccess,
		Token: token,
		User:  *userRsp,
	})
}

func (g *frameHandlers) handleLogin(s *Session, raw []byte) error {
	var req request.LoginRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	token, userRsp, err := g.svc.Users.Login(s, req.Username, req.Password)
	if err != nil {
		return err
	}
	return s.Send(respond.RegisterSuccessFrame{
		Type:  respond.TypeLoginSuccess,
		Token: token,
		User:  *userRsp,
	})
}

// handleAuth token 认证
// 失败回 auth_failed 而不是通用 error 帧；成功后恢复的每个账号
// 都走一遍离线补投（离线消息 + 待处理好友申请）
func (g *frameHandlers) handleAuth(s *Session, raw []byte) error {
	var req request.AuthRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	userRsp, restored, err := g.svc.Users.Auth(s, req.Token)
	if err != nil {
		return s.Send(respond.AuthFailedFrame{
			Type:    respond.TypeAuthFailed,
			Message: err.Error(),
		})
	}
	if err := s.Send(respond.AuthSuccessFrame{
		Type:             respond.TypeAuthSuccess,
		User:             *userRsp,
		RestoredAccounts: restored,
	}); err != nil {
		return err
	}
	for _, account := range restored {
		g.svc.Contacts.DeliverPending(s, account)
	}
	return nil
}

// handleLogout 注销会话
// 下线全部持有账号并解绑用户，连接保留（可重新 login/auth）
func (g *frameHandlers) handleLogout(s *Session, _ []byte) error {
	g.registry.Detach(s)
	g.registry.Attach(s)
	return nil
}

// ==================== 角色与在线状态 ====================

func (g *frameHandlers) handleGoOnline(s *Session, raw []byte) error {
	var req request.GoOnlineRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	if err := g.requireUser(s); err != nil {
		return err
	}
	ch, err := g.registry.BringOnline(s, req.WxAccount, req.Nickname, req.Avatar, req.Bio)
	if err != nil {
		return err
	}
	if err := s.Send(respond.CharacterOnlineFrame{
		Type: respond.TypeCharacterOnline,
		Character: respond.CharacterDetail{
			WxAccount: ch.WxAccount,
			Nickname:  ch.Nickname,
			Avatar:    ch.Avatar,
			Bio:       ch.Bio,
		},
	}); err != nil {
		return err
	}
	// 上线即补投
	g.svc.Contacts.DeliverPending(s, ch.WxAccount)
	return nil
}

func (g *frameHandlers) handleGoOffline(s *Session, raw []byte) error {
	var req request.GoOfflineRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	if err := g.registry.BringOffline(s, req.WxAccount); err != nil {
		return err
	}
	return s.Send(respond.CharacterOfflineFrame{
		Type:      respond.TypeCharacterOffline,
		WxAccount: req.WxAccount,
	})
}

func (g *frameHandlers) handleGetOnlineCharacters(s *Session, _ []byte) error {
	if err := g.requireUser(s); err != nil {
		return err
	}
	chars, err := g.svc.Contacts.OnlineCharacters()
	if err != nil {
		return err
	}
	return s.Send(respond.OnlineCharactersFrame{
		Type:       respond.TypeOnlineCharacters,
		Characters: chars,
	})
}

func (g *frameHandlers) handleSearchUser(s *Session, raw []byte) error {
	var req request.SearchUserRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	if err := g.requireUser(s); err != nil {
		return err
	}
	summary, err := g.svc.Contacts.Search(req.WxAccount)
	if err != nil {
		return err
	}
	return s.Send(respond.SearchResultFrame{
		Type:  respond.TypeSearchResult,
		Found: summary != nil,
		User:  summary,
	})
}

// ==================== 好友与单聊 ====================

func (g *frameHandlers) handleFriendRequest(s *Session, raw []byte) error {
	var req request.FriendRequestRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return g.svc.Contacts.SendFriendRequest(s, req.FromWxAccount, req.ToWxAccount, req.Message)
}

func (g *frameHandlers) handleAcceptFriendRequest(s *Session, raw []byte) error {
	var req request.HandleFriendRequestRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return g.svc.Contacts.AcceptFriendRequest(s, req.WxAccount, req.RequestId)
}

func (g *frameHandlers) handleRejectFriendRequest(s *Session, raw []byte) error {
	var req request.HandleFriendRequestRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return g.svc.Contacts.RejectFriendRequest(s, req.WxAccount, req.RequestId)
}

func (g *frameHandlers) handleGetPendingRequests(s *Session, raw []byte) error {
	var req request.GetPendingRequestsRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	reqs, err := g.svc.Contacts.PendingRequests(s, req.WxAccount)
	if err != nil {
		return err
	}
	return s.Send(respond.PendingFriendRequestsFrame{
		Type:     respond.TypePendingFriendRequests,
		Requests: reqs,
	})
}

// handleMessage 单聊发送
// 发送方收到带投递状态的回显帧，区分实时送达和离线入队
func (g *frameHandlers) handleMessage(s *Session, raw []byte) error {
	var req request.DirectMessageRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	frame, err := g.svc.Contacts.SendMessage(s, req.WxAccount, req.ToWxAccount, req.Content)
	if err != nil {
		return err
	}
	return s.Send(*frame)
}

// ==================== 群聊 ====================

func (g *frameHandlers) handleCreateGroup(s *Session, raw []byte) error {
	var req request.CreateGroupRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	groupRsp, err := g.svc.Groups.Create(s, &req)
	if err != nil {
		return err
	}
	return s.Send(respond.OnlineGroupCreatedFrame{
		Type:  respond.TypeOnlineGroupCreated,
		Group: *groupRsp,
	})
}

func (g *frameHandlers) handleInviteToGroup(s *Session, raw []byte) error {
	var req request.InviteToGroupRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return g.svc.Groups.Invite(s, &req)
}

func (g *frameHandlers) handleJoinGroup(s *Session, raw []byte) error {
	var req request.JoinGroupRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	groupRsp, err := g.svc.Groups.Join(s, &req)
	if err != nil {
		return err
	}
	return s.Send(respond.OnlineGroupJoinedFrame{
		Type:  respond.TypeOnlineGroupJoined,
		Group: *groupRsp,
	})
}

func (g *frameHandlers) handleGetGroups(s *Session, raw []byte) error {
	var req request.GetGroupsRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	groups, err := g.svc.Groups.List(s, req.WxAccount)
	if err != nil {
		return err
	}
	return s.Send(respond.OnlineGroupsListFrame{
		Type:   respond.TypeOnlineGroupsList,
		Groups: groups,
	})
}

func (g *frameHandlers) handleGetGroupMessages(s *Session, raw []byte) error {
	var req request.GetGroupMessagesRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	msgs, err := g.svc.Groups.Messages(s, &req)
	if err != nil {
		return err
	}
	return s.Send(respond.GroupMessagesFrame{
		Type:     respond.TypeGroupMessages,
		GroupId:  req.GroupId,
		Messages: msgs,
	})
}

// handleSendGroupMessage 群消息发送
// 落库后服务层向全部成员会话广播（含发送者回显），无额外回执
func (g *frameHandlers) handleSendGroupMessage(s *Session, raw []byte) error {
	var req request.SendGroupMessageRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	_, err := g.svc.Groups.Send(s, &req)
	return err
}

func (g *frameHandlers) handleGetGroupMembers(s *Session, raw []byte) error {
	var req request.GetGroupMembersRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	members, err := g.svc.Groups.Members(s, req.WxAccount, req.GroupId)
	if err != nil {
		return err
	}
	return s.Send(respond.GroupMembersFrame{
		Type:    respond.TypeGroupMembers,
		GroupId: req.GroupId,
		Members: members,
	})
}

func (g *frameHandlers) handleUpdateGroupCharacter(s *Session, raw []byte) error {
	var req request.UpdateGroupCharacterRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	member, err := g.svc.Groups.UpdatePersona(s, &req)
	if err != nil {
		return err
	}
	return s.Send(respond.GroupCharacterUpdatedFrame{
		Type:    respond.TypeGroupCharacterUpdated,
		GroupId: req.GroupId,
		Member:  *member,
	})
}

func (g *frameHandlers) handleTypingStart(s *Session, raw []byte) error {
	var req request.TypingRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return g.svc.Groups.Typing(s, req.WxAccount, req.GroupId, true)
}

func (g *frameHandlers) handleTypingStop(s *Session, raw []byte) error {
	var req request.TypingRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return g.svc.Groups.Typing(s, req.WxAccount, req.GroupId, false)
}

// ==================== 红包 ====================

func (g *frameHandlers) handleClaimRedpacket(s *Session, raw []byte) error {
	var req request.ClaimRedpacketRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	_, err := g.svc.Redpackets.Claim(s, req.WxAccount, req.GroupId, req.MessageId)
	return err
}

// ==================== 心跳 ====================

// handlePing 应用层 ping
// 重置存活标志并回 pong
func (g *frameHandlers) handlePing(s *Session, _ []byte) error {
	s.markAlive()
	return s.Send(respond.PongFrame{Type: respond.TypePong})
}
