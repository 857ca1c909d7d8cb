package request

// CreateGroupRequest create_online_group 帧
// 创建者以选定的群内人设入群，邀请在线账号
type CreateGroupRequest struct {
	WxAccount       string   `json:"wx_account" validate:"required"`
	GroupName       string   `json:"group_name" validate:"required"`
	GroupAvatar     string   `json:"group_avatar"`
	CharacterName   string   `json:"character_name"`
	CharacterAvatar string   `json:"character_avatar"`
	CharacterDesc   string   `json:"character_desc"`
	InviteAccounts  []string `json:"invite_accounts"`
}

// InviteToGroupRequest invite_to_group 帧
type InviteToGroupRequest struct {
	WxAccount   string `json:"wx_account" validate:"required"`
	GroupId     string `json:"group_id" validate:"required"`
	ToWxAccount string `json:"to_wx_account" validate:"required"`
}

// JoinGroupRequest join_online_group 帧
type JoinGroupRequest struct {
	WxAccount       string `json:"wx_account" validate:"required"`
	GroupId         string `json:"group_id" validate:"required"`
	CharacterName   string `json:"character_name"`
	CharacterAvatar string `json:"character_avatar"`
	CharacterDesc   string `json:"character_desc"`
}

// GetGroupsRequest get_online_groups 帧
type GetGroupsRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
}

// GetGroupMessagesRequest get_group_messages 帧
// Since > 0 按时间增量拉取；Limit > 0 拉最近 N 条；都为零拉全量
type GetGroupMessagesRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
	GroupId   string `json:"group_id" validate:"required"`
	Since     int64  `json:"since"`
	Limit     int    `json:"limit"`
}

// SendGroupMessageRequest send_group_message 帧
type SendGroupMessageRequest struct {
	WxAccount     string `json:"wx_account" validate:"required"`
	GroupId       string `json:"group_id" validate:"required"`
	SenderType    string `json:"sender_type" validate:"required,oneof=user character system"`
	SenderName    string `json:"sender_name"`
	CharacterName string `json:"character_name"`
	Content       string `json:"content" validate:"required"`
	MsgType       string `json:"msg_type" validate:"required"`
}

// GetGroupMembersRequest get_group_members 帧
type GetGroupMembersRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
	GroupId   string `json:"group_id" validate:"required"`
}

// UpdateGroupCharacterRequest update_group_character 帧
type UpdateGroupCharacterRequest struct {
	WxAccount       string `json:"wx_account" validate:"required"`
	GroupId         string `json:"group_id" validate:"required"`
	CharacterName   string `json:"character_name"`
	CharacterAvatar string `json:"character_avatar"`
	CharacterDesc   string `json:"character_desc"`
}

// TypingRequest group_typing_start / group_typing_stop 帧
type TypingRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
	GroupId   string `json:"group_id" validate:"required"`
}

// ClaimRedpacketRequest claim_group_redpacket 帧
// message_id 是雪花 ID 的字符串形式
type ClaimRedpacketRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
	GroupId   string `json:"group_id" validate:"required"`
	MessageId string `json:"message_id" validate:"required"`
}
