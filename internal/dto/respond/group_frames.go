package respond

// GroupRespond 群组摘要
type GroupRespond struct {
	GroupId        string `json:"group_id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar,omitempty"`
	CreatorAccount string `json:"creator_account"`
	CreatedAt      int64  `json:"created_at"`
}

// GroupMemberRespond 群成员摘要（携带群内人设）
type GroupMemberRespond struct {
	WxAccount       string `json:"wx_account"`
	CharacterName   string `json:"character_name,omitempty"`
	CharacterAvatar string `json:"character_avatar,omitempty"`
	CharacterDesc   string `json:"character_desc,omitempty"`
	JoinedAt        int64  `json:"joined_at"`
}

// GroupMessageRespond 群消息
// SenderAvatar 来自发送者的全局角色头像；character 发言额外带
// 发送者当前的群内人设头像。system 消息两者皆空
type GroupMessageRespond struct {
	MessageId       string `json:"message_id"`
	GroupId         string `json:"group_id"`
	SenderType      string `json:"sender_type"`
	SenderAccount   string `json:"sender_account,omitempty"`
	SenderName      string `json:"sender_name,omitempty"`
	SenderAvatar    string `json:"sender_avatar,omitempty"`
	CharacterName   string `json:"character_name,omitempty"`
	CharacterAvatar string `json:"character_avatar,omitempty"`
	Content         string `json:"content"`
	MsgType         string `json:"msg_type"`
	CreatedAt       int64  `json:"created_at"`
}

// OnlineGroupCreatedFrame online_group_created 帧
type OnlineGroupCreatedFrame struct {
	Type  string       `json:"type"`
	Group GroupRespond `json:"group"`
}

// GroupInviteFrame group_invite 推送帧
type GroupInviteFrame struct {
	Type             string       `json:"type"`
	Group            GroupRespond `json:"group"`
	InviterWxAccount string       `json:"inviter_wx_account"`
}

// GroupMemberJoinedFrame group_member_joined 推送帧
type GroupMemberJoinedFrame struct {
	Type    string             `json:"type"`
	GroupId string             `json:"group_id"`
	Member  GroupMemberRespond `json:"member"`
}

// OnlineGroupJoinedFrame online_group_joined 帧（加群者的回执）
type OnlineGroupJoinedFrame struct {
	Type  string       `json:"type"`
	Group GroupRespond `json:"group"`
}

// OnlineGroupsListFrame online_groups_list 帧
type OnlineGroupsListFrame struct {
	Type   string         `json:"type"`
	Groups []GroupRespond `json:"groups"`
}

// GroupMessagesFrame group_messages 帧（历史拉取）
type GroupMessagesFrame struct {
	Type     string                `json:"type"`
	GroupId  string                `json:"group_id"`
	Messages []GroupMessageRespond `json:"messages"`
}

// GroupMessageFrame group_message 广播帧
type GroupMessageFrame struct {
	Type string `json:"type"`
	GroupMessageRespond
}

// GroupMembersFrame group_members 帧
type GroupMembersFrame struct {
	Type    string               `json:"type"`
	GroupId string               `json:"group_id"`
	Members []GroupMemberRespond `json:"members"`
}

// GroupCharacterUpdatedFrame group_character_updated 帧（仅回执给调用方）
type GroupCharacterUpdatedFrame struct {
	Type    string             `json:"type"`
	GroupId string             `json:"group_id"`
	Member  GroupMemberRespond `json:"member"`
}

// GroupTypingFrame group_typing_start / group_typing_stop 广播帧
type GroupTypingFrame struct {
	Type      string `json:"type"`
	GroupId   string `json:"group_id"`
	WxAccount string `json:"wx_account"`
}

// RedpacketClaimedFrame redpacket_claimed 状态更新帧
// Content 是领取后的红包最新状态，成员端据此刷新
type RedpacketClaimedFrame struct {
	Type           string  `json:"type"`
	GroupId        string  `json:"group_id"`
	MessageId      string  `json:"message_id"`
	WxAccount      string  `json:"wx_account"`
	Amount         float64 `json:"amount"`
	RemainingCount int     `json:"remaining_count"`
	Content        string  `json:"content"`
}
