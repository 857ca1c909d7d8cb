package respond

// FriendRequestRespond 好友申请摘要
type FriendRequestRespond struct {
	RequestId string           `json:"request_id"`
	From      CharacterSummary `json:"from"`
	Message   string           `json:"message,omitempty"`
	CreatedAt int64            `json:"created_at"`
}

// FriendRequestFrame friend_request 推送帧
type FriendRequestFrame struct {
	Type string `json:"type"`
	FriendRequestRespond
}

// FriendRequestAcceptedFrame friend_request_accepted 帧
// 双方都会收到，Friend 是对方的最小资料
type FriendRequestAcceptedFrame struct {
	Type      string           `json:"type"`
	RequestId string           `json:"request_id"`
	Friend    CharacterSummary `json:"friend"`
}

// PendingFriendRequestsFrame pending_friend_requests 帧
type PendingFriendRequestsFrame struct {
	Type     string                 `json:"type"`
	Requests []FriendRequestRespond `json:"requests"`
}

// 单聊消息投递状态
const (
	StatusDelivered = "delivered" // 对端在线，已实时推送
	StatusQueued    = "queued"    // 对端离线，已入离线队列
)

// DirectMessageFrame message 帧
// 接收方收到的帧不带 Status；发送方回显帧带 Status 用于区分
// 实时送达还是离线入队
type DirectMessageFrame struct {
	Type          string `json:"type"`
	MessageId     string `json:"message_id"`
	FromWxAccount string `json:"from_wx_account"`
	ToWxAccount   string `json:"to_wx_account"`
	Content       string `json:"content"`
	CreatedAt     int64  `json:"created_at"`
	Status        string `json:"status,omitempty"`
}
