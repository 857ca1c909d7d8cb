package request

// GoOnlineRequest go_online / register_character 帧
// register_character 与 go_online 同构：建角色并立即在当前会话上线
type GoOnlineRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
	Nickname  string `json:"nickname" validate:"required"`
	Avatar    string `json:"avatar"`
	Bio       string `json:"bio"`
}

// GoOfflineRequest go_offline 帧
type GoOfflineRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
}

// SearchUserRequest search_user 帧，账号大小写不敏感
type SearchUserRequest struct {
	WxAccount string `json:"wx_account" validate:"required"`
}
