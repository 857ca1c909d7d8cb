package respond

// CharacterSummary 角色摘要
// 检索结果不含 bio，保护角色隐私
type CharacterSummary struct {
	WxAccount string `json:"wx_account"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	IsOnline  bool   `json:"is_online"`
}

// CharacterDetail 角色详情（仅下发给角色持有者本人）
type CharacterDetail struct {
	WxAccount string `json:"wx_account"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	Bio       string `json:"bio"`
}

// CharacterOnlineFrame character_online 帧（go_online 的回执）
type CharacterOnlineFrame struct {
	Type      string          `json:"type"`
	Character CharacterDetail `json:"character"`
}

// CharacterOfflineFrame character_offline 帧
type CharacterOfflineFrame struct {
	Type      string `json:"type"`
	WxAccount string `json:"wx_account"`
}

// OnlineCharactersFrame online_characters 帧
type OnlineCharactersFrame struct {
	Type       string             `json:"type"`
	Characters []CharacterSummary `json:"characters"`
}

// SearchResultFrame search_result 帧
type SearchResultFrame struct {
	Type  string            `json:"type"`
	Found bool              `json:"found"`
	User  *CharacterSummary `json:"user,omitempty"`
}
