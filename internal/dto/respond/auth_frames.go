package respond

// UserRespond 用户摘要
type UserRespond struct {
	UserId    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// RegisterSuccessFrame register_success / login_success 帧
type RegisterSuccessFrame struct {
	Type  string      `json:"type"`
	Token string      `json:"token"`
	User  UserRespond `json:"user"`
}

// AuthSuccessFrame auth_success 帧
// RestoredAccounts 是本次重连恢复路由的角色账号
type AuthSuccessFrame struct {
	Type             string      `json:"type"`
	User             UserRespond `json:"user"`
	RestoredAccounts []string    `json:"restored_accounts"`
}

// AuthFailedFrame auth_failed 帧
type AuthFailedFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
