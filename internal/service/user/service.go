// Package user 实现身份服务：注册、登录、token 认证与会话绑定
package user

import (
	"regexp"

	"roleplay_chat_server/internal/dao/mysql/repository"
	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/constants"
	"roleplay_chat_server/pkg/errorx"
	"roleplay_chat_server/pkg/util/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// usernamePattern 合法用户名形状
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Service 身份服务
type Service struct {
	users    repository.UserRepository
	registry *presence.Registry
}

// NewService 创建身份服务
func NewService(users repository.UserRepository, registry *presence.Registry) *Service {
	return &Service{users: users, registry: registry}
}

// Register 注册新用户
// 校验用户名形状和密码长度，用户名冲突返回 Conflict；
// 成功后直接把会话绑定到新用户并签发 30 天 token
func (s *Service) Register(sess presence.Session, username, email, password string) (string, *respond.UserRespond, error) {
	if !usernamePattern.MatchString(username) {
		return "", nil, errorx.New(errorx.CodeInvalid, "用户名需为 3-20 位字母、数字或下划线")
	}
	if len(password) < constants.PASSWORD_MIN_LENGTH {
		return "", nil, errorx.Newf(errorx.CodeInvalid, "密码长度至少 %d 位", constants.PASSWORD_MIN_LENGTH)
	}

	if _, err := s.users.FindByUsername(username); err == nil {
		return "", nil, errorx.Newf(errorx.CodeConflict, "用户名 %s 已被注册", username)
	} else if !errorx.IsNotFound(err) {
		return "", nil, err
	}

	u := &model.UserInfo{
		Uuid:        uuid.NewString(),
		Username:    username,
		Email:       email,
		RawPassword: password, // BeforeSave hook 负责 bcrypt
		CreatedAt:   model.NowMillis(),
	}
	if err := s.users.Create(u); err != nil {
		// 并发注册同名时唯一索引兜底
		return "", nil, errorx.Wrap(err, errorx.CodeConflict, "用户名已被注册")
	}

	token, err := jwt.GenerateToken(u.Uuid, u.Username)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.CodeInternal, "签发 token 失败")
	}

	s.registry.BindUser(sess, u.Uuid)
	zap.L().Info("user registered", zap.String("username", username))
	return token, toRespond(u), nil
}

// Login 用户名密码登录
// 凭证错误统一返回 AuthRejected，不区分用户不存在和密码错误
func (s *Service) Login(sess presence.Session, username, password string) (string, *respond.UserRespond, error) {
	u, err := s.users.FindByUsername(username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return "", nil, errorx.New(errorx.CodeAuthRejected, "用户名或密码错误")
		}
		return "", nil, err
	}
	if !u.CheckPassword(password) {
		return "", nil, errorx.New(errorx.CodeAuthRejected, "用户名或密码错误")
	}

	if err := s.users.UpdateLastLogin(u.Uuid, model.NowMillis()); err != nil {
		zap.L().Warn("update last_login failed", zap.Error(err))
	}

	token, err := jwt.GenerateToken(u.Uuid, u.Username)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.CodeInternal, "签发 token 失败")
	}

	s.registry.BindUser(sess, u.Uuid)
	return token, toRespond(u), nil
}

// Auth token 认证
// 验签、加载用户并绑定会话，然后恢复断线前仍在线的角色路由。
// 恢复账号的离线补投由网关在拿到返回值后触发
func (s *Service) Auth(sess presence.Session, token string) (*respond.UserRespond, []string, error) {
	claims, err := jwt.ParseToken(token)
	if err != nil {
		return nil, nil, errorx.Wrap(err, errorx.CodeAuthRejected, "token 无效或已过期")
	}

	u, err := s.users.FindByUuid(claims.UserID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, nil, errorx.New(errorx.CodeAuthRejected, "token 对应的用户不存在")
		}
		return nil, nil, err
	}

	s.registry.BindUser(sess, u.Uuid)

	restored, err := s.registry.Restore(sess, u.Uuid)
	if err != nil {
		zap.L().Error("restore presence failed", zap.String("user", u.Uuid), zap.Error(err))
		restored = nil
	}
	return toRespond(u), restored, nil
}

// toRespond 转换为 wire 摘要
func toRespond(u *model.UserInfo) *respond.UserRespond {
	return &respond.UserRespond{
		UserId:    u.Uuid,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
