// Package presence 维护在线状态的权威索引
// 两张内存映射表在同一把互斥锁下维护：
//
//	bySession: 会话 -> { 用户, 持有的角色账号集合 }
//	byAccount: 角色账号 -> 会话
//
// 不变式：任意时刻 byAccount[a] == s 当且仅当 a ∈ bySession[s].owned。
// 数据库的 is_online 列只是落库的最近已知状态，可能滞后一拍，
// 路由判定永远以本注册表为准。
//
// 锁内绝不做 I/O：数据库读写都在临界区之外完成（上线先落库再改表，
// 下线与断连先改表再落库）；
// 断连竞态由二次校验兜底（见 BringOnline）。
package presence

import (
	"sync"
	"unicode/utf8"

	"roleplay_chat_server/internal/dao/mysql/repository"
	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/pkg/constants"
	"roleplay_chat_server/pkg/errorx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newCharacterUuid 新角色的唯一标识
func newCharacterUuid() string {
	return uuid.NewString()
}

// Session 注册表眼中的会话
// 由 websocket 网关实现；测试里用假会话替代
type Session interface {
	// ID 会话唯一标识
	ID() string
	// Send 投递一帧出站消息（入队即返回，不阻塞）
	Send(frame interface{}) error
}

// entry 单个会话的登记信息
type entry struct {
	userUuid string              // 绑定的用户，未认证为空
	owned    map[string]struct{} // 本会话持有的角色账号
}

// Registry 在线状态注册表
type Registry struct {
	mu        sync.Mutex
	bySession map[Session]*entry
	byAccount map[string]Session

	characters repository.CharacterRepository
}

// NewRegistry 创建注册表
func NewRegistry(characters repository.CharacterRepository) *Registry {
	return &Registry{
		bySession:  make(map[Session]*entry),
		byAccount:  make(map[string]Session),
		characters: characters,
	}
}

// Attach 登记一个新会话，幂等
func (r *Registry) Attach(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySession[s]; !ok {
		r.bySession[s] = &entry{owned: make(map[string]struct{})}
	}
}

// BindUser 把会话绑定到已认证的用户
func (r *Registry) BindUser(s Session, userUuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bySession[s]; ok {
		e.userUuid = userUuid
	}
}

// UserOf 会话绑定的用户
func (r *Registry) UserOf(s Session) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySession[s]
	if !ok || e.userUuid == "" {
		return "", false
	}
	return e.userUuid, true
}

// Owns 会话当前是否持有某账号
func (r *Registry) Owns(s Session, account string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySession[s]
	if !ok {
		return false
	}
	_, owned := e.owned[account]
	return owned
}

// SessionFor 账号当前所在的会话，不在线返回 nil
func (r *Registry) SessionFor(account string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byAccount[account]
}

// OnlineAccounts 当前所有在线账号的快照
func (r *Registry) OnlineAccounts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	accounts := make([]string, 0, len(r.byAccount))
	for account := range r.byAccount {
		accounts = append(accounts, account)
	}
	return accounts
}

// SessionCount 当前登记的会话数
func (r *Registry) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySession)
}

// BringOnline 把角色在本会话上线
// 账号归属他人返回 Forbidden；同一用户在另一会话在线时，新会话
// 接管（隐式 handoff，移旧装新在同一临界区内完成）。
// 返回落库后的角色记录。
func (r *Registry) BringOnline(s Session, account, nickname, avatar, bio string) (*model.Character, error) {
	r.mu.Lock()
	e, attached := r.bySession[s]
	if !attached || e.userUuid == "" {
		r.mu.Unlock()
		return nil, errorx.ErrAuthRequired
	}
	userUuid := e.userUuid
	r.mu.Unlock()

	// 超限头像整体置空（不截断）
	if utf8.RuneCountInString(avatar) > constants.CHARACTER_AVATAR_MAX_RUNE {
		avatar = ""
	}

	// 归属检查 + 落库，都在锁外
	existing, err := r.characters.FindByAccount(account)
	if err != nil && !errorx.IsNotFound(err) {
		return nil, err
	}
	ch := &model.Character{
		UserUuid:  userUuid,
		WxAccount: account,
		Nickname:  nickname,
		Avatar:    avatar,
		Bio:       bio,
		IsOnline:  1,
		CreatedAt: model.NowMillis(),
	}
	if existing != nil {
		if existing.UserUuid != userUuid {
			return nil, errorx.Newf(errorx.CodeForbidden, "账号 %s 已被其他用户使用", account)
		}
		ch.Uuid = existing.Uuid
		ch.CreatedAt = existing.CreatedAt
	} else {
		ch.Uuid = newCharacterUuid()
	}
	if err := r.characters.Upsert(ch); err != nil {
		return nil, err
	}

	// 装表；handoff 的移旧装新在同一临界区
	r.mu.Lock()
	e, attached = r.bySession[s]
	if !attached {
		// 会话在落库期间断开了，绝不复活 presence
		r.mu.Unlock()
		_ = r.characters.SetOnline(account, false, model.NowMillis())
		return nil, errorx.New(errorx.CodeInternal, "会话已断开")
	}
	if old := r.byAccount[account]; old != nil && old != s {
		if oldEntry, ok := r.bySession[old]; ok {
			delete(oldEntry.owned, account)
		}
		zap.L().Info("account session handoff",
			zap.String("account", account),
			zap.String("from", old.ID()), zap.String("to", s.ID()))
	}
	r.byAccount[account] = s
	e.owned[account] = struct{}{}
	r.mu.Unlock()

	return ch, nil
}

// BringOffline 把角色在本会话下线
// 不持有该账号返回 Forbidden
func (r *Registry) BringOffline(s Session, account string) error {
	r.mu.Lock()
	e, ok := r.bySession[s]
	if !ok {
		r.mu.Unlock()
		return errorx.ErrAuthRequired
	}
	if _, owned := e.owned[account]; !owned {
		r.mu.Unlock()
		return errorx.Newf(errorx.CodeForbidden, "当前会话未持有账号 %s", account)
	}
	delete(e.owned, account)
	delete(r.byAccount, account)
	r.mu.Unlock()

	return r.characters.SetOnline(account, false, model.NowMillis())
}

// Restore 重连恢复
// 把用户在库里仍为 is_online=1 的角色重新指向本会话，
// 让断线重连对对端透明。返回恢复的账号列表。
func (r *Registry) Restore(s Session, userUuid string) ([]string, error) {
	chs, err := r.characters.FindOnlineByUserUuid(userUuid)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	e, attached := r.bySession[s]
	if !attached {
		r.mu.Unlock()
		return nil, errorx.New(errorx.CodeInternal, "会话已断开")
	}
	restored := make([]string, 0, len(chs))
	for _, ch := range chs {
		account := ch.WxAccount
		if old := r.byAccount[account]; old != nil && old != s {
			if oldEntry, ok := r.bySession[old]; ok {
				delete(oldEntry.owned, account)
			}
		}
		r.byAccount[account] = s
		e.owned[account] = struct{}{}
		restored = append(restored, account)
	}
	r.mu.Unlock()

	return restored, nil
}

// Detach 会话断开时的清理
// 持有的每个账号清出两张表并落库 last_seen；is_online 保持 1，
// 作为"断开时在线"的持久标记，同一 token 重连时 Restore 按它
// 恢复路由（显式 go_offline 才清掉 is_online）。后到的在途处理
// 发现会话不在表里时不会复活 presence
func (r *Registry) Detach(s Session) {
	r.mu.Lock()
	e, ok := r.bySession[s]
	if !ok {
		r.mu.Unlock()
		return
	}
	accounts := make([]string, 0, len(e.owned))
	for account := range e.owned {
		// handoff 之后 byAccount 可能已指向新会话，只清自己的
		if r.byAccount[account] == s {
			delete(r.byAccount, account)
			accounts = append(accounts, account)
		}
	}
	delete(r.bySession, s)
	r.mu.Unlock()

	now := model.NowMillis()
	for _, account := range accounts {
		if err := r.characters.TouchLastSeen(account, now); err != nil {
			zap.L().Error("persist last_seen on detach failed",
				zap.String("account", account), zap.Error(err))
		}
	}
}
