package presence

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/pkg/errorx"

	"pgregory.net/rapid"
)

// fakeSession 测试用会话
type fakeSession struct {
	id     string
	mu     sync.Mutex
	frames []interface{}
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(frame interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

// fakeCharacterRepo 内存角色仓库
type fakeCharacterRepo struct {
	mu    sync.Mutex
	chars map[string]*model.Character // account -> row
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{chars: make(map[string]*model.Character)}
}

func (r *fakeCharacterRepo) FindByAccount(account string) (*model.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.chars[account]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}

func (r *fakeCharacterRepo) FindByAccountFold(account string) (*model.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.chars {
		if strings.EqualFold(ch.WxAccount, account) {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}

func (r *fakeCharacterRepo) FindByAccounts(accounts []string) ([]model.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Character
	for _, a := range accounts {
		if ch, ok := r.chars[a]; ok {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *fakeCharacterRepo) FindOnlineByUserUuid(userUuid string) ([]model.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Character
	for _, ch := range r.chars {
		if ch.UserUuid == userUuid && ch.IsOnline == 1 {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *fakeCharacterRepo) Create(ch *model.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ch
	r.chars[ch.WxAccount] = &cp
	return nil
}

func (r *fakeCharacterRepo) Upsert(ch *model.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.chars[ch.WxAccount]; ok {
		existing.Nickname = ch.Nickname
		existing.Avatar = ch.Avatar
		existing.Bio = ch.Bio
		existing.IsOnline = ch.IsOnline
		return nil
	}
	cp := *ch
	r.chars[ch.WxAccount] = &cp
	return nil
}

func (r *fakeCharacterRepo) SetOnline(account string, online bool, lastSeenMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.chars[account]
	if !ok {
		return nil
	}
	if online {
		ch.IsOnline = 1
	} else {
		ch.IsOnline = 0
		ch.LastSeen = lastSeenMillis
	}
	return nil
}

func (r *fakeCharacterRepo) TouchLastSeen(account string, lastSeenMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.chars[account]; ok {
		ch.LastSeen = lastSeenMillis
	}
	return nil
}

func setupRegistry(t *testing.T) (*Registry, *fakeCharacterRepo) {
	t.Helper()
	repo := newFakeCharacterRepo()
	return NewRegistry(repo), repo
}

func TestBringOnlineRequiresBoundUser(t *testing.T) {
	reg, _ := setupRegistry(t)
	s := newFakeSession("s1")
	reg.Attach(s)

	if _, err := reg.BringOnline(s, "a_wx", "Alice", "", ""); err == nil {
		t.Fatal("expected error for unbound session")
	}
}

func TestBringOnlineAndRouting(t *testing.T) {
	reg, repo := setupRegistry(t)
	s := newFakeSession("s1")
	reg.Attach(s)
	reg.BindUser(s, "U1")

	ch, err := reg.BringOnline(s, "a_wx", "Alice", "", "战斗法师")
	if err != nil {
		t.Fatal(err)
	}
	if ch.WxAccount != "a_wx" || ch.IsOnline != 1 {
		t.Fatalf("unexpected character: %+v", ch)
	}
	if got := reg.SessionFor("a_wx"); got != s {
		t.Fatal("byAccount should route to s1")
	}
	if !reg.Owns(s, "a_wx") {
		t.Fatal("session should own a_wx")
	}

	stored, err := repo.FindByAccount("a_wx")
	if err != nil || stored.IsOnline != 1 {
		t.Fatalf("persisted state wrong: %+v err=%v", stored, err)
	}
}

func TestBringOnlineForbiddenForOtherUser(t *testing.T) {
	reg, _ := setupRegistry(t)
	s1 := newFakeSession("s1")
	reg.Attach(s1)
	reg.BindUser(s1, "U1")
	if _, err := reg.BringOnline(s1, "a_wx", "Alice", "", ""); err != nil {
		t.Fatal(err)
	}

	s2 := newFakeSession("s2")
	reg.Attach(s2)
	reg.BindUser(s2, "U2")
	_, err := reg.BringOnline(s2, "a_wx", "Mallory", "", "")
	if err == nil {
		t.Fatal("expected Forbidden for foreign account")
	}
	if errorx.GetCode(err) != errorx.CodeForbidden {
		t.Fatalf("expected CodeForbidden, got %d", errorx.GetCode(err))
	}
}

// 会话接管：同一用户的新会话上线同一账号，旧会话的引用被移除
func TestSessionHandoff(t *testing.T) {
	reg, _ := setupRegistry(t)
	s1 := newFakeSession("s1")
	reg.Attach(s1)
	reg.BindUser(s1, "U1")
	if _, err := reg.BringOnline(s1, "a_wx", "Alice", "", ""); err != nil {
		t.Fatal(err)
	}

	s2 := newFakeSession("s2")
	reg.Attach(s2)
	reg.BindUser(s2, "U1")
	if _, err := reg.BringOnline(s2, "a_wx", "Alice", "", ""); err != nil {
		t.Fatal(err)
	}

	if got := reg.SessionFor("a_wx"); got != s2 {
		t.Fatal("after handoff byAccount must point at s2")
	}
	if reg.Owns(s1, "a_wx") {
		t.Fatal("old session must lose ownership")
	}
	if !reg.Owns(s2, "a_wx") {
		t.Fatal("new session must own the account")
	}

	// 旧会话断开不得影响新会话的路由
	reg.Detach(s1)
	if got := reg.SessionFor("a_wx"); got != s2 {
		t.Fatal("detach of old session must not purge new binding")
	}
}

func TestDetachPurgesRoutingAndTouchesLastSeen(t *testing.T) {
	reg, repo := setupRegistry(t)
	s := newFakeSession("s1")
	reg.Attach(s)
	reg.BindUser(s, "U1")
	if _, err := reg.BringOnline(s, "a_wx", "Alice", "", ""); err != nil {
		t.Fatal(err)
	}

	reg.Detach(s)
	if reg.SessionFor("a_wx") != nil {
		t.Fatal("account must leave byAccount on detach")
	}
	// 断连只刷 last_seen；is_online=1 留作"断开时在线"的标记供 Restore 用
	stored, _ := repo.FindByAccount("a_wx")
	if stored.IsOnline != 1 || stored.LastSeen == 0 {
		t.Fatalf("expected is_online kept with last_seen touched, got %+v", stored)
	}
}

func TestBringOfflinePersistsOffline(t *testing.T) {
	reg, repo := setupRegistry(t)
	s := newFakeSession("s1")
	reg.Attach(s)
	reg.BindUser(s, "U1")
	if _, err := reg.BringOnline(s, "a_wx", "Alice", "", ""); err != nil {
		t.Fatal(err)
	}

	if err := reg.BringOffline(s, "a_wx"); err != nil {
		t.Fatal(err)
	}
	if reg.SessionFor("a_wx") != nil {
		t.Fatal("account must leave byAccount")
	}
	stored, _ := repo.FindByAccount("a_wx")
	if stored.IsOnline != 0 || stored.LastSeen == 0 {
		t.Fatalf("explicit go_offline must persist is_online=0, got %+v", stored)
	}
}

func TestRestoreReestablishesRouting(t *testing.T) {
	reg, repo := setupRegistry(t)
	s1 := newFakeSession("s1")
	reg.Attach(s1)
	reg.BindUser(s1, "U1")
	if _, err := reg.BringOnline(s1, "a_wx", "Alice", "", ""); err != nil {
		t.Fatal(err)
	}

	// 断连：路由清空，库里 is_online 仍为 1
	reg.Detach(s1)

	s2 := newFakeSession("s2")
	reg.Attach(s2)
	reg.BindUser(s2, "U1")
	restored, err := reg.Restore(s2, "U1")
	if err != nil {
		t.Fatal(err)
	}
	if len(restored) != 1 || restored[0] != "a_wx" {
		t.Fatalf("expected [a_wx] restored, got %v", restored)
	}
	if reg.SessionFor("a_wx") != s2 {
		t.Fatal("restore must route to the new session")
	}
	if stored, _ := repo.FindByAccount("a_wx"); stored.IsOnline != 1 {
		t.Fatal("restore must not flip is_online")
	}
}

// checkBijection 核对不变式 byAccount[a]=s ⇔ a ∈ bySession[s].owned
func checkBijection(t interface{ Fatalf(string, ...interface{}) }, reg *Registry) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for account, sess := range reg.byAccount {
		e, ok := reg.bySession[sess]
		if !ok {
			t.Fatalf("byAccount[%s] points at unknown session", account)
		}
		if _, owned := e.owned[account]; !owned {
			t.Fatalf("byAccount[%s]=%s but session does not own it", account, sess.ID())
		}
	}
	for sess, e := range reg.bySession {
		for account := range e.owned {
			if reg.byAccount[account] != sess {
				t.Fatalf("session %s owns %s but byAccount disagrees", sess.ID(), account)
			}
		}
	}
}

// 属性：任意 attach/bind/online/offline/detach 序列下双向索引保持一致
func TestPropertyPresenceBijection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg, _ := setupRegistry(t)

		sessions := make([]*fakeSession, 4)
		for i := range sessions {
			sessions[i] = newFakeSession(fmt.Sprintf("s%d", i))
			reg.Attach(sessions[i])
			reg.BindUser(sessions[i], fmt.Sprintf("U%d", i%2)) // 两个用户共享会话池
		}
		accounts := []string{"acc_a", "acc_b", "acc_c"}

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			s := sessions[rapid.IntRange(0, len(sessions)-1).Draw(rt, "sess")]
			account := accounts[rapid.IntRange(0, len(accounts)-1).Draw(rt, "acc")]
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				_, _ = reg.BringOnline(s, account, "nick", "", "")
			case 1:
				_ = reg.BringOffline(s, account)
			case 2:
				reg.Detach(s)
				reg.Attach(s)
				reg.BindUser(s, "U0")
			}
			checkBijection(rt, reg)
		}
	})
}
