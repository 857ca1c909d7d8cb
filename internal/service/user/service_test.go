package user

import (
	"sync"
	"testing"

	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/errorx"
	"roleplay_chat_server/pkg/util/jwt"
)

// ==================== 测试替身 ====================

type fakeSession struct {
	id     string
	frames []interface{}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(frame interface{}) error {
	s.frames = append(s.frames, frame)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.UserInfo // username -> row
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.UserInfo)}
}

func (r *fakeUserRepo) FindByUuid(uuid string) (*model.UserInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Uuid == uuid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.UserInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}

func (r *fakeUserRepo) Create(user *model.UserInfo) error {
	// 模拟 gorm 的 BeforeSave hook
	if err := user.BeforeSave(nil); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return errorx.New(errorx.CodeConflict, "duplicate username")
	}
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(uuid string, millis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Uuid == uuid {
			u.LastLogin = millis
		}
	}
	return nil
}

// fakeCharacterRepo 用户测试只触发 Restore 查询
type fakeCharacterRepo struct {
	online []model.Character
}

func (r *fakeCharacterRepo) FindByAccount(string) (*model.Character, error) {
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}
func (r *fakeCharacterRepo) FindByAccountFold(string) (*model.Character, error) {
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}
func (r *fakeCharacterRepo) FindByAccounts([]string) ([]model.Character, error) { return nil, nil }
func (r *fakeCharacterRepo) FindOnlineByUserUuid(userUuid string) ([]model.Character, error) {
	var out []model.Character
	for _, ch := range r.online {
		if ch.UserUuid == userUuid {
			out = append(out, ch)
		}
	}
	return out, nil
}
func (r *fakeCharacterRepo) Create(*model.Character) error              { return nil }
func (r *fakeCharacterRepo) Upsert(*model.Character) error              { return nil }
func (r *fakeCharacterRepo) SetOnline(string, bool, int64) error        { return nil }
func (r *fakeCharacterRepo) TouchLastSeen(string, int64) error          { return nil }

// ==================== 装配 ====================

func setup(t *testing.T) (*Service, *presence.Registry, *fakeCharacterRepo) {
	t.Helper()
	jwt.Init("test-secret-at-least-32-characters!!", 30)
	chars := &fakeCharacterRepo{}
	registry := presence.NewRegistry(chars)
	return NewService(newFakeUserRepo(), registry), registry, chars
}

func attach(reg *presence.Registry, id string) *fakeSession {
	s := &fakeSession{id: id}
	reg.Attach(s)
	return s
}

// ==================== 用例 ====================

func TestRegisterValidation(t *testing.T) {
	svc, reg, _ := setup(t)
	s := attach(reg, "s1")

	cases := []struct {
		name     string
		username string
		password string
		wantCode int
	}{
		{"username too short", "ab", "pw123456", errorx.CodeInvalid},
		{"username bad chars", "alice!", "pw123456", errorx.CodeInvalid},
		{"password too short", "alice", "pw1", errorx.CodeInvalid},
	}
	for _, tc := range cases {
		_, _, err := svc.Register(s, tc.username, "", tc.password)
		if errorx.GetCode(err) != tc.wantCode {
			t.Fatalf("%s: expected code %d, got %v", tc.name, tc.wantCode, err)
		}
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc, reg, _ := setup(t)
	s := attach(reg, "s1")

	token, userRsp, err := svc.Register(s, "alice", "a@example.com", "pw123456")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" || userRsp.Username != "alice" {
		t.Fatalf("unexpected register result: %q %+v", token, userRsp)
	}
	if uid, ok := reg.UserOf(s); !ok || uid != userRsp.UserId {
		t.Fatal("register must bind the session")
	}

	// 重名注册冲突
	s2 := attach(reg, "s2")
	if _, _, err := svc.Register(s2, "alice", "", "pw123456"); errorx.GetCode(err) != errorx.CodeConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}

	// 正确密码登录
	if _, _, err := svc.Login(s2, "alice", "pw123456"); err != nil {
		t.Fatal(err)
	}
	// 错误密码统一 AuthRejected
	if _, _, err := svc.Login(s2, "alice", "wrong-pass"); errorx.GetCode(err) != errorx.CodeAuthRejected {
		t.Fatalf("expected AuthRejected, got %v", err)
	}
	if _, _, err := svc.Login(s2, "nobody", "pw123456"); errorx.GetCode(err) != errorx.CodeAuthRejected {
		t.Fatalf("expected AuthRejected for unknown user, got %v", err)
	}
}

func TestAuthRestoresCharacters(t *testing.T) {
	svc, reg, chars := setup(t)
	s := attach(reg, "s1")

	token, userRsp, err := svc.Register(s, "alice", "", "pw123456")
	if err != nil {
		t.Fatal(err)
	}

	// 库里有一个"断开时在线"的角色
	chars.online = []model.Character{{
		Uuid: "C1", UserUuid: userRsp.UserId, WxAccount: "a_wx", IsOnline: 1,
	}}

	s2 := attach(reg, "s2")
	gotUser, restored, err := svc.Auth(s2, token)
	if err != nil {
		t.Fatal(err)
	}
	if gotUser.UserId != userRsp.UserId {
		t.Fatal("auth must load the token's user")
	}
	if len(restored) != 1 || restored[0] != "a_wx" {
		t.Fatalf("expected [a_wx] restored, got %v", restored)
	}
	if reg.SessionFor("a_wx") != s2 {
		t.Fatal("restored account must route to the authed session")
	}

	if _, _, err := svc.Auth(s2, "garbage.token"); errorx.GetCode(err) != errorx.CodeAuthRejected {
		t.Fatalf("expected AuthRejected for bad token, got %v", err)
	}
}
