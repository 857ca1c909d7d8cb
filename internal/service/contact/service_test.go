package contact

import (
	"strings"
	"sync"
	"testing"

	"roleplay_chat_server/internal/dto/respond"
	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/pkg/errorx"

	"github.com/google/uuid"
)

// ==================== 测试替身 ====================

type fakeSession struct {
	id     string
	mu     sync.Mutex
	frames []interface{}
}

func newFakeSession(id string) *fakeSession { return &fakeSession{id: id} }

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(frame interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

// framesOfType 按帧类型过滤收到的帧
func (s *fakeSession) framesOfType(match func(interface{}) bool) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []interface{}
	for _, f := range s.frames {
		if match(f) {
			out = append(out, f)
		}
	}
	return out
}

type fakeCharacterRepo struct {
	mu    sync.Mutex
	chars map[string]*model.Character
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
	return r.Create(ch)
}

func (r *fakeCharacterRepo) SetOnline(account string, online bool, lastSeenMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.chars[account]; ok {
		if online {
			ch.IsOnline = 1
		} else {
			ch.IsOnline = 0
			ch.LastSeen = lastSeenMillis
		}
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

type fakeFriendshipRepo struct {
	mu    sync.Mutex
	pairs map[[2]string]int64
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{pairs: make(map[[2]string]int64)}
}

func (r *fakeFriendshipRepo) Exists(a, b string) (bool, error) {
	na, nb := model.NormalizePair(a, b)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pairs[[2]string{na, nb}]
	return ok, nil
}

func (r *fakeFriendshipRepo) Create(a, b string, millis int64) error {
	na, nb := model.NormalizePair(a, b)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pairs[[2]string{na, nb}]; !ok {
		r.pairs[[2]string{na, nb}] = millis
	}
	return nil
}

func (r *fakeFriendshipRepo) FindPartners(account string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for pair := range r.pairs {
		if pair[0] == account {
			out = append(out, pair[1])
		}
		if pair[1] == account {
			out = append(out, pair[0])
		}
	}
	return out, nil
}

type fakeFriendRequestRepo struct {
	mu   sync.Mutex
	reqs map[string]*model.FriendRequest
}

func newFakeFriendRequestRepo() *fakeFriendRequestRepo {
	return &fakeFriendRequestRepo{reqs: make(map[string]*model.FriendRequest)}
}

func (r *fakeFriendRequestRepo) Create(req *model.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.reqs[req.Uuid] = &cp
	return nil
}

func (r *fakeFriendRequestRepo) FindByUuid(uuid string) (*model.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.reqs[uuid]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "record not found")
}

func (r *fakeFriendRequestRepo) FindPendingByToAccount(account string) ([]model.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.FriendRequest
	for _, req := range r.reqs {
		if req.ToAccount == account && req.Status == model.RequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeFriendRequestRepo) Transition(uuid string, to int8, millis int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[uuid]
	if !ok || req.Status != model.RequestPending {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = millis
	return true, nil
}

type fakeOfflineRepo struct {
	mu   sync.Mutex
	msgs []*model.OfflineMessage
}

func newFakeOfflineRepo() *fakeOfflineRepo { return &fakeOfflineRepo{} }

func (r *fakeOfflineRepo) Create(msg *model.OfflineMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *fakeOfflineRepo) FindUndelivered(account string) ([]model.OfflineMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OfflineMessage
	for _, m := range r.msgs {
		if m.ToAccount == account && m.Delivered == 0 {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeOfflineRepo) MarkDelivered(uuids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[int64]struct{}, len(uuids))
	for _, u := range uuids {
		set[u] = struct{}{}
	}
	for _, m := range r.msgs {
		if _, ok := set[m.Uuid]; ok {
			m.Delivered = 1
		}
	}
	return nil
}

func (r *fakeOfflineRepo) CountUndelivered(account string) (int64, error) {
	msgs, _ := r.FindUndelivered(account)
	return int64(len(msgs)), nil
}

// ==================== 装配 ====================

type fixture struct {
	registry *presence.Registry
	chars    *fakeCharacterRepo
	svc      *Service
	offline  *fakeOfflineRepo
	requests *fakeFriendRequestRepo
	friends  *fakeFriendshipRepo
}

func setup(t *testing.T) *fixture {
	t.Helper()
	chars := newFakeCharacterRepo()
	friends := newFakeFriendshipRepo()
	requests := newFakeFriendRequestRepo()
	offline := newFakeOfflineRepo()
	registry := presence.NewRegistry(chars)
	svc := NewService(chars, friends, requests, offline, registry, nil)
	return &fixture{
		registry: registry,
		chars:    chars,
		svc:      svc,
		offline:  offline,
		requests: requests,
		friends:  friends,
	}
}

// bringOnline 建会话并上线一个角色
func (f *fixture) bringOnline(t *testing.T, sessionId, userUuid, account, nickname string) *fakeSession {
	t.Helper()
	s := newFakeSession(sessionId)
	f.registry.Attach(s)
	f.registry.BindUser(s, userUuid)
	if _, err := f.registry.BringOnline(s, account, nickname, "", ""); err != nil {
		t.Fatal(err)
	}
	return s
}

// ==================== 用例 ====================

// 检索大小写不敏感，结果携带实时在线状态且不含 bio
func TestSearchCaseInsensitive(t *testing.T) {
	f := setup(t)
	f.bringOnline(t, "s1", "U1", "a_wx", "Alice")

	summary, err := f.svc.Search("A_WX")
	if err != nil {
		t.Fatal(err)
	}
	if summary == nil {
		t.Fatal("expected a match")
	}
	if summary.Nickname != "Alice" || !summary.IsOnline {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	missing, err := f.svc.Search("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected no match")
	}
}

func TestSendMessageRequiresOwnershipAndFriendship(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	f.bringOnline(t, "s2", "U2", "b_wx", "Bob")

	// 未持有 from 账号
	if _, err := f.svc.SendMessage(alice, "b_wx", "a_wx", "hi"); errorx.GetCode(err) != errorx.CodeForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}

	// 不是好友
	if _, err := f.svc.SendMessage(alice, "a_wx", "b_wx", "hi"); errorx.GetCode(err) != errorx.CodeForbidden {
		t.Fatalf("expected Forbidden without friendship, got %v", err)
	}
}

// 在线直投：对端立即收到，回显状态为 delivered，不产生离线消息
func TestSendMessageDelivered(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	bob := f.bringOnline(t, "s2", "U2", "b_wx", "Bob")
	f.friends.Create("a_wx", "b_wx", 1)

	echo, err := f.svc.SendMessage(alice, "a_wx", "b_wx", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if echo.Status != respond.StatusDelivered {
		t.Fatalf("expected delivered, got %s", echo.Status)
	}

	got := bob.framesOfType(func(fr interface{}) bool {
		_, ok := fr.(respond.DirectMessageFrame)
		return ok
	})
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 message frame, got %d", len(got))
	}
	if cnt, _ := f.offline.CountUndelivered("b_wx"); cnt != 0 {
		t.Fatalf("no offline message expected, got %d", cnt)
	}
}

// 离线入队 + 重连补投恰好一次
func TestOfflineMessageDeliveryOnReconnect(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	bob := f.bringOnline(t, "s2", "U2", "b_wx", "Bob")
	f.friends.Create("a_wx", "b_wx", 1)

	// bob 断开
	f.registry.Detach(bob)

	echo, err := f.svc.SendMessage(alice, "a_wx", "b_wx", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if echo.Status != respond.StatusQueued {
		t.Fatalf("expected queued, got %s", echo.Status)
	}

	// bob 重连并恢复
	bob2 := newFakeSession("s3")
	f.registry.Attach(bob2)
	f.registry.BindUser(bob2, "U2")
	restored, err := f.registry.Restore(bob2, "U2")
	if err != nil || len(restored) != 1 {
		t.Fatalf("restore failed: %v %v", restored, err)
	}
	f.svc.DeliverPending(bob2, "b_wx")

	got := bob2.framesOfType(func(fr interface{}) bool {
		m, ok := fr.(respond.DirectMessageFrame)
		return ok && m.Content == "hi"
	})
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 delivered message, got %d", len(got))
	}
	if cnt, _ := f.offline.CountUndelivered("b_wx"); cnt != 0 {
		t.Fatalf("expected zero pending after delivery, got %d", cnt)
	}

	// 再补投一次不得重复（已标记 delivered）
	f.svc.DeliverPending(bob2, "b_wx")
	got = bob2.framesOfType(func(fr interface{}) bool {
		m, ok := fr.(respond.DirectMessageFrame)
		return ok && m.Content == "hi"
	})
	if len(got) != 1 {
		t.Fatalf("redelivery after mark: got %d frames", len(got))
	}
}

// 好友申请生命周期：离线补投、双向 accepted 推送、二次处理报错
func TestFriendRequestLifecycle(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	bob := f.bringOnline(t, "s2", "U2", "b_wx", "Bob")

	// bob 离线时发申请：不推送
	f.registry.Detach(bob)
	if err := f.svc.SendFriendRequest(alice, "a_wx", "b_wx", "加个好友"); err != nil {
		t.Fatal(err)
	}

	// bob 上线，补投 pending_friend_requests
	bob2 := newFakeSession("s3")
	f.registry.Attach(bob2)
	f.registry.BindUser(bob2, "U2")
	if _, err := f.registry.Restore(bob2, "U2"); err != nil {
		t.Fatal(err)
	}
	f.svc.DeliverPending(bob2, "b_wx")

	pendings := bob2.framesOfType(func(fr interface{}) bool {
		_, ok := fr.(respond.PendingFriendRequestsFrame)
		return ok
	})
	if len(pendings) != 1 {
		t.Fatalf("expected pending_friend_requests frame, got %d", len(pendings))
	}
	frame := pendings[0].(respond.PendingFriendRequestsFrame)
	if len(frame.Requests) != 1 || frame.Requests[0].From.WxAccount != "a_wx" {
		t.Fatalf("unexpected pending requests: %+v", frame.Requests)
	}
	requestId := frame.Requests[0].RequestId

	// bob 通过：双方收到 accepted，好友关系建立
	if err := f.svc.AcceptFriendRequest(bob2, "b_wx", requestId); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*fakeSession{alice, bob2} {
		accepted := s.framesOfType(func(fr interface{}) bool {
			_, ok := fr.(respond.FriendRequestAcceptedFrame)
			return ok
		})
		if len(accepted) != 1 {
			t.Fatalf("session %s: expected 1 accepted frame, got %d", s.ID(), len(accepted))
		}
	}
	if ok, _ := f.friends.Exists("b_wx", "a_wx"); !ok {
		t.Fatal("friendship must exist symmetrically")
	}

	// 二次通过：状态守卫拒绝
	if err := f.svc.AcceptFriendRequest(bob2, "b_wx", requestId); errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("second accept must fail with NotFound, got %v", err)
	}
}

func TestRejectSendsNoNotification(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	bob := f.bringOnline(t, "s2", "U2", "b_wx", "Bob")

	if err := f.svc.SendFriendRequest(alice, "a_wx", "b_wx", ""); err != nil {
		t.Fatal(err)
	}
	reqs, err := f.svc.PendingRequests(bob, "b_wx")
	if err != nil || len(reqs) != 1 {
		t.Fatalf("pending lookup failed: %v %v", reqs, err)
	}

	before := len(alice.frames)
	if err := f.svc.RejectFriendRequest(bob, "b_wx", reqs[0].RequestId); err != nil {
		t.Fatal(err)
	}
	if len(alice.frames) != before {
		t.Fatal("reject must not notify the requester")
	}
	if ok, _ := f.friends.Exists("a_wx", "b_wx"); ok {
		t.Fatal("reject must not create a friendship")
	}
}

func TestDuplicateFriendRequestWhenAlreadyFriends(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	f.bringOnline(t, "s2", "U2", "b_wx", "Bob")
	f.friends.Create("b_wx", "a_wx", 1)

	err := f.svc.SendFriendRequest(alice, "a_wx", "b_wx", "")
	if errorx.GetCode(err) != errorx.CodeConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestFriendRequestTargetMissing(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")

	err := f.svc.SendFriendRequest(alice, "a_wx", "ghost", "")
	if errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// 确保 uuid 依赖在测试包内也有使用（申请 id 的形状）
func TestRequestIdsAreUuids(t *testing.T) {
	f := setup(t)
	alice := f.bringOnline(t, "s1", "U1", "a_wx", "Alice")
	f.bringOnline(t, "s2", "U2", "b_wx", "Bob")
	if err := f.svc.SendFriendRequest(alice, "a_wx", "b_wx", ""); err != nil {
		t.Fatal(err)
	}
	reqs, _ := f.requests.FindPendingByToAccount("b_wx")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if _, err := uuid.Parse(reqs[0].Uuid); err != nil {
		t.Fatalf("request id is not a uuid: %s", reqs[0].Uuid)
	}
}
