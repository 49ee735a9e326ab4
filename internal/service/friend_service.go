package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/pkg/logger"
	"bump-server/pkg/metrics"
	"bump-server/pkg/mq"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FriendServiceDeps 好友服务的依赖，Feed/Activity/Presence/Sink 可以为空
type FriendServiceDeps struct {
	Links    FriendLinkStore
	Users    UserStore
	Places   PlaceStore
	Statuses StatusStore
	Feed     ChangePublisher
	Activity ActivityPublisher
	Presence PresenceChecker
	Sink     NotificationSink
	Timeout  time.Duration
}

// FriendService 好友关系与互相意向
type FriendService struct {
	links    FriendLinkStore
	users    UserStore
	places   PlaceStore
	statuses StatusStore
	feed     ChangePublisher
	activity ActivityPublisher
	presence PresenceChecker
	sink     NotificationSink
	timeout  time.Duration
}

func NewFriendService(d FriendServiceDeps) *FriendService {
	return &FriendService{
		links:    d.Links,
		users:    d.Users,
		places:   d.Places,
		statuses: d.Statuses,
		feed:     d.Feed,
		activity: d.Activity,
		presence: d.Presence,
		sink:     d.Sink,
		timeout:  d.Timeout,
	}
}

// FriendView 好友列表项：边、对方资料、互相意向与在线状态
type FriendView struct {
	Link   model.FriendLink
	Mutual model.MutualIntentView
	Online bool
}

// FriendProfile 好友主页；Places/Statuses 仅在可见时填充
type FriendProfile struct {
	User     *model.User
	Mutual   model.MutualIntentView
	Visible  bool
	Places   []model.UserPlace
	Statuses []model.Status
}

// AddFriend 创建 owner->peer 的边（intent=off），并通知对方
func (s *FriendService) AddFriend(ctx context.Context, ownerID, peerID uint) (*model.FriendLink, error) {
	if err := requireUser(ownerID); err != nil {
		return nil, err
	}
	if peerID == 0 {
		return nil, invalid("peer id is required")
	}
	if ownerID == peerID {
		return nil, invalid("cannot add yourself as a friend")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	peer, err := s.users.GetByID(ctx, peerID)
	if err != nil {
		return nil, storageErr("load peer", err)
	}

	pair, err := s.links.FindPair(ctx, ownerID, peerID)
	if err != nil {
		return nil, storageErr("load friend links", err)
	}
	existing, reverse := splitPair(pair, ownerID, peerID)
	if existing != nil {
		return nil, invalid("user %d is already a friend", peerID)
	}

	link := &model.FriendLink{OwnerID: ownerID, PeerID: peerID, Intent: model.IntentOff}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("user %d is already a friend", peerID)
		}
		return nil, storageErr("create friend link", err)
	}
	link.Peer = peer

	publishChange(ctx, s.feed, model.LinkCreated, link)
	publishActivity(ctx, s.activity, mq.RouteFriendAdded, ownerID, map[string]any{"peer_id": peerID})

	if s.sink != nil {
		name := "Someone"
		if owner, err := s.users.GetByID(ctx, ownerID); err == nil {
			name = owner.DisplayName()
		}
		s.sink.Deliver(ctx, peerID, notify.Event{
			Kind:          model.KindFriendRequest,
			Title:         "New friend",
			Message:       fmt.Sprintf("%s added you as a friend", name),
			ActorID:       ownerID,
			ActorIntended: reverse.IntentOrOff().AtLeastPrivate(),
			Payload:       map[string]any{"user_id": ownerID, "already_friends": reverse != nil},
		})
	}

	logger.Info("添加好友", zap.Uint("owner_id", ownerID), zap.Uint("peer_id", peerID))
	return link, nil
}

// Unfriend 只删除 owner 自己的边，对方的边保持不变
func (s *FriendService) Unfriend(ctx context.Context, ownerID, peerID uint) error {
	if err := requireUser(ownerID); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.links.Delete(ctx, ownerID, peerID)
	if err != nil {
		return storageErr("delete friend link", err)
	}
	if rows == 0 {
		return notFound("friend link %d->%d", ownerID, peerID)
	}

	publishChange(ctx, s.feed, model.LinkDeleted, &model.FriendLink{OwnerID: ownerID, PeerID: peerID, Intent: model.IntentOff})
	publishActivity(ctx, s.activity, mq.RouteFriendRemoved, ownerID, map[string]any{"peer_id": peerID})

	logger.Info("删除好友", zap.Uint("owner_id", ownerID), zap.Uint("peer_id", peerID))
	return nil
}

// SetIntent 设置 owner 对 peer 的意向，只写 owner 自己的那一行
// 与当前值相同时不写库，重复调用结果一致
func (s *FriendService) SetIntent(ctx context.Context, ownerID, peerID uint, intent model.Intent) (*model.FriendLink, error) {
	if err := requireUser(ownerID); err != nil {
		return nil, err
	}
	if !intent.Valid() {
		return nil, invalid("unknown intent %q", intent)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	link, err := s.links.FindByOwnerAndPeer(ctx, ownerID, peerID)
	if err != nil {
		return nil, storageErr("load friend link", err)
	}
	if link == nil {
		return nil, notFound("friend link %d->%d", ownerID, peerID)
	}
	if link.Intent == intent {
		return link, nil
	}

	rows, err := s.links.UpdateIntent(ctx, link.ID, intent)
	if err != nil {
		return nil, storageErr("update intent", err)
	}
	if rows == 0 {
		// 行可能在读取之后被删除
		again, err := s.links.FindByOwnerAndPeer(ctx, ownerID, peerID)
		if err != nil {
			return nil, storageErr("reload friend link", err)
		}
		if again == nil {
			return nil, notFound("friend link %d->%d", ownerID, peerID)
		}
	}
	link.Intent = intent

	metrics.IncIntentUpdate(string(intent))
	publishChange(ctx, s.feed, model.LinkUpdated, link)
	publishActivity(ctx, s.activity, mq.RouteIntentUpdated, ownerID, map[string]any{
		"peer_id": peerID,
		"intent":  string(intent),
	})

	logger.Info("更新偶遇意向",
		zap.Uint("owner_id", ownerID),
		zap.Uint("peer_id", peerID),
		zap.String("intent", string(intent)),
	)
	return link, nil
}

// EvaluateMutualIntent 一次读取两条边后计算视图，缺失的边按 off 处理
func (s *FriendService) EvaluateMutualIntent(ctx context.Context, viewerID, peerID uint) (model.MutualIntentView, error) {
	if err := requireUser(viewerID); err != nil {
		return model.MutualIntentView{}, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	pair, err := s.links.FindPair(ctx, viewerID, peerID)
	if err != nil {
		return model.MutualIntentView{}, storageErr("load friend links", err)
	}
	viewerEdge, peerEdge := splitPair(pair, viewerID, peerID)
	return DeriveMutualIntent(viewerEdge, peerEdge), nil
}

// CanViewContent viewer 能否查看 peer 的地点与签到
func (s *FriendService) CanViewContent(ctx context.Context, viewerID, peerID uint) (bool, error) {
	view, err := s.EvaluateMutualIntent(ctx, viewerID, peerID)
	if err != nil {
		return false, err
	}
	return ContentVisible(view), nil
}

// ListFriends 列出 owner 的好友；反向边与正向边来自同一次查询
func (s *FriendService) ListFriends(ctx context.Context, ownerID uint) ([]FriendView, error) {
	if err := requireUser(ownerID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	links, err := s.links.ListInvolving(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list friend links", err)
	}

	incoming := make(map[uint]*model.FriendLink)
	for i := range links {
		if links[i].PeerID == ownerID {
			incoming[links[i].OwnerID] = &links[i]
		}
	}

	views := make([]FriendView, 0, len(links))
	for i := range links {
		out := &links[i]
		if out.OwnerID != ownerID {
			continue
		}
		views = append(views, FriendView{
			Link:   *out,
			Mutual: DeriveMutualIntent(out, incoming[out.PeerID]),
			Online: s.isOnline(ctx, out.PeerID),
		})
	}
	return views, nil
}

func (s *FriendService) isOnline(ctx context.Context, userID uint) bool {
	if s.presence == nil {
		return false
	}
	online, err := s.presence.IsUserOnline(ctx, userID)
	if err != nil {
		logger.Warn("查询在线状态失败", zap.Uint("user_id", userID), zap.Error(err))
		return false
	}
	return online
}

// FriendProfile 好友主页，地点与签到只在 CanViewContent 为真时返回
func (s *FriendService) FriendProfile(ctx context.Context, viewerID, peerID uint) (*FriendProfile, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, peerID)
	if err != nil {
		return nil, storageErr("load peer", err)
	}

	pair, err := s.links.FindPair(ctx, viewerID, peerID)
	if err != nil {
		return nil, storageErr("load friend links", err)
	}
	viewerEdge, peerEdge := splitPair(pair, viewerID, peerID)
	view := DeriveMutualIntent(viewerEdge, peerEdge)

	profile := &FriendProfile{User: user, Mutual: view, Visible: ContentVisible(view)}
	if !profile.Visible {
		return profile, nil
	}

	if s.places != nil {
		places, err := s.places.ListUserPlaces(ctx, peerID, model.VisibilityPublic, model.VisibilityFriends)
		if err != nil {
			return nil, storageErr("list places", err)
		}
		profile.Places = places
	}
	if s.statuses != nil {
		statuses, err := s.statuses.ListActiveByUsers(ctx, []uint{peerID})
		if err != nil {
			return nil, storageErr("list statuses", err)
		}
		for _, st := range statuses {
			if statusVisibleTo(st.Privacy, peerEdge, view) {
				profile.Statuses = append(profile.Statuses, st)
			}
		}
	}
	return profile, nil
}
