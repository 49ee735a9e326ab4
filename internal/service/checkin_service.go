package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/pkg/logger"
	"bump-server/pkg/mq"

	"go.uber.org/zap"
)

// CheckInServiceDeps 签到服务依赖，Activity/Sink 可以为空
type CheckInServiceDeps struct {
	Statuses StatusStore
	Places   PlaceStore
	Links    FriendLinkStore
	Users    UserStore
	Activity ActivityPublisher
	Sink     NotificationSink
	Timeout  time.Duration
}

// CheckInService 签到、签退与好友签到列表
type CheckInService struct {
	statuses StatusStore
	places   PlaceStore
	links    FriendLinkStore
	users    UserStore
	activity ActivityPublisher
	sink     NotificationSink
	timeout  time.Duration
	now      func() time.Time
}

func NewCheckInService(d CheckInServiceDeps) *CheckInService {
	return &CheckInService{
		statuses: d.Statuses,
		places:   d.Places,
		links:    d.Links,
		users:    d.Users,
		activity: d.Activity,
		sink:     d.Sink,
		timeout:  d.Timeout,
		now:      time.Now,
	}
}

// CheckIn 下线旧签到并创建新签到，然后向有边指向签到者的好友分发 check-in 事件
func (s *CheckInService) CheckIn(ctx context.Context, userID, placeID uint, activity string, privacy model.StatusPrivacy) (*model.Status, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if placeID == 0 {
		return nil, invalid("place id is required")
	}
	if privacy == "" {
		privacy = model.PrivacyAll
	}
	if !privacy.Valid() {
		return nil, invalid("unknown privacy %q", privacy)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, storageErr("load place", err)
	}

	status := &model.Status{
		UserID:    userID,
		PlaceID:   placeID,
		Activity:  strings.TrimSpace(activity),
		Privacy:   privacy,
		IsActive:  true,
		Timestamp: s.now(),
	}
	if err := s.statuses.ReplaceActive(ctx, status); err != nil {
		return nil, storageErr("save status", err)
	}
	status.Place = place

	publishActivity(ctx, s.activity, mq.RouteCheckIn, userID, map[string]any{
		"status_id": status.ID,
		"place_id":  placeID,
		"privacy":   string(privacy),
	})

	delivered := s.fanOut(ctx, status)
	logger.Info("用户签到",
		zap.Uint("user_id", userID),
		zap.Uint("place_id", placeID),
		zap.String("privacy", string(privacy)),
		zap.Int("delivered", delivered),
	)
	return status, nil
}

// fanOut 签到已写入，分发失败只记录日志
func (s *CheckInService) fanOut(ctx context.Context, status *model.Status) int {
	if s.sink == nil || s.links == nil {
		return 0
	}
	links, err := s.links.ListInvolving(ctx, status.UserID)
	if err != nil {
		logger.Warn("签到分发读取好友失败", zap.Uint("user_id", status.UserID), zap.Error(err))
		return 0
	}

	// outgoing: 签到者指向对方的边；incoming: 对方指向签到者的边
	outgoing := make(map[uint]*model.FriendLink)
	var incoming []*model.FriendLink
	for i := range links {
		l := &links[i]
		if l.OwnerID == status.UserID {
			outgoing[l.PeerID] = l
		} else if l.PeerID == status.UserID {
			incoming = append(incoming, l)
		}
	}
	if len(incoming) == 0 {
		return 0
	}

	name := "A friend"
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, status.UserID); err == nil {
			name = u.DisplayName()
		}
	}
	placeName := "a place"
	if status.Place != nil && status.Place.Name != "" {
		placeName = status.Place.Name
	}

	delivered := 0
	for _, in := range incoming {
		recipient := in.OwnerID
		ownerEdge := outgoing[recipient]
		view := DeriveMutualIntent(in, ownerEdge)
		if !statusVisibleTo(status.Privacy, ownerEdge, view) {
			continue
		}
		ev := notify.Event{
			Kind:          model.KindCheckIn,
			Title:         "Friend checked in",
			Message:       fmt.Sprintf("%s checked in at %s", name, placeName),
			ActorID:       status.UserID,
			ActorIntended: in.Intent.AtLeastPrivate(),
			Payload: map[string]any{
				"status_id": status.ID,
				"place_id":  status.PlaceID,
				"activity":  status.Activity,
				"mutual":    view.IsMutual,
			},
		}
		if s.sink.Deliver(ctx, recipient, ev) {
			delivered++
		}
	}
	return delivered
}

// CheckOut 结束自己的 active 签到
func (s *CheckInService) CheckOut(ctx context.Context, userID, statusID uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.statuses.Deactivate(ctx, statusID, userID)
	if err != nil {
		return storageErr("deactivate status", err)
	}
	if rows == 0 {
		return notFound("active status %d", statusID)
	}
	publishActivity(ctx, s.activity, mq.RouteCheckOut, userID, map[string]any{"status_id": statusID})
	return nil
}

// ActiveStatuses 好友当前签到，按签到的可见范围和互相意向过滤
func (s *CheckInService) ActiveStatuses(ctx context.Context, viewerID uint) ([]model.Status, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	links, err := s.links.ListInvolving(ctx, viewerID)
	if err != nil {
		return nil, storageErr("list friend links", err)
	}

	outgoing := make(map[uint]*model.FriendLink)
	incoming := make(map[uint]*model.FriendLink)
	for i := range links {
		l := &links[i]
		if l.OwnerID == viewerID {
			outgoing[l.PeerID] = l
		} else if l.PeerID == viewerID {
			incoming[l.OwnerID] = l
		}
	}
	if len(incoming) == 0 {
		return []model.Status{}, nil
	}

	owners := make([]uint, 0, len(incoming))
	for id := range incoming {
		owners = append(owners, id)
	}
	statuses, err := s.statuses.ListActiveByUsers(ctx, owners)
	if err != nil {
		return nil, storageErr("list statuses", err)
	}

	visible := make([]model.Status, 0, len(statuses))
	for _, st := range statuses {
		ownerEdge := incoming[st.UserID]
		view := DeriveMutualIntent(outgoing[st.UserID], ownerEdge)
		if statusVisibleTo(st.Privacy, ownerEdge, view) {
			visible = append(visible, st)
		}
	}
	return visible, nil
}
