package repository

import (
	"context"
	"errors"

	"bump-server/internal/model"

	"gorm.io/gorm"
)

// FriendLinkRepository 好友边数据仓储
type FriendLinkRepository struct {
	db *gorm.DB
}

func NewFriendLinkRepository(db *gorm.DB) *FriendLinkRepository {
	return &FriendLinkRepository{db: db}
}

// Create 创建一条有向边
func (r *FriendLinkRepository) Create(ctx context.Context, link *model.FriendLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// FindByOwnerAndPeer 查找 owner->peer 的边，不存在时返回 nil, nil
func (r *FriendLinkRepository) FindByOwnerAndPeer(ctx context.Context, ownerID, peerID uint) (*model.FriendLink, error) {
	var link model.FriendLink
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindPair 一次查询取回两个方向的边，(owner_id, peer_id) 唯一索引保证最多两行
func (r *FriendLinkRepository) FindPair(ctx context.Context, a, b uint) ([]model.FriendLink, error) {
	var links []model.FriendLink
	err := r.db.WithContext(ctx).
		Where("(owner_id = ? AND peer_id = ?) OR (owner_id = ? AND peer_id = ?)", a, b, b, a).
		Find(&links).Error
	return links, err
}

// ListInvolving 取回 user 拥有的边和指向 user 的边，同一次读取
func (r *FriendLinkRepository) ListInvolving(ctx context.Context, userID uint) ([]model.FriendLink, error) {
	var links []model.FriendLink
	err := r.db.WithContext(ctx).
		Preload("Peer").
		Where("owner_id = ? OR peer_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

// UpdateIntent 只更新 intent 一列
func (r *FriendLinkRepository) UpdateIntent(ctx context.Context, id uint, intent model.Intent) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.FriendLink{}).
		Where("id = ?", id).
		Update("intent", intent)
	return result.RowsAffected, result.Error
}

// Delete 删除 owner->peer 的边，不影响反方向
func (r *FriendLinkRepository) Delete(ctx context.Context, ownerID, peerID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
		Delete(&model.FriendLink{})
	return result.RowsAffected, result.Error
}
