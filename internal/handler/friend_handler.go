package handler

import (
	"bump-server/internal/model"
	"bump-server/internal/service"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	service *service.FriendService
}

func NewFriendHandler(s *service.FriendService) *FriendHandler {
	return &FriendHandler{service: s}
}

// AddFriend 添加好友
func (h *FriendHandler) AddFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	type req struct {
		PeerID uint `json:"peer_id" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	link, err := h.service.AddFriend(c.Request.Context(), userID, r.PeerID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "添加好友成功", gin.H{
		"link_id": link.ID,
		"peer_id": link.PeerID,
		"intent":  link.Intent,
	})
}

// Unfriend 删除好友（只删除自己这一侧）
func (h *FriendHandler) Unfriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, ok := uintParam(c, "peer_id")
	if !ok {
		return
	}
	if err := h.service.Unfriend(c.Request.Context(), userID, peerID); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已删除好友", nil)
}

// ListFriends 好友列表
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	views, err := h.service.ListFriends(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]*response.FriendResponse, 0, len(views))
	for i := range views {
		items = append(items, response.FilterFriendLink(&views[i].Link, views[i].Mutual, views[i].Online))
	}
	response.Success(c, gin.H{
		"count":   len(items),
		"friends": items,
	})
}

// SetIntent 设置对某个好友的偶遇意向
func (h *FriendHandler) SetIntent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, ok := uintParam(c, "peer_id")
	if !ok {
		return
	}
	type req struct {
		Intent string `json:"intent" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	link, err := h.service.SetIntent(c.Request.Context(), userID, peerID, model.Intent(r.Intent))
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "意向已更新", gin.H{
		"link_id": link.ID,
		"peer_id": link.PeerID,
		"intent":  link.Intent,
	})
}

// Mutual 与某个好友的互相意向
func (h *FriendHandler) Mutual(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, ok := uintParam(c, "peer_id")
	if !ok {
		return
	}
	view, err := h.service.EvaluateMutualIntent(c.Request.Context(), userID, peerID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"peer_id":         peerID,
		"mutual":          view,
		"can_see_content": service.ContentVisible(view),
	})
}

// Profile 好友主页
func (h *FriendHandler) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, ok := uintParam(c, "peer_id")
	if !ok {
		return
	}
	profile, err := h.service.FriendProfile(c.Request.Context(), userID, peerID)
	if err != nil {
		writeError(c, err)
		return
	}
	user := response.FilterUserInfo(profile.User)
	if user != nil {
		user.Email = ""
	}
	response.Success(c, gin.H{
		"user":            user,
		"mutual":          profile.Mutual,
		"can_see_content": profile.Visible,
		"places":          profile.Places,
		"statuses":        profile.Statuses,
	})
}
