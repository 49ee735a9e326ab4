package handler

import (
	"bump-server/internal/service"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type MeetupHandler struct {
	service *service.MeetupService
}

func NewMeetupHandler(s *service.MeetupService) *MeetupHandler {
	return &MeetupHandler{service: s}
}

// Log 记录偶遇
func (h *MeetupHandler) Log(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	type req struct {
		FriendName     string `json:"friend_name" binding:"required"`
		PlaceID        uint   `json:"place_id" binding:"required"`
		WasIntentional bool   `json:"was_intentional"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	meetup, err := h.service.LogMeetup(c.Request.Context(), userID, r.FriendName, r.PlaceID, r.WasIntentional)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已记录", meetup)
}

// List 偶遇记录
func (h *MeetupHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetups, err := h.service.ListMeetups(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, meetups)
}
