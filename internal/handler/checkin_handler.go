package handler

import (
	"bump-server/internal/model"
	"bump-server/internal/service"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckInHandler struct {
	service *service.CheckInService
}

func NewCheckInHandler(s *service.CheckInService) *CheckInHandler {
	return &CheckInHandler{service: s}
}

// CheckIn 签到
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	type req struct {
		PlaceID  uint   `json:"place_id" binding:"required"`
		Activity string `json:"activity"`
		Privacy  string `json:"privacy"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	status, err := h.service.CheckIn(c.Request.Context(), userID, r.PlaceID, r.Activity, model.StatusPrivacy(r.Privacy))
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "签到成功", status)
}

// CheckOut 签退
func (h *CheckInHandler) CheckOut(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	statusID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.CheckOut(c.Request.Context(), userID, statusID); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已签退", nil)
}

// ActiveStatuses 好友当前签到
func (h *CheckInHandler) ActiveStatuses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	statuses, err := h.service.ActiveStatuses(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, 0, len(statuses))
	for _, st := range statuses {
		items = append(items, gin.H{
			"status":    st,
			"user_id":   st.UserID,
			"user_name": st.User.DisplayName(),
		})
	}
	response.Success(c, gin.H{
		"count":    len(items),
		"statuses": items,
	})
}
