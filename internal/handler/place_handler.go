package handler

import (
	"bump-server/internal/model"
	"bump-server/internal/service"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type PlaceHandler struct {
	service *service.PlaceService
}

func NewPlaceHandler(s *service.PlaceService) *PlaceHandler {
	return &PlaceHandler{service: s}
}

// Create 新建地点
func (h *PlaceHandler) Create(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	var in service.PlaceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	place, err := h.service.CreatePlace(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, place)
}

// Get 地点详情
func (h *PlaceHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	place, err := h.service.GetPlace(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, place)
}

// Save 收藏地点
func (h *PlaceHandler) Save(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	type req struct {
		Visibility string `json:"visibility"`
	}
	var r req
	// 请求体可以为空
	_ = c.ShouldBindJSON(&r)
	up, err := h.service.SavePlace(c.Request.Context(), userID, placeID, model.PlaceVisibility(r.Visibility))
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已收藏", up)
}

// ListMine 我的收藏地点
func (h *PlaceHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	places, err := h.service.ListMyPlaces(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, places)
}
