package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/repository"
)

type ManagementHandler struct {
	app *app.App
}

func NewManagementHandler(app *app.App) *ManagementHandler {
	return &ManagementHandler{
		app: app,
	}
}

type ManagementRequest struct {
	HotelID uint `json:"hotelId" binding:"required"`
	UserID  uint `json:"userId" binding:"required"`
}

func (h *ManagementHandler) HandleCreate(ctx *gin.Context) {
	var req ManagementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	link, err := h.app.ManagementService.CreateManagement(ctx.Request.Context(), currentCaller(ctx), req.HotelID, req.UserID)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, link)
}

func (h *ManagementHandler) HandleList(ctx *gin.Context) {
	var filter repository.ManagementFilter
	var err error
	if filter.HotelID, err = optionalUint(ctx, "hotelId"); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	if filter.UserID, err = optionalUint(ctx, "userId"); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	links, err := h.app.ManagementService.ListManagements(ctx.Request.Context(), currentCaller(ctx), filter)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, orEmpty(links))
}

func (h *ManagementHandler) HandleGet(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	link, err := h.app.ManagementService.GetManagement(ctx.Request.Context(), currentCaller(ctx), id)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, link)
}

func (h *ManagementHandler) HandleUpdate(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req ManagementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	link, err := h.app.ManagementService.UpdateManagement(ctx.Request.Context(), currentCaller(ctx), id, req.HotelID, req.UserID)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, link)
}

func (h *ManagementHandler) HandleDelete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.app.ManagementService.DeleteManagement(ctx.Request.Context(), currentCaller(ctx), id); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
