package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

type HotelHandler struct {
	app *app.App
}

func NewHotelHandler(app *app.App) *HotelHandler {
	return &HotelHandler{
		app: app,
	}
}

type HotelRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (r HotelRequest) input() domain.HotelInput {
	return domain.HotelInput{Name: r.Name, Address: r.Address, Phone: r.Phone, Email: r.Email}
}

func (h *HotelHandler) HandleCreate(ctx *gin.Context) {
	var req HotelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	hotel, err := h.app.HotelService.CreateHotel(ctx.Request.Context(), currentCaller(ctx), req.input())
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, hotel)
}

func (h *HotelHandler) HandleList(ctx *gin.Context) {
	hotels, err := h.app.HotelService.ListHotels(ctx.Request.Context(), currentCaller(ctx))
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, orEmpty(hotels))
}

func (h *HotelHandler) HandleGet(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	hotel, err := h.app.HotelService.GetHotel(ctx.Request.Context(), currentCaller(ctx), id)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, hotel)
}

func (h *HotelHandler) HandleUpdate(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req HotelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	hotel, err := h.app.HotelService.UpdateHotel(ctx.Request.Context(), currentCaller(ctx), id, req.input())
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, hotel)
}

func (h *HotelHandler) HandleDelete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.app.HotelService.DeleteHotel(ctx.Request.Context(), currentCaller(ctx), id); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
