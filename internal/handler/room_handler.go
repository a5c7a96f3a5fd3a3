package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

type RoomHandler struct {
	app *app.App
}

func NewRoomHandler(app *app.App) *RoomHandler {
	return &RoomHandler{
		app: app,
	}
}

// RoomRequest has no availability field: only bookings move it.
type RoomRequest struct {
	RoomNumber    string          `json:"roomNumber" binding:"required"`
	RoomType      string          `json:"roomType" binding:"required"`
	Capacity      int             `json:"capacity" binding:"required"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	HotelID       uint            `json:"hotelId" binding:"required"`
}

func (r RoomRequest) input() domain.RoomInput {
	return domain.RoomInput{
		RoomNumber:    r.RoomNumber,
		RoomType:      r.RoomType,
		Capacity:      r.Capacity,
		PricePerNight: r.PricePerNight,
		HotelID:       r.HotelID,
	}
}

func roomFilter(ctx *gin.Context) (repository.RoomFilter, error) {
	var filter repository.RoomFilter
	hotelID, err := optionalUint(ctx, "hotelId")
	if err != nil {
		return filter, err
	}
	filter.HotelID = hotelID
	filter.RoomType = strings.TrimSpace(ctx.Query("roomType"))
	if raw := ctx.Query("isAvailable"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, service.Invalid("isAvailable must be true or false")
		}
		filter.IsAvailable = &available
	}
	return filter, nil
}

func (h *RoomHandler) HandleCreate(ctx *gin.Context) {
	var req RoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	room, err := h.app.RoomService.CreateRoom(ctx.Request.Context(), currentCaller(ctx), req.input())
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, newRoomResponse(room))
}

func (h *RoomHandler) HandleList(ctx *gin.Context) {
	filter, err := roomFilter(ctx)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	rooms, err := h.app.RoomService.ListRooms(ctx.Request.Context(), currentCaller(ctx), filter)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, mapSlice(rooms, newRoomResponse))
}

func (h *RoomHandler) HandleGet(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	room, err := h.app.RoomService.GetRoom(ctx.Request.Context(), currentCaller(ctx), id)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, newRoomResponse(room))
}

func (h *RoomHandler) HandleUpdate(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req RoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	room, err := h.app.RoomService.UpdateRoom(ctx.Request.Context(), currentCaller(ctx), id, req.input())
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, newRoomResponse(room))
}

func (h *RoomHandler) HandleDelete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.app.RoomService.DeleteRoom(ctx.Request.Context(), currentCaller(ctx), id); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
