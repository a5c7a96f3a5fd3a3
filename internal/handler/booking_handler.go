package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

type BookingHandler struct {
	app *app.App
}

func NewBookingHandler(app *app.App) *BookingHandler {
	return &BookingHandler{
		app: app,
	}
}

// BookingRequest dates are YYYY-MM-DD. UserID defaults to the caller.
type BookingRequest struct {
	UserID       uint   `json:"userId"`
	RoomID       uint   `json:"roomId" binding:"required"`
	CheckInDate  string `json:"checkInDate" binding:"required"`
	CheckOutDate string `json:"checkOutDate" binding:"required"`
}

type BookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, service.Invalid("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func optionalDate(ctx *gin.Context, key string) (time.Time, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return parseDate(key, raw)
}

func bookingFilter(ctx *gin.Context) (repository.BookingFilter, error) {
	var (
		filter repository.BookingFilter
		err    error
	)
	if filter.UserID, err = optionalUint(ctx, "userId"); err != nil {
		return filter, err
	}
	if filter.RoomID, err = optionalUint(ctx, "roomId"); err != nil {
		return filter, err
	}
	if raw := ctx.Query("status"); raw != "" {
		status, ok := model.ParseBookingStatus(raw)
		if !ok {
			return filter, service.Invalid("unknown booking status %q", raw)
		}
		filter.Status = status
	}
	for key, dst := range map[string]*time.Time{
		"checkInFrom":  &filter.CheckInFrom,
		"checkInTo":    &filter.CheckInTo,
		"checkOutFrom": &filter.CheckOutFrom,
		"checkOutTo":   &filter.CheckOutTo,
	} {
		if *dst, err = optionalDate(ctx, key); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

func (h *BookingHandler) HandleCreate(ctx *gin.Context) {
	var req BookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	checkIn, err := parseDate("checkInDate", req.CheckInDate)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	checkOut, err := parseDate("checkOutDate", req.CheckOutDate)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}

	booking, err := h.app.BookingWorkflow.Create(ctx.Request.Context(), currentCaller(ctx), domain.CreateBookingInput{
		UserID:   req.UserID,
		RoomID:   req.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	})
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, newBookingResponse(booking))
}

func (h *BookingHandler) HandleList(ctx *gin.Context) {
	filter, err := bookingFilter(ctx)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	bookings, err := h.app.BookingService.ListBookings(ctx.Request.Context(), currentCaller(ctx), filter)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, mapSlice(bookings, newBookingResponse))
}

func (h *BookingHandler) HandleGet(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	booking, err := h.app.BookingService.GetBooking(ctx.Request.Context(), currentCaller(ctx), id)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, newBookingResponse(booking))
}

func (h *BookingHandler) HandleUpdateStatus(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req BookingStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	status, ok := model.ParseBookingStatus(req.Status)
	if !ok {
		writeError(ctx, h.app.Logger, service.Invalid("unknown booking status %q", req.Status))
		return
	}
	booking, err := h.app.BookingWorkflow.UpdateStatus(ctx.Request.Context(), currentCaller(ctx), id, status)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, newBookingResponse(booking))
}

func (h *BookingHandler) HandleCancel(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	booking, err := h.app.BookingWorkflow.Cancel(ctx.Request.Context(), currentCaller(ctx), id)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, newBookingResponse(booking))
}

func (h *BookingHandler) HandleDelete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.app.BookingWorkflow.Delete(ctx.Request.Context(), currentCaller(ctx), id); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
