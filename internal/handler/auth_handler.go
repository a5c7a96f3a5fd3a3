package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

type AuthHandler struct {
	app *app.App
}

func NewAuthHandler(app *app.App) *AuthHandler {
	return &AuthHandler{
		app: app,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func newSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.ExpiresAt,
		User:      s.User,
	}
}

// HandleRegister always creates a USER; roles are granted by an admin.
func (h *AuthHandler) HandleRegister(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	session, err := h.app.SessionService.Register(ctx.Request.Context(), domain.UserInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, newSessionResponse(session))
}

func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	session, err := h.app.SessionService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	if err := h.app.SessionService.Logout(ctx.Request.Context(), currentCaller(ctx)); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
