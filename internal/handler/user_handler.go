package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/service"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

type UserHandler struct {
	app *app.App
}

func NewUserHandler(app *app.App) *UserHandler {
	return &UserHandler{
		app: app,
	}
}

// UserRequest serves both create and update. On update an empty password
// keeps the current one and an empty role keeps the current role.
type UserRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Role      string `json:"role"`
}

func (r UserRequest) input() (domain.UserInput, error) {
	var role model.Role
	if r.Role != "" {
		parsed, ok := model.ParseRole(r.Role)
		if !ok {
			return domain.UserInput{}, service.Invalid("unknown role %q", r.Role)
		}
		role = parsed
	}
	return domain.UserInput{
		Username:  r.Username,
		Password:  r.Password,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Address:   r.Address,
		Role:      role,
	}, nil
}

func (h *UserHandler) HandleCreate(ctx *gin.Context) {
	var req UserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	user, err := h.app.AccountService.CreateUser(ctx.Request.Context(), currentCaller(ctx), in)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

func (h *UserHandler) HandleList(ctx *gin.Context) {
	users, err := h.app.AccountService.ListUsers(ctx.Request.Context(), currentCaller(ctx))
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, orEmpty(users))
}

// HandleSearch filters by firstName, lastName and a comma separated roles list.
func (h *UserHandler) HandleSearch(ctx *gin.Context) {
	q := domain.UserSearch{
		FirstName: strings.TrimSpace(ctx.Query("firstName")),
		LastName:  strings.TrimSpace(ctx.Query("lastName")),
	}
	if raw := ctx.Query("roles"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			role, ok := model.ParseRole(part)
			if !ok {
				writeError(ctx, h.app.Logger, service.Invalid("unknown role %q", part))
				return
			}
			q.Roles = append(q.Roles, role)
		}
	}
	users, err := h.app.AccountService.SearchUsers(ctx.Request.Context(), currentCaller(ctx), q)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, orEmpty(users))
}

func (h *UserHandler) HandleGet(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	user, err := h.app.AccountService.GetUser(ctx.Request.Context(), currentCaller(ctx), id)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (h *UserHandler) HandleUpdate(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req UserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBindError(ctx, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	user, err := h.app.AccountService.UpdateUser(ctx.Request.Context(), currentCaller(ctx), id, in)
	if err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (h *UserHandler) HandleDelete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.app.AccountService.DeleteUser(ctx.Request.Context(), currentCaller(ctx), id); err != nil {
		writeError(ctx, h.app.Logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
