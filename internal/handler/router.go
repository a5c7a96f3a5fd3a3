package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/hotel-management/internal/app"
)

func NewRouter(app *app.App) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(app.Logger), gin.Recovery())

	origins := app.Config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(app)
	userHandler := NewUserHandler(app)
	hotelHandler := NewHotelHandler(app)
	roomHandler := NewRoomHandler(app)
	bookingHandler := NewBookingHandler(app)
	managementHandler := NewManagementHandler(app)

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.HandleRegister)
	api.POST("/auth/login", authHandler.HandleLogin)

	protected := api.Group("")
	protected.Use(Auth(app.SessionService, app.Logger))
	protected.POST("/auth/logout", authHandler.HandleLogout)

	users := protected.Group("/users")
	users.GET("", userHandler.HandleList)
	users.POST("", userHandler.HandleCreate)
	users.GET("/search", userHandler.HandleSearch)
	users.GET("/:id", userHandler.HandleGet)
	users.PUT("/:id", userHandler.HandleUpdate)
	users.DELETE("/:id", userHandler.HandleDelete)

	hotels := protected.Group("/hotels")
	hotels.GET("", hotelHandler.HandleList)
	hotels.POST("", hotelHandler.HandleCreate)
	hotels.GET("/:id", hotelHandler.HandleGet)
	hotels.PUT("/:id", hotelHandler.HandleUpdate)
	hotels.DELETE("/:id", hotelHandler.HandleDelete)

	rooms := protected.Group("/rooms")
	rooms.GET("", roomHandler.HandleList)
	rooms.POST("", roomHandler.HandleCreate)
	rooms.GET("/:id", roomHandler.HandleGet)
	rooms.PUT("/:id", roomHandler.HandleUpdate)
	rooms.DELETE("/:id", roomHandler.HandleDelete)

	bookings := protected.Group("/bookings")
	bookings.GET("", bookingHandler.HandleList)
	bookings.POST("", bookingHandler.HandleCreate)
	bookings.GET("/:id", bookingHandler.HandleGet)
	bookings.PUT("/:id", bookingHandler.HandleUpdateStatus)
	bookings.PUT("/:id/cancel", bookingHandler.HandleCancel)
	bookings.DELETE("/:id", bookingHandler.HandleDelete)

	managements := protected.Group("/managements")
	managements.GET("", managementHandler.HandleList)
	managements.POST("", managementHandler.HandleCreate)
	managements.GET("/:id", managementHandler.HandleGet)
	managements.PUT("/:id", managementHandler.HandleUpdate)
	managements.DELETE("/:id", managementHandler.HandleDelete)

	return r
}
