package routes

import (
	"net/http"
	"time"

	"tecnicosrd/handlers"
	"tecnicosrd/middleware"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers sign-up, sign-in and sign-out.
func RegisterAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", hb.Auth.Register)
		auth.POST("/login", hb.Auth.Login)
		auth.POST("/logout", middleware.JWTAuthMiddleware(hb.Authenticator), hb.Auth.Logout)
	}
}

// RegisterUserRoutes registers the self-service account endpoints.
func RegisterUserRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	me := api.Group("/users/me")
	{
		me.Use(middleware.JWTAuthMiddleware(hb.Authenticator))
		me.GET("", hb.Users.GetMe)
		me.PUT("", hb.Users.UpdateMe)
		me.DELETE("", hb.Users.DeleteMe)
		me.PUT("/password", hb.Users.ChangePassword)
	}
}

// RegisterTechnicianRoutes registers the directory. Reads are public, writes need a token.
func RegisterTechnicianRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/specializations", hb.Technicians.Specializations)

	techs := api.Group("/technicians")
	{
		techs.GET("", hb.Technicians.Search)
		techs.GET("/:id", hb.Technicians.Get)
		techs.GET("/:id/availability", hb.Technicians.GetAvailability)
		techs.GET("/:id/slots", hb.Technicians.ListSlots)
		techs.GET("/:id/reviews", hb.Technicians.ListReviews)

		protected := techs.Group("")
		protected.Use(middleware.JWTAuthMiddleware(hb.Authenticator))
		protected.POST("", middleware.RequireRole(models.RoleTechnician), hb.Technicians.Create)
		protected.PUT("/:id", hb.Technicians.Update)
		protected.DELETE("/:id", hb.Technicians.Delete)
		protected.PUT("/:id/availability", hb.Technicians.SetAvailability)
		protected.POST("/:id/image", hb.Technicians.UploadImage)
	}
}

// RegisterBookingRoutes registers the booking flow and the booking lifecycle.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	session := api.Group("/booking/session")
	{
		session.Use(middleware.JWTAuthMiddleware(hb.Authenticator), middleware.RequireRole(models.RoleCustomer, models.RoleTechnician))
		session.POST("", hb.Bookings.StartSession)
		session.PUT("/:id/technician", hb.Bookings.SelectTechnician)
		session.PUT("/:id/slot", hb.Bookings.SelectSlot)
		session.POST("/:id/confirm", hb.Bookings.ConfirmSession)
		session.DELETE("/:id", hb.Bookings.CancelSession)
	}

	bookings := api.Group("/bookings")
	{
		bookings.Use(middleware.JWTAuthMiddleware(hb.Authenticator))
		bookings.GET("", hb.Bookings.List)
		bookings.GET("/:id", hb.Bookings.Get)
		bookings.POST("/:id/confirm", hb.Bookings.Confirm)
		bookings.POST("/:id/start", hb.Bookings.Start)
		bookings.POST("/:id/complete", hb.Bookings.Complete)
		bookings.POST("/:id/cancel", hb.Bookings.Cancel)
		bookings.POST("/:id/review", hb.Bookings.Review)
	}
}

// RegisterGamificationRoutes registers points, leaderboard and rewards.
func RegisterGamificationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	game := api.Group("/gamification")
	{
		game.GET("/leaderboard", hb.Gamification.Leaderboard)
		game.GET("/rewards", hb.Gamification.Rewards)

		protected := game.Group("")
		protected.Use(middleware.JWTAuthMiddleware(hb.Authenticator))
		protected.GET("/me", hb.Gamification.Me)
		protected.GET("/me/history", hb.Gamification.History)
		protected.GET("/me/redemptions", hb.Gamification.Redemptions)
		protected.POST("/rewards/:id/redeem", hb.Gamification.Redeem)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	adminGroup := api.Group("/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware(hb.Authenticator, hb.AdminToken))
		adminGroup.GET("/stats", hb.Admin.Dashboard)
		adminGroup.GET("/users", hb.Admin.ListUsers)
		adminGroup.PUT("/technicians/:id/verify", hb.Admin.VerifyTechnician)
		adminGroup.POST("/rewards", hb.Admin.CreateReward)
		adminGroup.PUT("/rewards/:id", hb.Admin.UpdateReward)
	}
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		state := "ok"
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(code, gin.H{"status": state, "services": status})
	})
	r.GET("/metrics", utils.MetricsHandler())
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, requestsPerMinute int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Device-ID", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler(), middleware.RequestLogger(), utils.MetricsMiddleware())

	RegisterHealthRoute(r)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(requestsPerMinute))
	RegisterAuthRoutes(api, hb)
	RegisterUserRoutes(api, hb)
	RegisterTechnicianRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterGamificationRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}
