package routes

import (
	"net/http"

	"code-review-client/controllers"
	"code-review-client/middleware"
	"code-review-client/models"

	"github.com/gin-gonic/gin"
)

// Limits caps login and registration attempts per client IP per minute.
type Limits struct {
	LoginPerMinute    int
	RegisterPerMinute int
}

func SetupRoutes(router *gin.Engine, backend *controllers.Backend, limits Limits) {
	router.Use(middleware.RequestID())

	api := router.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", middleware.NewRateLimiter(limits.RegisterPerMinute).Handler(), backend.Register)
			auth.POST("/login", middleware.NewRateLimiter(limits.LoginPerMinute).Handler(), backend.Login)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"message": "Code review API is running",
			})
		})

		// Protected routes (require authentication)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(backend.Tokens(), backend.UserExists))
		{
			protected.GET("/auth/me", backend.Me)

			submissions := protected.Group("/submissions")
			{
				submissions.GET("", backend.ListSubmissions)
				submissions.GET("/:id", backend.GetSubmission)
				submissions.POST("", backend.CreateSubmission)
				submissions.PUT("/:id", backend.UpdateSubmission)
				submissions.DELETE("/:id", backend.DeleteSubmission)
			}

			reviews := protected.Group("/reviews")
			{
				// Only mentors can review
				reviews.POST("", middleware.RequireRole(models.RoleMentor), backend.CreateReview)
				reviews.GET("/submission/:id", backend.ListReviews)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", backend.GetNotifications)
				notifications.PUT("/:id/read", backend.MarkNotificationRead)
			}

			protected.GET("/tags", backend.GetTags)

			analytics := protected.Group("/analytics")
			{
				analytics.GET("/student", backend.StudentAnalytics)
				analytics.GET("/mentor", backend.MentorAnalytics)
				analytics.GET("/admin", backend.AdminAnalytics)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
}
