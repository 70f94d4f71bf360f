package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ripple/handlers"
	"ripple/middleware"
	"ripple/token"
)

// SetupRouter wires the HTTP surface. Reads on the post collection are
// public; every mutation goes through the auth middleware.
func SetupRouter(h *handlers.Handler, issuer *token.Issuer) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	auth := middleware.Auth(issuer)
	credLimit := middleware.RateLimit(30, time.Minute)

	users := router.Group("/users")
	{
		users.POST("", credLimit, h.Register)
		users.POST("/login", credLimit, h.Login)
		users.GET("", auth, h.List)
		users.GET("/:idU", auth, h.GetUser)
		users.PATCH("/:idU", auth, h.EditUser)
		users.DELETE("/:idU", auth, h.DeleteUser)
		users.PATCH("/:idU/block", auth, h.ToggleBlock)
		users.PATCH("/:idU/change-profile-picture", auth, h.ChangeProfilePicture)
		users.GET("/:idU/posts", auth, h.ListUserPosts)
		users.GET("/:idU/followers", auth, h.Followers)
		users.GET("/:idU/following", auth, h.Following)
		users.POST("/:idU/follow", auth, h.Follow)
		users.DELETE("/:idU/unfollow", auth, h.Unfollow)
	}

	posts := router.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", auth, h.CreatePost)
		posts.GET("/:idP", auth, h.GetPost)
		posts.PATCH("/:idP", auth, h.EditPost)
		posts.DELETE("/:idP", auth, h.DeletePost)
		posts.POST("/:idP/comments", auth, h.AddComment)
		posts.PUT("/:idP/comments/:idC", auth, h.EditComment)
		posts.DELETE("/:idP/comments/:idC", auth, h.DeleteComment)
		posts.POST("/:idP/likes", auth, h.Like)
		posts.DELETE("/:idP/likes/:idL", auth, h.Unlike)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"msg":     "The API does not recognize the request on " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})

	return router
}
