// Package apigateway assembles the HTTP surface: public auth routes and
// the authenticated transcription API.
package apigateway

import (
	"github.com/gin-gonic/gin"

	"github.com/vinh406/video-transcription-app/internal/auth"
	"github.com/vinh406/video-transcription-app/internal/transcriptionmanagement"
)

// SetupRouter initializes the main Gin router. Everything under /api
// requires a logged-in session.
func SetupRouter(handlers *transcriptionmanagement.Handlers) *gin.Engine {
	router := gin.Default()

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", auth.LoginHandler)
		authRoutes.POST("/logout", auth.LogoutHandler)
	}

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/transcribe", handlers.TranscribeUploadHandler)
		api.POST("/transcribe/youtube", handlers.TranscribeYouTubeHandler)

		transcriptions := api.Group("/transcriptions")
		{
			transcriptions.GET("/:id", handlers.GetTranscriptionHandler)
			transcriptions.POST("/:id/regenerate", handlers.RegenerateHandler)
			transcriptions.DELETE("/:id", handlers.DeleteTranscriptionHandler)
		}

		api.POST("/summarize", handlers.SummarizeHandler)
	}

	return router
}
