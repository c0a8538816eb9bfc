package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public API under prefix and the Prometheus endpoint at /metrics.
// Guards run before every handler that writes images or studio records.
func RegisterRoutes(r *gin.Engine, prefix string, ops *MetricsHandler, jake *JakeHandler, studios *NailStudioHandler, exports *ExportHandler, guards ...gin.HandlerFunc) {
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guards...), h)
	}

	r.GET("/metrics", ops.Prometheus)

	api := r.Group(prefix)
	api.GET("/health", ops.Health)
	api.GET("/ready", ops.Ready)

	api.GET("/random-jake", jake.Random)
	api.POST("/upload-jake", write(jake.Upload)...)
	api.POST("/upload-multiple", write(jake.UploadMultiple)...)
	api.DELETE("/delete-jake/:number", write(jake.Delete)...)
	api.GET("/jake-stats", jake.Stats)
	api.GET("/images/:filename", jake.Image)

	studioRoutes := api.Group("/nail-studios")
	studioRoutes.GET("", studios.List)
	studioRoutes.POST("", write(studios.Create)...)
	studioRoutes.GET("/stats", studios.Stats)
	studioRoutes.GET("/export", exports.Studios)
	studioRoutes.GET("/:id", studios.Get)
	studioRoutes.PUT("/:id", write(studios.Update)...)
	studioRoutes.PATCH("/:id/survey-status", write(studios.UpdateSurveyStatus)...)
	studioRoutes.DELETE("/:id", write(studios.Delete)...)
}
