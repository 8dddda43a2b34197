// Package router 注册 API 路由。
package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/utkarsh5026/TireNoHire/internal/api/handler"
)

// RegisterRoutes 挂载 /api/v1 下的全部路由
func RegisterRoutes(h *server.Hertz,
	resumeHandler *handler.ResumeHandler,
	jobHandler *handler.JobHandler,
	matchHandler *handler.MatchHandler,
	healthHandler *handler.HealthHandler,
) {
	api := h.Group("/api/v1")

	resumes := api.Group("/resumes")
	resumes.POST("/upload", resumeHandler.Upload)
	resumes.POST("/text", resumeHandler.UploadText)
	resumes.POST("/url", resumeHandler.UploadURL)
	resumes.GET("/:id", resumeHandler.Get)
	resumes.GET("", resumeHandler.List)

	jobs := api.Group("/jobs")
	jobs.POST("/upload", jobHandler.Upload)
	jobs.POST("/text", jobHandler.UploadText)
	jobs.POST("/url", jobHandler.UploadURL)
	jobs.GET("/:id", jobHandler.Get)
	jobs.GET("", jobHandler.List)

	matches := api.Group("/matches")
	matches.POST("", matchHandler.Create)
	matches.POST("/batch", matchHandler.Batch)
	matches.POST("/compare", matchHandler.Compare)
	matches.GET("/:resumeId/:jobId", matchHandler.Get)

	api.GET("/health", healthHandler.Check)
}
