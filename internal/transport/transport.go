package transport

import (
	"net/http"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/transport/middleware"
	"github.com/ds124wfegd/imagecaption/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func InitRoutes(h *CaptionHandler, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(), gin.CustomRecovery(recovery))

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "image-caption-service",
			"version": cfg.Server.AppVersion,
		})
	})

	router.SetHTMLTemplate(web.Templates())

	session := router.Group("/", middleware.Session(cfg.App.CookieName, cfg.Session.TTL), middleware.Timeout(cfg.Server.Timeout))
	{
		session.GET("/", h.Page)
		session.POST("/image", h.PageUpload)
		session.POST("/generate", h.PageGenerate)
		session.POST("/copy", h.PageCopy)
		session.POST("/clear", h.PageClear)

		api := session.Group("/api/v1")
		{
			api.GET("/state", h.GetState)
			api.POST("/image", h.UploadImage)
			api.DELETE("/image", h.ClearImage)
			api.POST("/description", h.GenerateDescription)
			api.POST("/description/copy", h.CopyDescription)
			api.GET("/clipboard", h.GetClipboard)
		}
	}

	return router
}

func recovery(c *gin.Context, err any) {
	logrus.WithFields(logrus.Fields{
		"panic": err,
		"path":  c.Request.URL.Path,
	}).Error("Handler panicked")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
