package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the service info and health endpoints
func SetupMainHandlers(router *gin.RouterGroup, info map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
