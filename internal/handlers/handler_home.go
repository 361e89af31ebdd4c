package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHome reports server liveness.
func getHome(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "Personal Wallet API up"})
}

// RegisterHealthRoutes registers the public health route.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/", getHome)
}
