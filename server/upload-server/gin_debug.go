//go:build !release
// +build !release

package main

import (
	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/config"
)

// initializeGin sets up Gin in debug mode for development builds
func initializeGin(_ *config.Config) *gin.Engine {
	// Development builds trust all proxies, like Gin's default
	return gin.New()
}
