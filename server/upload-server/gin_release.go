//go:build release
// +build release

package main

import (
	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/config"
)

// initializeGin sets up Gin in release mode for production builds
func initializeGin(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if len(cfg.TrustedProxies) > 0 {
		router.SetTrustedProxies(cfg.TrustedProxies)
	} else {
		// No proxy is trusted unless configured
		router.SetTrustedProxies(nil)
	}

	return router
}
