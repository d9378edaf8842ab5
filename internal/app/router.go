package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/toolsdir/api/internal/middleware"
)

// Router builds the gin engine serving the API, docs and metrics.
func (a *App) Router() (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(a.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(a.Logger))
	router.Use(middleware.CORS(a.Config.Server.CORSAllowedOrigins))

	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.Routes().Register(router)
	return router, nil
}
