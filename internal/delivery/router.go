package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Auth       *AuthHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	Cart       *CartHandler
	Addresses  *AddressHandler
}

type RouterConfig struct {
	AllowOrigins []string
	Tokens       TokenParser
	// Health reports storage reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig, h Handlers, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", requestIDKey)
	corsCfg.ExposeHeaders = []string{requestIDKey}
	corsCfg.MaxAge = 12 * time.Hour
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				logger.Errorf("Health check failed: %v", err)
				ErrorResponse(c, http.StatusServiceUnavailable, "Storage unavailable")
				return
			}
		}
		SuccessResponse(c, http.StatusOK, "OK", nil)
	})

	authed := router.Group("", Authenticate(cfg.Tokens, logger))
	admin := authed.Group("", RequireAdmin(logger))

	h.Auth.RegisterRoutes(router)
	h.Products.RegisterRoutes(router, admin)
	h.Categories.RegisterRoutes(router, admin)
	h.Cart.RegisterRoutes(authed)
	h.Addresses.RegisterRoutes(authed)

	return router
}
