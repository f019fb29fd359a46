package transport

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"net/http"
	"strconv"
	"time"
)

const (
	HeaderAdminToken    = "x-admin-token"
	HeaderWalletSession = "x-wallet-session"
	HeaderRequestID     = "x-request-id"
)

type RouterConfig struct {
	Mode          string
	EnableSwagger bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestIDMiddleware(), MetricsMiddleware(), CORSMiddleware())

	//Swagger only where explicitly enabled
	if cfg.EnableSwagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.NoRoute(NoRouteHandler())

	return engine
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-admin-token, x-wallet-session, x-request-id")

		if c.Request.Method == "OPTIONS" {
			logging.Log.Infof("OPTIONS request received:%s", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logging.Log.Infof("No routed request received for:%s", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "error": "Page not found"})
	}
}

// RequestIDMiddleware echoes the caller's request id or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// AdminAuthMiddleware rejects requests whose admin token header does not
// match. An empty expected token locks the admin surface entirely.
func AdminAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderAdminToken)

		if token == "" || expected == "" || token != expected {
			logging.Log.Warnf("ADMIN: Unauthorized access attempt to %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHORIZED"})
			return
		}
		c.Next()
	}
}
